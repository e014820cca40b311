package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"student_registry_api/internal/common"
	"student_registry_api/internal/common/security"
	"student_registry_api/internal/domain/model"
	"student_registry_api/internal/domain/repository"
	"student_registry_api/internal/platform/storage"
	"student_registry_api/internal/validation"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type AuthService struct {
	userRepo     repository.UserRepository
	tokens       repository.TokenRepository
	files        storage.ObjectStorage
	publicPrefix string
}

func NewAuthService(userRepo repository.UserRepository, tokens repository.TokenRepository, files storage.ObjectStorage, publicPrefix string) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokens:       tokens,
		files:        files,
		publicPrefix: strings.TrimSuffix(publicPrefix, "/"),
	}
}

// ProfileUpload is an optional picture attached to registration.
type ProfileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type RegisterRequest struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Picture              *ProfileUpload
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the data block of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	fields := map[string]string{
		"name":                  req.Name,
		"email":                 req.Email,
		"password":              req.Password,
		"password_confirmation": req.PasswordConfirmation,
	}
	rules := map[string][]validation.Rule{
		"name":                  {validation.Required(), validation.String(), validation.Max(255)},
		"email":                 {validation.Required(), validation.Email(), validation.Unique(s.userRepo, "email")},
		"password":              {validation.Required(), validation.Min(8), validation.Confirmed()},
		"password_confirmation": {validation.Required(), validation.Min(8)},
	}
	errs, err := validation.Evaluate(ctx, fields, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to validate registration: %w", err)
	}
	if errs.Any() {
		return nil, &common.ValidationError{Fields: errs}
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var picturePath *string
	if req.Picture != nil {
		path, err := s.storePicture(ctx, req.Picture)
		if err != nil {
			return nil, fmt.Errorf("failed to store profile picture: %w", err)
		}
		picturePath = &path
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		ProfilePicture: picturePath,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The advisory unique check raced a concurrent registration; the
		// storage constraint won and the response shape stays identical.
		if errors.Is(err, common.ErrConflict) {
			return nil, &common.ValidationError{Fields: map[string][]string{
				"email": {validation.UniqueMessage("email")},
			}}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	fields := map[string]string{"email": req.Email, "password": req.Password}
	rules := map[string][]validation.Rule{
		"email":    {validation.Required()},
		"password": {validation.Required()},
	}
	errs, err := validation.Evaluate(ctx, fields, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to validate login: %w", err)
	}
	if errs.Any() {
		return nil, &common.ValidationError{Fields: errs}
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials // Same answer as a wrong password
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{Token: token, Email: user.Email, Name: user.Name}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Logout revokes every token the user holds, not just the presented one.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// storePicture writes the upload under profile/<unix-ts>_<name> and
// returns the public path. The timestamp prefix mirrors the historical
// naming; a same-second collision overwrites, which is accepted.
func (s *AuthService) storePicture(ctx context.Context, p *ProfileUpload) (string, error) {
	ext := filepath.Ext(p.Filename)
	base := strings.TrimSuffix(filepath.Base(p.Filename), ext)
	name := slug.Make(base)
	if name == "" {
		name = "upload"
	}

	key := fmt.Sprintf("profile/%d_%s%s", time.Now().Unix(), name, strings.ToLower(ext))
	if err := s.files.Put(ctx, key, p.Reader, p.Size, p.ContentType); err != nil {
		return "", err
	}
	return s.publicPrefix + "/" + key, nil
}
