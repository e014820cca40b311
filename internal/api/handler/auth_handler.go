package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"student_registry_api/internal/api/middleware"
	"student_registry_api/internal/app/service"
	"student_registry_api/internal/common"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/profile", h.profile)
	r.Post("/logout", h.logout)
}

type registerPayload struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := decodeRegisterRequest(r)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer cleanup()

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondSuccess(w, http.StatusCreated, "User created successfully", user)
}

// decodeRegisterRequest accepts JSON bodies and, for picture uploads,
// multipart forms. The returned cleanup closes any open upload.
func decodeRegisterRequest(r *http.Request) (service.RegisterRequest, func(), error) {
	cleanup := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return service.RegisterRequest{}, cleanup, err
		}
		req := service.RegisterRequest{
			Name:                 r.FormValue("name"),
			Email:                r.FormValue("email"),
			Password:             r.FormValue("password"),
			PasswordConfirmation: r.FormValue("password_confirmation"),
		}
		if file, header, err := r.FormFile("profile_picture"); err == nil {
			req.Picture = &service.ProfileUpload{
				Filename:    header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
				Reader:      file,
			}
			cleanup = func() { file.Close() }
		}
		return req, cleanup, nil
	}

	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return service.RegisterRequest{}, cleanup, err
	}
	return service.RegisterRequest{
		Name:                 payload.Name,
		Email:                payload.Email,
		Password:             payload.Password,
		PasswordConfirmation: payload.PasswordConfirmation,
	}, cleanup, nil
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		// Unknown email and wrong password answer identically.
		if errors.Is(err, common.ErrInvalidCredentials) {
			common.RespondError(w, http.StatusBadRequest, "Invalid Credentials")
			return
		}
		respondServiceError(w, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, "Logged in successfully", result)
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	common.RespondSuccess(w, http.StatusOK, "", user)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		respondServiceError(w, err)
		return
	}
	common.RespondSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
