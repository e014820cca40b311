package service

import (
	"context"
	"errors"
	"fmt"

	"student_registry_api/internal/common"
	"student_registry_api/internal/domain/model"
	"student_registry_api/internal/domain/repository"
	"student_registry_api/internal/validation"

	"github.com/google/uuid"
)

type StudentService struct {
	studentRepo repository.StudentRepository
}

func NewStudentService(studentRepo repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// StudentRequest is the allow-list of client-supplied fields for create
// and update. Update is a full replacement: all three fields are required
// even when unchanged.
type StudentRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
}

func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	students, err := s.studentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	return student, nil
}

func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*model.Student, error) {
	errs, err := s.validate(ctx, req, "")
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return nil, &common.ValidationError{Fields: errs}
	}

	student := &model.Student{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Email:  req.Email,
		Gender: req.Gender,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, &common.ValidationError{Fields: map[string][]string{
				"email": {validation.UniqueMessage("email")},
			}}
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return student, nil
}

func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*model.Student, error) {
	student, err := s.studentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}

	// The uniqueness check exempts this record so re-submitting the
	// current email does not fail.
	errs, err := s.validate(ctx, req, id)
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return nil, &common.ValidationError{Fields: errs}
	}

	student.Name = req.Name
	student.Email = req.Email
	student.Gender = req.Gender
	if err := s.studentRepo.Update(ctx, student); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, &common.ValidationError{Fields: map[string][]string{
				"email": {validation.UniqueMessage("email")},
			}}
		}
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	return student, nil
}

func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func (s *StudentService) validate(ctx context.Context, req StudentRequest, excludeID string) (validation.Errors, error) {
	fields := map[string]string{
		"name":   req.Name,
		"email":  req.Email,
		"gender": req.Gender,
	}
	rules := map[string][]validation.Rule{
		"name":   {validation.Required(), validation.String(), validation.Max(255)},
		"email":  {validation.Required(), validation.Email(), validation.UniqueExcluding(s.studentRepo, "email", excludeID)},
		"gender": {validation.Required(), validation.In(model.Genders...)},
	}
	errs, err := validation.Evaluate(ctx, fields, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to validate student: %w", err)
	}
	return errs, nil
}
