package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"student_registry_api/internal/common"
	"student_registry_api/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type StudentRepository interface {
	FindAll(ctx context.Context) ([]model.Student, error)
	FindByID(ctx context.Context, id string) (*model.Student, error)
	Create(ctx context.Context, student *model.Student) error
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
	ExistsOther(ctx context.Context, column, value, excludeID string) (bool, error)
}

type pgStudentRepository struct {
	db *sql.DB
}

func NewPgStudentRepository(db *sql.DB) StudentRepository {
	return &pgStudentRepository{db: db}
}

func (r *pgStudentRepository) FindAll(ctx context.Context) ([]model.Student, error) {
	query := `SELECT id, name, email, gender, created_at, updated_at
	          FROM students ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgStudentRepository.FindAll: %w", err)
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Gender, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgStudentRepository.FindAll: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStudentRepository.FindAll: %w", err)
	}
	return students, nil
}

func (r *pgStudentRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	query := `SELECT id, name, email, gender, created_at, updated_at
	          FROM students WHERE id = $1`
	student := &model.Student{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID, &student.Name, &student.Email, &student.Gender, &student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStudentRepository.FindByID: %w", err)
	}
	return student, nil
}

func (r *pgStudentRepository) Create(ctx context.Context, student *model.Student) error {
	query := `INSERT INTO students (id, name, email, gender)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		student.ID, student.Name, student.Email, student.Gender,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("student with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.Create: %w", err)
	}
	return nil
}

// Update replaces all mutable fields of the record.
func (r *pgStudentRepository) Update(ctx context.Context, student *model.Student) error {
	query := `UPDATE students
	          SET name = $1, email = $2, gender = $3, updated_at = now()
	          WHERE id = $4
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		student.Name, student.Email, student.Gender, student.ID,
	).Scan(&student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("student with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStudentRepository.Update: %w", err)
	}
	return nil
}

func (r *pgStudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgStudentRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgStudentRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgStudentRepository) ExistsOther(ctx context.Context, column, value, excludeID string) (bool, error) {
	if column != "email" {
		return false, fmt.Errorf("pgStudentRepository.ExistsOther: unsupported column %q", column)
	}
	query := `SELECT EXISTS (SELECT 1 FROM students WHERE email = $1 AND id <> $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgStudentRepository.ExistsOther: %w", err)
	}
	return exists, nil
}
