package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"student_registry_api/internal/api"
	"student_registry_api/internal/app/service"
	"student_registry_api/internal/common"
	"student_registry_api/internal/domain/model"
)

// In-memory repository fakes implementing the domain interfaces, so the
// handler stack runs without Postgres or Redis.

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users = append(r.users, user)
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) ExistsOther(ctx context.Context, column, value, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == value && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeStudentRepo struct {
	mu       sync.Mutex
	students []*model.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{}
}

func (r *fakeStudentRepo) FindAll(ctx context.Context) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeStudentRepo) Create(ctx context.Context, student *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == student.Email {
			return fmt.Errorf("student with given email already exists: %w", common.ErrConflict)
		}
	}
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now
	copied := *student
	r.students = append(r.students, &copied)
	return nil
}

func (r *fakeStudentRepo) Update(ctx context.Context, student *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == student.Email && s.ID != student.ID {
			return fmt.Errorf("student with given email already exists: %w", common.ErrConflict)
		}
	}
	for _, s := range r.students {
		if s.ID == student.ID {
			s.Name = student.Name
			s.Email = student.Email
			s.Gender = student.Gender
			s.UpdatedAt = time.Now()
			student.CreatedAt = s.CreatedAt
			student.UpdatedAt = s.UpdatedAt
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.students {
		if s.ID == id {
			r.students = append(r.students[:i], r.students[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeStudentRepo) ExistsOther(ctx context.Context, column, value, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == value && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]string // token -> user id
	counter int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]string{}}
}

func (r *fakeTokenRepo) Issue(ctx context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	token := fmt.Sprintf("token-%d", r.counter)
	r.tokens[token] = userID
	return token, nil
}

func (r *fakeTokenRepo) Resolve(ctx context.Context, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.tokens[token]
	if !ok {
		return "", common.ErrUnauthorized
	}
	return userID, nil
}

func (r *fakeTokenRepo) RevokeAll(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, owner := range r.tokens {
		if owner == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}

type memStore struct {
	mu   sync.Mutex
	keys []string
}

func (s *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	s.keys = append(s.keys, key)
	return nil
}

// Racing variants hide existing rows from the advisory uniqueness check,
// the way a concurrent write landing between the check and the insert
// would, so duplicates surface only as conflicts from the storage layer.

type racingUserRepo struct{ *fakeUserRepo }

func (racingUserRepo) ExistsOther(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type racingStudentRepo struct{ *fakeStudentRepo }

func (racingStudentRepo) ExistsOther(context.Context, string, string, string) (bool, error) {
	return false, nil
}

type testEnv struct {
	router   http.Handler
	users    *fakeUserRepo
	students *fakeStudentRepo
	tokens   *fakeTokenRepo
	files    *memStore
}

func newTestEnv() *testEnv {
	users := newFakeUserRepo()
	students := newFakeStudentRepo()
	tokens := newFakeTokenRepo()
	files := &memStore{}

	authService := service.NewAuthService(users, tokens, files, "/storage")
	studentService := service.NewStudentService(students)

	return &testEnv{
		router:   api.NewRouter(authService, studentService, tokens, users),
		users:    users,
		students: students,
		tokens:   tokens,
		files:    files,
	}
}

// newRacingTestEnv builds the stack over the racing repository variants.
func newRacingTestEnv() *testEnv {
	users := newFakeUserRepo()
	students := newFakeStudentRepo()
	tokens := newFakeTokenRepo()
	files := &memStore{}

	authService := service.NewAuthService(racingUserRepo{users}, tokens, files, "/storage")
	studentService := service.NewStudentService(racingStudentRepo{students})

	return &testEnv{
		router:   api.NewRouter(authService, studentService, tokens, users),
		users:    users,
		students: students,
		tokens:   tokens,
		files:    files,
	}
}

// doJSON performs a JSON request against the router and decodes the
// envelope into a generic map.
func doJSON(t *testing.T, router http.Handler, method, path string, payload any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	decoded := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

func errorFields(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	fields, ok := body["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors object, got: %v", body)
	}
	return fields
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got: %v", body)
	}
	return data
}
