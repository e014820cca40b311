package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"student_registry_api/internal/common/security"
	"student_registry_api/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func registerPayload() map[string]string {
	return map[string]string{
		"name":                  "New User",
		"email":                 "newuser@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	}
}

func seedUser(t *testing.T, env *testEnv, name, email, password string) *model.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	user := &model.User{ID: uuid.NewString(), Name: name, Email: email, HashedPassword: hash}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv()

	w, body := doJSON(t, env.router, http.MethodPost, "/register", map[string]string{}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "error", body["status"])
	fields := errorFields(t, body)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegisterInvalidEmail(t *testing.T) {
	env := newTestEnv()
	payload := registerPayload()
	payload["email"] = "not-an-email"

	w, body := doJSON(t, env.router, http.MethodPost, "/register", payload, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorFields(t, body), "email")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	seedUser(t, env, "Jane", "jane@example.com", "password123")

	payload := registerPayload()
	payload["email"] = "jane@example.com"
	w, body := doJSON(t, env.router, http.MethodPost, "/register", payload, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorFields(t, body), "email")
}

func TestRegisterDuplicateEmailLostRace(t *testing.T) {
	// The advisory check sees nothing, so the duplicate is caught by the
	// storage layer on insert and translated to the same 422.
	env := newRacingTestEnv()
	seedUser(t, env, "Jane", "jane@example.com", "password123")

	payload := registerPayload()
	payload["email"] = "jane@example.com"
	w, body := doJSON(t, env.router, http.MethodPost, "/register", payload, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	fields := errorFields(t, body)
	require.Contains(t, fields, "email")
	assert.Contains(t, fields["email"].([]any), "The email has already been taken.")
}

func TestRegisterPasswordConfirmationMismatch(t *testing.T) {
	env := newTestEnv()
	payload := registerPayload()
	payload["email"] = "mismatch@example.com"
	payload["password_confirmation"] = "different123"

	w, body := doJSON(t, env.router, http.MethodPost, "/register", payload, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorFields(t, body), "password")

	// Nothing was persisted for that email.
	_, err := env.users.FindByEmail(context.Background(), "mismatch@example.com")
	assert.Error(t, err)
}

func TestRegisterSuccess(t *testing.T) {
	env := newTestEnv()

	w, body := doJSON(t, env.router, http.MethodPost, "/register", registerPayload(), "")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "User created successfully", body["message"])

	data := dataObject(t, body)
	assert.Equal(t, "New User", data["name"])
	assert.Equal(t, "newuser@example.com", data["email"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "hashed_password")
	assert.NotContains(t, w.Body.String(), "password123")

	// The stored hash verifies against the plaintext.
	user, err := env.users.FindByEmail(context.Background(), "newuser@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("password123")))
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv()

	w, body := doJSON(t, env.router, http.MethodPost, "/login", map[string]string{}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := errorFields(t, body)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv()
	seedUser(t, env, "Jane", "jane@example.com", "password123")

	w, body := doJSON(t, env.router, http.MethodPost, "/login", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged in successfully", body["message"])
	data := dataObject(t, body)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "jane@example.com", data["email"])
	assert.Equal(t, "Jane", data["name"])
}

func TestLoginFailureIsGeneric(t *testing.T) {
	env := newTestEnv()
	seedUser(t, env, "Jane", "jane@example.com", "password123")

	wrongPassword, _ := doJSON(t, env.router, http.MethodPost, "/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrongpass123",
	}, "")
	unknownEmail, _ := doJSON(t, env.router, http.MethodPost, "/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "password123",
	}, "")

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	// The two failure modes are indistinguishable.
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "Invalid Credentials")
}

func TestProfileRequiresToken(t *testing.T) {
	env := newTestEnv()

	w, _ := doJSON(t, env.router, http.MethodGet, "/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, env.router, http.MethodGet, "/profile", nil, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileReturnsCurrentUser(t *testing.T) {
	env := newTestEnv()
	user := seedUser(t, env, "Jane", "jane@example.com", "password123")
	token, err := env.tokens.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	w, body := doJSON(t, env.router, http.MethodGet, "/profile", nil, token)

	require.Equal(t, http.StatusOK, w.Code)
	data := dataObject(t, body)
	assert.Equal(t, "jane@example.com", data["email"])
	assert.NotContains(t, data, "hashed_password")
}

func TestLogoutRevokesEveryToken(t *testing.T) {
	env := newTestEnv()
	user := seedUser(t, env, "Jane", "jane@example.com", "password123")

	first, err := env.tokens.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	second, err := env.tokens.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	w, body := doJSON(t, env.router, http.MethodPost, "/logout", nil, first)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out successfully", body["message"])

	// Both tokens are dead, not just the one used for logout.
	w, _ = doJSON(t, env.router, http.MethodGet, "/profile", nil, first)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, env.router, http.MethodGet, "/profile", nil, second)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterWithProfilePicture(t *testing.T) {
	env := newTestEnv()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":                  "Pic User",
		"email":                 "pic@example.com",
		"password":              "password123",
		"password_confirmation": "password123",
	}
	for name, value := range fields {
		require.NoError(t, form.WriteField(name, value))
	}
	fw, err := form.CreateFormFile("profile_picture", "My Avatar.PNG")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-image-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, env.files.keys, 1)
	key := env.files.keys[0]
	assert.True(t, strings.HasPrefix(key, "profile/"), key)
	assert.True(t, strings.HasSuffix(key, "_my-avatar.png"), key)

	user, err := env.users.FindByEmail(context.Background(), "pic@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.ProfilePicture)
	assert.Equal(t, "/storage/"+key, *user.ProfilePicture)
}
