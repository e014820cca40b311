package middleware

import (
	"context"
	"net/http"
	"strings"

	"student_registry_api/internal/common"
	"student_registry_api/internal/domain/model"
	"student_registry_api/internal/domain/repository"
)

type contextKey string

const userCtxKey contextKey = "currentUser"

// Authenticator resolves the bearer token to a user and stores the
// request-scoped principal in context. Handlers behind it never touch
// tokens themselves.
func Authenticator(tokens repository.TokenRepository, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				common.RespondError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			userID, err := tokens.Resolve(r.Context(), token)
			if err != nil {
				common.RespondError(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				common.RespondError(w, http.StatusUnauthorized, "Unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the authenticated principal placed by Authenticator.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userCtxKey).(*model.User)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
