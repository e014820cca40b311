package api

import (
	"net/http"
	"time"

	"student_registry_api/internal/api/handler"
	"student_registry_api/internal/api/middleware"
	"student_registry_api/internal/app/service"
	"student_registry_api/internal/domain/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	authService *service.AuthService,
	studentService *service.StudentService,
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	r.Group(func(public chi.Router) {
		authHandler.RegisterPublicRoutes(public)
	})
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator(tokenRepo, userRepo))
		authHandler.RegisterProtectedRoutes(protected)
	})

	// Student routes (public, independent of auth)
	studentHandler := handler.NewStudentHandler(studentService)
	r.Route("/students", studentHandler.RegisterRoutes)

	return r
}
