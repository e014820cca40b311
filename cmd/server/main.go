package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student_registry_api/internal/api"
	"student_registry_api/internal/app/service"
	"student_registry_api/internal/domain/repository"
	"student_registry_api/internal/platform/cache"
	"student_registry_api/internal/platform/config"
	"student_registry_api/internal/platform/database"
	"student_registry_api/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	fmt.Println("Migrations applied.")

	// 3. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 4. Initialize Upload Storage
	files := newObjectStorage()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	studentRepo := repository.NewPgStudentRepository(database.DB)
	tokenRepo := repository.NewRedisTokenRepository(cache.RDB, config.AppConfig.TokenTTL)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, tokenRepo, files, config.AppConfig.UploadPublicPrefix)
	studentService := service.NewStudentService(studentRepo)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(authService, studentService, tokenRepo, userRepo)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}

func newObjectStorage() storage.ObjectStorage {
	cfg := config.AppConfig
	if cfg.StorageBackend == "minio" {
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO storage: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		fmt.Println("MinIO storage ready.")
		return store
	}
	fmt.Println("Filesystem storage ready.")
	return storage.NewFilesystemStore(cfg.UploadDir)
}
