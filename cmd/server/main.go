package main

import (
	"log"
	"net/http"

	_ "technotes/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"technotes/internal/cache"
	"technotes/internal/config"
	"technotes/internal/db"
	"technotes/internal/handler"
	"technotes/internal/model"
	"technotes/internal/repository"
	"technotes/internal/router"
	"technotes/internal/service"
)

// @title TechNotes API
// @version 1.0
// @description CRUD backend for users and their notes, with username/title uniqueness and a referential-integrity guard.
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	// A store that cannot be reached is fatal: fail fast instead of
	// serving requests that can only error.
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Note{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	noteRepo := repository.NewNoteRepository(gormDB)

	// Initialize services
	userService := service.NewUserService(userRepo, noteRepo, cacheClient, cfg.BcryptCost)
	noteService := service.NewNoteService(noteRepo, userRepo, cacheClient)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	noteHandler := handler.NewNoteHandler(noteService)

	// Register routes
	router.Register(e, userHandler, noteHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
