package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"technotes/internal/config"
	"technotes/internal/db"
	"technotes/internal/model"
	"technotes/internal/repository"
)

// Seeds an initial admin user and a couple of demo notes. Safe to run
// repeatedly: existing records are left alone.
func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Note{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	noteRepo := repository.NewNoteRepository(gormDB)
	ctx := context.Background()

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "changeme"
		log.Println("SEED_ADMIN_PASSWORD not set, using default password")
	}

	admin, created, err := ensureUser(ctx, userRepo, "admin", adminPassword, []string{"Admin"}, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	if created {
		log.Printf("Created admin user %s", admin.ID)
	} else {
		log.Println("Admin user already present")
	}

	demoNotes := []model.Note{
		{Title: "Welcome to TechNotes", Text: "Use POST /notes to assign notes to users.", UserID: admin.ID},
		{Title: "Getting started", Text: "See /swagger/index.html for the API reference.", UserID: admin.ID},
	}
	seeded := 0
	for _, note := range demoNotes {
		created, err := ensureNote(ctx, noteRepo, note)
		if err != nil {
			log.Fatalf("Failed to seed note %q: %v", note.Title, err)
		}
		if created {
			seeded++
		}
	}

	log.Printf("Seed completed: %d demo notes created", seeded)
}

// ensureUser finds a user by username or creates it with a fresh hash.
func ensureUser(ctx context.Context, repo repository.UserRepository, username, password string, roles []string, cost int) (*model.User, bool, error) {
	existing, err := repo.FindByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, false, err
	}
	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
		Active:       true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// ensureNote creates the note unless its title is already taken.
func ensureNote(ctx context.Context, repo repository.NoteRepository, note model.Note) (bool, error) {
	_, err := repo.FindByTitle(ctx, note.Title)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := repo.Create(ctx, &note); err != nil {
		return false, err
	}
	return true, nil
}
