package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"technotes/internal/cache"
	apperrors "technotes/internal/errors"
	"technotes/internal/model"
	"technotes/internal/repository"
)

const (
	listCacheTTL = 5 * time.Minute
	usersListKey = "users:list"
	notesListKey = "notes:list"
)

// UpdateUserInput carries the full-replace payload for UpdateUser. Every
// field except Password must be supplied; a non-empty Password re-hashes
// the stored credential.
type UpdateUserInput struct {
	ID       uuid.UUID
	Username string
	Roles    []string
	Active   bool
	Password string
}

// UserService handles user account operations.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, username, password string, roles []string) (*model.User, error)
	UpdateUser(ctx context.Context, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	noteRepo   repository.NoteRepository
	cache      *cache.Client
	bcryptCost int
}

// NewUserService creates a new user service. bcryptCost below the bcrypt
// minimum falls back to the library default.
func NewUserService(userRepo repository.UserRepository, noteRepo repository.NoteRepository, cache *cache.Client, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		userRepo:   userRepo,
		noteRepo:   noteRepo,
		cache:      cache,
		bcryptCost: bcryptCost,
	}
}

// ListUsers returns all users. The credential hash never serializes, so the
// cached copy is already stripped. An empty collection is an empty list, not
// an error.
func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	if data, _ := s.cache.Get(ctx, usersListKey); data != nil {
		var cached []model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}

	if payload, err := json.Marshal(users); err == nil {
		_ = s.cache.Set(ctx, usersListKey, payload, listCacheTTL)
	}
	return users, nil
}

// CreateUser hashes the password and persists a new active user. The
// username pre-check is an optimization; the unique index catches races.
func (s *userService) CreateUser(ctx context.Context, username, password string, roles []string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || len(roles) == 0 {
		return nil, apperrors.ErrAllFieldsRequired
	}

	if err := s.checkUsernameFree(ctx, username, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if apperrors.IsDuplicateEntry(err) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.invalidateLists(ctx)
	return user, nil
}

// UpdateUser full-replaces the mutable fields of a user. Renaming to the
// user's own current username succeeds; colliding with a different user is
// a conflict. The password re-hashes only when supplied.
func (s *userService) UpdateUser(ctx context.Context, in UpdateUserInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.ID == uuid.Nil || in.Username == "" || len(in.Roles) == 0 {
		return nil, apperrors.ErrAllFieldsRequired
	}

	user, err := s.userRepo.FindByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.checkUsernameFree(ctx, in.Username, in.ID); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Roles = in.Roles
	user.Active = in.Active
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if apperrors.IsDuplicateEntry(err) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	// A rename changes the username denormalized into the note list view.
	s.invalidateLists(ctx)
	return user, nil
}

// DeleteUser removes a user permanently. Deletion is blocked while any note
// still references the user; the check mirrors the store's RESTRICT
// constraint so the conflict surfaces deterministically.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if id == uuid.Nil {
		return nil, apperrors.ErrAllFieldsRequired
	}

	count, err := s.noteRepo.CountByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count notes for user: %w", err)
	}
	if count > 0 {
		return nil, apperrors.ErrUserHasNotes
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.userRepo.Delete(ctx, user); err != nil {
		if apperrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrUserHasNotes
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}

	s.invalidateLists(ctx)
	return user, nil
}

// checkUsernameFree returns a conflict when the username belongs to a user
// other than selfID. Pass uuid.Nil for creations.
func (s *userService) checkUsernameFree(ctx context.Context, username string, selfID uuid.UUID) error {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check username: %w", err)
	}
	if existing.ID != selfID {
		return apperrors.ErrDuplicateUsername
	}
	return nil
}

func (s *userService) invalidateLists(ctx context.Context) {
	_ = s.cache.Delete(ctx, usersListKey)
	_ = s.cache.Delete(ctx, notesListKey)
}
