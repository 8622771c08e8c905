package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "technotes/internal/errors"
	"technotes/internal/model"
)

func newUserService(userRepo *MockUserRepository, noteRepo *MockNoteRepository) UserService {
	return NewUserService(userRepo, noteRepo, nil, bcrypt.MinCost)
}

func TestCreateUser_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	userRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	user, err := svc.CreateUser(context.Background(), "alice", "s3cret", []string{"Employee"})

	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, []string{"Employee"}, user.Roles)
	assert.True(t, user.Active)

	// The credential is stored hashed, never as the plaintext.
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	// The hash never serializes into API responses.
	payload, err := json.Marshal(user)
	assert.NoError(t, err)
	assert.NotContains(t, string(payload), "s3cret")
	assert.NotContains(t, string(payload), "password")

	userRepo.AssertExpectations(t)
}

func TestCreateUser_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		roles    []string
	}{
		{"empty username", "", "s3cret", []string{"Employee"}},
		{"whitespace username", "   ", "s3cret", []string{"Employee"}},
		{"empty password", "alice", "", []string{"Employee"}},
		{"nil roles", "alice", "s3cret", nil},
		{"empty roles", "alice", "s3cret", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			noteRepo := new(MockNoteRepository)
			svc := newUserService(userRepo, noteRepo)

			user, err := svc.CreateUser(context.Background(), tt.username, tt.password, tt.roles)

			assert.ErrorIs(t, err, apperrors.ErrAllFieldsRequired)
			assert.Nil(t, user)
			userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	existing := &model.User{ID: uuid.New(), Username: "alice"}
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(existing, nil)

	user, err := svc.CreateUser(context.Background(), "alice", "s3cret", []string{"Employee"})

	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
	assert.Nil(t, user)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateRace(t *testing.T) {
	// The pre-check passes but the insert loses the race against a
	// concurrent creation; the unique index violation still classifies
	// as a conflict.
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	userRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Return(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"})

	user, err := svc.CreateUser(context.Background(), "alice", "s3cret", []string{"Employee"})

	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
	assert.Nil(t, user)
}

func TestUpdateUser_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	stored := &model.User{ID: id, Username: "alice", PasswordHash: "oldhash", Roles: []string{"Employee"}, Active: true}
	userRepo.On("FindByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("FindByUsername", mock.Anything, "alicia").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Update", mock.Anything, stored).Return(nil)

	user, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:       id,
		Username: "alicia",
		Roles:    []string{"Employee", "Manager"},
		Active:   false,
	})

	assert.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
	assert.Equal(t, []string{"Employee", "Manager"}, user.Roles)
	assert.False(t, user.Active)

	// No password in the input, so the stored hash stays untouched.
	assert.Equal(t, "oldhash", user.PasswordHash)
	userRepo.AssertExpectations(t)
}

func TestUpdateUser_RehashesSuppliedPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	stored := &model.User{ID: id, Username: "alice", PasswordHash: "oldhash", Roles: []string{"Employee"}, Active: true}
	userRepo.On("FindByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil)
	userRepo.On("Update", mock.Anything, stored).Return(nil)

	user, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:       id,
		Username: "alice",
		Roles:    []string{"Employee"},
		Active:   true,
		Password: "newpass",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, "oldhash", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass")))
}

func TestUpdateUser_SelfRenameSucceeds(t *testing.T) {
	// Resubmitting the user's own current username is not a collision.
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	stored := &model.User{ID: id, Username: "alice", Roles: []string{"Employee"}, Active: true}
	userRepo.On("FindByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil)
	userRepo.On("Update", mock.Anything, stored).Return(nil)

	user, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:       id,
		Username: "alice",
		Roles:    []string{"Employee"},
		Active:   true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	userRepo.AssertExpectations(t)
}

func TestUpdateUser_RenameCollision(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	stored := &model.User{ID: id, Username: "alice", Roles: []string{"Employee"}, Active: true}
	other := &model.User{ID: uuid.New(), Username: "bob"}
	userRepo.On("FindByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("FindByUsername", mock.Anything, "bob").Return(other, nil)

	user, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:       id,
		Username: "bob",
		Roles:    []string{"Employee"},
		Active:   true,
	})

	assert.ErrorIs(t, err, apperrors.ErrDuplicateUsername)
	assert.Nil(t, user)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	userRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.UpdateUser(context.Background(), UpdateUserInput{
		ID:       id,
		Username: "alice",
		Roles:    []string{"Employee"},
		Active:   true,
	})

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Nil(t, user)
}

func TestDeleteUser_BlockedByNotes(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	noteRepo.On("CountByUserID", mock.Anything, id).Return(int64(2), nil)

	user, err := svc.DeleteUser(context.Background(), id)

	assert.ErrorIs(t, err, apperrors.ErrUserHasNotes)
	assert.Nil(t, user)
	userRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUser_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	stored := &model.User{ID: id, Username: "alice"}
	noteRepo.On("CountByUserID", mock.Anything, id).Return(int64(0), nil)
	userRepo.On("FindByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Delete", mock.Anything, stored).Return(nil)

	user, err := svc.DeleteUser(context.Background(), id)

	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, id, user.ID)
	userRepo.AssertExpectations(t)
	noteRepo.AssertExpectations(t)
}

func TestDeleteUser_NotFound(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	id := uuid.New()
	noteRepo.On("CountByUserID", mock.Anything, id).Return(int64(0), nil)
	userRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.DeleteUser(context.Background(), id)

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Nil(t, user)
}

func TestListUsers_Empty(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	userRepo.On("List", mock.Anything).Return([]model.User(nil), nil)

	users, err := svc.ListUsers(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestListUsers_RepoError(t *testing.T) {
	userRepo := new(MockUserRepository)
	noteRepo := new(MockNoteRepository)
	svc := newUserService(userRepo, noteRepo)

	userRepo.On("List", mock.Anything).Return(nil, errors.New("connection refused"))

	users, err := svc.ListUsers(context.Background())

	assert.Error(t, err)
	assert.Nil(t, users)
}
