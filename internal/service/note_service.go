package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"technotes/internal/cache"
	apperrors "technotes/internal/errors"
	"technotes/internal/model"
	"technotes/internal/repository"
)

// NoteView is a note enriched with the owning user's username, the shape the
// list and create responses carry.
type NoteView struct {
	model.Note
	Username string `json:"username"`
}

// UpdateNoteInput carries the full-replace payload for UpdateNote,
// including the owning user.
type UpdateNoteInput struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Text      string
	Completed bool
}

// NoteService handles note operations.
type NoteService interface {
	ListNotes(ctx context.Context) ([]NoteView, error)
	CreateNote(ctx context.Context, userID uuid.UUID, title, text string) (*NoteView, error)
	UpdateNote(ctx context.Context, in UpdateNoteInput) (*model.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) (*model.Note, error)
}

type noteService struct {
	noteRepo repository.NoteRepository
	userRepo repository.UserRepository
	cache    *cache.Client
}

// NewNoteService creates a new note service.
func NewNoteService(noteRepo repository.NoteRepository, userRepo repository.UserRepository, cache *cache.Client) NoteService {
	return &noteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		cache:    cache,
	}
}

// ListNotes returns all notes with the owner's username attached. The
// distinct owner ids resolve in one query instead of one lookup per note.
// An empty collection is an empty list, not an error.
func (s *noteService) ListNotes(ctx context.Context) ([]NoteView, error) {
	if data, _ := s.cache.Get(ctx, notesListKey); data != nil {
		var cached []NoteView
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	notes, err := s.noteRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	views := make([]NoteView, 0, len(notes))
	if len(notes) > 0 {
		usernames, err := s.resolveUsernames(ctx, notes)
		if err != nil {
			return nil, err
		}
		for _, note := range notes {
			views = append(views, NoteView{Note: note, Username: usernames[note.UserID]})
		}
	}

	if payload, err := json.Marshal(views); err == nil {
		_ = s.cache.Set(ctx, notesListKey, payload, listCacheTTL)
	}
	return views, nil
}

// CreateNote persists a new note with completed=false. The owner must
// resolve to an existing user; a dangling reference is an invalid argument,
// not a conflict.
func (s *noteService) CreateNote(ctx context.Context, userID uuid.UUID, title, text string) (*NoteView, error) {
	title = strings.TrimSpace(title)
	if userID == uuid.Nil || title == "" || text == "" {
		return nil, apperrors.ErrAllFieldsRequired
	}

	if err := s.checkTitleFree(ctx, title, uuid.Nil); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidUserRef
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}

	note := &model.Note{
		UserID:    userID,
		Title:     title,
		Text:      text,
		Completed: false,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		if apperrors.IsDuplicateEntry(err) {
			return nil, apperrors.ErrDuplicateTitle
		}
		if apperrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrInvalidUserRef
		}
		return nil, fmt.Errorf("create note: %w", err)
	}

	_ = s.cache.Delete(ctx, notesListKey)
	return &NoteView{Note: *note, Username: owner.Username}, nil
}

// UpdateNote full-replaces all fields of a note, including the owner.
// Keeping the note's own current title succeeds; colliding with a different
// note is a conflict.
func (s *noteService) UpdateNote(ctx context.Context, in UpdateNoteInput) (*model.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == uuid.Nil || in.UserID == uuid.Nil || in.Title == "" || in.Text == "" {
		return nil, apperrors.ErrAllFieldsRequired
	}

	if _, err := s.userRepo.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}

	note, err := s.noteRepo.FindByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}

	if err := s.checkTitleFree(ctx, in.Title, in.ID); err != nil {
		return nil, err
	}

	note.UserID = in.UserID
	note.Title = in.Title
	note.Text = in.Text
	note.Completed = in.Completed

	if err := s.noteRepo.Update(ctx, note); err != nil {
		if apperrors.IsDuplicateEntry(err) {
			return nil, apperrors.ErrDuplicateTitle
		}
		if apperrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}

	_ = s.cache.Delete(ctx, notesListKey)
	return note, nil
}

// DeleteNote removes a note permanently and returns the prior record for
// the confirmation message.
func (s *noteService) DeleteNote(ctx context.Context, id uuid.UUID) (*model.Note, error) {
	if id == uuid.Nil {
		return nil, apperrors.ErrAllFieldsRequired
	}

	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}

	if err := s.noteRepo.Delete(ctx, note); err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}

	_ = s.cache.Delete(ctx, notesListKey)
	return note, nil
}

// checkTitleFree returns a conflict when the title belongs to a note other
// than selfID. Pass uuid.Nil for creations.
func (s *noteService) checkTitleFree(ctx context.Context, title string, selfID uuid.UUID) error {
	existing, err := s.noteRepo.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("check title: %w", err)
	}
	if existing.ID != selfID {
		return apperrors.ErrDuplicateTitle
	}
	return nil
}

// resolveUsernames maps each note's owner id to its username with a single
// batched lookup over the distinct ids.
func (s *noteService) resolveUsernames(ctx context.Context, notes []model.Note) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{}, len(notes))
	ids := make([]uuid.UUID, 0, len(notes))
	for _, note := range notes {
		if _, ok := seen[note.UserID]; ok {
			continue
		}
		seen[note.UserID] = struct{}{}
		ids = append(ids, note.UserID)
	}

	owners, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	usernames := make(map[uuid.UUID]string, len(owners))
	for _, owner := range owners {
		usernames[owner.ID] = owner.Username
	}
	return usernames, nil
}
