package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"technotes/internal/model"
)

// NoteRepository defines note persistence operations.
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, note *model.Note) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Note, error)
	FindByTitle(ctx context.Context, title string) (*model.Note, error)
	List(ctx context.Context) ([]model.Note, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

// Create creates a new note.
func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// Update saves all fields of an existing note.
func (r *noteRepository) Update(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Save(note).Error
}

// Delete removes a note permanently.
func (r *noteRepository) Delete(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Delete(note).Error
}

// FindByID finds a note by ID.
func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// FindByTitle finds a note by title.
func (r *noteRepository) FindByTitle(ctx context.Context, title string) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// List lists all notes.
func (r *noteRepository) List(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// CountByUserID counts the notes that reference a user. Used as the
// referential guard before user deletion.
func (r *noteRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Note{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
