package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"technotes/internal/errors"
	"technotes/internal/service"
)

// NoteHandler handles note endpoints.
type NoteHandler struct {
	noteService service.NoteService
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// CreateNoteRequest represents a note creation request.
type CreateNoteRequest struct {
	UserID string `json:"user" validate:"required,uuid"`
	Title  string `json:"title" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// UpdateNoteRequest represents a full-replace note update request. Every
// field must be resupplied, including the owning user.
type UpdateNoteRequest struct {
	ID        string `json:"id" validate:"required,uuid"`
	UserID    string `json:"user" validate:"required,uuid"`
	Title     string `json:"title" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

// DeleteNoteRequest represents a note deletion request.
type DeleteNoteRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// ListNotes godoc
// @Summary List all notes
// @Description Returns every note with the owner's username attached. An empty collection yields an empty array.
// @Tags notes
// @Produce json
// @Success 200 {array} service.NoteView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	notes, err := h.noteService.ListNotes(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, notes)
}

// CreateNote godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Param request body CreateNoteRequest true "Note data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: errors.ErrAllFieldsRequired.Error(),
			Code:  "ALL_FIELDS_REQUIRED",
		})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid user id",
			Code:  "INVALID_UUID",
		})
	}

	note, err := h.noteService.CreateNote(c.Request().Context(), userID, req.Title, req.Text)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("note %q assigned to %s", note.Title, note.Username),
	})
}

// UpdateNote godoc
// @Summary Update a note
// @Description Full-replace update: user, title, text and completed must all be resupplied.
// @Tags notes
// @Accept json
// @Produce json
// @Param request body UpdateNoteRequest true "Note data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /notes [patch]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: errors.ErrAllFieldsRequired.Error(),
			Code:  "ALL_FIELDS_REQUIRED",
		})
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid note id",
			Code:  "INVALID_UUID",
		})
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid user id",
			Code:  "INVALID_UUID",
		})
	}

	note, err := h.noteService.UpdateNote(c.Request().Context(), service.UpdateNoteInput{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Text:      req.Text,
		Completed: *req.Completed,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("note %q updated", note.Title),
	})
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Accept json
// @Produce json
// @Param request body DeleteNoteRequest true "Note ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /notes [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	var req DeleteNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "note id is required",
			Code:  "ALL_FIELDS_REQUIRED",
		})
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid note id",
			Code:  "INVALID_UUID",
		})
	}

	note, err := h.noteService.DeleteNote(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("note %q deleted", note.Title),
	})
}
