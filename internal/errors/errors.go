package errors

import (
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
)

// Error taxonomy: invalid-argument, conflict and not-found sentinels.
// Every request failure maps to exactly one of them; the handlers never
// expose anything else.
var (
	// ErrAllFieldsRequired is returned when a required field is missing or empty.
	ErrAllFieldsRequired = errors.New("all fields are required")
	// ErrInvalidUserRef is returned when a note points at a user that does not exist.
	ErrInvalidUserRef = errors.New("invalid user id")
	// ErrUserNotFound is returned when a user lookup by id comes back empty.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoteNotFound is returned when a note lookup by id comes back empty.
	ErrNoteNotFound = errors.New("note not found")
	// ErrDuplicateUsername is returned when a username is already taken by another user.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrDuplicateTitle is returned when a note title is already taken by another note.
	ErrDuplicateTitle = errors.New("duplicate note title")
	// ErrUserHasNotes blocks user deletion while notes still reference the user.
	ErrUserHasNotes = errors.New("user has assigned notes")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Not-found surfaces as
// 400 on this transport: the wire contract only carries 400 and 409 failure
// codes for entity operations.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrAllFieldsRequired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALL_FIELDS_REQUIRED")
	case errors.Is(err, ErrInvalidUserRef):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_USER_ID")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrNoteNotFound):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NOTE_NOT_FOUND")
	case errors.Is(err, ErrDuplicateUsername):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_USERNAME")
	case errors.Is(err, ErrDuplicateTitle):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_TITLE")
	case errors.Is(err, ErrUserHasNotes):
		return NewHTTPError(http.StatusConflict, err.Error(), "USER_HAS_NOTES")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// IsDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062). The unique indexes are the source of truth for uniqueness;
// the services' pre-checks are an optimization only, so an insert that loses
// the race still classifies as a conflict.
func IsDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// IsForeignKeyViolation reports whether err is a MySQL foreign-key violation:
// 1451 (parent row still referenced) or 1452 (child references missing parent).
func IsForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1451 || me.Number == 1452)
}
