package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"technotes/internal/errors"
	"technotes/internal/service"
)

// UserHandler handles user endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
}

// UpdateUserRequest represents a full-replace user update request. All
// fields except password must be resupplied.
type UpdateUserRequest struct {
	ID       string   `json:"id" validate:"required,uuid"`
	Username string   `json:"username" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
	Active   *bool    `json:"active" validate:"required"`
	Password string   `json:"password"`
}

// DeleteUserRequest represents a user deletion request.
type DeleteUserRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// MessageResponse represents a mutation confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListUsers godoc
// @Summary List all users
// @Description Returns every user without the credential field. An empty collection yields an empty array.
// @Tags users
// @Produce json
// @Success 200 {array} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser godoc
// @Summary Create a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
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

	user, err := h.userService.CreateUser(c.Request().Context(), req.Username, req.Password, req.Roles)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, MessageResponse{
		Message: fmt.Sprintf("new user %s created", user.Username),
	})
}

// UpdateUser godoc
// @Summary Update a user
// @Description Full-replace update: username, roles and active must all be resupplied. Password re-hashes only when present.
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateUserRequest true "User data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req UpdateUserRequest
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
			Error: "invalid user id",
			Code:  "INVALID_UUID",
		})
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), service.UpdateUserInput{
		ID:       id,
		Username: req.Username,
		Roles:    req.Roles,
		Active:   *req.Active,
		Password: req.Password,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%s updated", user.Username),
	})
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Fails with 409 while any note still references the user.
// @Tags users
// @Accept json
// @Produce json
// @Param request body DeleteUserRequest true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	var req DeleteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "user id is required",
			Code:  "ALL_FIELDS_REQUIRED",
		})
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid user id",
			Code:  "INVALID_UUID",
		})
	}

	user, err := h.userService.DeleteUser(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("username %s with id %s deleted", user.Username, user.ID),
	})
}
