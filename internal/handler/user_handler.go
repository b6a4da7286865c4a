package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"jobtrackr/internal/auth"
	apperrors "jobtrackr/internal/errors"
	"jobtrackr/internal/service"
)

// UserHandler serves the current user's profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	current, ok := auth.CurrentUser(c)
	if !ok {
		return fail(c, apperrors.ErrAuthRequired)
	}
	user, err := h.svc.Me(c.Request().Context(), current.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
