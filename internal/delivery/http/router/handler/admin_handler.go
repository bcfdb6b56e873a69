package handler

import (
	"net/http"

	"shopauth/internal/delivery/http/response"
	"shopauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AdminHandler holds dependencies for the administrative account endpoints.
type AdminHandler struct {
	uc usecase.AuthUsecase
}

// NewAdminHandler is the constructor for AdminHandler, injected by Fx.
func NewAdminHandler(uc usecase.AuthUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

type lockRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// LockAccount locks the target account and severs all its access.
func (h *AdminHandler) LockAccount(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user ID")
	}

	var req lockRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid lock input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.LockAccount(c.Request().Context(), userID, req.Reason); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account locked")
}

// UnlockAccount lifts an administrative lock.
func (h *AdminHandler) UnlockAccount(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user ID")
	}

	if err := h.uc.UnlockAccount(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account unlocked")
}
