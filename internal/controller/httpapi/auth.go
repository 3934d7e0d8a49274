package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin tutor"`
}

func (s *Server) handleLogin(ctx echo.Context) error {
	var req loginRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	result, err := s.auth.Login(ctx.Request().Context(), req.Email, req.Password, model.Role(req.Role))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, result)
}

func (s *Server) handleMe(ctx echo.Context) error {
	p, ok := principalFrom(ctx)
	if !ok {
		return errUnauthorized
	}
	return respond(ctx, http.StatusOK, p)
}
