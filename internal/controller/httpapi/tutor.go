package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type tutorRequest struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"omitempty,email"`
	Bio   string `json:"bio"`
}

func (s *Server) handleListTutors(ctx echo.Context) error {
	tutors, err := s.tutors.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, tutors)
}

func (s *Server) handleGetTutor(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	tutor, err := s.tutors.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, tutor)
}

func (s *Server) handleCreateTutor(ctx echo.Context) error {
	var req tutorRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to tutorRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	tutor, err := s.tutors.Create(ctx.Request().Context(), &model.Tutor{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	})
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, tutor)
}

// handleMySchedules - расписания, где тьютор ведёт хотя бы одну сессию
func (s *Server) handleMySchedules(ctx echo.Context) error {
	p, ok := principalFrom(ctx)
	if !ok {
		return errUnauthorized
	}
	if !p.IsTutor() {
		return model.ErrForbidden
	}

	schedules, err := s.schedules.ListForTutor(ctx.Request().Context(), *p.TutorID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, schedules)
}
