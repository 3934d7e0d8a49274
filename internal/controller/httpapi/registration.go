package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusRequest struct {
	Status          string `json:"status" validate:"required"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejectionReason"`
	Version         int    `json:"version" validate:"gte=0"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
	Version       int    `json:"version" validate:"gte=0"`
}

type paymentLinkRequest struct {
	PaymentLink string `json:"paymentLink" validate:"omitempty,url"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleListRegistrations(ctx echo.Context) error {
	page, err := s.registrations.List(ctx.Request().Context(), model.RegistrationQuery{
		Status: model.RegistrationStatus(ctx.QueryParam("status")),
		Page:   pageQuery(ctx),
	})
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, page)
}

func (s *Server) handleGetRegistration(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	reg, err := s.registrations.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, viewRegistration(reg))
}

func (s *Server) handleScheduleRegistrations(ctx echo.Context) error {
	scheduleID, err := idParam(ctx, "scheduleId")
	if err != nil {
		return err
	}
	filter, err := filterQuery(ctx)
	if err != nil {
		return err
	}

	result, err := s.registrations.ListBySchedule(ctx.Request().Context(), scheduleID, filter)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, result)
}

func (s *Server) handleTutorRegistrations(ctx echo.Context) error {
	p, ok := principalFrom(ctx)
	if !ok {
		return errUnauthorized
	}
	scheduleID, err := idParam(ctx, "scheduleId")
	if err != nil {
		return err
	}
	filter, err := filterQuery(ctx)
	if err != nil {
		return err
	}

	result, err := s.registrations.ListForTutor(ctx.Request().Context(), p, scheduleID, filter)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, result)
}

func (s *Server) handleCapacity(ctx echo.Context) error {
	scheduleID, err := idParam(ctx, "scheduleId")
	if err != nil {
		return err
	}
	schedule, err := s.registrations.Capacity(ctx.Request().Context(), scheduleID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, schedule)
}

func (s *Server) handleExport(ctx echo.Context) error {
	scheduleID, err := idParam(ctx, "scheduleId")
	if err != nil {
		return err
	}
	filter, err := filterQuery(ctx)
	if err != nil {
		return err
	}

	data, filename, err := s.registrations.Export(ctx.Request().Context(), scheduleID, filter)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleUpdateStatus(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to statusRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	change := model.StatusChange{
		To:              model.RegistrationStatus(req.Status),
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
	}
	// причина может прийти внутри notes, в том виде, как её собирает ComposeNotes
	if change.To == model.RegistrationStatusRejected && strings.TrimSpace(change.RejectionReason) == "" {
		change.RejectionReason, change.Notes = model.SplitNotes(req.Notes)
	}

	reg, err := s.registrations.UpdateStatus(ctx.Request().Context(), id, change, req.Version)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, viewRegistration(reg))
}

func (s *Server) handleUpdatePayment(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var req paymentStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to paymentStatusRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	reg, err := s.registrations.UpdatePaymentStatus(ctx.Request().Context(), id, model.PaymentStatus(req.PaymentStatus), req.Version)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, viewRegistration(reg))
}

func (s *Server) handleSendPaymentLink(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var req paymentLinkRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to paymentLinkRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	reg, err := s.registrations.SendPaymentLink(ctx.Request().Context(), id, req.PaymentLink)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, viewRegistration(reg))
}

func (s *Server) handleSendMessage(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var req messageRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to messageRequest")
	}

	if err := s.registrations.SendMessage(ctx.Request().Context(), id, req.Message); err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, echo.Map{"sent": true})
}
