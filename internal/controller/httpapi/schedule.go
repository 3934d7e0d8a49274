package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

type scheduleRequest struct {
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Price    int64            `json:"price" validate:"gte=0"`
	Status   string           `json:"status" validate:"omitempty,oneof=draft published"`
	Images   []string         `json:"images" validate:"dive,url"`
	Sessions []sessionRequest `json:"sessions" validate:"dive"`
	Version  int              `json:"version" validate:"gte=0"`
}

type sessionRequest struct {
	ID        string  `json:"id"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Time      string  `json:"time"`
	Period    float64 `json:"period"`
	Capacity  int     `json:"capacity"`
	Tutor     int64   `json:"tutor"`
}

type checkDuplicateRequest struct {
	Text        string `json:"text" validate:"required,notblank"`
	ExcludeSlug string `json:"excludeSlug"`
}

func (s *Server) handleListSchedules(ctx echo.Context) error {
	page, err := s.schedules.List(ctx.Request().Context(), model.ScheduleQuery{
		Search: strings.TrimSpace(ctx.QueryParam("search")),
		Status: model.ScheduleStatus(ctx.QueryParam("status")),
		Page:   pageQuery(ctx),
	})
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, page)
}

func (s *Server) handleGetSchedule(ctx echo.Context) error {
	schedule, err := s.schedules.Get(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, schedule)
}

func (s *Server) handleCreateSchedule(ctx echo.Context) error {
	req, err := bindSchedule(ctx)
	if err != nil {
		return err
	}
	schedule, err := req.toModel()
	if err != nil {
		return err
	}

	created, err := s.schedules.Create(ctx.Request().Context(), schedule)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, created)
}

func (s *Server) handleUpdateSchedule(ctx echo.Context) error {
	req, err := bindSchedule(ctx)
	if err != nil {
		return err
	}
	schedule, err := req.toModel()
	if err != nil {
		return err
	}

	updated, err := s.schedules.Update(ctx.Request().Context(), ctx.Param("slug"), schedule, req.Version)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, updated)
}

func (s *Server) handleDeleteSchedule(ctx echo.Context) error {
	force := false
	if raw := ctx.QueryParam("forceDelete"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "forceDelete must be true or false")
		}
		force = v
	}

	result, err := s.schedules.Delete(ctx.Request().Context(), ctx.Param("slug"), force)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, result)
}

func (s *Server) handleCheckDuplicate(ctx echo.Context) error {
	var req checkDuplicateRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding to checkDuplicateRequest")
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	dup, err := s.schedules.CheckDuplicate(ctx.Request().Context(), req.Text, req.ExcludeSlug)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, echo.Map{"isDuplicate": dup})
}

// bindSchedule принимает JSON или multipart форму, где sessions передаётся JSON строкой
func bindSchedule(ctx echo.Context) (*scheduleRequest, error) {
	req := &scheduleRequest{}
	contentType := ctx.Request().Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		if err := scheduleFromForm(ctx, req); err != nil {
			return nil, err
		}
	} else if err := ctx.Bind(req); err != nil {
		return nil, errors.Wrap(err, "binding to scheduleRequest")
	}

	if err := ctx.Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func scheduleFromForm(ctx echo.Context, req *scheduleRequest) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}

	req.Title = ctx.FormValue("title")
	req.Text = ctx.FormValue("text")
	req.Status = ctx.FormValue("status")
	req.Images = form.Value["images"]

	if raw := ctx.FormValue("price"); raw != "" {
		if req.Price, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return model.NewValidationError(nil, model.FieldError{Field: "price", Error: "must be a number"})
		}
	}
	if raw := ctx.FormValue("version"); raw != "" {
		if req.Version, err = strconv.Atoi(raw); err != nil {
			return model.NewValidationError(nil, model.FieldError{Field: "version", Error: "must be a number"})
		}
	}
	if raw := ctx.FormValue("sessions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Sessions); err != nil {
			return model.NewValidationError(nil, model.FieldError{Field: "sessions", Error: "must be a JSON array"})
		}
	}
	return nil
}

func (r *scheduleRequest) toModel() (*model.Schedule, error) {
	schedule := &model.Schedule{
		Title:  r.Title,
		Text:   r.Text,
		Price:  r.Price,
		Status: model.ScheduleStatus(r.Status),
		Images: r.Images,
	}

	var fields []model.FieldError
	for i, sr := range r.Sessions {
		start, err := parseDate(sr.StartDate)
		if err != nil {
			fields = append(fields, model.FieldError{Field: fmt.Sprintf("sessions[%d].startDate", i), Error: err.Error()})
		}
		end, err := parseDate(sr.EndDate)
		if err != nil {
			fields = append(fields, model.FieldError{Field: fmt.Sprintf("sessions[%d].endDate", i), Error: err.Error()})
		}
		schedule.Sessions = append(schedule.Sessions, model.Session{
			ID:        sr.ID,
			StartDate: start,
			EndDate:   end,
			Time:      sr.Time,
			Period:    sr.Period,
			Capacity:  sr.Capacity,
			TutorID:   sr.Tutor,
		})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(nil, fields...)
	}
	return schedule, nil
}

// parseDate понимает YYYY-MM-DD и RFC3339; пустая строка - нулевая дата
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("must be a date in YYYY-MM-DD format")
	}
	return t.UTC(), nil
}
