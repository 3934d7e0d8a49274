package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTitleRequired    = errors.New("Schedule title is required")
	ErrTextRequired     = errors.New("Schedule text is required")
	ErrSessionsRequired = errors.New("At least one session is required")
	ErrInvalidSession   = errors.New("Each session requires start date, end date, time, period, capacity (>=1), and tutor")
)

// ValidateSchedule проверяет форму расписания перед сохранением.
// Существование тьюторов проверяется отдельно, на стороне сервиса.
func ValidateSchedule(s *Schedule) error {
	if strings.TrimSpace(s.Title) == "" {
		return NewValidationError(ErrTitleRequired, FieldError{Field: "title", Error: ErrTitleRequired.Error()})
	}
	if strings.TrimSpace(s.Text) == "" {
		return NewValidationError(ErrTextRequired, FieldError{Field: "text", Error: ErrTextRequired.Error()})
	}
	if s.Status != ScheduleStatusDraft && s.Status != ScheduleStatusPublished {
		return NewValidationError(fmt.Errorf("invalid schedule status %q", s.Status),
			FieldError{Field: "status", Error: "must be one of draft, published"})
	}
	if s.Price < 0 {
		return NewValidationError(errors.New("price must not be negative"),
			FieldError{Field: "price", Error: "must be greater than or equal to 0"})
	}
	if len(s.Sessions) == 0 {
		return NewValidationError(ErrSessionsRequired, FieldError{Field: "sessions", Error: ErrSessionsRequired.Error()})
	}

	var fields []FieldError
	for i, sess := range s.Sessions {
		for _, msg := range sessionProblems(sess) {
			fields = append(fields, FieldError{Field: fmt.Sprintf("sessions[%d].%s", i, msg.Field), Error: msg.Error})
		}
	}
	if len(fields) > 0 {
		return NewValidationError(ErrInvalidSession, fields...)
	}
	return nil
}

func sessionProblems(sess Session) []FieldError {
	var problems []FieldError
	if sess.StartDate.IsZero() {
		problems = append(problems, FieldError{Field: "startDate", Error: "is required"})
	}
	if sess.EndDate.IsZero() {
		problems = append(problems, FieldError{Field: "endDate", Error: "is required"})
	}
	if !sess.StartDate.IsZero() && !sess.EndDate.IsZero() && sess.EndDate.Before(sess.StartDate) {
		problems = append(problems, FieldError{Field: "endDate", Error: "must not be before startDate"})
	}
	if strings.TrimSpace(sess.Time) == "" {
		problems = append(problems, FieldError{Field: "time", Error: "is required"})
	}
	if sess.Period <= 0 {
		problems = append(problems, FieldError{Field: "period", Error: "must be greater than 0"})
	}
	if sess.Capacity < 1 {
		problems = append(problems, FieldError{Field: "capacity", Error: "must be at least 1"})
	}
	if sess.TutorID <= 0 {
		problems = append(problems, FieldError{Field: "tutor", Error: "is required"})
	}
	return problems
}
