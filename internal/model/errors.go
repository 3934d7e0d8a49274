package model

import (
	"errors"
	"fmt"
	"strings"
)

// Доменные ошибки, общие для сервера и клиента
var (
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrScheduleNotFound        = errors.New("schedule not found")
	ErrTutorNotFound           = errors.New("tutor not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrSessionNotFound         = errors.New("session not found")
	ErrInvalidStatus           = errors.New("invalid registration status")
	ErrInvalidPaymentStatus    = errors.New("invalid payment status")
	ErrInvalidTransition       = errors.New("status transition is not allowed")
	ErrRejectionReasonRequired = errors.New("Rejection reason is required")
	ErrPaymentNotAllowed       = errors.New("payment status can only change for approved registrations")
	ErrPaymentFinalized        = errors.New("payment is already finalized")
	ErrPaymentLinkRequired     = errors.New("payment link is required")
	ErrMessageRequired         = errors.New("Message cannot be empty")
	ErrVersionConflict         = errors.New("record was modified by someone else, reload and retry")
	ErrDuplicateSchedule       = errors.New("a schedule with similar content already exists")
	ErrSessionInUse            = errors.New("session has active registrations and cannot be removed")
	ErrForbidden               = errors.New("permission denied")
	ErrInvalidCredentials      = errors.New("invalid email or password")
)

// FieldError описывает ошибку конкретного поля формы
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError - ошибка валидации до любого обращения к хранилищу или сети
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RegistrationsConflictError возвращается при удалении расписания с активными записями
type RegistrationsConflictError struct {
	Count int
}

func (e *RegistrationsConflictError) Error() string {
	return fmt.Sprintf("schedule has %d active registrations; retry with forceDelete=true", e.Count)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
