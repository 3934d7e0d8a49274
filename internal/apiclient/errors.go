package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
)

var (
	ErrNotLoggedIn           = errors.New("not logged in, run login first")
	ErrSessionExpired        = errors.New("session expired, please log in again")
	ErrRequestFailed         = errors.New("request failed")
	ErrRegistrationsConflict = errors.New("schedule has registrations")
)

// APIError - ответ сервера с кодом вне 2xx
type APIError struct {
	StatusCode int
	Message    string
	Fields     []model.FieldError

	// Err - распознанная доменная ошибка, если удалось сопоставить
	Err error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// knownErrors сопоставляются с текстом ответа сервера
var knownErrors = []error{
	model.ErrRejectionReasonRequired,
	model.ErrRegistrationNotFound,
	model.ErrScheduleNotFound,
	model.ErrTutorNotFound,
	model.ErrSessionNotFound,
	model.ErrInvalidTransition,
	model.ErrPaymentNotAllowed,
	model.ErrPaymentFinalized,
	model.ErrPaymentLinkRequired,
	model.ErrMessageRequired,
	model.ErrVersionConflict,
	model.ErrDuplicateSchedule,
	model.ErrSessionInUse,
	model.ErrForbidden,
	model.ErrInvalidCredentials,
}

func newAPIError(code int, message string, fields []model.FieldError) *APIError {
	apiErr := &APIError{StatusCode: code, Message: message, Fields: fields}
	for _, known := range knownErrors {
		if strings.Contains(message, known.Error()) {
			apiErr.Err = known
			break
		}
	}
	if apiErr.Err == nil && code == http.StatusForbidden {
		apiErr.Err = model.ErrForbidden
	}
	return apiErr
}

// IsStatus проверяет HTTP код ошибки API
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
