package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/Freeeeeet/schedule_registrations/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errMissingToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed token")
)

// statusByError - доменные ошибки и их HTTP коды
var statusByError = []struct {
	err  error
	code int
}{
	{model.ErrRegistrationNotFound, http.StatusNotFound},
	{model.ErrScheduleNotFound, http.StatusNotFound},
	{model.ErrTutorNotFound, http.StatusNotFound},
	{model.ErrUserNotFound, http.StatusNotFound},
	{model.ErrSessionNotFound, http.StatusNotFound},
	{model.ErrInvalidTransition, http.StatusConflict},
	{model.ErrPaymentNotAllowed, http.StatusConflict},
	{model.ErrPaymentFinalized, http.StatusConflict},
	{model.ErrVersionConflict, http.StatusConflict},
	{model.ErrDuplicateSchedule, http.StatusConflict},
	{model.ErrSessionInUse, http.StatusConflict},
	{model.ErrForbidden, http.StatusForbidden},
	{model.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
}

// newHTTPErrorHandler переводит ошибки обработчиков в конверт ответа
func newHTTPErrorHandler(logger *zap.Logger, translator func(validator.FieldError) string) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		resp := errorResponse{Status: statusError}
		code := http.StatusInternalServerError

		var (
			httpErr     *echo.HTTPError
			validErrs   validator.ValidationErrors
			domainErr   *model.ValidationError
			conflictErr *model.RegistrationsConflictError
		)

		switch {
		case errors.As(err, &httpErr):
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case errors.As(err, &validErrs):
			code = http.StatusBadRequest
			resp.Message = "validation failed"
			for _, fe := range validErrs {
				resp.Fields = append(resp.Fields, model.FieldError{Field: fe.Field(), Error: translator(fe)})
			}
		case errors.As(err, &domainErr):
			code = http.StatusBadRequest
			resp.Message = domainErr.Error()
			resp.Fields = domainErr.Fields
		case errors.As(err, &conflictErr):
			// клиент узнаёт конфликт по коду 400 и слову registrations
			code = http.StatusBadRequest
			resp.Message = conflictErr.Error()
		default:
			for _, m := range statusByError {
				if errors.Is(err, m.err) {
					code = m.code
					resp.Message = errors.Cause(err).Error()
					break
				}
			}
		}

		if code == http.StatusInternalServerError {
			resp.Message = http.StatusText(code)
			fields := []zap.Field{
				zap.String("method", ctx.Request().Method),
				zap.String("path", ctx.Path()),
				zap.Error(err),
			}
			if p, ok := principalFrom(ctx); ok {
				fields = append(fields, zap.Int64("admin_id", p.AdminID), zap.String("role", string(p.Role)))
			}
			logger.Error("Request failed", fields...)
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			resp.Message = err.Error()
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				logger.Error("Failed to write error response", zap.Error(err))
			}
		}
	}
}
