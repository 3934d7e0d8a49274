package httpapi

import (
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const principalKey = "principal"

// authMiddleware проверяет Bearer токен и кладёт Principal в контекст
func (s *Server) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return errMissingToken
			}

			principal, err := s.auth.Authenticate(ctx.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				return errors.Wrap(err, "authenticating request")
			}
			ctx.Set(principalKey, principal)
			return next(ctx)
		}
	}
}

// requireRole пропускает только указанные роли; админ проходит всегда
func requireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, ok := principalFrom(ctx)
			if !ok {
				return errUnauthorized
			}
			if p.IsAdmin() {
				return next(ctx)
			}
			for _, role := range roles {
				if p.Role == role {
					return next(ctx)
				}
			}
			return model.ErrForbidden
		}
	}
}

func principalFrom(ctx echo.Context) (*model.Principal, bool) {
	p, ok := ctx.Get(principalKey).(*model.Principal)
	return p, ok && p != nil
}
