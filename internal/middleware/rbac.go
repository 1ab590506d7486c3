package middleware

import (
	"gestly/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireRole allows only callers whose role is one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := PrincipalFrom(c)
			if err != nil {
				return err
			}
			if !allowed[p.Role] {
				return common.Forbidden("")
			}
			return next(c)
		}
	}
}

// SessionOnly rejects API key callers. API keys cannot manage credentials.
func SessionOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := PrincipalFrom(c)
			if err != nil {
				return err
			}
			if p.Method != common.AuthMethodSession {
				return common.Forbidden("Operação disponível apenas para usuários autenticados")
			}
			return next(c)
		}
	}
}
