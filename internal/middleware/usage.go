package middleware

import (
	"time"

	"gestly/internal/caching"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// CountUsage bumps the business' daily counter for each successful request.
// Rejected and failed requests are not counted.
func CountUsage(cache caching.CacheService, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status >= 400 {
				return nil
			}
			p, err := PrincipalFrom(c)
			if err != nil {
				return nil
			}
			if _, err := cache.IncrementUsage(c.Request().Context(), p.BusinessID, nowUTC()); err != nil {
				logger.Warn("usage counter increment failed", zap.String("business_id", p.BusinessID.String()), zap.Error(err))
			}
			return nil
		}
	}
}
