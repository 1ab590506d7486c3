package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"gestly/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorHandler renders every error returned by a handler or middleware as
// the JSON envelope. Unknown errors become a generic 500 and are logged.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		appErr, ok := common.AsAppError(err)
		switch {
		case ok:
		case errors.As(err, &httpErr):
			appErr = &common.AppError{Status: httpErr.Code, Message: httpMessage(httpErr), Err: err}
		default:
			appErr = common.Internal(err)
		}
		status, message, details := appErr.Status, appErr.Message, appErr.Details
		if appErr.RetryAfter > 0 {
			seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		}

		if status >= http.StatusInternalServerError {
			message = common.MsgInternal
			details = nil
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = common.SendError(c, status, message, details)
		}
		if writeErr != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

func httpMessage(he *echo.HTTPError) string {
	switch he.Code {
	case http.StatusNotFound:
		return "Recurso não encontrado"
	case http.StatusMethodNotAllowed:
		return "Método não permitido"
	case http.StatusUnauthorized:
		return "Não autorizado"
	case http.StatusRequestEntityTooLarge:
		return "Requisição muito grande"
	}
	if msg, ok := he.Message.(string); ok && msg != "" {
		return msg
	}
	return http.StatusText(he.Code)
}
