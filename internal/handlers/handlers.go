package handlers

import (
	"strconv"
	"strings"
	"time"

	"gestly/internal/common"
	"gestly/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const msgInvalidBody = "Corpo da requisição inválido"

// businessID returns the tenant of the authenticated caller.
func businessID(c echo.Context) (uuid.UUID, error) {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return uuid.Nil, err
	}
	return p.BusinessID, nil
}

// bindBody decodes the JSON body only, ignoring path and query values.
func bindBody(c echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dest); err != nil {
		return common.ValidationError(msgInvalidBody, nil)
	}
	return nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param(name), name)
}

// pagination reads limit and offset from the query string.
func pagination(c echo.Context) (int, int, error) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return 0, 0, err
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return limit, offset, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.FieldError(name, name+" deve ser um número inteiro")
	}
	return n, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, common.FieldError(name, name+" deve ser true ou false")
	}
	return &b, nil
}

// period reads the optional from/to query parameters.
func period(c echo.Context) (*time.Time, *time.Time, error) {
	from, err := common.ParseOptionalTime(c.QueryParam("from"), "from")
	if err != nil {
		return nil, nil, err
	}
	to, err := common.ParseOptionalTime(c.QueryParam("to"), "to")
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil {
		if err := common.ValidateDateRange(*from, *to); err != nil {
			return nil, nil, err
		}
	}
	return from, to, nil
}
