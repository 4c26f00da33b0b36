package httpserver

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/util"
)

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a uuid", service.ErrValidation, name)
	}
	return id, nil
}

func decimalQuery(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", service.ErrValidation, name)
	}
	return &d, nil
}

func boolQuery(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", service.ErrValidation, name)
	}
	return &b, nil
}

// pageQuery reads page and the page size from sizeParam.
func pageQuery(c echo.Context, sizeParam string) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	size := util.ParseIntDefault(c.QueryParam(sizeParam), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}

func pageResponse(data any, page, offset, limit int, total int64) map[string]any {
	return map[string]any{
		"data": data,
		"meta": util.Meta(page, limit, offset, total),
	}
}
