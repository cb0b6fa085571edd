package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// intQueryParam reads an integer query parameter, falling back to def when the
// parameter is absent or unparseable.
func intQueryParam(ctx echo.Context, name string, def int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
