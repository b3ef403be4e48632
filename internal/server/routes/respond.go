package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/yz4230/deployboard/internal/entity"
)

var (
	AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	AllowedHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization}
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps err onto the {error} envelope. Invalid input is always a
// 400; anything else uses fallback.
func respondError(c echo.Context, fallback int, err error) error {
	status := fallback
	if errors.Is(err, entity.ErrInvalid) {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}
	return c.JSON(status, &errorResponse{Error: err.Error()})
}

// HandleError renders errors that escape the handlers, such as unknown routes
// or a response that failed to encode, with the same {error} envelope.
func HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("uri", c.Request().RequestURI).Msg("error after response was committed")
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
	}
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, &errorResponse{Error: message})
	}
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to write error response")
	}
}

// preflight answers CORS preflight requests for every API path.
func preflight(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")
	h.Set(echo.HeaderAccessControlAllowMethods, strings.Join(AllowedMethods, ", "))
	h.Set(echo.HeaderAccessControlAllowHeaders, strings.Join(AllowedHeaders, ", "))
	h.Set(echo.HeaderAccessControlMaxAge, "86400")
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
