// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/pkg/errutil"
)

// handleError implements echo.HTTPErrorHandler. Infrastructure failures
// become 503 so they are never mistaken for a credential rejection.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Something went wrong."

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = http.StatusText(status)
	case errors.Is(err, auth.ErrUnavailable):
		status = http.StatusServiceUnavailable
		message = msgUnavailable
	}

	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request().Context(), s.logger, "request failed", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status) //nolint:errcheck // nothing left to report to
		return
	}
	if renderErr := s.render(c, status, "error.html", http.StatusText(status), page{Message: message}); renderErr != nil {
		s.logger.ErrorContext(c.Request().Context(), "error page render failed", "error", renderErr)
		_ = c.String(status, message) //nolint:errcheck // fallback body
	}
}
