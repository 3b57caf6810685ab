// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/session"
)

const (
	ctxSession    = "session"
	ctxResolution = "resolution"
)

// logRequests logs every request and feeds the request counter. Errors are
// rendered here so the logged status is the one the client saw.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		s.logger.Log(req.Context(), level, "http request",
			"event", "http_request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"remote_ip", c.RealIP())

		if s.requests != nil {
			s.requests.HTTPRequest(req.Method, status)
		}
		return nil
	}
}

// withSession loads the session handle and resolves it before the page
// handler runs.
func (s *Server) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		handle := s.sessions.Load(c.Response(), c.Request())
		c.Set(ctxSession, handle)
		c.Set(ctxResolution, s.gateway.ResolveSession(c.Request().Context(), handle))
		return next(c)
	}
}

// requireAuth redirects anonymous requests to the login page.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if resolutionOf(c).State != auth.Authenticated {
			setFlash(c, flashInfo, msgLoginRequired, s.secure)
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return next(c)
	}
}

func sessionOf(c echo.Context) *session.Handle {
	h, _ := c.Get(ctxSession).(*session.Handle)
	return h
}

func resolutionOf(c echo.Context) auth.Resolution {
	r, _ := c.Get(ctxResolution).(auth.Resolution)
	return r
}
