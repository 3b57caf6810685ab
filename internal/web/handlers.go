// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package web

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// User-facing messages.
const (
	msgInvalidCredentials = "Invalid username or password."
	msgUsernameTaken      = "That username is already taken."
	msgFieldsRequired     = "Username and password are required."
	msgRegistered         = "Account created. Please log in."
	msgLoggedOut          = "You have been logged out."
	msgLoginRequired      = "Please log in to continue."
	msgUnavailable        = "The service is temporarily unavailable. Please try again shortly."
)

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (s *Server) index(c echo.Context) error {
	return s.render(c, http.StatusOK, "index.html", "Home", page{})
}

func (s *Server) loginForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "login.html", "Log in", page{})
}

func (s *Server) registerForm(c echo.Context) error {
	return s.render(c, http.StatusOK, "register.html", "Register", page{})
}

func (s *Server) account(c echo.Context) error {
	return s.render(c, http.StatusOK, "account.html", "Your account", page{})
}

// login answers every credential rejection, including empty fields, with
// the same message.
func (s *Server) login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	if err := c.Validate(&form); err != nil {
		return s.redirectWithFlash(c, "/login", flashError, msgInvalidCredentials)
	}

	_, err := s.gateway.Login(c.Request().Context(), sessionOf(c), form.Username, form.Password)
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return s.redirectWithFlash(c, "/login", flashError, msgInvalidCredentials)
	default:
		return err
	}
}

// register creates the account and sends the caller to the login page.
// It never signs the caller in.
func (s *Server) register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest)
	}
	if err := c.Validate(&form); err != nil {
		return s.redirectWithFlash(c, "/register", flashError, msgFieldsRequired)
	}

	_, err := s.gateway.Register(c.Request().Context(), form.Username, form.Password)
	switch {
	case err == nil:
		return s.redirectWithFlash(c, "/login", flashSuccess, msgRegistered)
	case errors.Is(err, auth.ErrDuplicateUsername):
		return s.redirectWithFlash(c, "/register", flashError, msgUsernameTaken)
	default:
		if msg, ok := validationMessage(err); ok {
			return s.redirectWithFlash(c, "/register", flashError, msg)
		}
		return err
	}
}

// logout always ends at the home page. A failed store delete is logged by
// the gateway; the cookie is already gone, so the browser is signed out.
func (s *Server) logout(c echo.Context) error {
	if err := s.gateway.Logout(c.Request().Context(), sessionOf(c)); err != nil {
		s.logger.WarnContext(c.Request().Context(), "logout left a session record behind",
			"event", "logout_failed",
			"error", err)
	}
	return s.redirectWithFlash(c, "/", flashInfo, msgLoggedOut)
}

func (s *Server) redirectWithFlash(c echo.Context, to, kind, message string) error {
	setFlash(c, kind, message, s.secure)
	return c.Redirect(http.StatusSeeOther, to)
}

// validationMessage turns an input validation error from the gateway into
// a sentence for the form.
func validationMessage(err error) (string, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	switch oopsErr.Code() {
	case auth.CodeInvalidUsername, auth.CodeInvalidPassword:
	default:
		return "", false
	}
	return sentence(oopsErr.Error()), true
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}
