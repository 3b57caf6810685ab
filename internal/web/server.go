// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

// Package web is the HTML front end: login, registration, logout and the
// pages that show who is signed in.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/session"
)

// SiteTitle is shown in every page header.
const SiteTitle = "Helpdesk Ticketing System"

// RequestRecorder counts served requests.
type RequestRecorder interface {
	HTTPRequest(method string, status int)
}

// Options configures a Server.
type Options struct {
	Logger            *slog.Logger
	Requests          RequestRecorder
	ReadHeaderTimeout time.Duration
	SecureCookies     bool
}

// Server serves the web front end.
type Server struct {
	echo       *echo.Echo
	gateway    *auth.Gateway
	sessions   *session.Manager
	logger     *slog.Logger
	requests   RequestRecorder
	secure     bool
	headerWait time.Duration

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer wires routes over the gateway and session manager.
func NewServer(gateway *auth.Gateway, sessions *session.Manager, opts Options) (*Server, error) {
	if gateway == nil {
		return nil, oops.Errorf("gateway is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 10 * time.Second
	}

	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		echo:       echo.New(),
		gateway:    gateway,
		sessions:   sessions,
		logger:     opts.Logger,
		requests:   opts.Requests,
		secure:     opts.SecureCookies,
		headerWait: opts.ReadHeaderTimeout,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = views
	e.Validator = newFormValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(s.logRequests)
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("64K"))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/", s.index, s.withSession)
	e.GET("/login", s.loginForm, s.withSession)
	e.POST("/login", s.login, s.withSession)
	e.GET("/register", s.registerForm, s.withSession)
	e.POST("/register", s.register, s.withSession)
	e.GET("/logout", s.logout, s.withSession)
	e.POST("/logout", s.logout, s.withSession)
	e.GET("/account", s.account, s.withSession, s.requireAuth)

	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and serves in the background. The returned channel
// receives a serve error, or is closed after a clean Stop.
func (s *Server) Start(addr string) (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: s.headerWait,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests and stops the listener.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_web_server").Wrap(err)
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
