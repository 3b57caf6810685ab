// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

//go:embed views/*.html
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"index.html",
	"login.html",
	"register.html",
	"account.html",
	"error.html",
}

// page is the data every view receives.
type page struct {
	SiteTitle string
	Title     string
	Account   *auth.Account
	Flash     *Flash
	Message   string
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.ParseFS(viewsFS, "views/layout.html", "views/"+name)
		if err != nil {
			return nil, oops.Code("WEB_TEMPLATE_INVALID").With("page", name).Wrap(err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return oops.Code("WEB_TEMPLATE_MISSING").With("page", name).Errorf("no template named %q", name)
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		return oops.Code("WEB_RENDER_FAILED").With("page", name).Wrap(err)
	}
	return nil
}

// render fills the shared page fields and renders name.
func (s *Server) render(c echo.Context, status int, name, title string, p page) error {
	p.SiteTitle = SiteTitle
	p.Title = title
	if p.Account == nil {
		p.Account = resolutionOf(c).Account
	}
	if p.Flash == nil {
		p.Flash = takeFlash(c, s.secure)
	}
	return c.Render(status, name, p)
}
