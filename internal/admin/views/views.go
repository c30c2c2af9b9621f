// Package views renders the admin UI: list, detail, edit and delete pages for
// every entity type, backed by the session's state slices.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jacentio/recipes/client"
	"github.com/jacentio/recipes/internal/admin/form"
	"github.com/jacentio/recipes/internal/admin/state"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "list", "detail", "edit", "delete"}

// Views serves the admin pages.
type Views struct {
	sessions *state.Sessions
	pages    map[string]*template.Template
	logger   *slog.Logger
}

// New parses the page templates.
func New(sessions *state.Sessions, logger *slog.Logger) (*Views, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &Views{sessions: sessions, pages: pages, logger: logger}, nil
}

// Handler returns the admin router.
func (v *Views) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(v.withSession)
	r.HandleFunc("/", v.home).Methods(http.MethodGet)
	register(r, v, authorViews)
	register(r, v, recipeViews)
	register(r, v, ingredientViews)
	return r
}

// page is the data every template receives.
type page struct {
	Title string
	Flash string
	Error string
	Body  any
}

func (v *Views) render(w http.ResponseWriter, status int, name string, p page) {
	var buf bytes.Buffer
	if err := v.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		v.logger.Error("render failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (v *Views) home(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	v.render(w, http.StatusOK, "home", page{
		Title: "Recipes",
		Flash: s.TakeFlash(),
		Body:  homeBody{Kinds: []kindLink{{authorViews.kind}, {recipeViews.kind}, {ingredientViews.kind}}},
	})
}

// statusFor picks the response status of a page rendered after err.
func statusFor(err error) int {
	var apiErr *client.APIError
	var fieldErrs form.FieldErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, state.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// errorText is the banner message of this request's failure. It matches the
// errorMessage the failing call recorded in its slice.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
