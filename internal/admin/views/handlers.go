package views

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jacentio/recipes/client"
	"github.com/jacentio/recipes/internal/admin/form"
	"github.com/jacentio/recipes/internal/admin/state"
	"github.com/jacentio/recipes/model"
)

func register[E model.Entity, P form.Patch[E]](r *mux.Router, v *Views, ev *entityViews[E, P]) {
	base := "/" + ev.kind.Name
	item := base + "/{id:[0-9]+}"

	r.HandleFunc(base, ev.list(v)).Methods(http.MethodGet)
	r.HandleFunc(base+"/new", ev.edit(v)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(item, ev.detail(v)).Methods(http.MethodGet)
	r.HandleFunc(item+"/edit", ev.edit(v)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(item+"/delete", ev.remove(v)).Methods(http.MethodGet, http.MethodPost)
}

func (ev *entityViews[E, P]) base() string {
	return "/" + ev.kind.Name
}

func (ev *entityViews[E, P]) list(v *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		slice := ev.slice(s)

		items, err := slice.FetchList(r.Context())
		snap := slice.Snapshot()

		body := listBody{Kind: ev.kind, Loading: snap.Loading}
		for _, c := range ev.columns {
			body.Headers = append(body.Headers, c.label)
		}
		for _, e := range items {
			body.Rows = append(body.Rows, row{ID: e.EntityID(), Cells: ev.cells(e)})
		}
		v.render(w, statusFor(err), "list", page{
			Title: ev.kind.Title + "s",
			Flash: s.TakeFlash(),
			Error: errorText(err),
			Body:  body,
		})
	}
}

func (ev *entityViews[E, P]) cells(e E) []cell {
	out := make([]cell, len(ev.columns))
	for i, c := range ev.columns {
		out[i] = cell{Text: c.value(e)}
		if c.ref != nil && out[i].Text != "" {
			out[i].Href = "/" + c.ref.Name + "/" + out[i].Text
		}
	}
	return out
}

func (ev *entityViews[E, P]) detail(v *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		slice := ev.slice(s)
		id := pathID(r)

		entity, err := slice.FetchOne(r.Context(), id)

		body := detailBody{Kind: ev.kind, ID: id, Found: err == nil}
		if err == nil {
			cells := ev.cells(entity)
			for i, c := range ev.columns {
				body.Fields = append(body.Fields, labeled{Label: c.label, Value: cells[i]})
			}
		}
		v.render(w, statusFor(err), "detail", page{
			Title: fmt.Sprintf("%s %d", ev.kind.Title, id),
			Flash: s.TakeFlash(),
			Error: errorText(err),
			Body:  body,
		})
	}
}

func (ev *entityViews[E, P]) edit(v *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		slice := ev.slice(s)
		id := pathID(r)

		refs := ev.references(s)
		opts := make(map[string][]option, len(refs))
		loaders := make([]func(context.Context) error, 0, len(refs))
		for name, ref := range refs {
			loaders = append(loaders, func(ctx context.Context) error {
				o, err := ref.load(ctx)
				opts[name] = o
				return err
			})
		}
		ed := NewEditor(slice, ev.form, loaders...)
		err := ed.Mount(r.Context(), id)

		if r.Method == http.MethodPost && ed.Loaded() {
			if perr := r.ParseForm(); perr != nil {
				http.Error(w, "malformed form", http.StatusBadRequest)
				return
			}
			saved, serr := ed.Submit(r.Context(), r.PostForm)
			if serr == nil {
				if id == 0 {
					s.SetFlash(fmt.Sprintf("A new %s is created with identifier %d", ev.kind.Title, saved.EntityID()))
				} else {
					s.SetFlash(fmt.Sprintf("A %s is updated with identifier %d", ev.kind.Title, id))
				}
				http.Redirect(w, r, ev.base(), http.StatusSeeOther)
				return
			}
			err = serr
		}

		snap := slice.Snapshot()
		title := "Create a new " + ev.kind.Title
		if id != 0 {
			title = fmt.Sprintf("Edit %s %d", ev.kind.Title, id)
		}
		v.render(w, statusFor(err), "edit", page{
			Title: title,
			Error: errorText(err),
			Body: editBody{
				Kind:     ev.kind,
				ID:       id,
				Mode:     ed.Mode().String(),
				Fields:   ev.fields(ed, opts),
				Updating: snap.Updating,
				Disabled: snap.Updating || !ed.Loaded(),
			},
		})
	}
}

// references returns the selector sources of the form's Select fields, keyed by field name.
func (ev *entityViews[E, P]) references(s *state.Session) map[string]reference {
	refs := make(map[string]reference)
	for _, f := range ev.form.Fields {
		if f.Input == form.Select {
			refs[f.Name] = referenceFor(s, f.Ref)
		}
	}
	return refs
}

func (ev *entityViews[E, P]) fields(ed *Editor[E, P], opts map[string][]option) []formField {
	values := ed.Values()
	errs := ed.FieldErrors()

	out := make([]formField, 0, len(ev.form.Fields))
	for _, f := range ev.form.Fields {
		ff := formField{
			Name:     f.Name,
			Label:    f.Label,
			Value:    values[f.Name],
			Error:    errs[f.Name],
			Required: f.Required,
		}
		switch f.Input {
		case form.URL:
			ff.Type = "url"
		case form.Number:
			ff.Type = "number"
		case form.TextArea:
			ff.TextArea = true
		case form.Select:
			ff.Select = true
			for _, o := range opts[f.Name] {
				o.Selected = o.Value == ff.Value
				ff.Options = append(ff.Options, o)
			}
		default:
			ff.Type = "text"
		}
		out = append(out, ff)
	}
	return out
}

func (ev *entityViews[E, P]) remove(v *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFrom(r.Context())
		slice := ev.slice(s)
		id := pathID(r)
		body := deleteBody{Kind: ev.kind, ID: id, Found: true}

		var err error
		if r.Method == http.MethodPost {
			if perr := r.ParseForm(); perr != nil {
				http.Error(w, "malformed form", http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("cascade") == "true" {
				err = slice.RemoveCascade(r.Context(), id)
			} else {
				err = slice.Remove(r.Context(), id)
			}
			if err == nil {
				s.SetFlash(fmt.Sprintf("A %s is deleted with identifier %d", ev.kind.Title, id))
				http.Redirect(w, r, ev.base(), http.StatusSeeOther)
				return
			}
			body.CanCascade = hasChildren(err)
			body.Found = !client.IsNotFound(err)
		} else if _, err = slice.FetchOne(r.Context(), id); err != nil {
			body.Found = false
		}

		v.render(w, statusFor(err), "delete", page{
			Title: fmt.Sprintf("Delete %s %d", ev.kind.Title, id),
			Error: errorText(err),
			Body:  body,
		})
	}
}

func hasChildren(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Problem.ErrorKey == model.ErrorKeyHasChildren
}

// pathID returns the route id, or 0 on routes without one.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}
