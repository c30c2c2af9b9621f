package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
)

var errBadBody = errors.New("request body is not a valid entity")

// resource serves the REST collection of one entity type.
type resource[E model.Entity] struct {
	svc    *catalog.Service[E]
	kind   model.Kind
	logger *slog.Logger
}

func register[E model.Entity](r *mux.Router, svc *catalog.Service[E], logger *slog.Logger) {
	res := &resource[E]{svc: svc, kind: svc.Kind(), logger: logger.With("entity", svc.Kind().Name)}
	collection := "/" + res.kind.Plural
	item := collection + "/{id}"

	r.HandleFunc(collection, res.list).Methods(http.MethodGet)
	r.HandleFunc(collection, res.create).Methods(http.MethodPost)
	r.HandleFunc(item, res.get).Methods(http.MethodGet)
	r.HandleFunc(item, res.update).Methods(http.MethodPut)
	r.HandleFunc(item, res.delete).Methods(http.MethodDelete)
}

func (res *resource[E]) list(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r.URL.Query())
	if err != nil {
		res.problem(w, r, err)
		return
	}
	page, err := res.svc.List(r.Context(), req)
	if err != nil {
		res.problem(w, r, err)
		return
	}

	w.Header().Set(HeaderTotalCount, strconv.Itoa(page.Total))
	if link := linkHeader(r.URL, req, page.Total); link != "" {
		w.Header().Set("Link", link)
	}
	items := page.Items
	if items == nil {
		items = []E{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res *resource[E]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.problem(w, r, err)
		return
	}
	e, err := res.svc.Get(r.Context(), id)
	if err != nil {
		res.problem(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (res *resource[E]) create(w http.ResponseWriter, r *http.Request) {
	var e E
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		res.problem(w, r, errBadBody)
		return
	}
	created, err := res.svc.Create(r.Context(), e)
	if err != nil {
		res.problem(w, r, err)
		return
	}

	id := strconv.FormatInt(created.EntityID(), 10)
	w.Header().Set("Location", "/api/"+res.kind.Plural+"/"+id)
	res.alert(w, "created", id)
	writeJSON(w, http.StatusCreated, created)
}

func (res *resource[E]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.problem(w, r, err)
		return
	}
	var e E
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		res.problem(w, r, errBadBody)
		return
	}
	switch e.EntityID() {
	case 0:
		e = model.WithID(e, id)
	case id:
	default:
		res.problem(w, r, errIDMismatch)
		return
	}

	updated, err := res.svc.Update(r.Context(), e)
	if err != nil {
		res.problem(w, r, err)
		return
	}
	res.alert(w, "updated", strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusOK, updated)
}

func (res *resource[E]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.problem(w, r, err)
		return
	}
	cascade := false
	if v := r.URL.Query().Get("cascade"); v != "" {
		if cascade, err = strconv.ParseBool(v); err != nil {
			res.problem(w, r, &catalog.FieldError{Field: "cascade", Reason: "must be true or false"})
			return
		}
	}

	if err := res.svc.Delete(r.Context(), id, cascade); err != nil {
		res.problem(w, r, err)
		return
	}
	res.alert(w, "deleted", strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

func (res *resource[E]) alert(w http.ResponseWriter, action, id string) {
	w.Header().Set(HeaderAlert, fmt.Sprintf("%s.%s.%s", alertPrefix, res.kind.Name, action))
	w.Header().Set(HeaderParams, id)
}

func (res *resource[E]) problem(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(res.kind, err)
	if p.Status >= http.StatusInternalServerError {
		res.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeProblem(w, p)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errIDMismatch
	}
	return id, nil
}
