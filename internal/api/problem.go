package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
)

var errIDMismatch = errors.New("invalid id")

// problemFor maps a catalog error to its HTTP problem body.
func problemFor(kind model.Kind, err error) model.Problem {
	status, key, detail := http.StatusInternalServerError, model.ErrorKeyInternal, "internal server error"

	var fieldErr *catalog.FieldError
	var pageErr *pageParamError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		status, key, detail = http.StatusNotFound, model.ErrorKeyNotFound, kind.Title+" not found"
	case errors.Is(err, catalog.ErrReferenceNotFound):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyReferenceMissing, "referenced entity does not exist"
	case errors.Is(err, catalog.ErrRecipeRequired):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyRecipeNull, "an ingredient must belong to a recipe"
	case errors.Is(err, catalog.ErrHasChildren):
		status, key, detail = http.StatusConflict, model.ErrorKeyHasChildren, kind.Title+" still owns other entities"
	case errors.Is(err, catalog.ErrConcurrentModification):
		status, key, detail = http.StatusConflict, model.ErrorKeyConcurrent, kind.Title+" was modified by another request"
	case errors.Is(err, catalog.ErrIDExists):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyIDExists, "a new "+kind.Name+" cannot already have an id"
	case errors.Is(err, catalog.ErrIDNull):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyIDNull, kind.Title+" id is required"
	case errors.Is(err, errIDMismatch):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyIDInvalid, "invalid id"
	case errors.Is(err, errBadBody):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyValidation, err.Error()
	case errors.As(err, &fieldErr):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyValidation, fmt.Sprintf("%s %s", fieldErr.Field, fieldErr.Reason)
	case errors.As(err, &pageErr):
		status, key, detail = http.StatusBadRequest, model.ErrorKeyValidation, pageErr.Error()
	}

	return model.Problem{
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     detail,
		EntityName: kind.Name,
		ErrorKey:   key,
		Message:    "error." + key,
	}
}

func writeProblem(w http.ResponseWriter, p model.Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
