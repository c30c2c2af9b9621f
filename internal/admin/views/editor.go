package views

import (
	"context"
	"net/url"

	"github.com/jacentio/recipes/internal/admin/form"
	"github.com/jacentio/recipes/internal/admin/state"
	"github.com/jacentio/recipes/model"
)

// Mode is the state of an Editor.
//
//	Draft  -> Submitting -> Saved | Failed (back to Draft)
//	Loaded -> Submitting -> Saved | Failed (back to Loaded)
type Mode int

const (
	ModeDraft Mode = iota
	ModeLoaded
	ModeSubmitting
	ModeSaved
	ModeFailed
)

func (m Mode) String() string {
	switch m {
	case ModeDraft:
		return "draft"
	case ModeLoaded:
		return "loaded"
	case ModeSubmitting:
		return "submitting"
	case ModeSaved:
		return "saved"
	case ModeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Editor drives the create/update form of one entity type.
type Editor[E model.Entity, P form.Patch[E]] struct {
	slice   *state.Slice[E]
	form    form.Form[E, P]
	loaders []func(context.Context) error

	mode    Mode
	origin  Mode
	id      int64
	loaded  bool
	current E

	input     map[string]string
	fieldErrs form.FieldErrors
	err       error
}

// NewEditor creates an editor over slice. loaders fetch the reference lists
// the form's selectors offer.
func NewEditor[E model.Entity, P form.Patch[E]](slice *state.Slice[E], f form.Form[E, P], loaders ...func(context.Context) error) *Editor[E, P] {
	return &Editor[E, P]{slice: slice, form: f, loaders: loaders}
}

// Mount prepares the editor for the entity with id, or for a new draft when
// id is 0, and loads the reference lists. It returns the first failure.
func (e *Editor[E, P]) Mount(ctx context.Context, id int64) error {
	var zero E
	e.id = id
	e.current = zero
	e.input = nil
	e.fieldErrs = nil

	var err error
	if id == 0 {
		e.slice.Reset()
		e.mode, e.origin, e.loaded = ModeDraft, ModeDraft, true
	} else {
		e.mode, e.origin = ModeLoaded, ModeLoaded
		var cur E
		if cur, err = e.slice.FetchOne(ctx, id); err == nil {
			e.current = cur
			e.loaded = true
		}
	}

	for _, load := range e.loaders {
		if lerr := load(ctx); lerr != nil && err == nil {
			err = lerr
		}
	}
	e.err = err
	return err
}

// Submit merges the submitted values onto the mounted entity and saves it:
// a create when the editor was mounted without an id, otherwise an update.
func (e *Editor[E, P]) Submit(ctx context.Context, values url.Values) (E, error) {
	var zero E
	e.input = e.form.Submitted(values)
	e.fieldErrs = nil

	patch, ferrs := e.form.Bind(values)
	if ferrs != nil {
		e.fieldErrs = ferrs
		e.fail(ferrs)
		return zero, ferrs
	}
	entity := patch.Apply(e.current)

	e.mode = ModeSubmitting
	var saved E
	var err error
	if e.id == 0 {
		saved, err = e.slice.Create(ctx, entity)
	} else {
		saved, err = e.slice.Update(ctx, model.WithID(entity, e.id))
	}
	if err != nil {
		e.fail(err)
		return zero, err
	}

	e.mode = ModeSaved
	e.current = saved
	e.err = nil
	return saved, nil
}

func (e *Editor[E, P]) fail(err error) {
	e.mode = ModeFailed
	e.err = err
}

// Mode returns the current state.
func (e *Editor[E, P]) Mode() Mode { return e.mode }

// Origin returns the state a failed submit falls back to: ModeDraft or ModeLoaded.
func (e *Editor[E, P]) Origin() Mode { return e.origin }

// ID returns the id the editor was mounted with.
func (e *Editor[E, P]) ID() int64 { return e.id }

// Loaded reports whether the mounted entity is available for submit.
func (e *Editor[E, P]) Loaded() bool { return e.loaded }

// Err returns the last mount or submit failure.
func (e *Editor[E, P]) Err() error { return e.err }

// FieldErrors returns per-field parse failures of the last submit.
func (e *Editor[E, P]) FieldErrors() form.FieldErrors { return e.fieldErrs }

// Values returns the field values to render: the user's last input after a
// failed submit, otherwise the mounted entity.
func (e *Editor[E, P]) Values() map[string]string {
	if e.input != nil {
		return e.input
	}
	return e.form.Values(e.current)
}
