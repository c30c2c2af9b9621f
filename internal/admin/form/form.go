// Package form declares the editable fields of each entity and binds
// submitted HTML form values to typed partial updates.
package form

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jacentio/recipes/model"
)

// Input is the HTML control a field renders as.
type Input int

const (
	Text Input = iota
	URL
	Number
	TextArea
	// Select picks a referenced entity by id.
	Select
)

// Patch names exactly the fields a form may change on E.
type Patch[E model.Entity] interface {
	Apply(e E) E
}

// Field is one editable attribute of E, bound through the patch type P.
type Field[E model.Entity, P Patch[E]] struct {
	Name     string
	Label    string
	Input    Input
	Required bool

	// Ref is the referenced entity kind of a Select field.
	Ref model.Kind

	// Value renders the current value of the field.
	Value func(e E) string

	// Parse stores a submitted value into the patch.
	Parse func(p *P, raw string) error
}

// Form is the ordered field list of one entity type.
type Form[E model.Entity, P Patch[E]] struct {
	Fields []Field[E, P]
}

// Bind parses submitted values into a patch. Every field is parsed; the
// returned FieldErrors is nil when all succeeded.
func (f Form[E, P]) Bind(values url.Values) (P, FieldErrors) {
	var p P
	var errs FieldErrors
	for _, field := range f.Fields {
		raw := strings.TrimSpace(values.Get(field.Name))
		if raw == "" && field.Required {
			errs = errs.add(field.Name, "is required")
			continue
		}
		if err := field.Parse(&p, raw); err != nil {
			errs = errs.add(field.Name, err.Error())
		}
	}
	return p, errs
}

// Values renders every field of e keyed by field name.
func (f Form[E, P]) Values(e E) map[string]string {
	out := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		out[field.Name] = field.Value(e)
	}
	return out
}

// Submitted returns the raw submitted value of every field, for re-rendering
// a form with the user's last input.
func (f Form[E, P]) Submitted(values url.Values) map[string]string {
	out := make(map[string]string, len(f.Fields))
	for _, field := range f.Fields {
		out[field.Name] = values.Get(field.Name)
	}
	return out
}

// FieldErrors maps field names to a reason.
type FieldErrors map[string]string

func (e FieldErrors) add(field, reason string) FieldErrors {
	if e == nil {
		e = make(FieldErrors)
	}
	e[field] = reason
	return e
}

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e[name]
	}
	return strings.Join(parts, "; ")
}
