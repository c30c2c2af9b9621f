package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("catalog: entity not found")

	// ErrReferenceNotFound is returned when a reference field names a missing entity.
	ErrReferenceNotFound = errors.New("catalog: referenced entity not found")

	// ErrHasChildren is returned when deleting an entity that still owns others.
	ErrHasChildren = errors.New("catalog: entity still has children")

	// ErrConcurrentModification is returned when the entity changed during a replace.
	ErrConcurrentModification = errors.New("catalog: entity was modified concurrently")

	// ErrIDExists is returned when creating an entity that already carries an id.
	ErrIDExists = errors.New("catalog: a new entity cannot already have an id")

	// ErrIDNull is returned when updating an entity without an id.
	ErrIDNull = errors.New("catalog: entity id is required")

	// ErrRecipeRequired is returned when an ingredient does not name its recipe.
	ErrRecipeRequired = errors.New("catalog: ingredient must belong to a recipe")
)

// FieldError reports an invalid field value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Reason)
}
