package catalog

import (
	"context"
	"sort"

	"github.com/jacentio/recipes/model"
)

// Table persists one entity type.
type Table[E model.Entity] interface {
	// List returns every entity ordered by ascending id.
	List(ctx context.Context) ([]E, error)

	// Get returns the entity with id or ErrNotFound.
	Get(ctx context.Context, id int64) (E, error)

	// Insert stores a draft and returns it with its assigned id.
	Insert(ctx context.Context, e E) (E, error)

	// Replace overwrites every field of an existing entity, including its reference.
	Replace(ctx context.Context, e E) (E, error)

	// Delete removes the entity. With cascade unset, an entity that has
	// children is kept and ErrHasChildren returned.
	Delete(ctx context.Context, id int64, cascade bool) error
}

// Backend opens the three tables of one storage engine.
type Backend interface {
	Authors() Table[model.Author]
	Recipes() Table[model.Recipe]
	Ingredients() Table[model.Ingredient]
	Close() error
}

// SortByID orders entities by ascending id in place.
func SortByID[E model.Entity](items []E) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].EntityID() < items[j].EntityID()
	})
}
