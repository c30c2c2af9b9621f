// Package model defines the recipe catalog entities shared by the backend API
// and its clients.
package model

// Entity is satisfied by every catalog entity type.
type Entity interface {
	Author | Recipe | Ingredient

	// EntityID returns the store-assigned identifier, or 0 for a draft.
	EntityID() int64
}

// Kind describes an entity type on the wire.
type Kind struct {
	// Name is the singular lower-case name (e.g. "recipe").
	Name string

	// Plural is the collection segment used in REST paths (e.g. "recipes").
	Plural string

	// Title is the display name (e.g. "Recipe").
	Title string
}

var (
	AuthorKind     = Kind{Name: "author", Plural: "authors", Title: "Author"}
	RecipeKind     = Kind{Name: "recipe", Plural: "recipes", Title: "Recipe"}
	IngredientKind = Kind{Name: "ingredient", Plural: "ingredients", Title: "Ingredient"}
)

// KindOf returns the Kind for the entity type E.
func KindOf[E Entity]() Kind {
	var zero E
	switch any(zero).(type) {
	case Author:
		return AuthorKind
	case Recipe:
		return RecipeKind
	default:
		return IngredientKind
	}
}

// IsDraft reports whether e has not been persisted yet.
func IsDraft[E Entity](e E) bool {
	return e.EntityID() == 0
}

// WithID returns a copy of e carrying id.
func WithID[E Entity](e E, id int64) E {
	switch v := any(&e).(type) {
	case *Author:
		v.ID = id
	case *Recipe:
		v.ID = id
	case *Ingredient:
		v.ID = id
	}
	return e
}
