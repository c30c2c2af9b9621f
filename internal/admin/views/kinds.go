package views

import (
	"context"
	"strconv"

	"github.com/jacentio/recipes/internal/admin/form"
	"github.com/jacentio/recipes/internal/admin/state"
	"github.com/jacentio/recipes/model"
)

// column is one displayed attribute. Reference columns show the referenced id
// and link to it.
type column[E model.Entity] struct {
	label string
	value func(E) string
	ref   *model.Kind
}

// entityViews describes how one entity type is listed, shown and edited.
type entityViews[E model.Entity, P form.Patch[E]] struct {
	kind    model.Kind
	slice   func(*state.Session) *state.Slice[E]
	form    form.Form[E, P]
	columns []column[E]
}

var authorViews = &entityViews[model.Author, form.AuthorPatch]{
	kind:  model.AuthorKind,
	slice: func(s *state.Session) *state.Slice[model.Author] { return s.Authors },
	form:  form.Author,
	columns: []column[model.Author]{
		{label: "Name", value: func(a model.Author) string { return a.Name }},
		{label: "Website", value: func(a model.Author) string { return a.Website }},
	},
}

var recipeViews = &entityViews[model.Recipe, form.RecipePatch]{
	kind:  model.RecipeKind,
	slice: func(s *state.Session) *state.Slice[model.Recipe] { return s.Recipes },
	form:  form.Recipe,
	columns: []column[model.Recipe]{
		{label: "Title", value: func(r model.Recipe) string { return r.Title }},
		{label: "Image", value: func(r model.Recipe) string { return r.Image }},
		{label: "Description", value: func(r model.Recipe) string { return r.Description }},
		{label: "Author", value: func(r model.Recipe) string { return idText(r.AuthorID()) }, ref: &model.AuthorKind},
	},
}

var ingredientViews = &entityViews[model.Ingredient, form.IngredientPatch]{
	kind:  model.IngredientKind,
	slice: func(s *state.Session) *state.Slice[model.Ingredient] { return s.Ingredients },
	form:  form.Ingredient,
	columns: []column[model.Ingredient]{
		{label: "Quantity", value: func(i model.Ingredient) string { return strconv.FormatFloat(i.Quantity, 'f', -1, 64) }},
		{label: "Unit", value: func(i model.Ingredient) string { return i.Unit }},
		{label: "Name", value: func(i model.Ingredient) string { return i.Name }},
		{label: "Recipe", value: func(i model.Ingredient) string { return idText(i.RecipeID()) }, ref: &model.RecipeKind},
	},
}

// reference loads the selectable targets of a Select field.
type reference struct {
	load func(context.Context) ([]option, error)
}

func referenceFor(s *state.Session, kind model.Kind) reference {
	switch kind {
	case model.AuthorKind:
		return reference{load: func(ctx context.Context) ([]option, error) {
			items, err := s.Authors.FetchList(ctx)
			return options(items, func(a model.Author) string { return a.Name }), err
		}}
	case model.RecipeKind:
		return reference{load: func(ctx context.Context) ([]option, error) {
			items, err := s.Recipes.FetchList(ctx)
			return options(items, func(r model.Recipe) string { return r.Title }), err
		}}
	default:
		return reference{load: func(ctx context.Context) ([]option, error) {
			items, err := s.Ingredients.FetchList(ctx)
			return options(items, func(i model.Ingredient) string { return i.Name }), err
		}}
	}
}

func options[E model.Entity](items []E, label func(E) string) []option {
	out := make([]option, 0, len(items))
	for _, e := range items {
		id := strconv.FormatInt(e.EntityID(), 10)
		text := id
		if l := label(e); l != "" {
			text = id + " · " + l
		}
		out = append(out, option{Value: id, Label: text})
	}
	return out
}

func idText(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
