package form

import (
	"errors"
	"math"
	"strconv"

	"github.com/jacentio/recipes/model"
)

// AuthorPatch holds the editable fields of an Author.
type AuthorPatch struct {
	Name    string
	Website string
}

func (p AuthorPatch) Apply(a model.Author) model.Author {
	a.Name = p.Name
	a.Website = p.Website
	return a
}

// RecipePatch holds the editable fields of a Recipe. A zero AuthorID detaches the author.
type RecipePatch struct {
	Title       string
	Image       string
	Description string
	AuthorID    int64
}

func (p RecipePatch) Apply(r model.Recipe) model.Recipe {
	r.Title = p.Title
	r.Image = p.Image
	r.Description = p.Description
	switch {
	case p.AuthorID == 0:
		r.Author = nil
	case r.AuthorID() != p.AuthorID:
		r.Author = &model.Author{ID: p.AuthorID}
	}
	return r
}

// IngredientPatch holds the editable fields of an Ingredient.
type IngredientPatch struct {
	Quantity float64
	Unit     string
	Name     string
	RecipeID int64
}

func (p IngredientPatch) Apply(i model.Ingredient) model.Ingredient {
	i.Quantity = p.Quantity
	i.Unit = p.Unit
	i.Name = p.Name
	switch {
	case p.RecipeID == 0:
		i.Recipe = nil
	case i.RecipeID() != p.RecipeID:
		i.Recipe = &model.Recipe{ID: p.RecipeID}
	}
	return i
}

// Author is the author edit form.
var Author = Form[model.Author, AuthorPatch]{Fields: []Field[model.Author, AuthorPatch]{
	{
		Name: "name", Label: "Name", Input: Text,
		Value: func(a model.Author) string { return a.Name },
		Parse: func(p *AuthorPatch, raw string) error { p.Name = raw; return nil },
	},
	{
		Name: "website", Label: "Website", Input: URL,
		Value: func(a model.Author) string { return a.Website },
		Parse: func(p *AuthorPatch, raw string) error { p.Website = raw; return nil },
	},
}}

// Recipe is the recipe edit form.
var Recipe = Form[model.Recipe, RecipePatch]{Fields: []Field[model.Recipe, RecipePatch]{
	{
		Name: "title", Label: "Title", Input: Text,
		Value: func(r model.Recipe) string { return r.Title },
		Parse: func(p *RecipePatch, raw string) error { p.Title = raw; return nil },
	},
	{
		Name: "image", Label: "Image", Input: URL,
		Value: func(r model.Recipe) string { return r.Image },
		Parse: func(p *RecipePatch, raw string) error { p.Image = raw; return nil },
	},
	{
		Name: "description", Label: "Description", Input: TextArea,
		Value: func(r model.Recipe) string { return r.Description },
		Parse: func(p *RecipePatch, raw string) error { p.Description = raw; return nil },
	},
	{
		Name: "author", Label: "Author", Input: Select, Ref: model.AuthorKind,
		Value: func(r model.Recipe) string { return idString(r.AuthorID()) },
		Parse: func(p *RecipePatch, raw string) (err error) { p.AuthorID, err = parseRef(raw); return err },
	},
}}

// Ingredient is the ingredient edit form. The recipe is required.
var Ingredient = Form[model.Ingredient, IngredientPatch]{Fields: []Field[model.Ingredient, IngredientPatch]{
	{
		Name: "quantity", Label: "Quantity", Input: Number,
		Value: func(i model.Ingredient) string { return strconv.FormatFloat(i.Quantity, 'f', -1, 64) },
		Parse: func(p *IngredientPatch, raw string) (err error) { p.Quantity, err = parseQuantity(raw); return err },
	},
	{
		Name: "unit", Label: "Unit", Input: Text,
		Value: func(i model.Ingredient) string { return i.Unit },
		Parse: func(p *IngredientPatch, raw string) error { p.Unit = raw; return nil },
	},
	{
		Name: "name", Label: "Name", Input: Text,
		Value: func(i model.Ingredient) string { return i.Name },
		Parse: func(p *IngredientPatch, raw string) error { p.Name = raw; return nil },
	},
	{
		Name: "recipe", Label: "Recipe", Input: Select, Ref: model.RecipeKind, Required: true,
		Value: func(i model.Ingredient) string { return idString(i.RecipeID()) },
		Parse: func(p *IngredientPatch, raw string) (err error) { p.RecipeID, err = parseRef(raw); return err },
	},
}}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseRef(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("must be a valid id")
	}
	return id, nil
}

func parseQuantity(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, errors.New("must be a number")
	}
	if q < 0 {
		return 0, errors.New("must not be negative")
	}
	return q, nil
}
