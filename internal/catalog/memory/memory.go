// Package memory is an in-process catalog backend. It keeps no state across
// restarts and is used for local development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
)

type recipeRow struct {
	recipe   model.Recipe
	authorID int64
}

type ingredientRow struct {
	ingredient model.Ingredient
	recipeID   int64
}

// DB holds the three tables behind one lock.
type DB struct {
	mu          sync.RWMutex
	authors     map[int64]model.Author
	recipes     map[int64]recipeRow
	ingredients map[int64]ingredientRow
	seq         map[string]int64
}

var _ catalog.Backend = (*DB)(nil)

// New returns an empty database.
func New() *DB {
	return &DB{
		authors:     make(map[int64]model.Author),
		recipes:     make(map[int64]recipeRow),
		ingredients: make(map[int64]ingredientRow),
		seq:         make(map[string]int64),
	}
}

func (d *DB) Authors() catalog.Table[model.Author]         { return authorTable{d} }
func (d *DB) Recipes() catalog.Table[model.Recipe]         { return recipeTable{d} }
func (d *DB) Ingredients() catalog.Table[model.Ingredient] { return ingredientTable{d} }
func (d *DB) Close() error                                 { return nil }

// nextID must be called with mu held.
func (d *DB) nextID(kind string) int64 {
	d.seq[kind]++
	return d.seq[kind]
}

// authorRef must be called with mu held.
func (d *DB) authorRef(id int64) *model.Author {
	if id == 0 {
		return nil
	}
	a, ok := d.authors[id]
	if !ok {
		return &model.Author{ID: id}
	}
	return a.Ref()
}

// recipeRef must be called with mu held.
func (d *DB) recipeRef(id int64) *model.Recipe {
	r, ok := d.recipes[id]
	if !ok {
		return &model.Recipe{ID: id}
	}
	return r.recipe.Ref()
}

func (d *DB) recipeOut(row recipeRow) model.Recipe {
	out := row.recipe
	out.Author = d.authorRef(row.authorID)
	return out
}

func (d *DB) ingredientOut(row ingredientRow) model.Ingredient {
	out := row.ingredient
	out.Recipe = d.recipeRef(row.recipeID)
	return out
}

func (d *DB) deleteRecipe(id int64) {
	for iid, row := range d.ingredients {
		if row.recipeID == id {
			delete(d.ingredients, iid)
		}
	}
	delete(d.recipes, id)
}

type authorTable struct{ d *DB }

func (t authorTable) List(context.Context) ([]model.Author, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	out := make([]model.Author, 0, len(t.d.authors))
	for _, a := range t.d.authors {
		out = append(out, a)
	}
	catalog.SortByID(out)
	return out, nil
}

func (t authorTable) Get(_ context.Context, id int64) (model.Author, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	a, ok := t.d.authors[id]
	if !ok {
		return model.Author{}, catalog.ErrNotFound
	}
	return a, nil
}

func (t authorTable) Insert(_ context.Context, a model.Author) (model.Author, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	a = *a.Ref()
	a.ID = t.d.nextID(model.AuthorKind.Name)
	t.d.authors[a.ID] = a
	return a, nil
}

func (t authorTable) Replace(_ context.Context, a model.Author) (model.Author, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.authors[a.ID]; !ok {
		return model.Author{}, catalog.ErrNotFound
	}
	a = *a.Ref()
	t.d.authors[a.ID] = a
	return a, nil
}

func (t authorTable) Delete(_ context.Context, id int64, cascade bool) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.authors[id]; !ok {
		return catalog.ErrNotFound
	}
	var owned []int64
	for rid, row := range t.d.recipes {
		if row.authorID == id {
			owned = append(owned, rid)
		}
	}
	if len(owned) > 0 && !cascade {
		return catalog.ErrHasChildren
	}
	for _, rid := range owned {
		t.d.deleteRecipe(rid)
	}
	delete(t.d.authors, id)
	return nil
}

type recipeTable struct{ d *DB }

func (t recipeTable) List(context.Context) ([]model.Recipe, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	out := make([]model.Recipe, 0, len(t.d.recipes))
	for _, row := range t.d.recipes {
		out = append(out, t.d.recipeOut(row))
	}
	catalog.SortByID(out)
	return out, nil
}

func (t recipeTable) Get(_ context.Context, id int64) (model.Recipe, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	row, ok := t.d.recipes[id]
	if !ok {
		return model.Recipe{}, catalog.ErrNotFound
	}
	return t.d.recipeOut(row), nil
}

func (t recipeTable) row(r model.Recipe) (recipeRow, error) {
	authorID := r.AuthorID()
	if authorID != 0 {
		if _, ok := t.d.authors[authorID]; !ok {
			return recipeRow{}, catalog.ErrReferenceNotFound
		}
	}
	return recipeRow{recipe: *r.Ref(), authorID: authorID}, nil
}

func (t recipeTable) Insert(_ context.Context, r model.Recipe) (model.Recipe, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	row, err := t.row(r)
	if err != nil {
		return model.Recipe{}, err
	}
	row.recipe.ID = t.d.nextID(model.RecipeKind.Name)
	t.d.recipes[row.recipe.ID] = row
	return t.d.recipeOut(row), nil
}

func (t recipeTable) Replace(_ context.Context, r model.Recipe) (model.Recipe, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.recipes[r.ID]; !ok {
		return model.Recipe{}, catalog.ErrNotFound
	}
	row, err := t.row(r)
	if err != nil {
		return model.Recipe{}, err
	}
	t.d.recipes[r.ID] = row
	return t.d.recipeOut(row), nil
}

func (t recipeTable) Delete(_ context.Context, id int64, cascade bool) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.recipes[id]; !ok {
		return catalog.ErrNotFound
	}
	if !cascade {
		for _, row := range t.d.ingredients {
			if row.recipeID == id {
				return catalog.ErrHasChildren
			}
		}
	}
	t.d.deleteRecipe(id)
	return nil
}

type ingredientTable struct{ d *DB }

func (t ingredientTable) List(context.Context) ([]model.Ingredient, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	out := make([]model.Ingredient, 0, len(t.d.ingredients))
	for _, row := range t.d.ingredients {
		out = append(out, t.d.ingredientOut(row))
	}
	catalog.SortByID(out)
	return out, nil
}

func (t ingredientTable) Get(_ context.Context, id int64) (model.Ingredient, error) {
	t.d.mu.RLock()
	defer t.d.mu.RUnlock()

	row, ok := t.d.ingredients[id]
	if !ok {
		return model.Ingredient{}, catalog.ErrNotFound
	}
	return t.d.ingredientOut(row), nil
}

func (t ingredientTable) row(i model.Ingredient) (ingredientRow, error) {
	recipeID := i.RecipeID()
	if _, ok := t.d.recipes[recipeID]; !ok {
		return ingredientRow{}, catalog.ErrReferenceNotFound
	}
	scalars := i
	scalars.Recipe = nil
	return ingredientRow{ingredient: scalars, recipeID: recipeID}, nil
}

func (t ingredientTable) Insert(_ context.Context, i model.Ingredient) (model.Ingredient, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	row, err := t.row(i)
	if err != nil {
		return model.Ingredient{}, err
	}
	row.ingredient.ID = t.d.nextID(model.IngredientKind.Name)
	t.d.ingredients[row.ingredient.ID] = row
	return t.d.ingredientOut(row), nil
}

func (t ingredientTable) Replace(_ context.Context, i model.Ingredient) (model.Ingredient, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.ingredients[i.ID]; !ok {
		return model.Ingredient{}, catalog.ErrNotFound
	}
	row, err := t.row(i)
	if err != nil {
		return model.Ingredient{}, err
	}
	t.d.ingredients[i.ID] = row
	return t.d.ingredientOut(row), nil
}

func (t ingredientTable) Delete(_ context.Context, id int64, _ bool) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()

	if _, ok := t.d.ingredients[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(t.d.ingredients, id)
	return nil
}
