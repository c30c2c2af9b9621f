// Package catalogtest is the behavioural contract every catalog backend must
// satisfy. Backend tests call Run with a constructor for a fresh backend.
package catalogtest

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
)

// Open returns an empty backend. It should register its own cleanup on t.
type Open func(t *testing.T) catalog.Backend

// Run executes the contract suite against the backends produced by open.
func Run(t *testing.T, open Open) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b catalog.Backend)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"IDsAreDistinct", testIDsAreDistinct},
		{"GetMissing", testGetMissing},
		{"RecipeEmbedsAuthor", testRecipeEmbedsAuthor},
		{"RecipeWithoutAuthor", testRecipeWithoutAuthor},
		{"UnknownReferences", testUnknownReferences},
		{"ReplaceScalars", testReplaceScalars},
		{"ReplaceMissing", testReplaceMissing},
		{"ReparentRecipe", testReparentRecipe},
		{"DetachRecipe", testDetachRecipe},
		{"MoveIngredient", testMoveIngredient},
		{"DeleteLeaf", testDeleteLeaf},
		{"DeleteMissing", testDeleteMissing},
		{"DeleteWithChildren", testDeleteWithChildren},
		{"CascadeDelete", testCascadeDelete},
		{"ListOrder", testListOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func mustAuthor(t *testing.T, b catalog.Backend, name string) model.Author {
	t.Helper()
	a, err := b.Authors().Insert(context.Background(), model.Author{Name: name, Website: name + ".example"})
	if err != nil {
		t.Fatalf("insert author %q: %v", name, err)
	}
	return a
}

func mustRecipe(t *testing.T, b catalog.Backend, title string, author *model.Author) model.Recipe {
	t.Helper()
	r := model.Recipe{Title: title, Description: title + " from scratch"}
	if author != nil {
		r.Author = &model.Author{ID: author.ID}
	}
	created, err := b.Recipes().Insert(context.Background(), r)
	if err != nil {
		t.Fatalf("insert recipe %q: %v", title, err)
	}
	return created
}

func mustIngredient(t *testing.T, b catalog.Backend, name string, recipeID int64) model.Ingredient {
	t.Helper()
	i, err := b.Ingredients().Insert(context.Background(), model.Ingredient{
		Name:     name,
		Quantity: 250,
		Unit:     "g",
		Recipe:   &model.Recipe{ID: recipeID},
	})
	if err != nil {
		t.Fatalf("insert ingredient %q: %v", name, err)
	}
	return i
}

func contains[E model.Entity](items []E, id int64) bool {
	for _, e := range items {
		if e.EntityID() == id {
			return true
		}
	}
	return false
}

func testCreateAndGet(t *testing.T, b catalog.Backend) {
	ctx := context.Background()

	a := mustAuthor(t, b, "julia")
	if a.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if a.Name != "julia" || a.Website != "julia.example" {
		t.Errorf("unexpected author %+v", a)
	}

	got, err := b.Authors().Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != a.ID || got.Name != a.Name || got.Website != a.Website {
		t.Errorf("Get = %+v, want %+v", got, a)
	}

	all, err := b.Authors().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !contains(all, a.ID) {
		t.Errorf("expected author %d in list", a.ID)
	}
}

func testIDsAreDistinct(t *testing.T, b catalog.Backend) {
	first := mustAuthor(t, b, "first")
	second := mustAuthor(t, b, "second")
	if first.ID == second.ID {
		t.Errorf("expected distinct ids, both are %d", first.ID)
	}
	if second.ID < first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func testGetMissing(t *testing.T, b catalog.Backend) {
	ctx := context.Background()

	if _, err := b.Recipes().Get(ctx, 987654); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := b.Authors().Get(ctx, 987654); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testRecipeEmbedsAuthor(t *testing.T, b catalog.Backend) {
	a := mustAuthor(t, b, "julia")
	r := mustRecipe(t, b, "bread", &a)

	if r.Author == nil || r.Author.ID != a.ID || r.Author.Name != "julia" {
		t.Fatalf("expected embedded author %d, got %+v", a.ID, r.Author)
	}

	got, err := b.Recipes().Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Author == nil || got.Author.Website != "julia.example" {
		t.Errorf("expected author scalars on read, got %+v", got.Author)
	}
	if len(got.Ingredients) != 0 {
		t.Errorf("expected no embedded children, got %d", len(got.Ingredients))
	}

	i := mustIngredient(t, b, "flour", r.ID)
	if i.Recipe == nil || i.Recipe.ID != r.ID || i.Recipe.Title != "bread" {
		t.Errorf("expected embedded recipe %d, got %+v", r.ID, i.Recipe)
	}
	if i.Quantity != 250 || i.Unit != "g" {
		t.Errorf("unexpected ingredient %+v", i)
	}
}

func testRecipeWithoutAuthor(t *testing.T, b catalog.Backend) {
	r := mustRecipe(t, b, "soup", nil)
	if r.Author != nil {
		t.Errorf("expected no author, got %+v", r.Author)
	}

	got, err := b.Recipes().Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Author != nil {
		t.Errorf("expected no author on read, got %+v", got.Author)
	}
}

func testUnknownReferences(t *testing.T, b catalog.Backend) {
	ctx := context.Background()

	_, err := b.Recipes().Insert(ctx, model.Recipe{Title: "ghost", Author: &model.Author{ID: 987654}})
	if !errors.Is(err, catalog.ErrReferenceNotFound) {
		t.Errorf("recipe: expected ErrReferenceNotFound, got %v", err)
	}

	_, err = b.Ingredients().Insert(ctx, model.Ingredient{Name: "salt", Recipe: &model.Recipe{ID: 987654}})
	if !errors.Is(err, catalog.ErrReferenceNotFound) {
		t.Errorf("ingredient: expected ErrReferenceNotFound, got %v", err)
	}
}

func testReplaceScalars(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	a := mustAuthor(t, b, "julia")

	a.Name = "Julia Child"
	a.Website = ""
	updated, err := b.Authors().Replace(ctx, a)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if updated.Name != "Julia Child" || updated.Website != "" {
		t.Errorf("unexpected replace result %+v", updated)
	}

	got, err := b.Authors().Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Julia Child" || got.Website != "" {
		t.Errorf("expected full replace, got %+v", got)
	}
}

func testReplaceMissing(t *testing.T, b catalog.Backend) {
	_, err := b.Authors().Replace(context.Background(), model.Author{ID: 987654, Name: "nobody"})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testReparentRecipe(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	first := mustAuthor(t, b, "first")
	second := mustAuthor(t, b, "second")
	r := mustRecipe(t, b, "bread", &first)

	r.Author = &model.Author{ID: second.ID}
	updated, err := b.Recipes().Replace(ctx, r)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if updated.AuthorID() != second.ID {
		t.Errorf("expected author %d, got %d", second.ID, updated.AuthorID())
	}

	// the old author no longer owns anything
	if err := b.Authors().Delete(ctx, first.ID, false); err != nil {
		t.Errorf("expected first author to be deletable, got %v", err)
	}
	if err := b.Authors().Delete(ctx, second.ID, false); !errors.Is(err, catalog.ErrHasChildren) {
		t.Errorf("expected second author to own the recipe, got %v", err)
	}

	r.Author = &model.Author{ID: 987654}
	if _, err := b.Recipes().Replace(ctx, r); !errors.Is(err, catalog.ErrReferenceNotFound) {
		t.Errorf("expected ErrReferenceNotFound, got %v", err)
	}
}

func testDetachRecipe(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	a := mustAuthor(t, b, "julia")
	r := mustRecipe(t, b, "bread", &a)

	r.Author = nil
	if _, err := b.Recipes().Replace(ctx, r); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, err := b.Recipes().Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Author != nil {
		t.Errorf("expected author to be cleared, got %+v", got.Author)
	}
	if err := b.Authors().Delete(ctx, a.ID, false); err != nil {
		t.Errorf("expected author to be deletable after detaching, got %v", err)
	}
}

func testMoveIngredient(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	bread := mustRecipe(t, b, "bread", nil)
	cake := mustRecipe(t, b, "cake", nil)
	i := mustIngredient(t, b, "flour", bread.ID)

	i.Recipe = &model.Recipe{ID: cake.ID}
	i.Quantity = 500
	updated, err := b.Ingredients().Replace(ctx, i)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if updated.RecipeID() != cake.ID || updated.Quantity != 500 {
		t.Errorf("unexpected ingredient %+v", updated)
	}
	if err := b.Recipes().Delete(ctx, bread.ID, false); err != nil {
		t.Errorf("expected bread to be deletable, got %v", err)
	}
}

func testDeleteLeaf(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	r := mustRecipe(t, b, "bread", nil)
	i := mustIngredient(t, b, "flour", r.ID)

	if err := b.Ingredients().Delete(ctx, i.ID, false); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Ingredients().Get(ctx, i.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	all, err := b.Ingredients().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if contains(all, i.ID) {
		t.Errorf("expected ingredient %d to be gone from the list", i.ID)
	}

	if err := b.Recipes().Delete(ctx, r.ID, false); err != nil {
		t.Errorf("expected emptied recipe to be deletable, got %v", err)
	}
}

func testDeleteMissing(t *testing.T, b catalog.Backend) {
	if err := b.Recipes().Delete(context.Background(), 987654, false); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteWithChildren(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	r := mustRecipe(t, b, "bread", nil)
	mustIngredient(t, b, "flour", r.ID)

	if err := b.Recipes().Delete(ctx, r.ID, false); !errors.Is(err, catalog.ErrHasChildren) {
		t.Fatalf("expected ErrHasChildren, got %v", err)
	}
	if _, err := b.Recipes().Get(ctx, r.ID); err != nil {
		t.Errorf("expected recipe to survive a refused delete, got %v", err)
	}
}

func testCascadeDelete(t *testing.T, b catalog.Backend) {
	ctx := context.Background()
	a := mustAuthor(t, b, "julia")
	r := mustRecipe(t, b, "bread", &a)
	i := mustIngredient(t, b, "flour", r.ID)

	if err := b.Authors().Delete(ctx, a.ID, true); err != nil {
		t.Fatalf("cascade Delete failed: %v", err)
	}

	if _, err := b.Authors().Get(ctx, a.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("author: expected ErrNotFound, got %v", err)
	}
	if _, err := b.Recipes().Get(ctx, r.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("recipe: expected ErrNotFound, got %v", err)
	}
	if _, err := b.Ingredients().Get(ctx, i.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("ingredient: expected ErrNotFound, got %v", err)
	}
}

func testListOrder(t *testing.T, b catalog.Backend) {
	for _, title := range []string{"c", "a", "b"} {
		mustRecipe(t, b, title, nil)
	}

	all, err := b.Recipes().List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) < 3 {
		t.Fatalf("expected at least 3 recipes, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("list not ordered by id at %d: %d >= %d", i, all[i-1].ID, all[i].ID)
		}
	}
}
