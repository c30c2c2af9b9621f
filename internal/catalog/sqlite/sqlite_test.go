package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/internal/catalog/catalogtest"
	"github.com/jacentio/recipes/internal/catalog/sqlite"
	"github.com/jacentio/recipes/model"
)

func open(t *testing.T) catalog.Backend {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestContract(t *testing.T) {
	catalogtest.Run(t, open)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "recipes.db")

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	a, err := db.Authors().Insert(ctx, model.Author{Name: "julia"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := db.Recipes().Insert(ctx, model.Recipe{Title: "bread", Author: &model.Author{ID: a.ID}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err = sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	recipes, err := db.Recipes().List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recipes) != 1 || recipes[0].Author == nil || recipes[0].Author.Name != "julia" {
		t.Errorf("expected persisted recipe with author, got %+v", recipes)
	}
}

func TestIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	db := open(t)

	first, err := db.Authors().Insert(ctx, model.Author{Name: "a"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := db.Authors().Delete(ctx, first.ID, false); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	second, err := db.Authors().Insert(ctx, model.Author{Name: "b"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("expected a fresh id, got %d again", second.ID)
	}
}
