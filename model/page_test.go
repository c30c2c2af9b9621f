package model_test

import (
	"math"
	"testing"

	"github.com/jacentio/recipes/model"
)

func TestPageRequest_Window(t *testing.T) {
	tests := []struct {
		name       string
		req        model.PageRequest
		total      int
		start, end int
	}{
		{"unpaged", model.PageRequest{}, 7, 0, 7},
		{"first page", model.PageRequest{Page: 0, Size: 3}, 7, 0, 3},
		{"last partial page", model.PageRequest{Page: 2, Size: 3}, 7, 6, 7},
		{"past the end", model.PageRequest{Page: 5, Size: 3}, 7, 7, 7},
		{"negative page", model.PageRequest{Page: -1, Size: 3}, 7, 0, 3},
		{"empty collection", model.PageRequest{Page: 0, Size: 20}, 0, 0, 0},
		{"page overflowing start", model.PageRequest{Page: math.MaxInt/4 + 1, Size: 4}, 7, 7, 7},
		{"size overflowing end", model.PageRequest{Page: 1, Size: math.MaxInt}, 7, 7, 7},
		{"huge size first page", model.PageRequest{Page: 0, Size: math.MaxInt}, 7, 0, 7},
		{"exact last page", model.PageRequest{Page: 2, Size: 3}, 6, 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.req.Window(tt.total)
			if start != tt.start || end != tt.end {
				t.Errorf("Window(%d) = [%d, %d), want [%d, %d)", tt.total, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := model.KindOf[model.Author](); got != model.AuthorKind {
		t.Errorf("expected author kind, got %+v", got)
	}
	if got := model.KindOf[model.Recipe](); got.Plural != "recipes" {
		t.Errorf("expected plural 'recipes', got %q", got.Plural)
	}
	if got := model.KindOf[model.Ingredient](); got.Name != "ingredient" {
		t.Errorf("expected name 'ingredient', got %q", got.Name)
	}
}

func TestIsDraft(t *testing.T) {
	if !model.IsDraft(model.Author{Name: "Julia"}) {
		t.Error("expected author without id to be a draft")
	}
	if model.IsDraft(model.Recipe{ID: 5}) {
		t.Error("expected recipe with id to be persistent")
	}
}

func TestReferenceIDs(t *testing.T) {
	r := model.Recipe{Title: "Bread"}
	if r.AuthorID() != 0 {
		t.Errorf("expected 0 author id, got %d", r.AuthorID())
	}
	r.Author = &model.Author{ID: 1}
	if r.AuthorID() != 1 {
		t.Errorf("expected author id 1, got %d", r.AuthorID())
	}

	i := model.Ingredient{Name: "flour", Recipe: &model.Recipe{ID: 9}}
	if i.RecipeID() != 9 {
		t.Errorf("expected recipe id 9, got %d", i.RecipeID())
	}
}

func TestProblem_Error(t *testing.T) {
	tests := []struct {
		p    model.Problem
		want string
	}{
		{model.Problem{Title: "Bad Request", Status: 400, Detail: "A new recipe cannot already have an ID"}, "A new recipe cannot already have an ID"},
		{model.Problem{Title: "Not Found", Status: 404}, "Not Found"},
		{model.Problem{Status: 502}, "request failed with status 502"},
	}
	for _, tt := range tests {
		if got := tt.p.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWithID(t *testing.T) {
	a := model.WithID(model.Author{Name: "Julia"}, 4)
	if a.ID != 4 || a.Name != "Julia" {
		t.Errorf("unexpected author %+v", a)
	}

	orig := model.Ingredient{ID: 1, Name: "salt"}
	moved := model.WithID(orig, 2)
	if orig.ID != 1 || moved.ID != 2 {
		t.Errorf("expected a copy, got original %d and copy %d", orig.ID, moved.ID)
	}
}
