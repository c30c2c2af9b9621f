package form_test

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/jacentio/recipes/internal/admin/form"
	"github.com/jacentio/recipes/model"
)

func TestAuthorBind(t *testing.T) {
	p, errs := form.Author.Bind(url.Values{"name": {" Julia "}, "website": {"julia.example"}, "id": {"99"}})
	if errs != nil {
		t.Fatalf("Bind() errors = %v", errs)
	}
	got := p.Apply(model.Author{ID: 4, Name: "old"})
	if got.ID != 4 || got.Name != "Julia" || got.Website != "julia.example" {
		t.Errorf("Apply() = %+v", got)
	}
}

func TestRecipeBind(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		current    model.Recipe
		wantAuthor *model.Author
	}{
		{
			name:       "attach author",
			values:     url.Values{"title": {"Bread"}, "author": {"1"}},
			wantAuthor: &model.Author{ID: 1},
		},
		{
			name:       "keep embedded author",
			values:     url.Values{"title": {"Bread"}, "author": {"1"}},
			current:    model.Recipe{ID: 2, Author: &model.Author{ID: 1, Name: "Julia"}},
			wantAuthor: &model.Author{ID: 1, Name: "Julia"},
		},
		{
			name:       "change author",
			values:     url.Values{"title": {"Bread"}, "author": {"3"}},
			current:    model.Recipe{ID: 2, Author: &model.Author{ID: 1, Name: "Julia"}},
			wantAuthor: &model.Author{ID: 3},
		},
		{
			name:    "detach author",
			values:  url.Values{"title": {"Bread"}, "author": {""}},
			current: model.Recipe{ID: 2, Author: &model.Author{ID: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, errs := form.Recipe.Bind(tt.values)
			if errs != nil {
				t.Fatalf("Bind() errors = %v", errs)
			}
			got := p.Apply(tt.current)
			if got.Title != "Bread" || got.ID != tt.current.ID {
				t.Errorf("Apply() = %+v", got)
			}
			switch {
			case tt.wantAuthor == nil && got.Author != nil:
				t.Errorf("Author = %+v, want nil", got.Author)
			case tt.wantAuthor != nil && (got.Author == nil || !reflect.DeepEqual(*got.Author, *tt.wantAuthor)):
				t.Errorf("Author = %+v, want %+v", got.Author, tt.wantAuthor)
			}
		})
	}
}

func TestIngredientBind_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   map[string]string
	}{
		{"missing recipe", url.Values{"name": {"salt"}}, map[string]string{"recipe": "is required"}},
		{"bad quantity", url.Values{"quantity": {"lots"}, "recipe": {"1"}}, map[string]string{"quantity": "must be a number"}},
		{"nan quantity", url.Values{"quantity": {"NaN"}, "recipe": {"1"}}, map[string]string{"quantity": "must be a number"}},
		{"negative quantity", url.Values{"quantity": {"-2"}, "recipe": {"1"}}, map[string]string{"quantity": "must not be negative"}},
		{"bad recipe id", url.Values{"recipe": {"abc"}}, map[string]string{"recipe": "must be a valid id"}},
		{"both", url.Values{"quantity": {"x"}}, map[string]string{"quantity": "must be a number", "recipe": "is required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := form.Ingredient.Bind(tt.values)
			if len(errs) != len(tt.want) {
				t.Fatalf("Bind() errors = %v, want %v", errs, tt.want)
			}
			for field, reason := range tt.want {
				if errs[field] != reason {
					t.Errorf("errs[%q] = %q, want %q", field, errs[field], reason)
				}
			}
		})
	}
}

func TestIngredientBind(t *testing.T) {
	p, errs := form.Ingredient.Bind(url.Values{"quantity": {"2.5"}, "unit": {"g"}, "name": {"salt"}, "recipe": {"7"}})
	if errs != nil {
		t.Fatalf("Bind() errors = %v", errs)
	}
	got := p.Apply(model.Ingredient{})
	if got.Quantity != 2.5 || got.Unit != "g" || got.RecipeID() != 7 {
		t.Errorf("Apply() = %+v", got)
	}
}

func TestFieldErrors_Error(t *testing.T) {
	errs := form.FieldErrors{"recipe": "is required", "quantity": "must be a number"}
	if got := errs.Error(); got != "quantity must be a number; recipe is required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValues(t *testing.T) {
	got := form.Ingredient.Values(model.Ingredient{ID: 3, Quantity: 1.5, Unit: "cup", Recipe: &model.Recipe{ID: 2}})
	want := map[string]string{"quantity": "1.5", "unit": "cup", "name": "", "recipe": "2"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Values()[%q] = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["id"]; ok {
		t.Error("id rendered as an editable field")
	}

	if got := form.Recipe.Values(model.Recipe{Title: "x"})["author"]; got != "" {
		t.Errorf("draft author = %q, want empty", got)
	}
}

func TestSubmitted(t *testing.T) {
	got := form.Author.Submitted(url.Values{"name": {"typed"}, "other": {"x"}})
	if got["name"] != "typed" || got["website"] != "" || len(got) != 2 {
		t.Errorf("Submitted() = %v", got)
	}
}

func TestFieldsNeverIncludeID(t *testing.T) {
	for _, f := range form.Author.Fields {
		if f.Name == "id" {
			t.Error("author form has an id field")
		}
	}
	for _, f := range form.Recipe.Fields {
		if f.Name == "id" {
			t.Error("recipe form has an id field")
		}
	}
	for _, f := range form.Ingredient.Fields {
		if f.Name == "id" {
			t.Error("ingredient form has an id field")
		}
	}
}
