package store

import "testing"

func recipeRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{ParentType: "author", ChildType: "recipe", ChildTableName: "recipes", ParentKeyAttr: "author_id", Optional: true})
	r.Register(Relationship{ParentType: "recipe", ChildType: "ingredient", ChildTableName: "ingredients", ParentKeyAttr: "recipe_id"})
	return r
}

func TestRegistry_ChildrenOf(t *testing.T) {
	r := recipeRegistry()

	children := r.ChildrenOf("author")
	if len(children) != 1 || children[0].ChildType != "recipe" {
		t.Errorf("expected recipe as the only child of author, got %+v", children)
	}
	if got := r.ChildrenOf("ingredient"); len(got) != 0 {
		t.Errorf("expected no children of ingredient, got %+v", got)
	}
}

func TestRegistry_ParentOf(t *testing.T) {
	r := recipeRegistry()

	tests := []struct {
		child    string
		parent   string
		optional bool
		found    bool
	}{
		{"recipe", "author", true, true},
		{"ingredient", "recipe", false, true},
		{"author", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.child, func(t *testing.T) {
			rel, ok := r.ParentOf(tt.child)
			if ok != tt.found {
				t.Fatalf("ParentOf(%q) found = %v, want %v", tt.child, ok, tt.found)
			}
			if rel.ParentType != tt.parent || rel.Optional != tt.optional {
				t.Errorf("unexpected relationship %+v", rel)
			}
		})
	}
}

func TestRegistry_HasChildren(t *testing.T) {
	r := recipeRegistry()

	for typ, want := range map[string]bool{"author": true, "recipe": true, "ingredient": false, "unknown": false} {
		if got := r.HasChildren(typ); got != want {
			t.Errorf("HasChildren(%q) = %v, want %v", typ, got, want)
		}
	}
}

func TestRegistry_AllRelationships(t *testing.T) {
	if n := len(recipeRegistry().AllRelationships()); n != 2 {
		t.Errorf("expected 2 relationships, got %d", n)
	}
	if n := len(NewRegistry().AllRelationships()); n != 0 {
		t.Errorf("expected empty registry, got %d", n)
	}
}

func TestStore_RegistryAccessors(t *testing.T) {
	s := New(nil, DefaultConfig())
	if s.Registry() != nil {
		t.Error("expected nil registry")
	}
	if !s.mayHaveChildren("ingredient") {
		t.Error("without a registry every type may have children")
	}

	s.SetRegistry(recipeRegistry())
	if s.mayHaveChildren("ingredient") {
		t.Error("ingredient has no registered children")
	}
	if s.Config().NumShards != 1 {
		t.Errorf("expected validated config, got %+v", s.Config())
	}
}
