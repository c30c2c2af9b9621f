package model

// Ingredient belongs to exactly one Recipe.
type Ingredient struct {
	ID       int64   `json:"id,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Name     string  `json:"name,omitempty"`
	Recipe   *Recipe `json:"recipe,omitempty"`
}

func (i Ingredient) EntityID() int64 { return i.ID }

// RecipeID returns the referenced recipe id, or 0 when unset.
func (i Ingredient) RecipeID() int64 {
	if i.Recipe == nil {
		return 0
	}
	return i.Recipe.ID
}
