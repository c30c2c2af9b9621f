package model

// Author writes recipes. An author owns zero or more recipes.
type Author struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Website string   `json:"website,omitempty"`
	Recipes []Recipe `json:"recipes,omitempty"`
}

func (a Author) EntityID() int64 { return a.ID }

// Ref returns the id-bearing reference form of a, without nested collections.
func (a Author) Ref() *Author {
	return &Author{ID: a.ID, Name: a.Name, Website: a.Website}
}
