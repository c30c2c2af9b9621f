package model

// Recipe belongs to at most one Author and owns zero or more Ingredients.
type Recipe struct {
	ID          int64        `json:"id,omitempty"`
	Title       string       `json:"title,omitempty"`
	Image       string       `json:"image,omitempty"`
	Description string       `json:"description,omitempty"`
	Ingredients []Ingredient `json:"ingredients,omitempty"`
	Author      *Author      `json:"author,omitempty"`
}

func (r Recipe) EntityID() int64 { return r.ID }

// AuthorID returns the referenced author id, or 0 when the recipe has no author.
func (r Recipe) AuthorID() int64 {
	if r.Author == nil {
		return 0
	}
	return r.Author.ID
}

// Ref returns the id-bearing reference form of r, without nested collections.
func (r Recipe) Ref() *Recipe {
	return &Recipe{ID: r.ID, Title: r.Title, Image: r.Image, Description: r.Description}
}
