package dynamo

import (
	"github.com/jacentio/recipes/model"
	"github.com/jacentio/recipes/store"
)

// entity describes a stored record to the store.
type entity struct {
	kind  string
	table string
	id    int64
}

func (e entity) TableName() string  { return e.table }
func (e entity) GetKey() store.PK   { return store.NumericKey(e.id) }
func (e entity) EntityRef() string  { return store.Ref(e.kind, e.id) }
func (e entity) EntityType() string { return e.kind }

// childEntity is an entity that may reference a parent. A zero parentID
// means no parent.
type childEntity struct {
	entity
	parentKind  string
	parentTable string
	parentID    int64
}

func (c childEntity) ParentCheck() *store.ConditionCheck {
	if c.parentID == 0 {
		return nil
	}
	return &store.ConditionCheck{TableName: c.parentTable, Key: store.NumericKey(c.parentID)}
}

func (c childEntity) ParentRef() string {
	if c.parentID == 0 {
		return ""
	}
	return store.Ref(c.parentKind, c.parentID)
}

type authorRecord struct {
	ID      int64  `dynamodbav:"id"`
	Name    string `dynamodbav:"name"`
	Website string `dynamodbav:"website"`
}

type recipeRecord struct {
	ID          int64  `dynamodbav:"id"`
	Title       string `dynamodbav:"title"`
	Image       string `dynamodbav:"image"`
	Description string `dynamodbav:"description"`
	AuthorID    int64  `dynamodbav:"author_id"`
}

type ingredientRecord struct {
	ID       int64   `dynamodbav:"id"`
	Quantity float64 `dynamodbav:"quantity"`
	Unit     string  `dynamodbav:"unit"`
	Name     string  `dynamodbav:"name"`
	RecipeID int64   `dynamodbav:"recipe_id"`
}

func (r authorRecord) author() model.Author {
	return model.Author{ID: r.ID, Name: r.Name, Website: r.Website}
}

func (r recipeRecord) recipe() model.Recipe {
	return model.Recipe{ID: r.ID, Title: r.Title, Image: r.Image, Description: r.Description}
}

func (r ingredientRecord) ingredient() model.Ingredient {
	return model.Ingredient{ID: r.ID, Quantity: r.Quantity, Unit: r.Unit, Name: r.Name}
}

func (d *DB) authorEntity(r authorRecord) store.Entity {
	return entity{kind: model.AuthorKind.Name, table: d.cfg.AuthorsTable, id: r.ID}
}

func (d *DB) recipeEntity(r recipeRecord) store.Entity {
	return childEntity{
		entity:      entity{kind: model.RecipeKind.Name, table: d.cfg.RecipesTable, id: r.ID},
		parentKind:  model.AuthorKind.Name,
		parentTable: d.cfg.AuthorsTable,
		parentID:    r.AuthorID,
	}
}

func (d *DB) ingredientEntity(r ingredientRecord) store.Entity {
	return childEntity{
		entity:      entity{kind: model.IngredientKind.Name, table: d.cfg.IngredientsTable, id: r.ID},
		parentKind:  model.RecipeKind.Name,
		parentTable: d.cfg.RecipesTable,
		parentID:    r.RecipeID,
	}
}
