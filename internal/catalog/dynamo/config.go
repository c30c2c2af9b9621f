package dynamo

import "github.com/jacentio/recipes/store"

// Config holds connection settings and table names for the DynamoDB backend.
type Config struct {
	// Region is the AWS region. Default: "us-east-1"
	Region string `yaml:"region"`

	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string `yaml:"endpoint"`

	// Profile selects a shared config profile.
	Profile string `yaml:"profile"`

	// AccessKeyID and SecretAccessKey set static credentials instead of the
	// default chain. Both or neither.
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`

	AuthorsTable     string `yaml:"authorsTable"`
	RecipesTable     string `yaml:"recipesTable"`
	IngredientsTable string `yaml:"ingredientsTable"`

	// Store configures relationship sharding, id sequences and cascades.
	Store store.Config `yaml:"store"`
}

// DefaultConfig returns the table layout used by the deployment templates.
// Cascades run inline so a deleted subtree disappears immediately.
func DefaultConfig() Config {
	storeCfg := store.DefaultConfig()
	storeCfg.InlineCascade = true
	return Config{
		Region:           "us-east-1",
		AuthorsTable:     "recipes_authors",
		RecipesTable:     "recipes_recipes",
		IngredientsTable: "recipes_ingredients",
		Store:            storeCfg,
	}
}

// validate fills unset names with their defaults.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.Region == "" {
		c.Region = def.Region
	}
	if c.AuthorsTable == "" {
		c.AuthorsTable = def.AuthorsTable
	}
	if c.RecipesTable == "" {
		c.RecipesTable = def.RecipesTable
	}
	if c.IngredientsTable == "" {
		c.IngredientsTable = def.IngredientsTable
	}
}
