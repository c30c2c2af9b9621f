package store

// Relationship defines a parent-child relationship for cascade operations.
type Relationship struct {
	// ParentType is the parent entity type (e.g., "author").
	ParentType string

	// ChildType is the child entity type (e.g., "recipe").
	ChildType string

	// ChildTableName is the DynamoDB table name for the child (e.g., "recipes").
	ChildTableName string

	// ParentKeyAttr is the attribute name in child that references parent (e.g., "author_id").
	ParentKeyAttr string

	// Optional marks relationships where the child may exist without a parent.
	Optional bool
}

// Registry holds all known entity relationships.
type Registry struct {
	relationships []Relationship
	byParent      map[string][]Relationship
	byChild       map[string]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byParent:      make(map[string][]Relationship),
		byChild:       make(map[string]Relationship),
	}
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentType] = append(r.byParent[rel.ParentType], rel)
	r.byChild[rel.ChildType] = rel
}

// ChildrenOf returns all child relationships for a given parent type.
func (r *Registry) ChildrenOf(parentType string) []Relationship {
	return r.byParent[parentType]
}

// ParentOf returns the relationship in which childType is the child.
func (r *Registry) ParentOf(childType string) (Relationship, bool) {
	rel, ok := r.byChild[childType]
	return rel, ok
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren returns true if the parent type has any registered child relationships.
func (r *Registry) HasChildren(parentType string) bool {
	return len(r.byParent[parentType]) > 0
}
