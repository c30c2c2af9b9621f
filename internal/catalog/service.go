package catalog

import (
	"context"
	"log/slog"
	"slices"

	"github.com/jacentio/recipes/model"
)

// Service applies the catalog rules for one entity type on top of a Table.
type Service[E model.Entity] struct {
	table  Table[E]
	kind   model.Kind
	logger *slog.Logger
}

// NewService creates a service over table.
func NewService[E model.Entity](table Table[E], logger *slog.Logger) *Service[E] {
	if logger == nil {
		logger = slog.Default()
	}
	kind := model.KindOf[E]()
	return &Service[E]{
		table:  table,
		kind:   kind,
		logger: logger.With("entity", kind.Name),
	}
}

// Kind returns the entity kind the service manages.
func (s *Service[E]) Kind() model.Kind {
	return s.kind
}

// List returns one page of entities ordered by id.
func (s *Service[E]) List(ctx context.Context, req model.PageRequest) (model.Page[E], error) {
	items, err := s.table.List(ctx)
	if err != nil {
		return model.Page[E]{}, err
	}
	if req.Desc {
		slices.Reverse(items)
	}
	start, end := req.Window(len(items))
	return model.Page[E]{Items: items[start:end], Total: len(items)}, nil
}

// Get returns the entity with id.
func (s *Service[E]) Get(ctx context.Context, id int64) (E, error) {
	return s.table.Get(ctx, id)
}

// Create stores a draft. Drafts carrying an id are rejected.
func (s *Service[E]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	if !model.IsDraft(e) {
		return zero, ErrIDExists
	}
	if err := Validate(e); err != nil {
		return zero, err
	}

	created, err := s.table.Insert(ctx, e)
	if err != nil {
		s.logger.Warn("create failed", "error", err)
		return zero, err
	}
	s.logger.Info("created", "id", created.EntityID())
	return created, nil
}

// Update replaces an existing entity.
func (s *Service[E]) Update(ctx context.Context, e E) (E, error) {
	var zero E
	if model.IsDraft(e) {
		return zero, ErrIDNull
	}
	if err := Validate(e); err != nil {
		return zero, err
	}

	updated, err := s.table.Replace(ctx, e)
	if err != nil {
		s.logger.Warn("update failed", "id", e.EntityID(), "error", err)
		return zero, err
	}
	s.logger.Info("updated", "id", updated.EntityID())
	return updated, nil
}

// Delete removes the entity with id, and its descendants when cascade is set.
func (s *Service[E]) Delete(ctx context.Context, id int64, cascade bool) error {
	if err := s.table.Delete(ctx, id, cascade); err != nil {
		s.logger.Warn("delete failed", "id", id, "cascade", cascade, "error", err)
		return err
	}
	s.logger.Info("deleted", "id", id, "cascade", cascade)
	return nil
}

// Validate checks the field rules that hold for every backend.
func Validate[E model.Entity](e E) error {
	if ing, ok := any(e).(model.Ingredient); ok {
		if ing.RecipeID() == 0 {
			return ErrRecipeRequired
		}
		if ing.Quantity < 0 {
			return &FieldError{Field: "quantity", Reason: "must not be negative"}
		}
	}
	return nil
}

// Catalog bundles the services of every entity type over one Backend.
type Catalog struct {
	Authors     *Service[model.Author]
	Recipes     *Service[model.Recipe]
	Ingredients *Service[model.Ingredient]

	backend Backend
}

// New creates a Catalog over b.
func New(b Backend, logger *slog.Logger) *Catalog {
	return &Catalog{
		Authors:     NewService(b.Authors(), logger),
		Recipes:     NewService(b.Recipes(), logger),
		Ingredients: NewService(b.Ingredients(), logger),
		backend:     b,
	}
}

// Close releases the backend.
func (c *Catalog) Close() error {
	return c.backend.Close()
}
