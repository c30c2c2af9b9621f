// Package dynamo is the DynamoDB catalog backend. Each entity type has its own
// table keyed by a numeric id; parent links live in the store's relationship
// table so orphan checks and cascades never scan entity tables.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
	"github.com/jacentio/recipes/store"
)

// DB is a catalog backend over a store.Store.
type DB struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger
}

var _ catalog.Backend = (*DB)(nil)

// Registry returns the parent/child relationships of the recipe catalog.
func Registry(cfg Config) *store.Registry {
	r := store.NewRegistry()
	r.Register(store.Relationship{
		ParentType:     model.AuthorKind.Name,
		ChildType:      model.RecipeKind.Name,
		ChildTableName: cfg.RecipesTable,
		ParentKeyAttr:  "author_id",
		Optional:       true,
	})
	r.Register(store.Relationship{
		ParentType:     model.RecipeKind.Name,
		ChildType:      model.IngredientKind.Name,
		ChildTableName: cfg.IngredientsTable,
		ParentKeyAttr:  "recipe_id",
	})
	return r
}

// New creates a backend using client.
func New(client store.DynamoDBAPI, cfg Config, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.validate()
	return &DB{
		store:  store.NewWithRegistry(client, cfg.Store, Registry(cfg)),
		cfg:    cfg,
		logger: logger,
	}
}

// NewClient builds a DynamoDB client from cfg and the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	cfg.validate()
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Open connects to DynamoDB and returns a backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg, logger), nil
}

// Store returns the underlying entity store, e.g. for a cascade stream handler.
func (d *DB) Store() *store.Store {
	return d.store
}

func (d *DB) Authors() catalog.Table[model.Author] {
	return &table[model.Author, authorRecord]{
		db:      d,
		name:    d.cfg.AuthorsTable,
		kind:    model.AuthorKind,
		record:  func(a model.Author) authorRecord { return authorRecord{ID: a.ID, Name: a.Name, Website: a.Website} },
		entity:  d.authorEntity,
		resolve: d.resolveAuthors,
	}
}

func (d *DB) Recipes() catalog.Table[model.Recipe] {
	return &table[model.Recipe, recipeRecord]{
		db:   d,
		name: d.cfg.RecipesTable,
		kind: model.RecipeKind,
		record: func(r model.Recipe) recipeRecord {
			return recipeRecord{ID: r.ID, Title: r.Title, Image: r.Image, Description: r.Description, AuthorID: r.AuthorID()}
		},
		entity:  d.recipeEntity,
		resolve: d.resolveRecipes,
	}
}

func (d *DB) Ingredients() catalog.Table[model.Ingredient] {
	return &table[model.Ingredient, ingredientRecord]{
		db:   d,
		name: d.cfg.IngredientsTable,
		kind: model.IngredientKind,
		record: func(i model.Ingredient) ingredientRecord {
			return ingredientRecord{ID: i.ID, Quantity: i.Quantity, Unit: i.Unit, Name: i.Name, RecipeID: i.RecipeID()}
		},
		entity:  d.ingredientEntity,
		resolve: d.resolveIngredients,
	}
}

// Close is a no-op; the DynamoDB client holds no resources.
func (d *DB) Close() error { return nil }

// mapError translates store sentinels into catalog ones.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return catalog.ErrNotFound
	case errors.Is(err, store.ErrParentNotFound):
		return catalog.ErrReferenceNotFound
	case errors.Is(err, store.ErrHasChildren):
		return catalog.ErrHasChildren
	case errors.Is(err, store.ErrConcurrentModification):
		return catalog.ErrConcurrentModification
	default:
		return err
	}
}

// table implements catalog.Table for entity E stored as record R.
type table[E model.Entity, R any] struct {
	db      *DB
	name    string
	kind    model.Kind
	record  func(E) R
	entity  func(R) store.Entity
	resolve func(ctx context.Context, recs []R) ([]E, error)
}

func (t *table[E, R]) List(ctx context.Context) ([]E, error) {
	items, err := t.db.store.Scan(ctx, t.name)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	recs := make([]R, 0, len(items))
	for _, item := range items {
		var rec R
		if err := attributevalue.UnmarshalMap(item.Raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t.kind.Name, err)
		}
		recs = append(recs, rec)
	}
	out, err := t.resolve(ctx, recs)
	if err != nil {
		return nil, err
	}
	catalog.SortByID(out)
	return out, nil
}

func (t *table[E, R]) load(ctx context.Context, id int64) (R, *store.Item, error) {
	var rec R
	item, err := t.db.store.Get(ctx, t.name, store.NumericKey(id))
	if err != nil {
		return rec, nil, mapError(err)
	}
	if err := attributevalue.UnmarshalMap(item.Raw, &rec); err != nil {
		return rec, nil, fmt.Errorf("decode %s %d: %w", t.kind.Name, id, err)
	}
	return rec, item, nil
}

func (t *table[E, R]) Get(ctx context.Context, id int64) (E, error) {
	var zero E
	rec, _, err := t.load(ctx, id)
	if err != nil {
		return zero, err
	}
	out, err := t.resolve(ctx, []R{rec})
	if err != nil {
		return zero, err
	}
	return out[0], nil
}

func (t *table[E, R]) Insert(ctx context.Context, e E) (E, error) {
	var zero E
	id, err := t.db.store.NextID(ctx, t.kind.Name)
	if err != nil {
		return zero, err
	}
	rec := t.record(model.WithID(e, id))
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", t.kind.Name, err)
	}
	if err := t.db.store.Create(ctx, t.entity(rec), item); err != nil {
		return zero, mapError(err)
	}
	t.db.logger.Debug("stored", "entity", t.kind.Name, "id", id)
	return t.Get(ctx, id)
}

func (t *table[E, R]) Replace(ctx context.Context, e E) (E, error) {
	var zero E
	_, current, err := t.load(ctx, e.EntityID())
	if err != nil {
		return zero, err
	}
	rec := t.record(e)
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", t.kind.Name, err)
	}
	if err := t.db.store.Update(ctx, t.entity(rec), item, current.Version); err != nil {
		return zero, mapError(err)
	}
	return t.Get(ctx, e.EntityID())
}

func (t *table[E, R]) Delete(ctx context.Context, id int64, cascade bool) error {
	rec, _, err := t.load(ctx, id)
	if err != nil {
		return err
	}
	err = t.db.store.Delete(ctx, t.entity(rec), store.DeleteOptions{
		Cascade:       cascade,
		OrphanProtect: true,
	})
	return mapError(err)
}

func (d *DB) resolveAuthors(_ context.Context, recs []authorRecord) ([]model.Author, error) {
	out := make([]model.Author, len(recs))
	for i, r := range recs {
		out[i] = r.author()
	}
	return out, nil
}

func (d *DB) resolveRecipes(ctx context.Context, recs []recipeRecord) ([]model.Recipe, error) {
	authors := map[int64]*model.Author{}
	out := make([]model.Recipe, len(recs))
	for i, r := range recs {
		out[i] = r.recipe()
		if r.AuthorID == 0 {
			continue
		}
		ref, ok := authors[r.AuthorID]
		if !ok {
			a, err := d.lookupAuthor(ctx, r.AuthorID)
			if err != nil {
				return nil, err
			}
			ref = a
			authors[r.AuthorID] = ref
		}
		out[i].Author = ref
	}
	return out, nil
}

func (d *DB) resolveIngredients(ctx context.Context, recs []ingredientRecord) ([]model.Ingredient, error) {
	recipes := map[int64]*model.Recipe{}
	out := make([]model.Ingredient, len(recs))
	for i, r := range recs {
		out[i] = r.ingredient()
		ref, ok := recipes[r.RecipeID]
		if !ok {
			rec, err := d.lookupRecipe(ctx, r.RecipeID)
			if err != nil {
				return nil, err
			}
			ref = rec
			recipes[r.RecipeID] = ref
		}
		out[i].Recipe = ref
	}
	return out, nil
}

// lookupAuthor returns the reference form of author id. A reference to a
// deleted author keeps only the id.
func (d *DB) lookupAuthor(ctx context.Context, id int64) (*model.Author, error) {
	item, err := d.store.Get(ctx, d.cfg.AuthorsTable, store.NumericKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return &model.Author{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve author %d: %w", id, err)
	}
	var rec authorRecord
	if err := attributevalue.UnmarshalMap(item.Raw, &rec); err != nil {
		return nil, fmt.Errorf("decode author %d: %w", id, err)
	}
	a := rec.author()
	return &a, nil
}

func (d *DB) lookupRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	item, err := d.store.Get(ctx, d.cfg.RecipesTable, store.NumericKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return &model.Recipe{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve recipe %d: %w", id, err)
	}
	var rec recipeRecord
	if err := attributevalue.UnmarshalMap(item.Raw, &rec); err != nil {
		return nil, fmt.Errorf("decode recipe %d: %w", id, err)
	}
	r := rec.recipe()
	return &r, nil
}
