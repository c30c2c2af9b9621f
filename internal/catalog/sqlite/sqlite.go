// Package sqlite is a relational catalog backend on the pure Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jacentio/recipes/internal/catalog"
	"github.com/jacentio/recipes/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS author (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS recipe (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL DEFAULT '',
	image       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	author_id   INTEGER REFERENCES author(id)
);
CREATE INDEX IF NOT EXISTS recipe_author ON recipe(author_id);
CREATE TABLE IF NOT EXISTS ingredient (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	quantity  REAL NOT NULL DEFAULT 0,
	unit      TEXT NOT NULL DEFAULT '',
	name      TEXT NOT NULL DEFAULT '',
	recipe_id INTEGER NOT NULL REFERENCES recipe(id)
);
CREATE INDEX IF NOT EXISTS ingredient_recipe ON ingredient(recipe_id);
`

// DB is a catalog backend stored in one SQLite file.
type DB struct {
	db *sql.DB
}

var _ catalog.Backend = (*DB)(nil)

// Open opens or creates the database at path. The path ":memory:" keeps the
// database in process.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = "recipes.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: pragmas are per connection and :memory: is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Authors() catalog.Table[model.Author]         { return authorTable{d.db} }
func (d *DB) Recipes() catalog.Table[model.Recipe]         { return recipeTable{d.db} }
func (d *DB) Ingredients() catalog.Table[model.Ingredient] { return ingredientTable{d.db} }

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q querier, table string, id int64) (bool, error) {
	var found bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return found, nil
}

func countWhere(ctx context.Context, q querier, table, column string, id int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE `+column+` = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// affected maps a write that matched no row to catalog.ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func nullable(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

type authorTable struct{ db *sql.DB }

func (t authorTable) List(ctx context.Context) ([]model.Author, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT id, name, website FROM author ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Author{}
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Website); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t authorTable) Get(ctx context.Context, id int64) (model.Author, error) {
	var a model.Author
	err := t.db.QueryRowContext(ctx, `SELECT id, name, website FROM author WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Website)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Author{}, catalog.ErrNotFound
	}
	if err != nil {
		return model.Author{}, fmt.Errorf("select author %d: %w", id, err)
	}
	return a, nil
}

func (t authorTable) Insert(ctx context.Context, a model.Author) (model.Author, error) {
	res, err := t.db.ExecContext(ctx, `INSERT INTO author (name, website) VALUES (?, ?)`, a.Name, a.Website)
	if err != nil {
		return model.Author{}, fmt.Errorf("insert author: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Author{}, err
	}
	return t.Get(ctx, id)
}

func (t authorTable) Replace(ctx context.Context, a model.Author) (model.Author, error) {
	res, err := t.db.ExecContext(ctx, `UPDATE author SET name = ?, website = ? WHERE id = ?`, a.Name, a.Website, a.ID)
	if err != nil {
		return model.Author{}, fmt.Errorf("update author %d: %w", a.ID, err)
	}
	if err := affected(res); err != nil {
		return model.Author{}, err
	}
	return t.Get(ctx, a.ID)
}

func (t authorTable) Delete(ctx context.Context, id int64, cascade bool) error {
	return inTx(ctx, t.db, func(tx *sql.Tx) error {
		n, err := countWhere(ctx, tx, "recipe", "author_id", id)
		if err != nil {
			return err
		}
		if n > 0 {
			if !cascade {
				return catalog.ErrHasChildren
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient WHERE recipe_id IN (SELECT id FROM recipe WHERE author_id = ?)`, id); err != nil {
				return fmt.Errorf("cascade ingredients: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM recipe WHERE author_id = ?`, id); err != nil {
				return fmt.Errorf("cascade recipes: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM author WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete author %d: %w", id, err)
		}
		return affected(res)
	})
}

type recipeTable struct{ db *sql.DB }

const recipeSelect = `SELECT r.id, r.title, r.image, r.description, a.id, a.name, a.website
	FROM recipe r LEFT JOIN author a ON a.id = r.author_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (model.Recipe, error) {
	var (
		r        model.Recipe
		aID      sql.NullInt64
		aName    sql.NullString
		aWebsite sql.NullString
	)
	if err := s.Scan(&r.ID, &r.Title, &r.Image, &r.Description, &aID, &aName, &aWebsite); err != nil {
		return model.Recipe{}, err
	}
	if aID.Valid {
		r.Author = &model.Author{ID: aID.Int64, Name: aName.String, Website: aWebsite.String}
	}
	return r, nil
}

func (t recipeTable) List(ctx context.Context) ([]model.Recipe, error) {
	rows, err := t.db.QueryContext(ctx, recipeSelect+` ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t recipeTable) Get(ctx context.Context, id int64) (model.Recipe, error) {
	r, err := scanRecipe(t.db.QueryRowContext(ctx, recipeSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recipe{}, catalog.ErrNotFound
	}
	if err != nil {
		return model.Recipe{}, fmt.Errorf("select recipe %d: %w", id, err)
	}
	return r, nil
}

func checkAuthor(ctx context.Context, q querier, r model.Recipe) error {
	if r.AuthorID() == 0 {
		return nil
	}
	ok, err := exists(ctx, q, "author", r.AuthorID())
	if err != nil {
		return err
	}
	if !ok {
		return catalog.ErrReferenceNotFound
	}
	return nil
}

func (t recipeTable) Insert(ctx context.Context, r model.Recipe) (model.Recipe, error) {
	var id int64
	err := inTx(ctx, t.db, func(tx *sql.Tx) error {
		if err := checkAuthor(ctx, tx, r); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO recipe (title, image, description, author_id) VALUES (?, ?, ?, ?)`,
			r.Title, r.Image, r.Description, nullable(r.AuthorID()))
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Recipe{}, err
	}
	return t.Get(ctx, id)
}

func (t recipeTable) Replace(ctx context.Context, r model.Recipe) (model.Recipe, error) {
	err := inTx(ctx, t.db, func(tx *sql.Tx) error {
		if err := checkAuthor(ctx, tx, r); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE recipe SET title = ?, image = ?, description = ?, author_id = ? WHERE id = ?`,
			r.Title, r.Image, r.Description, nullable(r.AuthorID()), r.ID)
		if err != nil {
			return fmt.Errorf("update recipe %d: %w", r.ID, err)
		}
		return affected(res)
	})
	if err != nil {
		return model.Recipe{}, err
	}
	return t.Get(ctx, r.ID)
}

func (t recipeTable) Delete(ctx context.Context, id int64, cascade bool) error {
	return inTx(ctx, t.db, func(tx *sql.Tx) error {
		n, err := countWhere(ctx, tx, "ingredient", "recipe_id", id)
		if err != nil {
			return err
		}
		if n > 0 {
			if !cascade {
				return catalog.ErrHasChildren
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient WHERE recipe_id = ?`, id); err != nil {
				return fmt.Errorf("cascade ingredients: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM recipe WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete recipe %d: %w", id, err)
		}
		return affected(res)
	})
}

type ingredientTable struct{ db *sql.DB }

const ingredientSelect = `SELECT i.id, i.quantity, i.unit, i.name, r.id, r.title, r.image, r.description
	FROM ingredient i JOIN recipe r ON r.id = i.recipe_id`

func scanIngredient(s scanner) (model.Ingredient, error) {
	var (
		i model.Ingredient
		r model.Recipe
	)
	if err := s.Scan(&i.ID, &i.Quantity, &i.Unit, &i.Name, &r.ID, &r.Title, &r.Image, &r.Description); err != nil {
		return model.Ingredient{}, err
	}
	i.Recipe = &r
	return i, nil
}

func (t ingredientTable) List(ctx context.Context) ([]model.Ingredient, error) {
	rows, err := t.db.QueryContext(ctx, ingredientSelect+` ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Ingredient{}
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (t ingredientTable) Get(ctx context.Context, id int64) (model.Ingredient, error) {
	i, err := scanIngredient(t.db.QueryRowContext(ctx, ingredientSelect+` WHERE i.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ingredient{}, catalog.ErrNotFound
	}
	if err != nil {
		return model.Ingredient{}, fmt.Errorf("select ingredient %d: %w", id, err)
	}
	return i, nil
}

func checkRecipe(ctx context.Context, q querier, i model.Ingredient) error {
	ok, err := exists(ctx, q, "recipe", i.RecipeID())
	if err != nil {
		return err
	}
	if !ok {
		return catalog.ErrReferenceNotFound
	}
	return nil
}

func (t ingredientTable) Insert(ctx context.Context, i model.Ingredient) (model.Ingredient, error) {
	var id int64
	err := inTx(ctx, t.db, func(tx *sql.Tx) error {
		if err := checkRecipe(ctx, tx, i); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO ingredient (quantity, unit, name, recipe_id) VALUES (?, ?, ?, ?)`,
			i.Quantity, i.Unit, i.Name, i.RecipeID())
		if err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Ingredient{}, err
	}
	return t.Get(ctx, id)
}

func (t ingredientTable) Replace(ctx context.Context, i model.Ingredient) (model.Ingredient, error) {
	err := inTx(ctx, t.db, func(tx *sql.Tx) error {
		if err := checkRecipe(ctx, tx, i); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE ingredient SET quantity = ?, unit = ?, name = ?, recipe_id = ? WHERE id = ?`,
			i.Quantity, i.Unit, i.Name, i.RecipeID(), i.ID)
		if err != nil {
			return fmt.Errorf("update ingredient %d: %w", i.ID, err)
		}
		return affected(res)
	})
	if err != nil {
		return model.Ingredient{}, err
	}
	return t.Get(ctx, i.ID)
}

func (t ingredientTable) Delete(ctx context.Context, id int64, _ bool) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM ingredient WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ingredient %d: %w", id, err)
	}
	return affected(res)
}
