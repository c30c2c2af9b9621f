package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jacentio/recipes/model"
)

// Resource is the REST collection of one entity type.
type Resource[E model.Entity] struct {
	c    *Client
	kind model.Kind
}

// For returns the collection of E served by c.
func For[E model.Entity](c *Client) *Resource[E] {
	return &Resource[E]{c: c, kind: model.KindOf[E]()}
}

func Authors(c *Client) *Resource[model.Author]         { return For[model.Author](c) }
func Recipes(c *Client) *Resource[model.Recipe]         { return For[model.Recipe](c) }
func Ingredients(c *Client) *Resource[model.Ingredient] { return For[model.Ingredient](c) }

// Kind returns the entity kind of the collection.
func (r *Resource[E]) Kind() model.Kind {
	return r.kind
}

func (r *Resource[E]) item(id int64) string {
	return r.c.apipath(r.kind.Plural, strconv.FormatInt(id, 10))
}

// List fetches the whole collection: GET /api/{plural}.
func (r *Resource[E]) List(ctx context.Context) ([]E, error) {
	resp, err := r.c.do(ctx, http.MethodGet, r.c.apipath(r.kind.Plural), nil)
	if err != nil {
		return nil, err
	}
	var out []E
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage fetches one page and the collection size from X-Total-Count.
func (r *Resource[E]) ListPage(ctx context.Context, req model.PageRequest) (model.Page[E], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("size", strconv.Itoa(req.Size))
	if req.Desc {
		q.Set("sort", "id,desc")
	}
	resp, err := r.c.do(ctx, http.MethodGet, r.c.apipath(r.kind.Plural)+"?"+q.Encode(), nil)
	if err != nil {
		return model.Page[E]{}, err
	}
	total, _ := strconv.Atoi(resp.Header.Get("X-Total-Count"))

	var items []E
	if err := decode(resp, &items); err != nil {
		return model.Page[E]{}, err
	}
	return model.Page[E]{Items: items, Total: total}, nil
}

// Get fetches one entity: GET /api/{plural}/{id}.
func (r *Resource[E]) Get(ctx context.Context, id int64) (E, error) {
	var out E
	resp, err := r.c.do(ctx, http.MethodGet, r.item(id), nil)
	if err != nil {
		return out, err
	}
	err = decode(resp, &out)
	return out, err
}

// Create stores a draft: POST /api/{plural}. The result carries the assigned id.
func (r *Resource[E]) Create(ctx context.Context, e E) (E, error) {
	var out E
	resp, err := r.c.do(ctx, http.MethodPost, r.c.apipath(r.kind.Plural), e)
	if err != nil {
		return out, err
	}
	err = decode(resp, &out)
	return out, err
}

// Update replaces an existing entity: PUT /api/{plural}/{id}.
func (r *Resource[E]) Update(ctx context.Context, e E) (E, error) {
	var out E
	resp, err := r.c.do(ctx, http.MethodPut, r.item(e.EntityID()), e)
	if err != nil {
		return out, err
	}
	err = decode(resp, &out)
	return out, err
}

// Delete removes an entity: DELETE /api/{plural}/{id}. With cascade set,
// everything the entity owns is removed too.
func (r *Resource[E]) Delete(ctx context.Context, id int64, cascade bool) error {
	target := r.item(id)
	if cascade {
		target += "?cascade=true"
	}
	resp, err := r.c.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
