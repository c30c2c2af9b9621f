package state_test

import (
	"context"
	"sync"

	"github.com/jacentio/recipes/model"
)

// fakeAPI records calls and answers through optional hooks.
type fakeAPI[E model.Entity] struct {
	list   func(ctx context.Context) ([]E, error)
	get    func(ctx context.Context, id int64) (E, error)
	create func(ctx context.Context, e E) (E, error)
	update func(ctx context.Context, e E) (E, error)
	del    func(ctx context.Context, id int64, cascade bool) error

	mu    sync.Mutex
	calls []string
}

func (f *fakeAPI[E]) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI[E]) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI[E]) List(ctx context.Context) ([]E, error) {
	f.record("list")
	if f.list == nil {
		return nil, nil
	}
	return f.list(ctx)
}

func (f *fakeAPI[E]) Get(ctx context.Context, id int64) (E, error) {
	f.record("get")
	var zero E
	if f.get == nil {
		return zero, nil
	}
	return f.get(ctx, id)
}

func (f *fakeAPI[E]) Create(ctx context.Context, e E) (E, error) {
	f.record("create")
	if f.create == nil {
		return e, nil
	}
	return f.create(ctx, e)
}

func (f *fakeAPI[E]) Update(ctx context.Context, e E) (E, error) {
	f.record("update")
	if f.update == nil {
		return e, nil
	}
	return f.update(ctx, e)
}

func (f *fakeAPI[E]) Delete(ctx context.Context, id int64, cascade bool) error {
	if cascade {
		f.record("delete-cascade")
	} else {
		f.record("delete")
	}
	if f.del == nil {
		return nil
	}
	return f.del(ctx, id, cascade)
}
