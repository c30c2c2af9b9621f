package state

import (
	"errors"
	"testing"

	"github.com/jacentio/recipes/model"
)

func authors(ids ...int64) []model.Author {
	out := make([]model.Author, len(ids))
	for i, id := range ids {
		out[i] = model.Author{ID: id}
	}
	return out
}

func ids(items []model.Author) []int64 {
	out := make([]int64, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

func TestReduce(t *testing.T) {
	boom := errors.New("boom")
	loaded := State[model.Author]{Entities: authors(1, 2, 3), Entity: model.Author{ID: 2, Name: "Bo"}}

	tests := []struct {
		name   string
		start  State[model.Author]
		action Action[model.Author]
		check  func(t *testing.T, got State[model.Author])
	}{
		{
			name:   "fetch list request",
			start:  State[model.Author]{ErrorMessage: "old"},
			action: Action[model.Author]{Op: OpFetchList, Phase: PhaseRequest},
			check: func(t *testing.T, got State[model.Author]) {
				if !got.Loading || got.ErrorMessage != "" {
					t.Errorf("got %+v, want loading without error", got)
				}
			},
		},
		{
			name:   "fetch list success",
			start:  State[model.Author]{Loading: true},
			action: Action[model.Author]{Op: OpFetchList, Phase: PhaseSuccess, Entities: authors(4, 5)},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Loading || len(got.Entities) != 2 {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "fetch one failure keeps entity",
			start:  State[model.Author]{Loading: true, Entity: model.Author{ID: 7}},
			action: Action[model.Author]{Op: OpFetchOne, Phase: PhaseFailure, Err: boom},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Loading || got.ErrorMessage != "boom" || got.Entity.ID != 7 {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "update request clears success",
			start:  State[model.Author]{UpdateSuccess: true},
			action: Action[model.Author]{Op: OpUpdate, Phase: PhaseRequest},
			check: func(t *testing.T, got State[model.Author]) {
				if !got.Updating || got.UpdateSuccess {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "create success",
			start:  State[model.Author]{Updating: true},
			action: Action[model.Author]{Op: OpCreate, Phase: PhaseSuccess, Entity: model.Author{ID: 1, Name: "Julia"}},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Updating || !got.UpdateSuccess || got.Entity.ID != 1 {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "update success replaces list entry",
			start:  loaded,
			action: Action[model.Author]{Op: OpUpdate, Phase: PhaseSuccess, Entity: model.Author{ID: 2, Name: "Bea"}},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Entities[1].Name != "Bea" || got.Entity.Name != "Bea" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "create failure",
			start:  State[model.Author]{Updating: true},
			action: Action[model.Author]{Op: OpCreate, Phase: PhaseFailure, Err: boom},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Updating || got.UpdateSuccess || got.ErrorMessage != "boom" {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "remove success",
			start:  loaded,
			action: Action[model.Author]{Op: OpRemove, Phase: PhaseSuccess, ID: 2},
			check: func(t *testing.T, got State[model.Author]) {
				if len(got.Entities) != 2 || got.Entities[0].ID != 1 || got.Entities[1].ID != 3 {
					t.Errorf("Entities = %v, want [1 3]", ids(got.Entities))
				}
				if got.Entity.ID != 0 || !got.UpdateSuccess {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "remove other keeps entity",
			start:  loaded,
			action: Action[model.Author]{Op: OpRemove, Phase: PhaseSuccess, ID: 3},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Entity.ID != 2 || len(got.Entities) != 2 {
					t.Errorf("got %+v", got)
				}
			},
		},
		{
			name:   "reset",
			start:  State[model.Author]{Entities: authors(1), Entity: model.Author{ID: 1}, ErrorMessage: "x", UpdateSuccess: true, Loading: true},
			action: Action[model.Author]{Op: OpReset},
			check: func(t *testing.T, got State[model.Author]) {
				if got.Entity.ID != 0 || got.UpdateSuccess || got.ErrorMessage != "" || got.Loading {
					t.Errorf("got %+v", got)
				}
				if len(got.Entities) != 1 {
					t.Errorf("reset dropped entities")
				}
			},
		},
		{
			name:   "reset keeps in-flight write",
			start:  State[model.Author]{Updating: true},
			action: Action[model.Author]{Op: OpReset},
			check: func(t *testing.T, got State[model.Author]) {
				if !got.Updating {
					t.Errorf("reset cleared Updating")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Reduce(tt.start, tt.action))
		})
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	start := State[model.Author]{Entities: authors(1, 2, 3)}
	Reduce(start, Action[model.Author]{Op: OpRemove, Phase: PhaseSuccess, ID: 1})
	Reduce(start, Action[model.Author]{Op: OpUpdate, Phase: PhaseSuccess, Entity: model.Author{ID: 3, Name: "x"}})

	if got := ids(start.Entities); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("input entities = %v, want [1 2 3]", got)
	}
	if start.Entities[2].Name != "" {
		t.Errorf("input entity mutated: %+v", start.Entities[2])
	}
}

func TestOpString(t *testing.T) {
	if OpFetchOne.String() != "fetchOne" || OpRemove.String() != "remove" || Op(99).String() != "unknown" {
		t.Error("Op.String() mismatch")
	}
}
