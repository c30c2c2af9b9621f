// Package state holds the admin UI's per-session entity slices.
//
// Every change goes through Reduce, which turns the current State and one
// Action into the next State. A Slice serialises its dispatches, so a request
// phase is always followed by exactly one success or failure for the same
// operation.
package state

import (
	"slices"

	"github.com/jacentio/recipes/model"
)

// Op names a slice operation.
type Op int

const (
	OpFetchList Op = iota
	OpFetchOne
	OpCreate
	OpUpdate
	OpRemove
	OpReset
)

func (o Op) String() string {
	switch o {
	case OpFetchList:
		return "fetchList"
	case OpFetchOne:
		return "fetchOne"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	case OpReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Phase is the step of an operation an Action reports.
type Phase int

const (
	PhaseRequest Phase = iota
	PhaseSuccess
	PhaseFailure
)

// State is one entity type's slice of the admin session.
type State[E model.Entity] struct {
	Loading       bool
	ErrorMessage  string
	Entities      []E
	Entity        E
	Updating      bool
	UpdateSuccess bool
}

// Action is one dispatched transition.
type Action[E model.Entity] struct {
	Op    Op
	Phase Phase

	// Entities is the fetched list on OpFetchList success.
	Entities []E

	// Entity is the fetched or saved entity on OpFetchOne, OpCreate and OpUpdate success.
	Entity E

	// ID is the removed id on OpRemove success.
	ID int64

	// Err is set on failure.
	Err error
}

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce[E model.Entity](s State[E], a Action[E]) State[E] {
	if a.Op == OpReset {
		// an in-flight write keeps blocking resubmission
		return State[E]{Entities: s.Entities, Updating: s.Updating}
	}

	switch a.Phase {
	case PhaseRequest:
		s.ErrorMessage = ""
		switch a.Op {
		case OpFetchList, OpFetchOne:
			s.Loading = true
		default:
			s.Updating = true
			s.UpdateSuccess = false
		}
	case PhaseFailure:
		if a.Err != nil {
			s.ErrorMessage = a.Err.Error()
		}
		switch a.Op {
		case OpFetchList, OpFetchOne:
			s.Loading = false
		default:
			s.Updating = false
			s.UpdateSuccess = false
		}
	case PhaseSuccess:
		switch a.Op {
		case OpFetchList:
			s.Loading = false
			s.Entities = a.Entities
		case OpFetchOne:
			s.Loading = false
			s.Entity = a.Entity
		case OpCreate:
			s.Updating = false
			s.UpdateSuccess = true
			s.Entity = a.Entity
		case OpUpdate:
			s.Updating = false
			s.UpdateSuccess = true
			s.Entity = a.Entity
			s.Entities = replaceByID(s.Entities, a.Entity)
		case OpRemove:
			s.Updating = false
			s.UpdateSuccess = true
			s.Entities = slices.DeleteFunc(slices.Clone(s.Entities), func(e E) bool {
				return e.EntityID() == a.ID
			})
			if s.Entity.EntityID() == a.ID {
				var zero E
				s.Entity = zero
			}
		}
	}
	return s
}

func replaceByID[E model.Entity](items []E, e E) []E {
	i := slices.IndexFunc(items, func(x E) bool { return x.EntityID() == e.EntityID() })
	if i < 0 {
		return items
	}
	out := slices.Clone(items)
	out[i] = e
	return out
}
