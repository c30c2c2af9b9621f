package state

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/jacentio/recipes/model"
)

// ErrSubmitInProgress is returned when a write starts while another write
// on the same slice has not completed.
var ErrSubmitInProgress = errors.New("state: a submit is already in progress")

// API is the backend collection a Slice talks to. *client.Resource satisfies it.
type API[E model.Entity] interface {
	List(ctx context.Context) ([]E, error)
	Get(ctx context.Context, id int64) (E, error)
	Create(ctx context.Context, e E) (E, error)
	Update(ctx context.Context, e E) (E, error)
	Delete(ctx context.Context, id int64, cascade bool) error
}

// Slice owns the State of one entity type and the operations that change it.
//
// Reads are sequenced: when FetchList (or FetchOne) is called again before an
// earlier call completed, only the latest completion is applied to the state.
// Each call still returns its own response, so callers render what they
// fetched rather than reading it back from Snapshot. Writes are
// exclusive: Create, Update and Remove fail with ErrSubmitInProgress while
// Updating is set.
type Slice[E model.Entity] struct {
	api    API[E]
	kind   model.Kind
	logger *slog.Logger

	mu      sync.Mutex
	state   State[E]
	listSeq uint64
	oneSeq  uint64
	subs    map[int]func(State[E])
	nextSub int
}

// NewSlice creates an empty slice backed by api.
func NewSlice[E model.Entity](api API[E], logger *slog.Logger) *Slice[E] {
	if logger == nil {
		logger = slog.Default()
	}
	kind := model.KindOf[E]()
	return &Slice[E]{
		api:    api,
		kind:   kind,
		logger: logger.With("entity", kind.Name),
		subs:   make(map[int]func(State[E])),
	}
}

// Snapshot returns a copy of the current state.
func (s *Slice[E]) Snapshot() State[E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Slice[E]) snapshotLocked() State[E] {
	st := s.state
	st.Entities = slices.Clone(st.Entities)
	return st
}

// Subscribe registers fn to receive every new state. The returned func removes it.
func (s *Slice[E]) Subscribe(fn func(State[E])) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// dispatchLocked applies a and returns the subscribers to notify once mu is released.
func (s *Slice[E]) dispatchLocked(a Action[E]) func() {
	s.state = Reduce(s.state, a)
	if len(s.subs) == 0 {
		return func() {}
	}
	snap := s.snapshotLocked()
	fns := make([]func(State[E]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

func (s *Slice[E]) dispatch(a Action[E]) {
	s.mu.Lock()
	notify := s.dispatchLocked(a)
	s.mu.Unlock()
	notify()
}

// FetchList loads the whole collection into Entities and returns it. The
// returned items are this call's response even when a later FetchList
// superseded it in the state.
func (s *Slice[E]) FetchList(ctx context.Context) ([]E, error) {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	notify := s.dispatchLocked(Action[E]{Op: OpFetchList, Phase: PhaseRequest})
	s.mu.Unlock()
	notify()

	items, err := s.api.List(ctx)

	done := Action[E]{Op: OpFetchList, Phase: PhaseSuccess, Entities: items}
	if err != nil {
		done = Action[E]{Op: OpFetchList, Phase: PhaseFailure, Err: err}
	}
	s.complete(&s.listSeq, seq, done)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

// FetchOne loads the entity with id into Entity and returns it. On failure
// Entity keeps its previous value. The returned entity is the one with id
// even when a later FetchOne superseded it in the state.
func (s *Slice[E]) FetchOne(ctx context.Context, id int64) (E, error) {
	s.mu.Lock()
	s.oneSeq++
	seq := s.oneSeq
	notify := s.dispatchLocked(Action[E]{Op: OpFetchOne, Phase: PhaseRequest})
	s.mu.Unlock()
	notify()

	e, err := s.api.Get(ctx, id)

	done := Action[E]{Op: OpFetchOne, Phase: PhaseSuccess, Entity: e}
	if err != nil {
		done = Action[E]{Op: OpFetchOne, Phase: PhaseFailure, Err: err}
	}
	s.complete(&s.oneSeq, seq, done)
	return e, err
}

// complete applies a read completion unless a later read of the same op started.
func (s *Slice[E]) complete(latest *uint64, seq uint64, a Action[E]) {
	s.mu.Lock()
	if *latest != seq {
		s.mu.Unlock()
		s.logger.Debug("dropped superseded completion", "op", a.Op.String())
		return
	}
	notify := s.dispatchLocked(a)
	s.mu.Unlock()
	notify()
}

// Create stores a draft and makes the saved entity current.
func (s *Slice[E]) Create(ctx context.Context, e E) (E, error) {
	return s.write(ctx, OpCreate, 0, func(ctx context.Context) (E, error) {
		return s.api.Create(ctx, e)
	})
}

// Update replaces an existing entity and makes the saved entity current.
func (s *Slice[E]) Update(ctx context.Context, e E) (E, error) {
	return s.write(ctx, OpUpdate, e.EntityID(), func(ctx context.Context) (E, error) {
		return s.api.Update(ctx, e)
	})
}

// Remove deletes the entity with id and drops it from Entities.
func (s *Slice[E]) Remove(ctx context.Context, id int64) error {
	return s.remove(ctx, id, false)
}

// RemoveCascade deletes the entity with id together with everything it owns.
func (s *Slice[E]) RemoveCascade(ctx context.Context, id int64) error {
	return s.remove(ctx, id, true)
}

func (s *Slice[E]) remove(ctx context.Context, id int64, cascade bool) error {
	_, err := s.write(ctx, OpRemove, id, func(ctx context.Context) (E, error) {
		var zero E
		return zero, s.api.Delete(ctx, id, cascade)
	})
	return err
}

// write runs call as the single in-flight write. id is reported on success
// and is 0 for creates.
func (s *Slice[E]) write(ctx context.Context, op Op, id int64, call func(context.Context) (E, error)) (E, error) {
	var zero E

	s.mu.Lock()
	if s.state.Updating {
		s.mu.Unlock()
		return zero, ErrSubmitInProgress
	}
	notify := s.dispatchLocked(Action[E]{Op: op, Phase: PhaseRequest})
	s.mu.Unlock()
	notify()

	saved, err := call(ctx)
	if err != nil {
		s.logger.Info("write failed", "op", op.String(), "error", err)
		s.dispatch(Action[E]{Op: op, Phase: PhaseFailure, Err: err})
		return zero, err
	}

	s.dispatch(Action[E]{Op: op, Phase: PhaseSuccess, Entity: saved, ID: id})
	return saved, nil
}

// Reset clears Entity to an empty draft and clears the status flags.
// Entities is kept.
func (s *Slice[E]) Reset() {
	s.dispatch(Action[E]{Op: OpReset})
}
