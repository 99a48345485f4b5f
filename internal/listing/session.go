package listing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrSessionClosed is returned by Session methods after Close
var ErrSessionClosed = errors.New("listing session closed")

// Fetcher loads one page of items from a remote source
type Fetcher[T any] interface {
	Fetch(ctx context.Context, page, size int) ([]T, error)
}

// FetchFunc adapts a function to Fetcher
type FetchFunc[T any] func(ctx context.Context, page, size int) ([]T, error)

// Fetch calls f
func (f FetchFunc[T]) Fetch(ctx context.Context, page, size int) ([]T, error) {
	return f(ctx, page, size)
}

// Snapshot is a copy of a Session's state after a change
type Snapshot[T any] struct {
	Items      []T
	Page       int
	Generation uint64
	LoadMore   bool
	Ascending  bool
	Busy       bool
	Err        error
}

// Session runs a Controller on its own goroutine. Commands and fetch
// completions are queued on a single mailbox and applied one at a time, so
// two completions can never interleave a merge. Fetches run concurrently.
type Session[T any] struct {
	ctrl    *Controller[T]
	fetcher Fetcher[T]
	logger  *slog.Logger

	mailbox chan func()
	updates chan Snapshot[T]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once

	// owned by the run loop
	inflight int
	lastErr  error
	waiters  []chan Snapshot[T]
}

// NewSession starts a session goroutine. Call Close to stop it.
func NewSession[T any](ctrl *Controller[T], fetcher Fetcher[T], logger *slog.Logger) *Session[T] {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session[T]{
		ctrl:    ctrl,
		fetcher: fetcher,
		logger:  logger.With("list", ctrl.Name()),
		mailbox: make(chan func(), 64),
		updates: make(chan Snapshot[T], 16),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Updates delivers a snapshot after every state change. Snapshots are
// dropped when the consumer falls behind; Idle always returns settled state.
func (s *Session[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Refresh queues a refresh cycle
func (s *Session[T]) Refresh() error {
	return s.post(func() { s.issue(s.ctrl.Refresh()) })
}

// LoadMore queues a page advance
func (s *Session[T]) LoadMore() error {
	return s.post(func() { s.issue(s.ctrl.LoadMore()) })
}

// Reset queues a reset to the initial page with an empty set
func (s *Session[T]) Reset() error {
	return s.post(func() { s.issue(s.ctrl.Reset()) })
}

// Sort queues a sort direction change
func (s *Session[T]) Sort(ascending bool) error {
	return s.post(func() {
		s.ctrl.SetSortAscending(ascending)
		s.publish()
	})
}

// Mutate queues a single-item mutation. run performs the remote call; its
// outcome is applied through Controller.Complete on the session goroutine.
func (s *Session[T]) Mutate(action Action, item T, run func(ctx context.Context) error) error {
	return s.post(func() {
		m := s.ctrl.Begin(action, item)
		s.lastErr = nil
		s.inflight++
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := run(s.ctx)
			s.post(func() {
				s.inflight--
				reqs, err := s.ctrl.Complete(m, err)
				if err != nil {
					s.logger.Warn("mutation failed", "action", m.Action, "id", m.ID, "error", err)
					s.lastErr = err
				}
				s.issue(reqs)
			})
		}()
	})
}

// Idle waits until no fetch or mutation is in flight and returns the state
func (s *Session[T]) Idle(ctx context.Context) (Snapshot[T], error) {
	reply := make(chan Snapshot[T], 1)
	if err := s.post(func() {
		if s.inflight == 0 {
			reply <- s.snapshot()
			return
		}
		s.waiters = append(s.waiters, reply)
	}); err != nil {
		return Snapshot[T]{}, err
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot[T]{}, ctx.Err()
	case <-s.done:
		return Snapshot[T]{}, ErrSessionClosed
	}
}

// Close cancels in-flight fetches and stops the session goroutine
func (s *Session[T]) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.wg.Wait()
		close(s.updates)
	})
}

func (s *Session[T]) run() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.mailbox:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session[T]) post(fn func()) error {
	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	default:
	}
	select {
	case s.mailbox <- fn:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// issue starts one goroutine per request. Runs on the session goroutine.
func (s *Session[T]) issue(reqs []Request) {
	if len(reqs) > 0 {
		s.lastErr = nil
	}
	for _, req := range reqs {
		s.inflight++
		s.wg.Add(1)
		go func(req Request) {
			defer s.wg.Done()
			items, err := s.fetcher.Fetch(s.ctx, req.Page, req.PageSize)
			s.post(func() { s.complete(Result[T]{Request: req, Items: items, Err: err}) })
		}(req)
	}
	s.publish()
}

func (s *Session[T]) complete(res Result[T]) {
	s.inflight--
	change, err := s.ctrl.Apply(res)
	switch {
	case err != nil:
		s.logger.Warn("fetch failed", "kind", res.Request.Kind, "page", res.Request.Page, "error", err)
		s.lastErr = err
	case change.Stale:
		s.logger.Debug("dropped stale completion",
			"kind", res.Request.Kind, "page", res.Request.Page, "generation", res.Request.Generation)
	}
	s.publish()
}

func (s *Session[T]) publish() {
	snap := s.snapshot()
	select {
	case s.updates <- snap:
	default:
	}

	if s.inflight == 0 && len(s.waiters) > 0 {
		for _, w := range s.waiters {
			w <- snap
		}
		s.waiters = nil
	}
}

func (s *Session[T]) snapshot() Snapshot[T] {
	return Snapshot[T]{
		Items:      s.ctrl.Items(),
		Page:       s.ctrl.Page(),
		Generation: s.ctrl.Generation(),
		LoadMore:   s.ctrl.LoadMoreVisible(),
		Ascending:  s.ctrl.Ascending(),
		Busy:       s.inflight > 0,
		Err:        s.lastErr,
	}
}
