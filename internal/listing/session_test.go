package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pagedSource serves fixed pages and can hold individual pages back
type pagedSource struct {
	mu    sync.Mutex
	items []note
	fail  error
	gates map[int]chan struct{}
	calls []int
}

func (s *pagedSource) Fetch(ctx context.Context, page, size int) ([]note, error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	gate := s.gates[page]
	fail := s.fail
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail != nil {
		return nil, fail
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := page * size
	if start >= len(s.items) {
		return nil, nil
	}
	end := min(start+size, len(s.items))
	out := make([]note, end-start)
	copy(out, s.items[start:end])
	return out, nil
}

func idle(t *testing.T, s *Session[note]) Snapshot[note] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.Idle(ctx)
	require.NoError(t, err)
	return snap
}

func fiveNotes() []note {
	return []note{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
}

func TestSession_RefreshAndLoadMore(t *testing.T) {
	src := &pagedSource{items: fiveNotes()}
	s := NewSession(newPlain(2), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())
	snap := idle(t, s)
	assert.Equal(t, []string{"1", "2"}, ids(snap.Items))
	assert.True(t, snap.LoadMore)

	require.NoError(t, s.LoadMore())
	idle(t, s)
	require.NoError(t, s.LoadMore())
	snap = idle(t, s)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(snap.Items))
	assert.False(t, snap.LoadMore)
	assert.Equal(t, 2, snap.Page)
	assert.False(t, snap.Busy)
}

func TestSession_FetchErrorIsReported(t *testing.T) {
	boom := errors.New("unreachable")
	src := &pagedSource{items: fiveNotes(), fail: boom}
	s := NewSession(newPlain(2), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())
	snap := idle(t, s)

	assert.ErrorIs(t, snap.Err, boom)
	assert.Empty(t, snap.Items)
}

func TestSession_ResetDiscardsLateCompletion(t *testing.T) {
	gate := make(chan struct{})
	src := &pagedSource{items: fiveNotes(), gates: map[int]chan struct{}{0: gate}}
	s := NewSession(newPlain(2), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())

	// Swap the backend and reset while page 0 of the first generation is held.
	src.mu.Lock()
	src.items = []note{{ID: "fresh"}}
	src.gates = nil
	src.mu.Unlock()
	require.NoError(t, s.Reset())
	close(gate)

	snap := idle(t, s)
	assert.Equal(t, []string{"fresh"}, ids(snap.Items))
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestSession_MutateDelete(t *testing.T) {
	src := &pagedSource{items: fiveNotes()}
	s := NewSession(newPlain(5), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())
	idle(t, s)

	var called bool
	require.NoError(t, s.Mutate(ActionDelete, note{ID: "3"}, func(ctx context.Context) error {
		called = true
		src.mu.Lock()
		src.items = append(src.items[:2:2], src.items[3:]...)
		src.mu.Unlock()
		return nil
	}))

	snap := idle(t, s)
	assert.True(t, called)
	assert.Equal(t, []string{"1", "2", "4", "5"}, ids(snap.Items))
}

func TestSession_MutateFailureKeepsItems(t *testing.T) {
	src := &pagedSource{items: fiveNotes()}
	s := NewSession(newPlain(5), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())
	idle(t, s)

	boom := errors.New("denied")
	require.NoError(t, s.Mutate(ActionDelete, note{ID: "3"}, func(ctx context.Context) error {
		return boom
	}))

	snap := idle(t, s)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Len(t, snap.Items, 5)
}

func TestSession_Sort(t *testing.T) {
	src := &pagedSource{items: []note{{ID: "a", At: at(1)}, {ID: "b", At: at(2)}}}
	s := NewSession(newNotes(5), src, nil)
	defer s.Close()

	require.NoError(t, s.Refresh())
	assert.Equal(t, []string{"b", "a"}, ids(idle(t, s).Items))

	require.NoError(t, s.Sort(true))
	snap := idle(t, s)
	assert.True(t, snap.Ascending)
	assert.Equal(t, []string{"a", "b"}, ids(snap.Items))
}

func TestSession_CloseCancelsInflight(t *testing.T) {
	src := &pagedSource{items: fiveNotes(), gates: map[int]chan struct{}{0: make(chan struct{})}}
	s := NewSession(newPlain(2), src, nil)

	require.NoError(t, s.Refresh())
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Refresh(), ErrSessionClosed)
	_, err := s.Idle(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_UpdatesChannelClosesOnClose(t *testing.T) {
	s := NewSession(newPlain(2), &pagedSource{}, nil)
	require.NoError(t, s.Refresh())
	idle(t, s)
	s.Close()

	for range s.Updates() {
	}
}
