package listing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string
	Body string
	At   time.Time
}

func at(sec int64) time.Time { return time.Unix(sec, 0) }

func newNotes(pageSize int) *Controller[note] {
	return NewController(Config[note]{
		Name:      "notes",
		PageSize:  pageSize,
		Key:       func(n note) string { return n.ID },
		Timestamp: func(n note) time.Time { return n.At },
	})
}

func newPlain(pageSize int) *Controller[note] {
	return NewController(Config[note]{
		Name:     "plain",
		PageSize: pageSize,
		Key:      func(n note) string { return n.ID },
	})
}

// split returns the page and probe requests of a refresh cycle
func split(t *testing.T, reqs []Request) (Request, Request) {
	t.Helper()
	require.Len(t, reqs, 2)
	require.Equal(t, KindPage, reqs[0].Kind)
	require.Equal(t, KindProbe, reqs[1].Kind)
	return reqs[0], reqs[1]
}

func ids(items []note) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestRefresh_IssuesPageAndProbe(t *testing.T) {
	c := newPlain(2)

	page, probe := split(t, c.Refresh())

	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 1, probe.Page)
	assert.Equal(t, 2, probe.PageSize)
	assert.Equal(t, page.Generation, probe.Generation)
	assert.Less(t, page.Seq, probe.Seq)
	assert.True(t, c.Loading())
}

func TestApply_UnionWithLastWriteWins(t *testing.T) {
	c := newPlain(2)

	page, _ := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: page, Items: []note{{ID: "a", Body: "a1"}, {ID: "b", Body: "b1"}}})
	require.NoError(t, err)

	page, _ = split(t, c.Refresh())
	_, err = c.Apply(Result[note]{Request: page, Items: []note{{ID: "b", Body: "b2"}, {ID: "c", Body: "c1"}}})
	require.NoError(t, err)

	want := []note{{ID: "a", Body: "a1"}, {ID: "b", Body: "b2"}, {ID: "c", Body: "c1"}}
	if diff := cmp.Diff(want, c.Items()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Loading())
}

func TestRefresh_IsIdempotent(t *testing.T) {
	c := newPlain(3)
	backend := []note{{ID: "x"}, {ID: "y"}, {ID: "z"}}

	for i := 0; i < 3; i++ {
		page, _ := split(t, c.Refresh())
		_, err := c.Apply(Result[note]{Request: page, Items: backend})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"x", "y", "z"}, ids(c.Items()))
}

func TestReset_ReproducesOriginalList(t *testing.T) {
	c := newNotes(20)
	backend := []note{{ID: "a", At: at(10)}, {ID: "b", At: at(30)}, {ID: "c", At: at(20)}}

	page, _ := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: page, Items: backend})
	require.NoError(t, err)
	first := c.Items()

	page, _ = split(t, c.Reset())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, page.Page)
	_, err = c.Apply(Result[note]{Request: page, Items: backend})
	require.NoError(t, err)

	if diff := cmp.Diff(first, c.Items()); diff != "" {
		t.Errorf("reset changed the list (-first +after):\n%s", diff)
	}
}

func TestLoadMore_IsMonotonic(t *testing.T) {
	c := newPlain(2)
	c.Refresh()

	page, probe := split(t, c.LoadMore())
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, probe.Page)

	c.LoadMore()
	assert.Equal(t, 2, c.Page())

	c.Reset()
	assert.Equal(t, 0, c.Page())
}

func TestProbe_TogglesLoadMore(t *testing.T) {
	c := newPlain(2)

	_, probe := split(t, c.Refresh())
	change, err := c.Apply(Result[note]{Request: probe, Items: []note{{ID: "next"}}})
	require.NoError(t, err)
	assert.True(t, change.LoadMoreChanged)
	assert.True(t, c.LoadMoreVisible())

	_, probe = split(t, c.LoadMore())
	change, err = c.Apply(Result[note]{Request: probe})
	require.NoError(t, err)
	assert.True(t, change.LoadMoreChanged)
	assert.False(t, c.LoadMoreVisible())
}

func TestProbe_PayloadIsNotMerged(t *testing.T) {
	c := newPlain(2)

	_, probe := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: probe, Items: []note{{ID: "p1"}, {ID: "p2"}}})
	require.NoError(t, err)

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("p1"))
}

func TestProbe_SupersededProbeIsIgnored(t *testing.T) {
	c := newPlain(2)

	_, oldProbe := split(t, c.Refresh())
	_, newProbe := split(t, c.LoadMore())

	_, err := c.Apply(Result[note]{Request: newProbe})
	require.NoError(t, err)
	change, err := c.Apply(Result[note]{Request: oldProbe, Items: []note{{ID: "late"}}})
	require.NoError(t, err)

	assert.True(t, change.Stale)
	assert.False(t, c.LoadMoreVisible())
}

func TestApply_OutOfOrderCompletions(t *testing.T) {
	c := newPlain(2)

	page, probe := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: probe, Items: []note{{ID: "c"}}})
	require.NoError(t, err)
	_, err = c.Apply(Result[note]{Request: page, Items: []note{{ID: "a"}, {ID: "b"}}})
	require.NoError(t, err)

	assert.True(t, c.LoadMoreVisible())
	assert.Equal(t, []string{"a", "b"}, ids(c.Items()))
}

func TestApply_StaleGenerationIsDropped(t *testing.T) {
	c := newPlain(2)

	page, _ := split(t, c.Refresh())
	c.Reset()

	change, err := c.Apply(Result[note]{Request: page, Items: []note{{ID: "old"}}})
	require.NoError(t, err)
	assert.True(t, change.Stale)
	assert.Equal(t, 0, c.Len())

	change, err = c.Apply(Result[note]{Request: page, Err: errors.New("boom")})
	require.NoError(t, err, "stale failures are not surfaced")
	assert.True(t, change.Stale)
}

func TestApply_FailureLeavesStateUntouched(t *testing.T) {
	c := newPlain(2)

	page, probe := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: page, Items: []note{{ID: "a"}}})
	require.NoError(t, err)
	_, err = c.Apply(Result[note]{Request: probe, Items: []note{{ID: "b"}}})
	require.NoError(t, err)

	boom := errors.New("server down")
	page, probe = split(t, c.LoadMore())
	_, err = c.Apply(Result[note]{Request: page, Err: boom})
	assert.ErrorIs(t, err, boom)
	_, err = c.Apply(Result[note]{Request: probe, Err: boom})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"a"}, ids(c.Items()))
	assert.True(t, c.LoadMoreVisible())
	assert.Equal(t, 1, c.Page())
}

func TestSort_ByTimestamp(t *testing.T) {
	c := newNotes(20)
	page, _ := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: page, Items: []note{
		{ID: "ten", At: at(10)},
		{ID: "thirty", At: at(30)},
		{ID: "twenty", At: at(20)},
	}})
	require.NoError(t, err)

	assert.False(t, c.Ascending(), "default is newest first")
	original := ids(c.Items())
	assert.Equal(t, []string{"thirty", "twenty", "ten"}, original)

	c.SetSortAscending(true)
	assert.Equal(t, []string{"ten", "twenty", "thirty"}, ids(c.Items()))

	c.SetSortAscending(false)
	assert.Equal(t, original, ids(c.Items()))
}

func TestSort_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	c := newNotes(20)
	page, _ := split(t, c.Refresh())
	_, err := c.Apply(Result[note]{Request: page, Items: []note{
		{ID: "first", At: at(5)},
		{ID: "second", At: at(5)},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, ids(c.Items()))
	c.SetSortAscending(true)
	assert.Equal(t, []string{"first", "second"}, ids(c.Items()))
}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(Config[note]{Key: func(n note) string { return n.ID }, InitialPage: -3})
	assert.Equal(t, DefaultPageSize, c.PageSize())
	assert.Equal(t, 0, c.Page())

	assert.Panics(t, func() { NewController(Config[note]{}) })
}

func TestInitialPage_CountsFromOneFetchesFromZero(t *testing.T) {
	c := NewController(Config[note]{Key: func(n note) string { return n.ID }, PageSize: 3, InitialPage: 1})
	assert.Equal(t, 1, c.Page())

	page, probe := split(t, c.Refresh())
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 1, probe.Page)

	page, probe = split(t, c.LoadMore())
	assert.Equal(t, 2, c.Page())
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, probe.Page)

	page, _ = split(t, c.Reset())
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, 0, page.Page)
}
