// Package listing implements the paginated list state shared by every list
// screen: an identifier-keyed accumulated set, a fetch page counter, a
// lookahead probe that decides whether "load more" is offered, and the
// display window that slices the accumulated list for rendering.
//
// Controller is a plain reducer. It never performs I/O: operations return the
// requests the caller must issue, and completions are fed back through Apply.
// Callers must serialize access (the Bubble Tea Update loop or Session).
package listing

import (
	"sort"
	"time"
)

// DefaultPageSize is used when a Config leaves PageSize unset
const DefaultPageSize = 20

// Kind distinguishes the two requests issued by a refresh cycle
type Kind int

const (
	// KindPage fetches the current page and merges it
	KindPage Kind = iota
	// KindProbe fetches the page after the current one to test for more data
	KindProbe
)

// String returns a short name for logging
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindProbe:
		return "probe"
	default:
		return "unknown"
	}
}

// Request describes one fetch the caller has to issue.
// Generation and Seq must be echoed back in the matching Result.
type Request struct {
	Seq        uint64
	Generation uint64
	Kind       Kind
	Page       int
	PageSize   int
}

// Result is the completion of a Request
type Result[T any] struct {
	Request Request
	Items   []T
	Err     error
}

// Change reports what an applied completion did to the state
type Change struct {
	Stale           bool // completion belonged to an older generation or probe
	ListChanged     bool // presented list was rebuilt
	LoadMoreChanged bool // load-more visibility flipped
}

// Config configures a Controller
type Config[T any] struct {
	// Name identifies the list in logs
	Name string

	// PageSize is the fetch granularity sent to the item source
	PageSize int

	// InitialPage is the page counter of a fresh or reset controller.
	// Requests count pages from zero at InitialPage.
	InitialPage int

	// Key returns the identity of an item. Required.
	Key func(T) string

	// Timestamp enables timestamp ordering. Nil keeps insertion order.
	Timestamp func(T) time.Time
}

// Controller owns the accumulated set and pagination state of one list
type Controller[T any] struct {
	cfg Config[T]

	set       *accumulator[T]
	presented []T

	page       int
	generation uint64
	seq        uint64
	lastProbe  uint64
	pending    int

	ascending bool
	loadMore  bool
}

// NewController creates a controller at its initial page with an empty set
func NewController[T any](cfg Config[T]) *Controller[T] {
	if cfg.Key == nil {
		panic("listing: Config.Key is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.InitialPage < 0 {
		cfg.InitialPage = 0
	}
	return &Controller[T]{
		cfg:  cfg,
		set:  newAccumulator[T](),
		page: cfg.InitialPage,
	}
}

// Refresh returns the page request for the current page and the lookahead
// probe for the page after it.
func (c *Controller[T]) Refresh() []Request {
	fetch := c.page - c.cfg.InitialPage
	page := c.next(KindPage, fetch)
	probe := c.next(KindProbe, fetch+1)
	c.lastProbe = probe.Seq
	c.pending++
	return []Request{page, probe}
}

// LoadMore advances the page counter and refreshes
func (c *Controller[T]) LoadMore() []Request {
	c.page++
	return c.Refresh()
}

// Reset starts a new generation: the page counter returns to its initial
// value, the accumulated set is cleared and a refresh is issued. Completions
// of requests issued before the reset are ignored by Apply.
func (c *Controller[T]) Reset() []Request {
	c.generation++
	c.page = c.cfg.InitialPage
	c.set.clear()
	c.presented = nil
	c.pending = 0
	c.loadMore = false
	return c.Refresh()
}

// SetSortAscending changes the presented order without fetching
func (c *Controller[T]) SetSortAscending(asc bool) {
	c.ascending = asc
	c.rebuild()
}

// Apply feeds a completion back into the controller. A failed completion of
// the current generation is returned as an error and changes nothing.
func (c *Controller[T]) Apply(res Result[T]) (Change, error) {
	req := res.Request
	if !c.IsCurrent(req.Generation) {
		return Change{Stale: true}, nil
	}

	switch req.Kind {
	case KindPage:
		if c.pending > 0 {
			c.pending--
		}
		if res.Err != nil {
			return Change{}, res.Err
		}
		for _, item := range res.Items {
			c.set.upsert(c.cfg.Key(item), item)
		}
		c.rebuild()
		return Change{ListChanged: true}, nil

	case KindProbe:
		if req.Seq < c.lastProbe {
			return Change{Stale: true}, nil
		}
		if res.Err != nil {
			return Change{}, res.Err
		}
		visible := len(res.Items) > 0
		changed := visible != c.loadMore
		c.loadMore = visible
		return Change{LoadMoreChanged: changed}, nil
	}

	return Change{}, nil
}

// Items returns the presented list: deduplicated and ordered
func (c *Controller[T]) Items() []T {
	out := make([]T, len(c.presented))
	copy(out, c.presented)
	return out
}

// Len returns the number of accumulated items
func (c *Controller[T]) Len() int { return c.set.len() }

// Has reports whether id is in the accumulated set
func (c *Controller[T]) Has(id string) bool {
	_, ok := c.set.get(id)
	return ok
}

// Get returns the accumulated item for id
func (c *Controller[T]) Get(id string) (T, bool) { return c.set.get(id) }

// Page returns the current fetch page
func (c *Controller[T]) Page() int { return c.page }

// PageSize returns the fetch page size
func (c *Controller[T]) PageSize() int { return c.cfg.PageSize }

// Generation returns the current generation tag
func (c *Controller[T]) Generation() uint64 { return c.generation }

// LoadMoreVisible reports the outcome of the newest lookahead probe
func (c *Controller[T]) LoadMoreVisible() bool { return c.loadMore }

// Ascending returns the sort direction
func (c *Controller[T]) Ascending() bool { return c.ascending }

// Loading reports whether page requests of the current generation are in flight
func (c *Controller[T]) Loading() bool { return c.pending > 0 }

// Name returns the configured list name
func (c *Controller[T]) Name() string { return c.cfg.Name }

// IsCurrent reports whether gen is the current generation
func (c *Controller[T]) IsCurrent(gen uint64) bool { return gen == c.generation }

func (c *Controller[T]) next(kind Kind, page int) Request {
	c.seq++
	return Request{
		Seq:        c.seq,
		Generation: c.generation,
		Kind:       kind,
		Page:       page,
		PageSize:   c.cfg.PageSize,
	}
}

// rebuild derives the presented list from the accumulated set.
// Equal timestamps keep their insertion order in both directions.
func (c *Controller[T]) rebuild() {
	items := c.set.values()
	if ts := c.cfg.Timestamp; ts != nil {
		asc := c.ascending
		sort.SliceStable(items, func(i, j int) bool {
			if asc {
				return ts(items[i]).Before(ts(items[j]))
			}
			return ts(items[i]).After(ts(items[j]))
		})
	}
	c.presented = items
}
