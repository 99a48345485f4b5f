package listing

// Paging pairs the fetch granularity with the display granularity. The two
// are independent: a list may fetch 20 items per request and show 4 per
// display page.
type Paging struct {
	FetchSize   int
	DisplaySize int
}

// Window computes the visible slice [start, end) of an accumulated list of n
// items for display page size p and page counter page.
//
// Lists no longer than one display page are shown whole. Otherwise the window
// is the tail of the list covering page display pages, and the last page
// absorbs the remainder. A page counter below 1 shows the first window.
func Window(n, p, page int) (start, end int) {
	if n <= 0 {
		return 0, 0
	}
	if p <= 0 || n <= p {
		return 0, n
	}
	if page < 1 {
		page = 1
	}

	available := (n + p - 1) / p
	if available > 1 && page == available {
		return 0, n
	}

	start = n - p*page
	if start < 0 {
		start = 0
	}
	return start, n
}

// Visible returns the display window of items
func Visible[T any](items []T, p, page int) []T {
	start, end := Window(len(items), p, page)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// HasHiddenItems reports whether the window for page hides part of the list
func HasHiddenItems(n, p, page int) bool {
	start, _ := Window(n, p, page)
	return start > 0
}
