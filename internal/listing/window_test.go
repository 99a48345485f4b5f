package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		n, p      int
		page      int
		wantStart int
		wantEnd   int
	}{
		{"empty", 0, 4, 1, 0, 0},
		{"fits in one page", 3, 4, 1, 0, 3},
		{"exactly one page", 4, 4, 3, 0, 4},
		{"tail of first page", 5, 4, 1, 1, 5},
		{"last page absorbs remainder", 5, 4, 2, 0, 5},
		{"middle page", 10, 4, 2, 2, 10},
		{"page beyond available clamps", 10, 4, 7, 0, 10},
		{"zero page shows first window", 5, 4, 0, 1, 5},
		{"non-positive display size shows all", 5, 0, 1, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.n, tt.p, tt.page)
			assert.Equal(t, tt.wantStart, start, "start")
			assert.Equal(t, tt.wantEnd, end, "end")
		})
	}
}

func TestVisible_TailSlice(t *testing.T) {
	items := []string{"1", "2", "3", "4", "5"}

	assert.Equal(t, []string{"2", "3", "4", "5"}, Visible(items, 4, 1))
	assert.Equal(t, items, Visible(items, 4, 2))
	assert.Empty(t, Visible([]string{}, 4, 1))
}

func TestVisible_ReturnsCopy(t *testing.T) {
	items := []string{"a", "b"}
	got := Visible(items, 4, 1)
	got[0] = "z"
	assert.Equal(t, "a", items[0])
}

func TestHasHiddenItems(t *testing.T) {
	assert.True(t, HasHiddenItems(5, 4, 1))
	assert.False(t, HasHiddenItems(5, 4, 2))
	assert.False(t, HasHiddenItems(3, 4, 1))
	assert.False(t, HasHiddenItems(0, 4, 1))
}

// Fetch and display sizes are configured independently: a 20-item fetch page
// is shown four at a time.
func TestPaging_TwoTiers(t *testing.T) {
	paging := Paging{FetchSize: 20, DisplaySize: 4}
	c := NewController(Config[note]{PageSize: paging.FetchSize, Key: func(n note) string { return n.ID }})

	reqs := c.Refresh()
	assert.Equal(t, 20, reqs[0].PageSize)

	items := make([]note, 9)
	for i := range items {
		items[i] = note{ID: string(rune('a' + i))}
	}
	_, err := c.Apply(Result[note]{Request: reqs[0], Items: items})
	assert.NoError(t, err)

	visible := Visible(c.Items(), paging.DisplaySize, 1)
	assert.Len(t, visible, 4)
	assert.Equal(t, "f", visible[0].ID)
}
