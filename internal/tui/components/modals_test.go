package components

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortModal_ToggleAndSelect(t *testing.T) {
	tests := []struct {
		name   string
		active SortDirection
		keys   []string
		want   *SortDirection
	}{
		{"toggle from newest", SortNewest, []string{"s"}, ptr(SortOldest)},
		{"toggle from oldest", SortOldest, []string{"s"}, ptr(SortNewest)},
		{"move and enter", SortNewest, []string{"j", "enter"}, ptr(SortOldest)},
		{"escape", SortNewest, []string{"esc"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSortModal()
			m.Show(tt.active)

			var got *SortDirection
			for _, k := range tt.keys {
				handled, sel := m.HandleKey(k)
				require.True(t, handled)
				got = sel
			}

			assert.Equal(t, tt.want, got)
			assert.False(t, m.IsVisible())
		})
	}
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, SortOldest, DirectionFor(true))
	assert.Equal(t, SortNewest, DirectionFor(false))
	assert.True(t, DirectionFor(true).Ascending())
}

func TestSearchModal_CyclesStatusAndTrimsFilter(t *testing.T) {
	m := NewSearchModal()
	m.Show(domain.DefaultCaseSearchRequest())

	m, _, req := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Nil(t, req)
	m, _, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("  printer ")})
	m, _, req = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, req)
	assert.Equal(t, domain.CaseStatusCancelled, req.Status)
	assert.Equal(t, "printer", req.Filter)
	assert.Equal(t, "CorrelationKey", req.SortBy)
	assert.False(t, m.IsVisible())
}

func TestSearchModal_EscapeKeepsRequest(t *testing.T) {
	m := NewSearchModal()
	m.Show(domain.DefaultCaseSearchRequest())

	m, _, req := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, req)
	assert.False(t, m.IsVisible())
}

func TestInputModal_ErrorClearsOnShow(t *testing.T) {
	m := NewInputModal()
	m.Show("Add comment", "")
	m.SetError(errors.New("comment text is empty"))
	assert.Contains(t, m.View(), "comment text is empty")

	m.Show("Add comment", "draft")
	assert.NotContains(t, m.View(), "comment text is empty")
	assert.Equal(t, "draft", m.Value())
}

func TestConfirmModal_Answers(t *testing.T) {
	m := NewConfirmModal()
	m.Show("Destroy case?", "gone for good")

	_, confirmed := m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, confirmed)
	assert.True(t, m.IsVisible())

	_, confirmed = m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.True(t, confirmed)
	assert.False(t, m.IsVisible())
}

func TestPickerModal_ChoosesItem(t *testing.T) {
	m := NewPickerModal()
	m.Show("Start case", "none", []PickerItem{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}})

	m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	_, chosen := m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, chosen)
	assert.Equal(t, "b", chosen.ID)
	assert.False(t, m.IsVisible())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.NotEmpty(t, RelativeTime(now.Add(-3*time.Hour), now))
	assert.NotEqual(t, RelativeTime(now.Add(-3*time.Hour), now), RelativeTime(now.Add(-72*time.Hour), now))
}

func ptr[T any](v T) *T { return &v }
