package domain

// Store handles local state that outlives a session: recently visited
// cases and unsent comment drafts. List contents are never persisted.
type Store interface {
	// === Recent cases ===
	GetRecent() ([]RecentCase, bool)
	SaveRecent(recent []RecentCase) error

	// === Drafts ===
	GetDraft(ref CaseRef) (string, bool)
	SaveDraft(ref CaseRef, text string) error
	DeleteDraft(ref CaseRef)

	// === Invalidation ===
	InvalidateAll()

	Close() error
}
