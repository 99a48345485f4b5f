package listing

// Action identifies a single-item mutation
type Action int

const (
	// ActionAdd creates a new item; the list is reset
	ActionAdd Action = iota
	// ActionUpdate overwrites an item in place; the current page is refreshed
	ActionUpdate
	// ActionDelete removes one item; the current page is refreshed
	ActionDelete
	// ActionClose cancels or destroys an item; the list is reset
	ActionClose
)

// String returns a short name for logging
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionClose:
		return "close"
	default:
		return "unknown"
	}
}

// Mutation is a pending single-item change tagged with the generation it was
// issued in
type Mutation[T any] struct {
	Generation uint64
	Action     Action
	ID         string
	Item       T
}

// Begin tags a mutation with the current generation. For ActionAdd the item
// may not carry an identifier yet.
func (c *Controller[T]) Begin(action Action, item T) Mutation[T] {
	return Mutation[T]{
		Generation: c.generation,
		Action:     action,
		ID:         c.cfg.Key(item),
		Item:       item,
	}
}

// Complete applies a finished mutation and returns the follow-up requests.
// A failed mutation leaves the accumulated set untouched and is returned as
// is. A mutation issued in an older generation is ignored.
func (c *Controller[T]) Complete(m Mutation[T], err error) ([]Request, error) {
	if err != nil {
		return nil, err
	}
	if !c.IsCurrent(m.Generation) {
		return nil, nil
	}

	switch m.Action {
	case ActionAdd, ActionClose:
		c.set.remove(m.ID)
		return c.Reset(), nil
	case ActionUpdate:
		c.set.upsert(m.ID, m.Item)
		c.rebuild()
		return c.Refresh(), nil
	case ActionDelete:
		c.set.remove(m.ID)
		c.rebuild()
		return c.Refresh(), nil
	}
	return nil, nil
}
