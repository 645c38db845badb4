package cart

import "context"

// EventKind identifies the mutation that produced an Event.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventMerged  EventKind = "merged"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
	// EventOrdered reports that ordered lines were taken out of the cart
	// while newer lines remain.
	EventOrdered EventKind = "ordered"
)

// Event describes a committed mutation. Items is a snapshot of the cart
// after the mutation and may be retained by observers.
type Event struct {
	Kind     EventKind
	ItemID   string
	Quantity int
	Items    []LineItem
}

// Observer is notified synchronously after every committed mutation, while
// the cart's write lock is held. Observers must not call back into the cart.
type Observer interface {
	OnChange(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// OnChange calls f(ctx, e).
func (f ObserverFunc) OnChange(ctx context.Context, e Event) {
	f(ctx, e)
}
