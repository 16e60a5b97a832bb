package lazy

import "time"

// Observer receives cell lifecycle events. Implementations must be safe
// for concurrent use when the cell is read from multiple goroutines.
type Observer interface {
	On(eventData EventData)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(EventData)

func (f ObserverFunc) On(eventData EventData) {
	f(eventData)
}

// Observers fans every event out to each non-nil observer in order.
func Observers(observers ...Observer) Observer {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) On(eventData EventData) {
	for _, o := range m {
		o.On(eventData)
	}
}

// Event represents a cell event type.
type Event int

const (
	// EventHit is emitted when Value is served from the published state.
	EventHit Event = iota
	// EventMiss is emitted right before the factory is invoked.
	EventMiss
	// EventDedup is emitted when a caller waited on another goroutine's
	// initialization instead of running the factory.
	EventDedup
	// EventCreated is emitted when a value is published.
	EventCreated
	// EventFaulted is emitted when the factory fails. Err is set and
	// Sticky reports whether the fault was cached.
	EventFaulted
	// EventDiscarded is emitted when a PublicationOnly caller computed a
	// value but lost the race to publish it.
	EventDiscarded
	// EventRecursive is emitted when a factory reads its own cell.
	EventRecursive
)

func (e Event) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventDedup:
		return "dedup"
	case EventCreated:
		return "created"
	case EventFaulted:
		return "faulted"
	case EventDiscarded:
		return "discarded"
	case EventRecursive:
		return "recursive"
	default:
		return "unknown"
	}
}

// EventData carries the details of a cell event.
type EventData struct {
	Event Event
	Cell string
	// Group is the name of the Map the cell belongs to, or the cell's own
	// name for standalone cells. Unlike Cell it does not vary per key.
	Group string
	ID    string
	Mode  Mode
	Err   error
	// Sticky is set on EventFaulted when the error is replayed on later
	// reads.
	Sticky bool
	// Duration is the factory run time, set on EventCreated, EventFaulted
	// and EventDiscarded.
	Duration time.Duration
}
