package orlim

import (
	"strings"
	"sync"
	"time"

	"github.com/orlim-labs/orlim-go/pkg/chain"
)

// EventKind classifies a module event into the order-lifecycle notification
// it represents.
type EventKind string

const (
	EventPlaced        EventKind = "placed"
	EventFilled        EventKind = "filled"
	EventPartialFilled EventKind = "partial_filled"
	EventCancelled     EventKind = "cancelled"
)

// Event is a classified order notification. Events are observed, not owned:
// they exist only to trigger a refetch of authoritative receipt state and to
// feed the notification feed.
type Event struct {
	Kind      EventKind
	OrderID   uint64
	User      string
	Timestamp time.Time
	// Payload keeps the loosely-typed event fields for display.
	Payload map[string]any
}

// ClassifyEvent pattern-matches the event type tag. Unrecognized tags
// return false and are ignored.
func ClassifyEvent(raw chain.RawEvent) (Event, bool) {
	var kind EventKind
	switch {
	case strings.Contains(raw.Type, "OrderPlaced"):
		kind = EventPlaced
	case strings.Contains(raw.Type, "OrderPartialFilled"):
		kind = EventPartialFilled
	case strings.Contains(raw.Type, "OrderFilled"):
		kind = EventFilled
	case strings.Contains(raw.Type, "OrderCancelled"):
		kind = EventCancelled
	default:
		return Event{}, false
	}

	ev := Event{
		Kind:    kind,
		Payload: raw.ParsedJSON,
	}
	if raw.TimestampMs > 0 {
		ev.Timestamp = time.UnixMilli(raw.TimestampMs)
	} else {
		ev.Timestamp = time.Now()
	}
	if raw.ParsedJSON != nil {
		if u, ok := asUint(raw.ParsedJSON["order_id"]); ok {
			ev.OrderID = u
		}
		if s, ok := raw.ParsedJSON["user"].(string); ok {
			ev.User = s
		}
	}
	return ev, true
}

// IsForUser reports whether the event belongs to the given account address.
func (e Event) IsForUser(address string) bool {
	return e.User != "" && e.User == address
}

// eventLogCap bounds the notification feed to the most recent entries.
const eventLogCap = 50

// EventLog is a bounded, newest-first notification feed.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append prepends an event, evicting the oldest past the cap.
func (l *EventLog) Append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append([]Event{ev}, l.events...)
	if len(l.events) > eventLogCap {
		l.events = l.events[:eventLogCap]
	}
}

// List returns a copy of the feed, newest first.
func (l *EventLog) List() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Clear empties the feed.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
