package document

import (
	"slices"
	"sync"
)

// EventKind identifies a document notification
type EventKind int

const (
	// EventUpdate fires after a transaction that changed the content.
	EventUpdate EventKind = iota
	// EventTransaction fires after every applied transaction.
	EventTransaction
)

func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Transaction describes an applied transaction
type Transaction struct {
	ID         string
	Steps      []Step
	DocChanged bool
}

// Event is delivered to subscribers
type Event struct {
	Kind        EventKind
	Transaction *Transaction
}

// Listener receives document events on the goroutine that applied the
// transaction. It may call Apply.
type Listener func(Event)

type subscription struct {
	kind EventKind
	fn   Listener
}

// Subscribe registers fn for events of the given kind. The returned
// function removes the subscription; calling it more than once is safe.
func (d *Document) Subscribe(kind EventKind, fn Listener) (unsubscribe func()) {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = subscription{kind: kind, fn: fn}
	d.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, id)
			d.subMu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscriptions
func (d *Document) Subscribers() int {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	return len(d.subs)
}

// emit delivers ev in subscription order
func (d *Document) emit(ev Event) {
	d.subMu.Lock()
	ids := make([]int, 0, len(d.subs))
	for id, s := range d.subs {
		if s.kind == ev.Kind {
			ids = append(ids, id)
		}
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, d.subs[id].fn)
	}
	d.subMu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
