package consolidate

import (
	"github.com/jackzampolin/bookshelf/internal/plan"
	"github.com/jackzampolin/bookshelf/internal/scan"
)

// EventKind identifies a progress event.
type EventKind string

const (
	// EventState marks entry into a new State.
	EventState EventKind = "state"
	// EventScanned carries the number of units found.
	EventScanned EventKind = "scanned"
	// EventPlanned is sent per collection once its convention is chosen.
	EventPlanned EventKind = "planned"
	// EventUnit is sent per unit, in scan order, once it is committed or skipped.
	EventUnit EventKind = "unit"
)

// Event reports progress. Handlers run on the orchestrating goroutine and
// receive events in order.
type Event struct {
	Kind  EventKind
	State State

	// Index is the unit position in scan order, Total the number of units.
	Index int
	Total int

	Unit    *scan.Unit
	Plan    *plan.MergePlan
	Outcome *Outcome
}

// EventHandler receives progress events.
type EventHandler func(Event)
