// Package telemetry is the match driver's observability bus: match
// start/end, turn-by-turn action.Events and bot faults are queued
// during a turn and dispatched afterwards, so subscribers (the
// apiserver websocket relay, a logger, test assertions) never run
// inline with the simulation itself.
package telemetry

// EventType discriminates what happened during a match. It mirrors the
// action pipeline's own vocabulary plus match-lifecycle and bot-fault
// events the pipeline itself has no opinion about.
type EventType uint16

const (
	EvtMatchStart EventType = iota
	EvtMatchEnd
	EvtTurnMove
	EvtTurnGetMaterials
	EvtTurnDropMaterials
	EvtTurnShoot
	EvtTurnDrill
	EvtTurnConstruct
	EvtTurnSetMessage
	EvtEntityDestroyed
	EvtBotFault
)

// Event is one queued telemetry record.
type Event struct {
	Type    EventType
	Tick    uint64
	Payload interface{}
}

// Handler reacts to one dispatched Event.
type Handler func(e Event)

// Bus queues events during a turn and dispatches them to registered
// handlers in one batch at turn end. A handler that emits further
// events (a logger re-publishing a summary, say) queues them for the
// *next* Dispatch rather than extending the batch it's currently
// running in, and a handler that panics is caught and reported through
// onHandlerPanic rather than taking the whole turn loop down with it.
type Bus struct {
	listeners map[EventType][]Handler
	all       []Handler
	queue     []Event

	onHandlerPanic func(EventType, interface{})
}

// NewBus returns an empty telemetry bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventType][]Handler)}
}

// On registers h to run whenever an Event of type t is dispatched.
func (b *Bus) On(t EventType, h Handler) {
	b.listeners[t] = append(b.listeners[t], h)
}

// OnAny registers h to run on every dispatched Event regardless of
// type, ahead of that type's own listeners — used by a single recorder
// or logger that wants the full stream rather than one EventType slice
// at a time.
func (b *Bus) OnAny(h Handler) {
	b.all = append(b.all, h)
}

// OnHandlerPanic installs a callback invoked whenever a registered
// handler panics during Dispatch, in place of crashing the turn loop.
// Nil by default, meaning such panics are silently swallowed.
func (b *Bus) OnHandlerPanic(h func(t EventType, recovered interface{})) {
	b.onHandlerPanic = h
}

// Emit queues e for the next Dispatch.
func (b *Bus) Emit(e Event) {
	b.queue = append(b.queue, e)
}

// Dispatch hands off the queue accumulated since the last Dispatch and
// runs every matching handler against it. The handoff happens before
// any handler runs, so an Emit from inside a handler lands in the
// following turn's batch instead of retroactively growing this one.
func (b *Bus) Dispatch() {
	if len(b.queue) == 0 {
		return
	}
	pending := b.queue
	b.queue = nil
	for _, e := range pending {
		b.runHandlers(b.all, e)
		b.runHandlers(b.listeners[e.Type], e)
	}
}

func (b *Bus) runHandlers(handlers []Handler, e Event) {
	for _, h := range handlers {
		b.invoke(h, e)
	}
}

func (b *Bus) invoke(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil && b.onHandlerPanic != nil {
			b.onHandlerPanic(e.Type, r)
		}
	}()
	h(e)
}
