package syncengine

import "github.com/joe/unisync/internal/catalog"

// Event is the interface implemented by all sync engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(event Event)

// Emit calls f(event).
func (f EmitterFunc) Emit(event Event) {
	f(event)
}

// Diff events

// DiffStarted is emitted when the comparison walk begins.
type DiffStarted struct {
	Root string
}

func (DiffStarted) isEvent() {}

// DiffComplete is emitted when every live entry has been classified.
type DiffComplete struct {
	Root   string
	Counts map[catalog.BucketName]int
}

func (DiffComplete) isEvent() {}

// Execution events

// PhaseStarted is emitted before the first action of a phase runs.
type PhaseStarted struct {
	Phase Phase
	Total int
}

func (PhaseStarted) isEvent() {}

// ActionDone is emitted after each successful action.
type ActionDone struct {
	Phase  Phase
	Action Action
}

func (ActionDone) isEvent() {}

// PhaseComplete is emitted after the last action of a phase.
type PhaseComplete struct {
	Phase Phase
	Count int
}

func (PhaseComplete) isEvent() {}

// ActionFailed is emitted when an action aborts the run.
type ActionFailed struct {
	Phase  Phase
	Action Action
	Err    error
}

func (ActionFailed) isEvent() {}
