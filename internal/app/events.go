package app

import (
	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/syncengine"
)

// LogBridge logs the engine events the engines do not log themselves:
// phase completions and failed actions.
type LogBridge struct {
	log *log.Logger
}

// NewLogBridge creates a bridge writing to logger.
func NewLogBridge(logger *log.Logger) *LogBridge {
	return &LogBridge{log: logger}
}

// Emit implements syncengine.EventEmitter.
func (b *LogBridge) Emit(event syncengine.Event) {
	switch e := event.(type) {
	case syncengine.PhaseComplete:
		b.log.Debug(e.Phase.String()+" done", "count", e.Count)
	case syncengine.ActionFailed:
		b.log.Error(e.Action.Kind.String()+" failed", "path", e.Action.Path, "err", e.Err)
	}
}
