package syncengine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/pkg/filesystem"
)

// FileOperations performs the physical work of a plan.
type FileOperations interface {
	Copy(src, dst string) error
	DeleteFile(path string) error
	DeleteDirectory(path string) error
	FixTimeAndMode(src, dst string) error
	MakePath(path string, lastIsFile bool) error
}

// Executor runs plans against a target directory.
type Executor struct {
	Ops     FileOperations
	Emitter EventEmitter
	Clock   TimeProvider

	log *log.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(ops FileOperations) *Executor {
	return &Executor{
		Ops:   ops,
		Clock: RealTimeProvider{},
		log:   logging.Get("sync"),
	}
}

// SetEventEmitter sets the emitter for execution events. Nil disables events.
func (x *Executor) SetEventEmitter(emitter EventEmitter) {
	x.Emitter = emitter
}

// Run executes the plan phase by phase. Contents and metadata are read from
// sourceRoot and applied to targetRoot, which is created first if missing.
// The first failing action stops the run; completed actions are not undone.
func (x *Executor) Run(plan *Plan, sourceRoot, targetRoot string) (*Stats, error) {
	stats := newStats(x.Clock.Now())

	x.log.Info("executing plan", "direction", plan.Direction,
		"source", sourceRoot, "target", targetRoot, "actions", plan.Len())

	if err := x.Ops.MakePath(targetRoot, false); err != nil {
		return stats, err
	}

	for _, step := range plan.Steps {
		if len(step.Actions) == 0 {
			continue
		}

		x.emit(PhaseStarted{Phase: step.Phase, Total: len(step.Actions)})
		x.log.Info("phase started", "phase", step.Phase, "actions", len(step.Actions))

		for _, action := range step.Actions {
			if err := x.apply(action, sourceRoot, targetRoot); err != nil {
				x.emit(ActionFailed{Phase: step.Phase, Action: action, Err: err})
				stats.Finished = x.Clock.Now()

				return stats, fmt.Errorf("%s: %w", step.Phase, err)
			}

			stats.record(step.Phase, action)
			x.emit(ActionDone{Phase: step.Phase, Action: action})
			x.log.Debug(action.Kind.String(), "path", action.Path)
		}

		x.emit(PhaseComplete{Phase: step.Phase, Count: stats.Done[step.Phase]})
	}

	stats.Finished = x.Clock.Now()

	x.log.Info("plan complete", "actions", stats.Total(), "bytes", stats.BytesCopied,
		"elapsed", stats.Elapsed())

	return stats, nil
}

func (x *Executor) apply(action Action, sourceRoot, targetRoot string) error {
	src := filesystem.JoinPath(sourceRoot, action.Path)
	dst := filesystem.JoinPath(targetRoot, action.Path)

	switch action.Kind {
	case ActionFixTime:
		return x.Ops.FixTimeAndMode(src, dst)
	case ActionDeleteFile:
		return x.Ops.DeleteFile(dst)
	case ActionDeleteDir:
		return x.Ops.DeleteDirectory(dst)
	case ActionMakeDir:
		return x.Ops.MakePath(dst, false)
	case ActionCopyFile:
		return x.Ops.Copy(src, dst)
	default:
		return fmt.Errorf("unknown action %d for %s", action.Kind, action.Path)
	}
}

func (x *Executor) emit(event Event) {
	if x.Emitter != nil {
		x.Emitter.Emit(event)
	}
}
