package syncengine

import (
	"github.com/joe/unisync/internal/catalog"
)

// Direction selects which side of a diff is authoritative.
type Direction int

const (
	// CatalogToDiff makes the cataloged tree authoritative: the diffed
	// directory is brought in line with it. Used by sync.
	CatalogToDiff Direction = iota
	// DiffToCatalog makes the diffed tree authoritative: the cataloged tree
	// is brought in line with it. Used by update packages.
	DiffToCatalog
)

func (d Direction) String() string {
	if d == DiffToCatalog {
		return "diff-to-catalog"
	}

	return "catalog-to-diff"
}

// Phase is one of the five ordered execution phases.
type Phase int

const (
	PhaseFixTime Phase = iota
	PhaseDeleteFiles
	PhaseDeleteDirs
	PhaseCreateDirs
	PhaseCopyFiles
)

// Phases lists the phases in execution order.
var Phases = []Phase{PhaseFixTime, PhaseDeleteFiles, PhaseDeleteDirs, PhaseCreateDirs, PhaseCopyFiles}

func (p Phase) String() string {
	switch p {
	case PhaseFixTime:
		return "fix times"
	case PhaseDeleteFiles:
		return "delete files"
	case PhaseDeleteDirs:
		return "delete folders"
	case PhaseCreateDirs:
		return "create folders"
	case PhaseCopyFiles:
		return "copy files"
	default:
		return "unknown"
	}
}

// ActionKind is what an action does to the target.
type ActionKind int

const (
	ActionFixTime ActionKind = iota
	ActionDeleteFile
	ActionDeleteDir
	ActionMakeDir
	ActionCopyFile
)

func (k ActionKind) String() string {
	switch k {
	case ActionFixTime:
		return "fixtime"
	case ActionDeleteFile:
		return "delete file"
	case ActionDeleteDir:
		return "delete folder"
	case ActionMakeDir:
		return "make folder"
	case ActionCopyFile:
		return "copy"
	default:
		return "unknown"
	}
}

// Action is a single step applied to a relative path.
type Action struct {
	Kind ActionKind
	Path string
	Size int64

	// From is the bucket the action was derived from.
	From catalog.BucketName
}

// Step holds the actions of one phase, in execution order.
type Step struct {
	Phase   Phase
	Actions []Action
}

// Plan is the full ordered list of actions for one run.
type Plan struct {
	Direction Direction
	Steps     []Step
}

// NewPlan derives the five phases from a diffed store.
//
// Deletions run in reverse insertion order so children go before their
// parent; creations run forward so parents go first.
func NewPlan(store *catalog.Store, direction Direction) *Plan {
	deleteFiles, deleteDirs := store.FilesNew, store.DirsNew
	createDirs, copyNew := store.Dirs, store.Files

	if direction == DiffToCatalog {
		deleteFiles, deleteDirs = store.Files, store.Dirs
		createDirs, copyNew = store.DirsNew, store.FilesNew
	}

	copyActions := forward(copyNew, ActionCopyFile)
	copyActions = append(copyActions, copyModified(store.FilesMod, direction)...)

	return &Plan{
		Direction: direction,
		Steps: []Step{
			{Phase: PhaseFixTime, Actions: forward(store.FilesFixTime, ActionFixTime)},
			{Phase: PhaseDeleteFiles, Actions: backward(deleteFiles, ActionDeleteFile)},
			{Phase: PhaseDeleteDirs, Actions: backward(deleteDirs, ActionDeleteDir)},
			{Phase: PhaseCreateDirs, Actions: forward(createDirs, ActionMakeDir)},
			{Phase: PhaseCopyFiles, Actions: copyActions},
		},
	}
}

// Step returns the step for a phase.
func (p *Plan) Step(phase Phase) Step {
	for _, step := range p.Steps {
		if step.Phase == phase {
			return step
		}
	}

	return Step{Phase: phase}
}

// Len returns the total number of actions.
func (p *Plan) Len() int {
	total := 0
	for _, step := range p.Steps {
		total += len(step.Actions)
	}

	return total
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return p.Len() == 0
}

// Count returns the number of actions of a phase that came from the given
// bucket, or all of them when from is empty.
func (p *Plan) Count(phase Phase, from catalog.BucketName) (int, int64) {
	count := 0

	var bytes int64

	for _, action := range p.Step(phase).Actions {
		if from == "" || action.From == from {
			count++
			bytes += action.Size
		}
	}

	return count, bytes
}

func forward(bucket *catalog.Bucket, kind ActionKind) []Action {
	actions := make([]Action, 0, bucket.Len())
	for entry := range bucket.All() {
		actions = append(actions, newAction(kind, entry, bucket.Name()))
	}

	return actions
}

func backward(bucket *catalog.Bucket, kind ActionKind) []Action {
	actions := make([]Action, 0, bucket.Len())
	for entry := range bucket.Backward() {
		actions = append(actions, newAction(kind, entry, bucket.Name()))
	}

	return actions
}

// copyModified sizes each copy from the side it is copied from: the catalog
// side for CatalogToDiff, the live side for DiffToCatalog.
func copyModified(bucket *catalog.Bucket, direction Direction) []Action {
	actions := make([]Action, 0, bucket.Len())

	for entry := range bucket.All() {
		action := newAction(ActionCopyFile, entry, bucket.Name())
		if direction == DiffToCatalog {
			action.Size = entry.LiveSize
		}

		actions = append(actions, action)
	}

	return actions
}

func newAction(kind ActionKind, entry *catalog.Entry, from catalog.BucketName) Action {
	return Action{Kind: kind, Path: entry.Path, Size: entry.Size, From: from}
}
