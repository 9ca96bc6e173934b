// Package syncengine classifies live filesystem state against a catalog and
// turns the classification into ordered delete, create and copy actions.
package syncengine

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/pkg/filesystem"
)

// DiffEngine reclassifies the entries of a store against a live directory.
type DiffEngine struct {
	Walker  filesystem.Walker
	Hasher  catalog.Hasher
	Emitter EventEmitter

	log *log.Logger
}

// NewDiffEngine creates a DiffEngine.
func NewDiffEngine(walker filesystem.Walker, hasher catalog.Hasher) *DiffEngine {
	return &DiffEngine{
		Walker: walker,
		Hasher: hasher,
		log:    logging.Get("diff"),
	}
}

// SetEventEmitter sets the emitter for diff events. Nil disables events.
func (d *DiffEngine) SetEventEmitter(emitter EventEmitter) {
	d.Emitter = emitter
}

// Diff walks root and moves every entry of store into its outcome bucket:
//
//   - not in the catalog: files_new / dirs_new
//   - identical file: removed from files
//   - directory present in both: dirs_ok
//   - metadata-only difference with fix-time mode: files_fixtime
//   - any other difference: files_mod
//
// Entries left in files and dirs afterwards exist only in the catalog.
// Excluded entries are skipped before any lookup. Directories are always
// descended into, new ones included.
func (d *DiffEngine) Diff(store *catalog.Store, root string, opts catalog.Options) error {
	start := time.Now()

	d.emit(DiffStarted{Root: root})
	d.log.Info("comparing directory to catalog", "root", root,
		"files", store.Files.Len(), "dirs", store.Dirs.Len())

	err := d.Walker.Walk(root, opts.Skips, func(walked filesystem.Entry) error {
		if walked.IsDir {
			return d.diffDirectory(store, walked)
		}

		return d.diffFile(store, root, walked, opts)
	})
	if err != nil {
		return err
	}

	counts := store.Counts()

	d.emit(DiffComplete{Root: root, Counts: counts})
	d.log.Info("comparison complete", "root", root,
		"new_files", store.FilesNew.Len(),
		"modified_files", store.FilesMod.Len(),
		"fixtime_files", store.FilesFixTime.Len(),
		"deleted_files", store.Files.Len(),
		"new_dirs", store.DirsNew.Len(),
		"deleted_dirs", store.Dirs.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return nil
}

// diffDirectory: a directory present on both sides is always matched, its
// modification time is not compared.
func (d *DiffEngine) diffDirectory(store *catalog.Store, walked filesystem.Entry) error {
	path := walked.RelativePath

	recorded, ok := store.Dirs.Get(path)
	if !ok {
		entry := catalog.FromWalk(walked)
		store.DirsNew.Append(entry)
		d.log.Debug("new directory", "path", path)

		return nil
	}

	recorded.Status = catalog.StatusMatched

	return store.Move(path, store.Dirs, store.DirsOK)
}

func (d *DiffEngine) diffFile(store *catalog.Store, root string, walked filesystem.Entry, opts catalog.Options) error {
	path := walked.RelativePath

	recorded, ok := store.Files.Get(path)
	if !ok {
		entry := catalog.FromWalk(walked)
		store.FilesNew.Append(entry)
		d.log.Debug("new file", "path", path, "size", entry.Size)

		return nil
	}

	status, err := d.classify(recorded, root, walked, opts)
	if err != nil {
		return err
	}

	recorded.Status = status
	recorded.LiveSize = walked.Size

	switch status {
	case catalog.StatusMatched:
		store.Files.Remove(path)
		return nil
	case catalog.StatusFixTime:
		d.log.Debug("time fix", "path", path)
		return store.Move(path, store.Files, store.FilesFixTime)
	default:
		d.log.Debug("modified file", "path", path, "reason", status)
		return store.Move(path, store.Files, store.FilesMod)
	}
}

// classify compares a recorded file with its live counterpart: size first,
// then content hash when the catalog has one, then modification time.
func (d *DiffEngine) classify(recorded *catalog.Entry, root string, walked filesystem.Entry,
	opts catalog.Options,
) (catalog.Status, error) {
	if recorded.Size != walked.Size {
		return catalog.StatusSizeDiff, nil
	}

	hashChecked := false

	if !opts.SkipHash && recorded.HasHash() {
		sum, err := d.Hasher.Hash(filesystem.JoinPath(root, walked.RelativePath), recorded.Algorithm)
		if err != nil {
			return catalog.StatusUnmatched, err
		}

		if sum != recorded.Hash {
			return catalog.StatusHashDiff, nil
		}

		hashChecked = true
	}

	if !opts.WatchTime && !opts.FixTime {
		return catalog.StatusMatched, nil
	}

	if recorded.ModTime == catalog.FormatTime(walked.ModTime) {
		return catalog.StatusMatched, nil
	}

	switch {
	case hashChecked && opts.FixTime:
		return catalog.StatusFixTime, nil
	case opts.WatchTime:
		return catalog.StatusTimeDiff, nil
	default:
		return catalog.StatusMatched, nil
	}
}

func (d *DiffEngine) emit(event Event) {
	if d.Emitter != nil {
		d.Emitter.Emit(event)
	}
}
