// Package app runs one command: it wires the walker, hasher, file
// operations and engines for the resolved configuration and prints the
// user-facing output.
package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/config"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/internal/syncengine"
	"github.com/joe/unisync/internal/tui"
	"github.com/joe/unisync/internal/update"
	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
	"github.com/joe/unisync/pkg/hashcache"
)

// ConfirmFunc asks whether the shown procedures should run.
type ConfirmFunc func(in io.Reader, out io.Writer, title, procedures string) (bool, error)

// App executes a single command.
type App struct {
	Config  *config.Config
	In      io.Reader
	Out     io.Writer
	Confirm ConfirmFunc

	Walker   filesystem.Walker
	Hasher   *fileops.Hasher
	Ops      *fileops.Ops
	Builder  *catalog.Builder
	Differ   *syncengine.DiffEngine
	Executor *syncengine.Executor
	Codec    *update.Codec

	cache *hashcache.Store
	log   *log.Logger
}

// New wires the collaborators for cfg. Close must be called to release the
// hash cache when one was opened.
func New(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	app := &App{
		Config:  cfg,
		In:      in,
		Out:     out,
		Confirm: tui.Confirm,
		Walker:  filesystem.NewWalker(cfg.Fast),
		Ops:     fileops.NewRealOps(),
		log:     logging.Get("app"),
	}

	var cache fileops.HashCache

	if cfg.HashCache {
		path := cfg.HashCachePath
		if path == "" {
			path = hashcache.DefaultPath()
		}

		store, err := hashcache.Open(path)
		if err != nil {
			return nil, err
		}

		app.cache = store
		cache = store
		app.log.Info("hash cache", "path", path)
	}

	app.Hasher = fileops.NewHasher(filesystem.NewRealFileSystem(), cache)
	app.Builder = catalog.NewBuilder(app.Walker, app.Hasher)
	app.Differ = syncengine.NewDiffEngine(app.Walker, app.Hasher.Verifier())
	app.Executor = syncengine.NewExecutor(app.Ops)
	app.Codec = update.NewCodec(app.Builder, app.Ops)

	bridge := NewLogBridge(logging.Get("sync"))
	app.Differ.SetEventEmitter(bridge)
	app.Executor.SetEventEmitter(bridge)
	app.Codec.Executor.SetEventEmitter(bridge)

	return app, nil
}

// Close releases the hash cache.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}

	return a.cache.Close()
}

// Run executes the configured command.
func (a *App) Run() error {
	cfg := a.Config

	a.log.Debug("parameters", "command", cfg.Command, "source", cfg.Source, "destination", cfg.Dest,
		"update", cfg.Update, "catalog", cfg.Catalog, "hash", cfg.Hash, "mtime", cfg.WatchTime,
		"fixtime", cfg.FixTime, "skiphash", cfg.SkipHash)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	switch cfg.Command {
	case config.CommandCreate:
		err = a.create(opts)
	case config.CommandDiff:
		err = a.diff(opts)
	case config.CommandCatDiff:
		err = a.catDiff(opts)
	case config.CommandSync:
		err = a.sync(opts)
	case config.CommandMakeUpdate:
		err = a.makeUpdate(opts)
	case config.CommandMakeSyncUpdate:
		err = a.makeSyncUpdate(opts)
	case config.CommandApplyUpdate:
		err = a.applyUpdate(opts)
	default:
		err = fmt.Errorf("unknown command: %q", cfg.Command)
	}

	totals := a.Ops.Totals()
	a.log.Info("done", "hashed", a.Hasher.BytesHashed(), "copied", totals.FilesCopied,
		"bytes", totals.BytesCopied, "deleted", totals.FilesDeleted+totals.DirsDeleted,
		"created", totals.DirsCreated, "fixed", totals.TimesFixed)

	return err
}

// create writes the catalog of the source directory.
func (a *App) create(opts catalog.Options) error {
	store, err := a.Builder.WriteFile(a.Config.Catalog, a.Config.Source, opts)
	if err != nil {
		return err
	}

	a.log.Info("catalog written", "path", a.Config.Catalog,
		"files", store.Files.Len(), "dirs", store.Dirs.Len(), "bytes", store.Files.TotalSize())

	return nil
}

// diff compares the destination to the source.
func (a *App) diff(opts catalog.Options) error {
	store, err := a.scanAndDiff(a.Config.Source, a.Config.Dest, opts)
	if err != nil {
		return err
	}

	return syncengine.WriteDiffReport(a.Out, store)
}

// catDiff compares the directory to a catalog file.
func (a *App) catDiff(opts catalog.Options) error {
	store, err := a.readAndDiff(a.Config.Catalog, a.Config.Source, opts)
	if err != nil {
		return err
	}

	return syncengine.WriteDiffReport(a.Out, store)
}

// sync makes the destination equal to the source.
func (a *App) sync(opts catalog.Options) error {
	cfg := a.Config

	var (
		store *catalog.Store
		err   error
	)

	if _, statErr := os.Stat(cfg.Dest); errors.Is(statErr, fs.ErrNotExist) {
		// Nothing to compare: every source entry stays unmatched and is copied.
		a.log.Info("destination does not exist yet", "path", cfg.Dest)
		store, err = a.Builder.FromDirectory(cfg.Source, opts, nil)
	} else {
		store, err = a.scanAndDiff(cfg.Source, cfg.Dest, opts)
	}

	if err != nil {
		return err
	}

	plan := syncengine.NewPlan(store, syncengine.CatalogToDiff)

	if cfg.Interactive {
		var procedures bytes.Buffer
		if err := syncengine.WriteProcedures(&procedures, plan, cfg.Source, cfg.Dest); err != nil {
			return err
		}

		ok, err := a.Confirm(a.In, a.Out, "Sync", procedures.String())
		if err != nil {
			return err
		}

		if !ok {
			a.log.Info("sync aborted")
			return nil
		}
	}

	a.evictDeleted(a.Executor, cfg.Dest)

	stats, err := a.Executor.Run(plan, cfg.Source, cfg.Dest)

	return a.finish(stats, err)
}

// makeUpdate packages the changes of the source relative to a catalog.
func (a *App) makeUpdate(opts catalog.Options) error {
	store, err := a.readAndDiff(a.Config.Catalog, a.Config.Source, opts)
	if err != nil {
		return err
	}

	stats, err := a.Codec.Make(store, a.Config.Source, a.Config.Update)

	return a.finish(stats, err)
}

// makeSyncUpdate packages the changes that bring the destination to the
// source. The destination is cataloged and the source diffed against it.
func (a *App) makeSyncUpdate(opts catalog.Options) error {
	store, err := a.scanAndDiff(a.Config.Dest, a.Config.Source, opts)
	if err != nil {
		return err
	}

	stats, err := a.Codec.Make(store, a.Config.Source, a.Config.Update)

	return a.finish(stats, err)
}

// applyUpdate replays a package onto the directory.
func (a *App) applyUpdate(opts catalog.Options) error {
	a.evictDeleted(a.Codec.Executor, a.Config.Source)

	stats, err := a.Codec.Apply(a.Config.Update, a.Config.Source, opts.Exclude)

	return a.finish(stats, err)
}

// evictDeleted makes the executor drop hash cache records of everything it
// deletes below targetRoot, keeping its current emitter.
func (a *App) evictDeleted(executor *syncengine.Executor, targetRoot string) {
	if a.cache == nil {
		return
	}

	next := executor.Emitter

	executor.SetEventEmitter(syncengine.EmitterFunc(func(event syncengine.Event) {
		if next != nil {
			next.Emit(event)
		}

		done, ok := event.(syncengine.ActionDone)
		if !ok || (done.Action.Kind != syncengine.ActionDeleteFile && done.Action.Kind != syncengine.ActionDeleteDir) {
			return
		}

		path, err := filepath.Abs(filesystem.JoinPath(targetRoot, done.Action.Path))
		if err == nil {
			err = a.cache.Forget(path)
		}

		if err != nil {
			a.log.Warn("hash cache eviction failed", "path", done.Action.Path, "err", err)
		}
	}))
}

func (a *App) scanAndDiff(catalogRoot, diffRoot string, opts catalog.Options) (*catalog.Store, error) {
	store, err := a.Builder.FromDirectory(catalogRoot, opts, nil)
	if err != nil {
		return nil, err
	}

	if err := a.Differ.Diff(store, diffRoot, opts); err != nil {
		return nil, err
	}

	return store, nil
}

func (a *App) readAndDiff(catalogPath, diffRoot string, opts catalog.Options) (*catalog.Store, error) {
	store, err := a.Builder.FromFile(catalogPath)
	if err != nil {
		return nil, err
	}

	if err := a.Differ.Diff(store, diffRoot, opts); err != nil {
		return nil, err
	}

	return store, nil
}

// finish reports the statistics of a run when verbose.
func (a *App) finish(stats *syncengine.Stats, err error) error {
	if err != nil {
		return err
	}

	if a.Config.Verbosity > 0 && stats != nil {
		return syncengine.WriteStats(a.Out, stats)
	}

	return nil
}
