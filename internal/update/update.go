// Package update builds and applies offline update packages: a directory
// mirroring every new and modified file of a diffed tree, plus a manifest of
// the files and directories to delete. Applying the package built from
// diff(catalog(C), S) to C reproduces S.
package update

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/logging"
	"github.com/joe/unisync/internal/syncengine"
	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/fileops"
)

// Codec makes and applies update packages.
type Codec struct {
	Builder  *catalog.Builder
	Executor *syncengine.Executor
	Ops      syncengine.FileOperations

	log *log.Logger
}

// NewCodec creates a Codec. The builder is used to re-scan packages, the
// operations to write packages and targets.
func NewCodec(builder *catalog.Builder, ops syncengine.FileOperations) *Codec {
	return &Codec{
		Builder:  builder,
		Executor: syncengine.NewExecutor(ops),
		Ops:      ops,
		log:      logging.Get("update"),
	}
}

// Make writes the package for a diffed store into packageRoot: the manifest
// of deletions, a directory for every new directory and a copy of every new
// and modified file read from sourceRoot, the diffed tree.
func (c *Codec) Make(store *catalog.Store, sourceRoot, packageRoot string) (*syncengine.Stats, error) {
	plan := syncengine.NewPlan(store, syncengine.DiffToCatalog)
	manifest := ManifestFromPlan(plan)

	c.log.Info("making update package", "source", sourceRoot, "package", packageRoot,
		"deletions", len(manifest.Deletions))

	if err := c.Ops.MakePath(packageRoot, false); err != nil {
		return nil, err
	}

	if err := writeManifest(filepath.Join(packageRoot, ManifestName), manifest); err != nil {
		return nil, err
	}

	payload := &syncengine.Plan{
		Direction: syncengine.DiffToCatalog,
		Steps: []syncengine.Step{
			plan.Step(syncengine.PhaseCreateDirs),
			plan.Step(syncengine.PhaseCopyFiles),
		},
	}

	return c.Executor.Run(payload, sourceRoot, packageRoot)
}

// Apply replays a package onto targetRoot: deletions in manifest order,
// then the package's directories, then its files. The package is re-scanned
// without hashing or time watching; exclude may be nil. The manifest is read
// and validated completely before anything in targetRoot changes.
func (c *Codec) Apply(packageRoot, targetRoot string, exclude catalog.Excluder) (*syncengine.Stats, error) {
	scanOpts := catalog.Options{Hash: fileops.HashNone, Exclude: exclude}

	payload, err := c.Builder.FromDirectory(packageRoot, scanOpts, nil)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(packageRoot, ManifestName)

	if _, found := payload.Files.Remove(ManifestName); !found {
		return nil, unierrors.NewFormatError(packageRoot, "not an update package", unierrors.ErrMissingManifest)
	}

	manifest, err := readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	c.log.Info("applying update package", "package", packageRoot, "target", targetRoot,
		"deletions", len(manifest.Deletions), "files", payload.Files.Len(), "dirs", payload.Dirs.Len())

	stats, err := c.Executor.Run(manifest.Plan(), packageRoot, targetRoot)
	if err != nil {
		return stats, err
	}

	copyPlan := &syncengine.Plan{
		Direction: syncengine.DiffToCatalog,
		Steps: []syncengine.Step{
			{Phase: syncengine.PhaseCreateDirs, Actions: actionsFor(payload.Dirs, syncengine.ActionMakeDir)},
			{Phase: syncengine.PhaseCopyFiles, Actions: actionsFor(payload.Files, syncengine.ActionCopyFile)},
		},
	}

	copyStats, err := c.Executor.Run(copyPlan, packageRoot, targetRoot)
	if copyStats != nil {
		for phase, count := range copyStats.Done {
			stats.Done[phase] += count
		}

		stats.BytesCopied += copyStats.BytesCopied
		stats.Finished = copyStats.Finished
	}

	return stats, err
}

func actionsFor(bucket *catalog.Bucket, kind syncengine.ActionKind) []syncengine.Action {
	actions := make([]syncengine.Action, 0, bucket.Len())

	for entry := range bucket.All() {
		actions = append(actions, syncengine.Action{Kind: kind, Path: entry.Path, Size: entry.Size, From: bucket.Name()})
	}

	return actions
}

func writeManifest(path string, manifest Manifest) error {
	file, err := os.Create(path) // #nosec G304 - package path comes from the command line
	if err != nil {
		return unierrors.NewIOError("create manifest", path, err)
	}

	if err := manifest.Write(file); err != nil {
		_ = file.Close()
		return unierrors.NewIOError("write manifest", path, err)
	}

	return unierrors.NewIOError("close manifest", path, file.Close())
}

func readManifest(path string) (Manifest, error) {
	file, err := os.Open(path) // #nosec G304 - package path comes from the command line
	if err != nil {
		return Manifest{}, unierrors.NewIOError("open manifest", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	return ParseManifest(file, path)
}
