// Package fileops provides the file operations the sync executor and the
// update package codec are built on: whole-file copy preserving modification
// time and permission bits, single file and empty directory removal, metadata
// fix-ups, directory path creation and content hashing.
package fileops

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/filesystem"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for file copy operations (32KB)
	BufferSize = 32 * 1024
	// DefaultDirPermissions is the permission mode for created directories (before umask)
	DefaultDirPermissions = 0o775
	// writablePermissions is applied to a read-only target before it is overwritten
	writablePermissions = 0o600
)

// Exported variables.
var (
	ErrIsDirectory  = errors.New("is a directory")
	ErrNotDirectory = errors.New("not a directory")
)

// Totals summarizes the work done since the last Reset.
type Totals struct {
	FilesCopied  int
	BytesCopied  int64
	FilesDeleted int
	DirsDeleted  int
	DirsCreated  int
	TimesFixed   int
	Elapsed      time.Duration
}

// Ops performs file operations through a FileSystem.
// Ops is meant to be driven by a single goroutine; the mutex only guards the
// counters so Totals can be read while a run is in progress.
type Ops struct {
	FS    filesystem.FileSystem
	Paths *PathMaker

	mu      sync.Mutex
	totals  Totals
	started time.Time
}

// NewOps creates an Ops instance on the given filesystem.
func NewOps(fsys filesystem.FileSystem) *Ops {
	return &Ops{
		FS:      fsys,
		Paths:   NewPathMaker(fsys),
		started: time.Now(),
	}
}

// NewRealOps creates an Ops instance using the real filesystem.
func NewRealOps() *Ops {
	return NewOps(filesystem.NewRealFileSystem())
}

// Copy copies src to dst, creating missing parent directories of dst, and
// gives dst the modification time and permission bits of src. A failed copy
// removes the partially written dst.
func (o *Ops) Copy(src, dst string) error {
	sourceFile, err := o.FS.Open(src)
	if err != nil {
		return err
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return unierrors.NewIOError("stat", src, err)
	}

	if err := o.MakePath(dst, true); err != nil {
		return err
	}

	destFile, err := o.createTarget(dst)
	if err != nil {
		return err
	}

	copyCompleted := false

	defer func() {
		if !copyCompleted {
			_ = destFile.Close()
			_ = o.FS.Remove(dst)
		}
	}()

	buf := make([]byte, BufferSize)

	written, err := io.CopyBuffer(destFile, sourceFile, buf)
	if err != nil {
		return unierrors.NewIOError("copy", src+" -> "+dst, err)
	}

	// Close before setting times, network filesystems may touch mtime on close.
	if err := destFile.Close(); err != nil {
		return unierrors.NewIOError("close", dst, err)
	}

	copyCompleted = true

	if err := o.applyMetadata(sourceInfo, dst); err != nil {
		return err
	}

	o.mu.Lock()
	o.totals.FilesCopied++
	o.totals.BytesCopied += written
	o.mu.Unlock()

	return nil
}

// DeleteDirectory removes an empty directory. A non-empty directory is an error.
func (o *Ops) DeleteDirectory(path string) error {
	info, err := o.FS.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return unierrors.NewIOError("remove directory", path, ErrNotDirectory)
	}

	if err := o.FS.Remove(path); err != nil {
		return err
	}

	o.Paths.Forget(path)

	o.mu.Lock()
	o.totals.DirsDeleted++
	o.mu.Unlock()

	return nil
}

// DeleteFile removes a single file. Directories are refused.
func (o *Ops) DeleteFile(path string) error {
	info, err := o.FS.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return unierrors.NewIOError("remove file", path, ErrIsDirectory)
	}

	if err := o.FS.Remove(path); err != nil {
		return err
	}

	o.mu.Lock()
	o.totals.FilesDeleted++
	o.mu.Unlock()

	return nil
}

// FixTimeAndMode copies modification time and permission bits from src to
// dst without touching content.
func (o *Ops) FixTimeAndMode(src, dst string) error {
	sourceInfo, err := o.FS.Stat(src)
	if err != nil {
		return err
	}

	if err := o.applyMetadata(sourceInfo, dst); err != nil {
		return err
	}

	o.mu.Lock()
	o.totals.TimesFixed++
	o.mu.Unlock()

	return nil
}

// MakePath creates path and its missing ancestors. When lastIsFile is set the
// final element is treated as a file name and only its parent is created.
func (o *Ops) MakePath(path string, lastIsFile bool) error {
	created, err := o.Paths.makePath(path, lastIsFile)
	if err != nil {
		return err
	}

	if created > 0 {
		o.mu.Lock()
		o.totals.DirsCreated += created
		o.mu.Unlock()
	}

	return nil
}

// Reset clears the counters and restarts the elapsed time clock.
func (o *Ops) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.totals = Totals{}
	o.started = time.Now()
}

// Totals returns a snapshot of the counters.
func (o *Ops) Totals() Totals {
	o.mu.Lock()
	defer o.mu.Unlock()

	totals := o.totals
	totals.Elapsed = time.Since(o.started)

	return totals
}

func (o *Ops) applyMetadata(sourceInfo os.FileInfo, dst string) error {
	if err := o.FS.Chtimes(dst, sourceInfo.ModTime(), sourceInfo.ModTime()); err != nil {
		return err
	}

	return o.FS.Chmod(dst, sourceInfo.Mode().Perm())
}

// createTarget truncates or creates dst. A read-only dst left behind by an
// earlier copy is made writable first.
func (o *Ops) createTarget(dst string) (filesystem.File, error) {
	destFile, err := o.FS.Create(dst)
	if err == nil {
		return destFile, nil
	}

	if !errors.Is(err, fs.ErrPermission) {
		return nil, err
	}

	info, statErr := o.FS.Stat(dst)
	if statErr != nil || info.IsDir() {
		return nil, err
	}

	if chmodErr := o.FS.Chmod(dst, info.Mode().Perm()|writablePermissions); chmodErr != nil {
		return nil, err
	}

	return o.FS.Create(dst)
}
