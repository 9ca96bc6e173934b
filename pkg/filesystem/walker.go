package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joe/unisync/pkg/errors"
)

// Entry describes one filesystem object found while walking.
// This is our own type (not os.FileInfo) so that walkers can be swapped freely.
type Entry struct {
	// RelativePath is relative to the walk root, forward slashes, no leading slash.
	RelativePath string

	// Name is the last path element.
	Name string

	IsDir     bool
	IsRegular bool

	// Size is the file size in bytes (0 for directories).
	Size int64

	ModTime time.Time
	Mode    os.FileMode
}

// SkipFunc decides whether an entry (and, for a directory, everything below
// it) is left out of the walk. It may be called from several goroutines.
type SkipFunc func(entry Entry) bool

// VisitFunc receives entries one at a time, parents before children.
// Returning an error stops the walk and the error is returned by Walk.
type VisitFunc func(entry Entry) error

// Walker enumerates a directory tree depth-first, pre-order: a directory is
// visited before any of its children, siblings in byte order of their names.
// Only directories and regular files are reported; symlinks, devices, sockets
// and pipes are ignored. Any enumeration or stat failure aborts the walk with
// an IOError naming the offending path.
type Walker interface {
	Walk(root string, skip SkipFunc, visit VisitFunc) error
}

// NewWalker returns the fastwalk based walker when fast is set, the portable
// one otherwise. Both produce the same visit order.
func NewWalker(fast bool) Walker {
	if fast {
		return NewFastWalker()
	}

	return NewPortableWalker()
}

// NormalizePath converts a relative path to catalog form: backslashes become
// forward slashes and leading slashes are dropped.
func NormalizePath(path string) string {
	return strings.TrimLeft(strings.ReplaceAll(path, `\`, "/"), "/")
}

// JoinPath resolves a normalized relative path below root.
func JoinPath(root, relPath string) string {
	if relPath == "" {
		return root
	}

	return filepath.Join(root, filepath.FromSlash(relPath))
}

// Enumerate lists the direct children of dir (relative to root), sorted by name.
func Enumerate(root, dir string) ([]Entry, error) {
	fullPath := JoinPath(root, dir)

	children, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, errors.NewIOError("read directory", fullPath, err)
	}

	entries := make([]Entry, 0, len(children))

	for _, child := range children {
		info, err := child.Info()
		if err != nil {
			return nil, errors.NewIOError("stat", filepath.Join(fullPath, child.Name()), err)
		}

		entry, ok := newEntry(joinRelative(dir, child.Name()), info)
		if ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// PortableWalker walks with os.ReadDir, one directory at a time.
type PortableWalker struct{}

// NewPortableWalker creates a PortableWalker.
func NewPortableWalker() *PortableWalker {
	return &PortableWalker{}
}

// Walk implements Walker.
func (w *PortableWalker) Walk(root string, skip SkipFunc, visit VisitFunc) error {
	return w.walkDir(root, "", skip, visit)
}

func (w *PortableWalker) walkDir(root, dir string, skip SkipFunc, visit VisitFunc) error {
	entries, err := Enumerate(root, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if skip != nil && skip(entry) {
			continue
		}

		if err := checkName(filepath.Join(JoinPath(root, dir), entry.Name), entry.Name); err != nil {
			return err
		}

		if err := visit(entry); err != nil {
			return err
		}

		if entry.IsDir {
			if err := w.walkDir(root, entry.RelativePath, skip, visit); err != nil {
				return err
			}
		}
	}

	return nil
}

func joinRelative(dir, name string) string {
	if dir == "" {
		return NormalizePath(name)
	}

	return dir + "/" + NormalizePath(name)
}

// checkName rejects names that normalization would split into two path
// elements.
func checkName(fullPath, name string) error {
	if filepath.Separator != '\\' && strings.Contains(name, `\`) {
		return errors.NewIOError("walk", fullPath, errors.ErrBackslashName)
	}

	return nil
}

// newEntry converts lstat information; ok is false for anything that is
// neither a directory nor a regular file.
func newEntry(relPath string, info os.FileInfo) (Entry, bool) {
	mode := info.Mode()
	if !mode.IsDir() && !mode.IsRegular() {
		return Entry{}, false
	}

	entry := Entry{
		RelativePath: relPath,
		Name:         info.Name(),
		IsDir:        mode.IsDir(),
		IsRegular:    mode.IsRegular(),
		ModTime:      info.ModTime(),
		Mode:         mode.Perm(),
	}

	if entry.IsRegular {
		entry.Size = info.Size()
	}

	return entry, true
}
