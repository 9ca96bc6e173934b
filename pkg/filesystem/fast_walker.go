package filesystem

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	unierrors "github.com/joe/unisync/pkg/errors"
)

// FastWalker walks the tree in parallel with fastwalk. Workers only collect
// entries; once the walk is over the entries are put in pre-order and handed
// to the visitor on the calling goroutine, so visitors never run concurrently.
type FastWalker struct {
	conf fastwalk.Config
}

// NewFastWalker creates a FastWalker that does not follow symlinks.
func NewFastWalker() *FastWalker {
	return &FastWalker{conf: fastwalk.Config{Follow: false}}
}

// Walk implements Walker.
func (w *FastWalker) Walk(root string, skip SkipFunc, visit VisitFunc) error {
	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := w.conf

	err := fastwalk.Walk(&conf, root, func(path string, dirEntry fs.DirEntry, err error) error {
		if err != nil {
			return unierrors.NewIOError("walk", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return unierrors.NewIOError("walk", path, err)
		}

		if rel == "." {
			return nil
		}

		info, err := dirEntry.Info()
		if err != nil {
			return unierrors.NewIOError("stat", path, err)
		}

		entry, ok := newEntry(NormalizePath(filepath.ToSlash(rel)), info)
		if !ok {
			return nil
		}

		if skip != nil && skip(entry) {
			if entry.IsDir {
				return fs.SkipDir
			}

			return nil
		}

		if err := checkName(path, entry.Name); err != nil {
			return err
		}

		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()

		return nil
	})
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		if unierrors.IsIOError(err) {
			return err
		}

		return unierrors.NewIOError("walk", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return walkOrderLess(entries[i].RelativePath, entries[j].RelativePath)
	})

	for _, entry := range entries {
		if err := visit(entry); err != nil {
			return err
		}
	}

	return nil
}

// walkOrderLess orders slash separated paths the way a sorted depth-first
// pre-order walk visits them: '/' sorts below every other byte, so a
// directory's subtree comes right after it and before its next sibling.
func walkOrderLess(a, b string) bool {
	n := min(len(a), len(b))

	for i := range n {
		if a[i] == b[i] {
			continue
		}

		if a[i] == '/' {
			return true
		}

		if b[i] == '/' {
			return false
		}

		return a[i] < b[i]
	}

	return len(a) < len(b)
}
