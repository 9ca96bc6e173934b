package fileops

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/filesystem"
)

// PathMaker creates directory paths and remembers every absolute directory it
// has confirmed or created, so repeated requests for the same path cost no I/O.
// The memo is only cleared by Reset (and Forget for a removed directory).
type PathMaker struct {
	fs    filesystem.FileSystem
	mu    sync.Mutex
	known map[string]struct{}
}

// NewPathMaker creates a PathMaker with an empty memo.
func NewPathMaker(fsys filesystem.FileSystem) *PathMaker {
	return &PathMaker{
		fs:    fsys,
		known: make(map[string]struct{}),
	}
}

// MakePath creates path and its missing ancestors. When lastIsFile is set the
// final element is treated as a file name and only its parent is created.
func (p *PathMaker) MakePath(path string, lastIsFile bool) error {
	_, err := p.makePath(path, lastIsFile)
	return err
}

// Known reports whether path is in the memo.
func (p *PathMaker) Known(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.known[abs]

	return ok
}

// Forget drops path and everything below it from the memo.
func (p *PathMaker) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prefix := abs + string(filepath.Separator)
	for known := range p.known {
		if known == abs || strings.HasPrefix(known, prefix) {
			delete(p.known, known)
		}
	}
}

// Reset clears the memo.
func (p *PathMaker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.known = make(map[string]struct{})
}

func (p *PathMaker) makePath(path string, lastIsFile bool) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, unierrors.NewIOError("resolve", path, err)
	}

	if lastIsFile {
		abs = filepath.Dir(abs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ensure(abs)
}

// ensure must be called with p.mu held.
func (p *PathMaker) ensure(dir string) (int, error) {
	if _, ok := p.known[dir]; ok {
		return 0, nil
	}

	info, err := p.fs.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return 0, unierrors.NewIOError("mkdir", dir, ErrNotDirectory)
		}

		p.known[dir] = struct{}{}

		return 0, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}

	created := 0

	if parent := filepath.Dir(dir); parent != dir {
		created, err = p.ensure(parent)
		if err != nil {
			return created, err
		}
	}

	if err := p.fs.Mkdir(dir, DefaultDirPermissions); err != nil {
		return created, err
	}

	p.known[dir] = struct{}{}

	return created + 1, nil
}
