// Package filesystem provides the filesystem collaborators used by the catalog
// engine: a thin FileSystem abstraction for file operations and a Walker that
// enumerates a directory tree depth-first, pre-order.
package filesystem

import (
	"io"
	"os"
	"time"

	"github.com/joe/unisync/pkg/errors"
)

// File is an interface that abstracts file operations.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem is an interface that abstracts filesystem operations.
// This allows for dependency injection and testing with failing implementations.
// Every error returned by an implementation names the offending path.
type FileSystem interface {
	Open(path string) (File, error)
	Create(path string) (File, error)
	Mkdir(path string, perm os.FileMode) error
	Chtimes(path string, atime, mtime time.Time) error
	Chmod(path string, mode os.FileMode) error
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)
}

// RealFileSystem implements FileSystem using the os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Chmod changes the permission bits of a file.
func (fs *RealFileSystem) Chmod(path string, mode os.FileMode) error {
	return errors.NewIOError("chmod", path, os.Chmod(path, mode))
}

// Chtimes changes the access and modification times of a file.
func (fs *RealFileSystem) Chtimes(path string, atime, mtime time.Time) error {
	return errors.NewIOError("chtimes", path, os.Chtimes(path, atime, mtime))
}

// Create creates or truncates a file for writing.
func (fs *RealFileSystem) Create(path string) (File, error) {
	file, err := os.Create(path) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, errors.NewIOError("create", path, err)
	}

	return file, nil
}

// Mkdir creates a single directory.
func (fs *RealFileSystem) Mkdir(path string, perm os.FileMode) error {
	return errors.NewIOError("mkdir", path, os.Mkdir(path, perm))
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}

	return file, nil
}

// Remove removes a file or an empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	return errors.NewIOError("remove", path, os.Remove(path))
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIOError("stat", path, err)
	}

	return info, nil
}
