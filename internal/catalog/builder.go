package catalog

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joe/unisync/internal/logging"
	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
)

// Hasher computes content hashes.
type Hasher interface {
	Hash(path string, algorithm fileops.HashAlgorithm) (string, error)
}

// Builder populates stores from directories and catalog files.
type Builder struct {
	Walker filesystem.Walker
	Hasher Hasher

	log *log.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(walker filesystem.Walker, hasher Hasher) *Builder {
	return &Builder{
		Walker: walker,
		Hasher: hasher,
		log:    logging.Get("catalog"),
	}
}

// FromDirectory walks root depth-first, pre-order, and records every file and
// directory that opts does not exclude into the files and dirs buckets. When
// sink is not nil each entry is also written to it as a catalog line during
// the same pass. Any walk, stat or hash failure aborts the build.
func (b *Builder) FromDirectory(root string, opts Options, sink io.Writer) (*Store, error) {
	start := time.Now()
	store := NewStore()

	var writer *Writer
	if sink != nil {
		writer = NewWriter(sink)
	}

	var bytesSeen int64

	b.log.Info("scanning directory", "root", root, "hash", opts.Hash)

	err := b.Walker.Walk(root, opts.Skips, func(walked filesystem.Entry) error {
		entry := FromWalk(walked)

		if !entry.IsDir() && opts.Hash != fileops.HashNone {
			sum, err := b.Hasher.Hash(filesystem.JoinPath(root, entry.Path), opts.Hash)
			if err != nil {
				return err
			}

			entry.Algorithm = opts.Hash
			entry.Hash = sum
		}

		bytesSeen += entry.Size

		if !store.Add(entry) {
			return nil
		}

		b.log.Debug("cataloged", "kind", entry.Kind, "path", entry.Path)

		if writer != nil {
			if err := writer.Write(entry); err != nil {
				return unierrors.NewIOError("write catalog", entry.Path, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if writer != nil {
		if err := writer.Flush(); err != nil {
			return nil, unierrors.NewIOError("write catalog", root, err)
		}

		b.log.Debug("catalog lines written", "lines", writer.Lines())
	}

	b.log.Info("scan complete",
		"root", root,
		"files", store.Files.Len(),
		"dirs", store.Dirs.Len(),
		"bytes", bytesSeen,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return store, nil
}

// FromSerialized parses catalog lines into the files and dirs buckets.
// Malformed lines are skipped. Only read failures are errors.
func (b *Builder) FromSerialized(r io.Reader) (*Store, error) {
	store := NewStore()
	reader := bufio.NewReader(r)
	skipped := 0

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if entry, ok := ParseLine(line); ok {
				store.Add(entry)
			} else {
				skipped++
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	b.log.Info("catalog read", "files", store.Files.Len(), "dirs", store.Dirs.Len(), "skipped", skipped)

	return store, nil
}

// FromFile reads a catalog file.
func (b *Builder) FromFile(path string) (*Store, error) {
	file, err := os.Open(path) // #nosec G304 - catalog path comes from the command line
	if err != nil {
		return nil, unierrors.NewIOError("open catalog", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	store, err := b.FromSerialized(file)
	if err != nil {
		return nil, unierrors.NewIOError("read catalog", path, err)
	}

	return store, nil
}

// WriteFile creates a catalog file at path by walking root.
func (b *Builder) WriteFile(path, root string, opts Options) (*Store, error) {
	file, err := os.Create(path) // #nosec G304 - catalog path comes from the command line
	if err != nil {
		return nil, unierrors.NewIOError("create catalog", path, err)
	}

	store, buildErr := b.FromDirectory(root, opts, file)

	if err := file.Close(); err != nil && buildErr == nil {
		buildErr = unierrors.NewIOError("close catalog", path, err)
	}

	if buildErr != nil {
		return nil, buildErr
	}

	return store, nil
}
