//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package syncengine_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/syncengine"
	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
)

var baseTime = time.Date(2022, 7, 8, 9, 10, 11, 0, time.Local)

// makeTree creates files (content by path) and directories (path ending in /).
func makeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))

		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("Failed to create directory: %v", err)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		setTime(t, path, baseTime)
	}
}

func setTime(t *testing.T, path string, mtime time.Time) {
	t.Helper()

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Failed to set times: %v", err)
	}
}

func buildCatalog(t *testing.T, root string, opts catalog.Options) *catalog.Store {
	t.Helper()

	store, err := catalog.NewBuilder(filesystem.NewPortableWalker(), fileops.NewRealHasher()).
		FromDirectory(root, opts, nil)
	if err != nil {
		t.Fatalf("FromDirectory failed: %v", err)
	}

	return store
}

func parseCatalog(t *testing.T, lines ...string) *catalog.Store {
	t.Helper()

	store, err := catalog.NewBuilder(filesystem.NewPortableWalker(), fileops.NewRealHasher()).
		FromSerialized(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("FromSerialized failed: %v", err)
	}

	return store
}

func diff(t *testing.T, store *catalog.Store, root string, opts catalog.Options) {
	t.Helper()

	engine := syncengine.NewDiffEngine(filesystem.NewPortableWalker(), fileops.NewRealHasher())
	if err := engine.Diff(store, root, opts); err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
}

// recordingOps records every call with root-relative, slash separated paths.
type recordingOps struct {
	calls  []string
	failOn string
	err    error
}

func (r *recordingOps) record(call string) error {
	r.calls = append(r.calls, call)

	if r.failOn != "" && call == r.failOn {
		return r.err
	}

	return nil
}

func (r *recordingOps) Copy(src, dst string) error {
	return r.record("copy " + filepath.ToSlash(src) + " " + filepath.ToSlash(dst))
}

func (r *recordingOps) DeleteFile(path string) error {
	return r.record("rm " + filepath.ToSlash(path))
}

func (r *recordingOps) DeleteDirectory(path string) error {
	return r.record("rmdir " + filepath.ToSlash(path))
}

func (r *recordingOps) FixTimeAndMode(src, dst string) error {
	return r.record("fixtime " + filepath.ToSlash(src) + " " + filepath.ToSlash(dst))
}

func (r *recordingOps) MakePath(path string, _ bool) error {
	return r.record("mkpath " + filepath.ToSlash(path))
}
