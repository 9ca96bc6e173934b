//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package filesystem_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/filesystem"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func buildTree(t *testing.T, root string, files ...string) {
	t.Helper()

	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))

		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatalf("Failed to create directory: %v", err)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}

		if err := os.WriteFile(path, []byte(rel), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
}

func collect(t *testing.T, walker filesystem.Walker, root string, skip filesystem.SkipFunc) []string {
	t.Helper()

	var paths []string

	err := walker.Walk(root, skip, func(entry filesystem.Entry) error {
		suffix := ""
		if entry.IsDir {
			suffix = "/"
		}

		paths = append(paths, entry.RelativePath+suffix)

		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	return paths
}

func walkers() map[string]filesystem.Walker {
	return map[string]filesystem.Walker{
		"portable": filesystem.NewWalker(false),
		"fast":     filesystem.NewWalker(true),
	}
}

func TestWalkPreOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildTree(t, root,
		"b.txt",
		"a/z.txt",
		"a/b/c.txt",
		"a-b/x.txt",
		"empty/",
		"a.txt",
	)

	expected := []string{
		"a/",
		"a/b/",
		"a/b/c.txt",
		"a/z.txt",
		"a-b/",
		"a-b/x.txt",
		"a.txt",
		"b.txt",
		"empty/",
	}

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(collect(t, walker, root, nil)).To(Equal(expected))
		})
	}
}

func TestWalkSkipPrunesSubtree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildTree(t, root,
		".git/config",
		".git/objects/ab",
		"src/main.go",
		"src/.git/HEAD",
		"notes.tmp",
	)

	skip := func(entry filesystem.Entry) bool {
		return (entry.IsDir && entry.Name == ".git") || filepath.Ext(entry.Name) == ".tmp"
	}

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(collect(t, walker, root, skip)).To(Equal([]string{"src/", "src/main.go"}))
		})
	}
}

func TestWalkReportsMetadata(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	buildTree(t, root, "dir/file.bin")

	mtime := time.Date(2020, 5, 6, 7, 8, 9, 0, time.Local)
	g.Expect(os.Chtimes(filepath.Join(root, "dir", "file.bin"), mtime, mtime)).To(Succeed())

	var entries []filesystem.Entry

	err := filesystem.NewPortableWalker().Walk(root, nil, func(entry filesystem.Entry) error {
		entries = append(entries, entry)
		return nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(HaveLen(2))

	g.Expect(entries[0].IsDir).To(BeTrue())
	g.Expect(entries[0].Size).To(Equal(int64(0)))

	g.Expect(entries[1].RelativePath).To(Equal("dir/file.bin"))
	g.Expect(entries[1].Name).To(Equal("file.bin"))
	g.Expect(entries[1].IsRegular).To(BeTrue())
	g.Expect(entries[1].Size).To(Equal(int64(len("dir/file.bin"))))
	g.Expect(entries[1].ModTime.Equal(mtime)).To(BeTrue())
}

func TestWalkIgnoresSymlinks(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	buildTree(t, root, "real/file.txt")

	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(collect(t, walker, root, nil)).To(Equal([]string{"real/", "real/file.txt"}))
		})
	}
}

func TestWalkMissingRootIsIOError(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "missing")

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			err := walker.Walk(root, nil, func(filesystem.Entry) error { return nil })
			g.Expect(err).To(HaveOccurred())
			g.Expect(unierrors.IsIOError(err)).To(BeTrue())
		})
	}
}

func TestWalkRejectsBackslashNames(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("backslash is a separator on Windows")
	}

	root := t.TempDir()
	buildTree(t, root, "ok.txt", `a\b.txt`)

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			err := walker.Walk(root, nil, func(filesystem.Entry) error { return nil })
			g.Expect(unierrors.IsIOError(err)).To(BeTrue())
			g.Expect(errors.Is(err, unierrors.ErrBackslashName)).To(BeTrue())
			g.Expect(err).To(MatchError(ContainSubstring(filepath.Join(root, `a\b.txt`))))

			skip := func(entry filesystem.Entry) bool { return entry.Name == `a\b.txt` }
			g.Expect(collect(t, walker, root, skip)).To(Equal([]string{"ok.txt"}))
		})
	}
}

func TestWalkStopsOnVisitError(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	buildTree(t, root, "a.txt", "b.txt")

	errStop := errors.New("stop")

	for name, walker := range walkers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			visited := 0
			err := walker.Walk(root, nil, func(filesystem.Entry) error {
				visited++
				return errStop
			})
			g.Expect(err).To(MatchError(errStop))
			g.Expect(visited).To(Equal(1))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"a/b/c", "a/b/c"},
		{`a\b\c`, "a/b/c"},
		{`a\b/c`, "a/b/c"},
		{"/leading", "leading"},
		{`\\server\share`, "server/share"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := filesystem.NormalizePath(tt.input); got != tt.expected {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRealFileSystemErrorsNamePath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	missing := filepath.Join(t.TempDir(), "nothing", "here")
	fsys := filesystem.NewRealFileSystem()

	_, err := fsys.Open(missing)
	g.Expect(err).To(MatchError("open " + missing + ": no such file or directory"))
	g.Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())

	_, err = fsys.Stat(missing)
	g.Expect(unierrors.IsIOError(err)).To(BeTrue())
	g.Expect(err).To(MatchError("stat " + missing + ": no such file or directory"))

	g.Expect(fsys.Remove(missing)).To(MatchError("remove " + missing + ": no such file or directory"))
}
