//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package catalog_test

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/joe/unisync/internal/catalog"
	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

// nameExcluder excludes by exact name per kind.
type nameExcluder map[catalog.ExclusionKind][]string

func (n nameExcluder) Excluded(kind catalog.ExclusionKind, name string) bool {
	return slices.Contains(n[kind], name)
}

func makeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)

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

		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Failed to set times: %v", err)
		}
	}
}

func newBuilder() *catalog.Builder {
	return catalog.NewBuilder(filesystem.NewPortableWalker(), fileops.NewRealHasher())
}

func TestFormatEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    *catalog.Entry
		expected string
	}{
		{
			name:     "file without hash",
			entry:    &catalog.Entry{Kind: catalog.KindFile, Path: "a/b.txt", ModTime: "2020-01-02_03:04:05", Size: 42},
			expected: "F*a/b.txt*2020-01-02_03:04:05*42**",
		},
		{
			name: "file with md5",
			entry: &catalog.Entry{
				Kind: catalog.KindFile, Path: "x", ModTime: "2020-01-02_03:04:05", Size: 5,
				Algorithm: fileops.HashMD5, Hash: "5d41402abc4b2a76b9719d911017c592",
			},
			expected: "F*x*2020-01-02_03:04:05*5*MD5:5d41402abc4b2a76b9719d911017c592*",
		},
		{
			name:     "file with sha2",
			entry:    &catalog.Entry{Kind: catalog.KindFile, Path: "y", ModTime: "t", Size: 0, Algorithm: fileops.HashSHA256, Hash: "ab"},
			expected: "F*y*t*0*SHA2:ab*",
		},
		{
			name:     "directory",
			entry:    &catalog.Entry{Kind: catalog.KindDirectory, Path: "dir/sub", ModTime: "2020-01-02_03:04:05"},
			expected: "D*dir/sub*2020-01-02_03:04:05*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(catalog.FormatEntry(tt.entry)).To(Equal(tt.expected))
		})
	}
}

func TestParseLineLenient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		ok    bool
		path  string
		size  int64
		algo  fileops.HashAlgorithm
		hash  string
		isDir bool
		mtime string
	}{
		{name: "plain file", line: "F*a.txt*2020-01-02_03:04:05*10**\n", ok: true, path: "a.txt", size: 10, mtime: "2020-01-02_03:04:05"},
		{name: "md5 file", line: "F*a.txt*m*10*MD5:ABCDEF*", ok: true, path: "a.txt", size: 10, algo: fileops.HashMD5, hash: "abcdef", mtime: "m"},
		{name: "untyped hash", line: "F*a.txt*m*10*deadbeef*", ok: true, path: "a.txt", size: 10, mtime: "m"},
		{name: "crlf", line: "D*dir*m*\r\n", ok: true, path: "dir", isDir: true, mtime: "m"},
		{name: "backslashes", line: `F*\dir\sub\f.txt*m*1**`, ok: true, path: "dir/sub/f.txt", size: 1, mtime: "m"},
		{name: "mixed separators", line: `D*/a\b/c*m*`, ok: true, path: "a/b/c", isDir: true, mtime: "m"},
		{name: "empty", line: "", ok: false},
		{name: "unknown record", line: "X*a*m*", ok: false},
		{name: "lowercase record", line: "f*a*m*1**", ok: false},
		{name: "missing size", line: "F*a.txt*m*", ok: false},
		{name: "bad size", line: "F*a.txt*m*ten**", ok: false},
		{name: "negative size", line: "F*a.txt*m*-1**", ok: false},
		{name: "missing mtime", line: "D*dir*", ok: false},
		{name: "garbage", line: "hello world", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			entry, ok := catalog.ParseLine(tt.line)
			g.Expect(ok).To(Equal(tt.ok))

			if !tt.ok {
				return
			}

			g.Expect(entry.Path).To(Equal(tt.path))
			g.Expect(entry.Size).To(Equal(tt.size))
			g.Expect(entry.Algorithm).To(Equal(tt.algo))
			g.Expect(entry.Hash).To(Equal(tt.hash))
			g.Expect(entry.IsDir()).To(Equal(tt.isDir))
			g.Expect(entry.ModTime).To(Equal(tt.mtime))
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	makeTree(t, root, map[string]string{
		"a/b/c.txt":    "ccc",
		"a/d.txt":      "dd",
		"top.txt":      "top",
		"empty/":       "",
		"z/space y.md": "spaces are fine",
	})

	var buf bytes.Buffer

	built, err := newBuilder().FromDirectory(root, catalog.Options{Hash: fileops.HashSHA256}, &buf)
	g.Expect(err).NotTo(HaveOccurred())

	parsed, err := newBuilder().FromSerialized(&buf)
	g.Expect(err).NotTo(HaveOccurred())

	for _, pair := range [][2]*catalog.Bucket{{built.Files, parsed.Files}, {built.Dirs, parsed.Dirs}} {
		g.Expect(pair[1].Paths()).To(Equal(pair[0].Paths()))

		for original := range pair[0].All() {
			read, ok := pair[1].Get(original.Path)
			g.Expect(ok).To(BeTrue())
			g.Expect(read.ModTime).To(Equal(original.ModTime))
			g.Expect(read.Size).To(Equal(original.Size))
			g.Expect(read.Algorithm).To(Equal(original.Algorithm))
			g.Expect(read.Hash).To(Equal(original.Hash))
		}
	}
}

func TestFromSerializedSkipsMalformedLines(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	input := strings.Join([]string{
		"D*docs*2020-01-01_00:00:00*",
		"this line is noise",
		"F*docs/a.txt*2020-01-01_00:00:00*3*MD5:900150983cd24fb0d6963f7d28e17f72*",
		"F*docs/broken*2020-01-01_00:00:00*",
		"F*docs/a.txt*2021-01-01_00:00:00*9**",
		"",
		"F*docs/b.txt*2020-01-01_00:00:00*0**",
	}, "\n")

	store, err := newBuilder().FromSerialized(strings.NewReader(input))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(store.Dirs.Paths()).To(Equal([]string{"docs"}))
	g.Expect(store.Files.Paths()).To(Equal([]string{"docs/a.txt", "docs/b.txt"}))

	first, _ := store.Files.Get("docs/a.txt")
	g.Expect(first.Size).To(Equal(int64(3)))
	g.Expect(first.Algorithm).To(Equal(fileops.HashMD5))
}

func TestFromDirectoryPreOrder(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeTree(t, root, map[string]string{
		"a/b/c.txt": "1",
		"a/z.txt":   "2",
		"b.txt":     "3",
		"a/b/d/":    "",
	})

	for _, fast := range []bool{false, true} {
		store, err := catalog.NewBuilder(filesystem.NewWalker(fast), fileops.NewRealHasher()).
			FromDirectory(root, catalog.Options{}, nil)
		if err != nil {
			t.Fatalf("FromDirectory(fast=%v) error = %v", fast, err)
		}

		g := NewWithT(t)
		g.Expect(store.Dirs.Paths()).To(Equal([]string{"a", "a/b", "a/b/d"}))
		g.Expect(store.Files.Paths()).To(Equal([]string{"a/b/c.txt", "a/z.txt", "b.txt"}))

		file, _ := store.Files.Get("a/z.txt")
		g.Expect(file.Size).To(Equal(int64(1)))
		g.Expect(file.ModTime).To(Equal("2023-01-02_03:04:05"))
		g.Expect(file.HasHash()).To(BeFalse())
	}
}

func TestFromDirectoryHashesFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	makeTree(t, root, map[string]string{"dir/hello.txt": "hello"})

	store, err := newBuilder().FromDirectory(root, catalog.Options{Hash: fileops.HashMD5}, nil)
	g.Expect(err).NotTo(HaveOccurred())

	file, ok := store.Files.Get("dir/hello.txt")
	g.Expect(ok).To(BeTrue())
	g.Expect(file.Algorithm).To(Equal(fileops.HashMD5))
	g.Expect(file.Hash).To(Equal("5d41402abc4b2a76b9719d911017c592"))

	dir, ok := store.Dirs.Get("dir")
	g.Expect(ok).To(BeTrue())
	g.Expect(dir.HasHash()).To(BeFalse())
}

func TestFromDirectoryExcludesSubtrees(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	makeTree(t, root, map[string]string{
		".git/config":        "x",
		".git/objects/aa/bb": "x",
		"src/.git/HEAD":      "x",
		"src/main.go":        "x",
		"src/Thumbs.db":      "x",
		"build/out.bin":      "x",
	})

	excl := nameExcluder{
		catalog.ExcludeDirectory: {".git"},
		catalog.ExcludeFile:      {"Thumbs.db"},
		catalog.ExcludePath:      {"build"},
	}

	store, err := newBuilder().FromDirectory(root, catalog.Options{Exclude: excl}, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(store.Dirs.Paths()).To(Equal([]string{"src"}))
	g.Expect(store.Files.Paths()).To(Equal([]string{"src/main.go"}))
}

func TestFromDirectoryMissingRoot(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := newBuilder().FromDirectory(filepath.Join(t.TempDir(), "gone"), catalog.Options{}, nil)
	g.Expect(err).To(HaveOccurred())
	g.Expect(unierrors.IsIOError(err)).To(BeTrue())
}

func TestWriteAndReadFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	makeTree(t, root, map[string]string{"a/b.txt": "b"})

	catPath := filepath.Join(t.TempDir(), "tree.usc")

	_, err := newBuilder().WriteFile(catPath, root, catalog.Options{})
	g.Expect(err).NotTo(HaveOccurred())

	store, err := newBuilder().FromFile(catPath)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(store.Dirs.Paths()).To(Equal([]string{"a"}))
	g.Expect(store.Files.Paths()).To(Equal([]string{"a/b.txt"}))

	_, err = newBuilder().FromFile(catPath + ".missing")
	g.Expect(unierrors.IsIOError(err)).To(BeTrue())
}
