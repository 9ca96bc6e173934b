//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package hashcache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
	"github.com/joe/unisync/pkg/hashcache"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
)

func openStore(t *testing.T) *hashcache.Store {
	t.Helper()

	store, err := hashcache.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory failed: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestLookupMissThenHit(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	store := openStore(t)
	key := fileops.CacheKey{Path: "/data/a.txt", Size: 5, ModTime: 1000, Algorithm: fileops.HashMD5}

	_, found, err := store.Lookup(key)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeFalse())

	g.Expect(store.Store(key, "abc123")).To(Succeed())

	sum, found, err := store.Lookup(key)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeTrue())
	g.Expect(sum).To(Equal("abc123"))
}

func TestLookupStaleMetadataMisses(t *testing.T) {
	t.Parallel()

	base := fileops.CacheKey{Path: "/data/a.txt", Size: 5, ModTime: 1000, Algorithm: fileops.HashSHA256}

	tests := []struct {
		name string
		key  fileops.CacheKey
	}{
		{"size changed", fileops.CacheKey{Path: base.Path, Size: 6, ModTime: base.ModTime, Algorithm: base.Algorithm}},
		{"mtime changed", fileops.CacheKey{Path: base.Path, Size: base.Size, ModTime: 2000, Algorithm: base.Algorithm}},
		{"other algorithm", fileops.CacheKey{Path: base.Path, Size: base.Size, ModTime: base.ModTime, Algorithm: fileops.HashMD5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			store := openStore(t)
			g.Expect(store.Store(base, "cafe")).To(Succeed())

			_, found, err := store.Lookup(tt.key)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(found).To(BeFalse())
		})
	}
}

func TestForgetRemovesSubtree(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	store := openStore(t)
	inside := fileops.CacheKey{Path: "/data/dir/a.txt", Size: 1, ModTime: 1, Algorithm: fileops.HashMD5}
	outside := fileops.CacheKey{Path: "/other/b.txt", Size: 1, ModTime: 1, Algorithm: fileops.HashMD5}

	g.Expect(store.Store(inside, "1")).To(Succeed())
	g.Expect(store.Store(outside, "2")).To(Succeed())
	g.Expect(store.Forget("/data/")).To(Succeed())

	_, found, err := store.Lookup(inside)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeFalse())

	_, found, err = store.Lookup(outside)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeTrue())
}

func TestForgetStopsAtNameBoundary(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	store := openStore(t)
	file := fileops.CacheKey{Path: "/data/dir", Size: 1, ModTime: 1, Algorithm: fileops.HashMD5}
	child := fileops.CacheKey{Path: "/data/dir/a.txt", Size: 1, ModTime: 1, Algorithm: fileops.HashSHA256}
	sibling := fileops.CacheKey{Path: "/data/dir2/b.txt", Size: 1, ModTime: 1, Algorithm: fileops.HashMD5}

	for _, key := range []fileops.CacheKey{file, child, sibling} {
		g.Expect(store.Store(key, "sum")).To(Succeed())
	}

	g.Expect(store.Forget("/data/dir")).To(Succeed())

	for _, key := range []fileops.CacheKey{file, child} {
		_, found, err := store.Lookup(key)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(found).To(BeFalse(), key.Path)
	}

	_, found, err := store.Lookup(sibling)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeTrue())
}

func TestStoreBacksHasher(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "hello.txt")
	g.Expect(os.WriteFile(path, []byte("hello"), 0o644)).To(Succeed())

	hasher := fileops.NewHasher(filesystem.NewRealFileSystem(), openStore(t))

	for range 3 {
		sum, err := hasher.Hash(path, fileops.HashMD5)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(sum).To(Equal("5d41402abc4b2a76b9719d911017c592"))
	}

	g.Expect(hasher.BytesHashed()).To(Equal(int64(5)))
}

func TestVerifierReadsRewrittenContent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "x.txt")
	stamp := time.Date(2022, 1, 2, 3, 4, 5, 0, time.Local)

	write := func(content string) {
		g.Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		g.Expect(os.Chtimes(path, stamp, stamp)).To(Succeed())
	}

	hasher := fileops.NewHasher(filesystem.NewRealFileSystem(), openStore(t))

	write("0123456789")
	before, err := hasher.Hash(path, fileops.HashMD5)
	g.Expect(err).NotTo(HaveOccurred())

	// Same size, same modification time, different content.
	write("9876543210")
	want, err := fileops.NewRealHasher().Hash(path, fileops.HashMD5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(want).NotTo(Equal(before))

	sum, err := hasher.Verifier().Hash(path, fileops.HashMD5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sum).To(Equal(want))

	// The fresh digest replaced the stale record.
	sum, err = hasher.Hash(path, fileops.HashMD5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sum).To(Equal(want))
}

func TestOpenOnDisk(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	key := fileops.CacheKey{Path: "/x", Size: 1, ModTime: 1, Algorithm: fileops.HashMD5}

	store, err := hashcache.Open(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(store.Store(key, "persisted")).To(Succeed())
	g.Expect(store.Close()).To(Succeed())

	store, err = hashcache.Open(dir)
	g.Expect(err).NotTo(HaveOccurred())

	defer func() { _ = store.Close() }()

	sum, found, err := store.Lookup(key)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(found).To(BeTrue())
	g.Expect(sum).To(Equal("persisted"))
}
