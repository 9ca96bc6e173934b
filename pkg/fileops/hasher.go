package fileops

import (
	"crypto/md5" //nolint:gosec // MD5 is a catalog format option, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/filesystem"
)

// HashAlgorithm selects the content hash recorded for files.
type HashAlgorithm int

const (
	// HashNone records no hash
	HashNone HashAlgorithm = iota
	// HashMD5 records an MD5 digest
	HashMD5
	// HashSHA256 records a SHA-256 digest
	HashSHA256
)

// String returns the command line name of the algorithm.
func (a HashAlgorithm) String() string {
	switch a {
	case HashNone:
		return "none"
	case HashMD5:
		return "md5"
	case HashSHA256:
		return "sha2"
	default:
		return "unknown"
	}
}

// Tag returns the prefix used for the hash field in catalog files.
func (a HashAlgorithm) Tag() string {
	switch a {
	case HashMD5:
		return "MD5"
	case HashSHA256:
		return "SHA2"
	default:
		return ""
	}
}

// ParseHashAlgorithm parses a command line or config file hash name.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToLower(s) {
	case "", "none", "nohash":
		return HashNone, nil
	case "md5":
		return HashMD5, nil
	case "sha2", "sha256":
		return HashSHA256, nil
	default:
		return HashNone, fmt.Errorf("invalid hash algorithm: %s (valid: none, md5, sha2)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg and yaml.
func (a *HashAlgorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseHashAlgorithm(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a HashAlgorithm) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a HashAlgorithm) newHash() hash.Hash {
	switch a {
	case HashMD5:
		return md5.New() //nolint:gosec // see import
	case HashSHA256:
		return sha256.New()
	default:
		return nil
	}
}

// CacheKey identifies one version of a file's content. A file whose size or
// modification time changed gets a different key.
type CacheKey struct {
	Path      string
	Size      int64
	ModTime   int64
	Algorithm HashAlgorithm
}

// HashCache remembers computed hashes between runs.
type HashCache interface {
	Lookup(key CacheKey) (sum string, found bool, err error)
	Store(key CacheKey, sum string) error
}

// Hasher computes lowercase hex content hashes, optionally through a HashCache.
type Hasher struct {
	FS    filesystem.FileSystem
	Cache HashCache

	bytesHashed atomic.Int64
}

// NewHasher creates a Hasher. cache may be nil.
func NewHasher(fsys filesystem.FileSystem, cache HashCache) *Hasher {
	return &Hasher{FS: fsys, Cache: cache}
}

// NewRealHasher creates an uncached Hasher on the real filesystem.
func NewRealHasher() *Hasher {
	return NewHasher(filesystem.NewRealFileSystem(), nil)
}

// BytesHashed returns the number of bytes read for hashing so far.
func (h *Hasher) BytesHashed() int64 {
	return h.bytesHashed.Load()
}

// Hash returns the hex digest of the file at path. HashNone yields "".
// A cached digest is reused while the file's size and modification time
// are unchanged.
func (h *Hasher) Hash(path string, algorithm HashAlgorithm) (string, error) {
	return h.hash(path, algorithm, true)
}

// Verifier returns a view of h that always reads the content. Comparisons
// use it because a rewrite can keep both size and modification time.
func (h *Hasher) Verifier() Verifier {
	return Verifier{hasher: h}
}

// Verifier hashes from content only. Fresh digests still refresh the cache.
type Verifier struct {
	hasher *Hasher
}

// Hash returns the hex digest of the file at path without consulting the cache.
func (v Verifier) Hash(path string, algorithm HashAlgorithm) (string, error) {
	return v.hasher.hash(path, algorithm, false)
}

func (h *Hasher) hash(path string, algorithm HashAlgorithm, useCached bool) (string, error) {
	if algorithm == HashNone {
		return "", nil
	}

	if h.Cache == nil {
		return h.compute(path, algorithm)
	}

	info, err := h.FS.Stat(path)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", unierrors.NewIOError("resolve", path, err)
	}

	key := CacheKey{
		Path:      abs,
		Size:      info.Size(),
		ModTime:   info.ModTime().UnixNano(),
		Algorithm: algorithm,
	}

	if useCached {
		sum, found, err := h.Cache.Lookup(key)
		if err != nil {
			return "", unierrors.NewIOError("read hash cache", path, err)
		}

		if found {
			return sum, nil
		}
	}

	sum, err := h.compute(path, algorithm)
	if err != nil {
		return "", err
	}

	if err := h.Cache.Store(key, sum); err != nil {
		return "", unierrors.NewIOError("write hash cache", path, err)
	}

	return sum, nil
}

func (h *Hasher) compute(path string, algorithm HashAlgorithm) (string, error) {
	digest := algorithm.newHash()
	if digest == nil {
		return "", fmt.Errorf("hash %s: unsupported algorithm %d", path, algorithm)
	}

	file, err := h.FS.Open(path)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	n, err := io.Copy(digest, file)
	if err != nil {
		return "", unierrors.NewIOError("read", path, err)
	}

	h.bytesHashed.Add(n)

	return hex.EncodeToString(digest.Sum(nil)), nil
}
