// Package hashcache persists file content hashes between runs in a Badger
// database, so catalogs over mostly unchanged trees do not re-read every file.
//
// Entries are keyed by absolute path and algorithm. The stored size and
// modification time are compared on lookup; a file that changed in either is
// a miss.
package hashcache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v4"
	"github.com/joe/unisync/pkg/fileops"
)

// Version is incremented when the stored value format changes.
const Version = 1

const keySeparator = '\x00'

// record is the stored value for one key.
type record struct {
	Version int
	Size    int64
	ModTime int64
	Sum     string
}

func (r *record) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (r *record) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}

// Store wraps Badger and implements fileops.HashCache.
type Store struct {
	db *badger.DB
}

var _ fileops.HashCache = (*Store)(nil)

// DefaultPath returns the cache directory under the XDG cache home.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "unisync", "hashes")
}

// Open opens or creates a store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	return open(opts)
}

// OpenInMemory creates a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening hash cache: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup implements fileops.HashCache.
func (s *Store) Lookup(key fileops.CacheKey) (string, bool, error) {
	var rec record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeKey(key))
		if err != nil {
			return err
		}

		return item.Value(rec.decode)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	if rec.Version != Version || rec.Size != key.Size || rec.ModTime != key.ModTime {
		return "", false, nil
	}

	return rec.Sum, true, nil
}

// Store implements fileops.HashCache. An older record for the same path and
// algorithm is replaced.
func (s *Store) Store(key fileops.CacheKey, sum string) error {
	rec := record{Version: Version, Size: key.Size, ModTime: key.ModTime, Sum: sum}

	value, err := rec.encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(makeKey(key), value)
	})
}

// Forget removes every record for the file at root or any path below it.
func (s *Store) Forget(root string) error {
	root = strings.TrimRight(root, "/"+string(filepath.Separator))
	prefixes := [][]byte{
		[]byte(root + string(keySeparator)),
		[]byte(root + string(filepath.Separator)),
	}

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var doomed [][]byte

		for _, prefix := range prefixes {
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				doomed = append(doomed, it.Item().KeyCopy(nil))
			}
		}

		for _, key := range doomed {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return nil
	})
}

// makeKey formats <path>\x00<algorithm>.
func makeKey(key fileops.CacheKey) []byte {
	return []byte(key.Path + string(keySeparator) + strconv.Itoa(int(key.Algorithm)))
}
