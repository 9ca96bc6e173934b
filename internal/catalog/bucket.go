package catalog

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// BucketName identifies one of the nine buckets of a Store.
type BucketName string

// Bucket names, in the order they are listed by Store.Buckets.
const (
	Files        BucketName = "files"
	FilesOK      BucketName = "files_ok"
	FilesMod     BucketName = "files_mod"
	FilesNew     BucketName = "files_new"
	FilesFixTime BucketName = "files_fixtime"
	Dirs         BucketName = "dirs"
	DirsOK       BucketName = "dirs_ok"
	DirsMod      BucketName = "dirs_mod"
	DirsNew      BucketName = "dirs_new"
)

// Bucket is an insertion ordered set of entries keyed by path. Removal keeps
// the relative order of the remaining entries.
type Bucket struct {
	name    BucketName
	entries *orderedmap.OrderedMap[string, *Entry]
}

func newBucket(name BucketName) *Bucket {
	return &Bucket{
		name:    name,
		entries: orderedmap.New[string, *Entry](),
	}
}

// Name returns the bucket name.
func (b *Bucket) Name() BucketName {
	return b.name
}

// Len returns the number of entries.
func (b *Bucket) Len() int {
	return b.entries.Len()
}

// Get returns the entry stored under path.
func (b *Bucket) Get(path string) (*Entry, bool) {
	return b.entries.Get(path)
}

// Append adds entry at the end. An entry whose path is already present is
// ignored and false is returned; the first one recorded wins.
func (b *Bucket) Append(entry *Entry) bool {
	if _, present := b.entries.Get(entry.Path); present {
		return false
	}

	b.entries.Set(entry.Path, entry)

	return true
}

// Remove takes the entry stored under path out of the bucket.
func (b *Bucket) Remove(path string) (*Entry, bool) {
	return b.entries.Delete(path)
}

// Clear drops every entry.
func (b *Bucket) Clear() {
	b.entries = orderedmap.New[string, *Entry]()
}

// All yields the entries in insertion order.
func (b *Bucket) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Backward yields the entries in reverse insertion order.
func (b *Bucket) Backward() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for pair := b.entries.Newest(); pair != nil; pair = pair.Prev() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Paths returns the paths in insertion order.
func (b *Bucket) Paths() []string {
	paths := make([]string, 0, b.Len())
	for entry := range b.All() {
		paths = append(paths, entry.Path)
	}

	return paths
}

// TotalSize sums the sizes of all entries.
func (b *Bucket) TotalSize() int64 {
	var total int64
	for entry := range b.All() {
		total += entry.Size
	}

	return total
}
