package catalog

import (
	"fmt"
)

// Store holds the nine buckets of one run. An entry lives in exactly one
// bucket at a time; Move relocates it to the end of another bucket.
type Store struct {
	Files        *Bucket
	FilesOK      *Bucket
	FilesMod     *Bucket
	FilesNew     *Bucket
	FilesFixTime *Bucket
	Dirs         *Bucket
	DirsOK       *Bucket
	DirsMod      *Bucket
	DirsNew      *Bucket
}

// NewStore creates a store with nine empty buckets.
func NewStore() *Store {
	return &Store{
		Files:        newBucket(Files),
		FilesOK:      newBucket(FilesOK),
		FilesMod:     newBucket(FilesMod),
		FilesNew:     newBucket(FilesNew),
		FilesFixTime: newBucket(FilesFixTime),
		Dirs:         newBucket(Dirs),
		DirsOK:       newBucket(DirsOK),
		DirsMod:      newBucket(DirsMod),
		DirsNew:      newBucket(DirsNew),
	}
}

// Buckets lists all buckets, files first.
func (s *Store) Buckets() []*Bucket {
	return []*Bucket{
		s.Files, s.FilesOK, s.FilesMod, s.FilesNew, s.FilesFixTime,
		s.Dirs, s.DirsOK, s.DirsMod, s.DirsNew,
	}
}

// Bucket returns the bucket with the given name, or nil.
func (s *Store) Bucket(name BucketName) *Bucket {
	for _, bucket := range s.Buckets() {
		if bucket.name == name {
			return bucket
		}
	}

	return nil
}

// Add appends entry to files or dirs according to its kind.
func (s *Store) Add(entry *Entry) bool {
	if entry.IsDir() {
		return s.Dirs.Append(entry)
	}

	return s.Files.Append(entry)
}

// Move relocates the entry stored under path from one bucket to the end of
// another.
func (s *Store) Move(path string, from, to *Bucket) error {
	if _, exists := to.Get(path); exists {
		return fmt.Errorf("move %s: already in %s", path, to.name)
	}

	entry, ok := from.Remove(path)
	if !ok {
		return fmt.Errorf("move %s: not in %s", path, from.name)
	}

	to.Append(entry)

	return nil
}

// Clear empties every bucket.
func (s *Store) Clear() {
	for _, bucket := range s.Buckets() {
		bucket.Clear()
	}
}

// Len returns the number of entries across all buckets.
func (s *Store) Len() int {
	total := 0
	for _, bucket := range s.Buckets() {
		total += bucket.Len()
	}

	return total
}

// Counts returns the size of every non-empty bucket.
func (s *Store) Counts() map[BucketName]int {
	counts := make(map[BucketName]int)

	for _, bucket := range s.Buckets() {
		if bucket.Len() > 0 {
			counts[bucket.name] = bucket.Len()
		}
	}

	return counts
}

// HasDifferences reports whether anything besides unchanged entries is left.
func (s *Store) HasDifferences() bool {
	for _, bucket := range s.Buckets() {
		if bucket != s.FilesOK && bucket != s.DirsOK && bucket.Len() > 0 {
			return true
		}
	}

	return false
}
