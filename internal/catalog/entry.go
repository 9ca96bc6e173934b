// Package catalog holds the in-memory inventory of a directory tree: entries,
// the nine classification buckets they move between while diffing, the line
// codec of catalog files and the builders that populate a store from a live
// directory or a serialized catalog.
package catalog

import (
	"time"

	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
)

// TimeFormat is the layout of modification times in catalogs: local time,
// second precision.
const TimeFormat = "2006-01-02_15:04:05"

// FormatTime renders t in catalog form.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeFormat)
}

// Kind distinguishes files from directories.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}

	return "file"
}

// Status is the classification given to an entry while diffing.
type Status int

const (
	StatusUnmatched Status = iota
	StatusMatched
	StatusSizeDiff
	StatusHashDiff
	StatusTimeDiff
	StatusFixTime
)

func (s Status) String() string {
	switch s {
	case StatusUnmatched:
		return "unmatched"
	case StatusMatched:
		return "matched"
	case StatusSizeDiff:
		return "size differs"
	case StatusHashDiff:
		return "hash differs"
	case StatusTimeDiff:
		return "time changed"
	case StatusFixTime:
		return "time fix"
	default:
		return "unknown"
	}
}

// Entry is one tracked file or directory.
type Entry struct {
	Kind Kind

	// Path is relative to the scan root, forward slashes, no leading slash.
	Path string

	// ModTime is in TimeFormat. It is kept as text so that catalogs written on
	// another machine compare exactly as they were recorded.
	ModTime string

	// Size is 0 for directories.
	Size int64

	Algorithm fileops.HashAlgorithm

	// Hash is lowercase hex, empty when Algorithm is HashNone.
	Hash string

	Status Status

	// LiveSize is the size found on disk by the diff for a modified file.
	LiveSize int64
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// HasHash reports whether a content hash was recorded.
func (e *Entry) HasHash() bool {
	return e.Algorithm != fileops.HashNone && e.Hash != ""
}

// FromWalk converts a walker entry. The hash is left for the caller.
func FromWalk(walked filesystem.Entry) *Entry {
	entry := &Entry{
		Kind:    KindFile,
		Path:    walked.RelativePath,
		ModTime: FormatTime(walked.ModTime),
		Size:    walked.Size,
	}

	if walked.IsDir {
		entry.Kind = KindDirectory
		entry.Size = 0
	}

	return entry
}
