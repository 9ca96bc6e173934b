package catalog

import (
	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
)

// ExclusionKind says what an exclusion rule is matched against.
type ExclusionKind int

const (
	// ExcludeFile rules match the base name of files.
	ExcludeFile ExclusionKind = iota
	// ExcludeDirectory rules match the base name of directories.
	ExcludeDirectory
	// ExcludePath rules match the normalized relative path of any entry.
	ExcludePath
)

func (k ExclusionKind) String() string {
	switch k {
	case ExcludeFile:
		return "file"
	case ExcludeDirectory:
		return "directory"
	case ExcludePath:
		return "path"
	default:
		return "unknown"
	}
}

// Excluder decides whether a name of the given kind is excluded. It must be
// safe for concurrent use.
type Excluder interface {
	Excluded(kind ExclusionKind, name string) bool
}

// Options controls building and diffing. It is passed by value and never
// modified after construction.
type Options struct {
	// Hash is the algorithm used when building from a directory.
	Hash fileops.HashAlgorithm

	// SkipHash disables hash comparison even when the catalog carries hashes.
	SkipHash bool

	// WatchTime reports files whose modification time changed.
	WatchTime bool

	// FixTime classifies files with equal hashes but different times as
	// metadata-only changes.
	FixTime bool

	// Exclude may be nil.
	Exclude Excluder
}

// Skips reports whether a walked entry (and its subtree) is excluded.
func (o Options) Skips(entry filesystem.Entry) bool {
	if o.Exclude == nil {
		return false
	}

	kind := ExcludeFile
	if entry.IsDir {
		kind = ExcludeDirectory
	}

	return o.Exclude.Excluded(kind, entry.Name) || o.Exclude.Excluded(ExcludePath, entry.RelativePath)
}
