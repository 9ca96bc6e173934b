package syncengine

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/pkg/filesystem"
)

// Rule is one exclusion: a file name, a directory name or a relative path.
// A value containing glob meta characters (*, ?, [, {) is matched with
// doublestar semantics, anything else must match exactly.
type Rule struct {
	Kind  catalog.ExclusionKind
	Value string

	glob bool
}

// Exclusions implements catalog.Excluder over a fixed list of rules.
// It is read-only after construction and safe for concurrent use.
type Exclusions struct {
	rules []Rule
}

var _ catalog.Excluder = (*Exclusions)(nil)

// NewExclusions builds the rule list. Path rules are normalized to forward
// slashes without a leading slash. An invalid glob pattern is an error.
func NewExclusions(files, dirs, paths []string) (*Exclusions, error) {
	excl := &Exclusions{}

	groups := []struct {
		kind   catalog.ExclusionKind
		values []string
	}{
		{catalog.ExcludeFile, files},
		{catalog.ExcludeDirectory, dirs},
		{catalog.ExcludePath, paths},
	}

	for _, group := range groups {
		for _, value := range group.values {
			if err := excl.add(group.kind, value); err != nil {
				return nil, err
			}
		}
	}

	return excl, nil
}

func (e *Exclusions) add(kind catalog.ExclusionKind, value string) error {
	if kind == catalog.ExcludePath {
		value = filesystem.NormalizePath(value)
	}

	if value == "" {
		return nil
	}

	rule := Rule{Kind: kind, Value: value, glob: strings.ContainsAny(value, "*?[{")}

	if rule.glob && !doublestar.ValidatePattern(value) {
		return fmt.Errorf("invalid %s exclusion pattern: %q", kind, value)
	}

	e.rules = append(e.rules, rule)

	return nil
}

// Len returns the number of rules.
func (e *Exclusions) Len() int {
	return len(e.rules)
}

// Excluded implements catalog.Excluder.
func (e *Exclusions) Excluded(kind catalog.ExclusionKind, name string) bool {
	if e == nil {
		return false
	}

	for _, rule := range e.rules {
		if rule.Kind != kind {
			continue
		}

		if !rule.glob {
			if rule.Value == name {
				return true
			}

			continue
		}

		// Patterns are validated up front, so Match cannot fail here.
		if matched, _ := doublestar.Match(rule.Value, name); matched {
			return true
		}
	}

	return false
}
