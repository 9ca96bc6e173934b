package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		order: []ErrorCategory{
			CategoryPermission,
			CategoryDiskSpace,
			CategoryDelete,
			CategoryPath,
			CategoryCopy,
		},
		patterns: map[ErrorCategory][]string{
			CategoryPermission: {
				"permission denied",
				"access denied",
				"operation not permitted",
			},
			CategoryDiskSpace: {
				"no space left on device",
				"disk full",
				"quota exceeded",
			},
			CategoryPath: {
				"no such file or directory",
				"file not found",
				"not a directory",
			},
			CategoryDelete: {
				"directory not empty",
				"cannot remove",
			},
			CategoryCopy: {
				"short write",
				"input/output error",
				"i/o error",
			},
		},
	}
}

type patternMatcher struct {
	order    []ErrorCategory
	patterns map[ErrorCategory][]string
}

// Match returns the first category (in a fixed priority order) whose pattern
// occurs in the message.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, category := range m.order {
		for _, pattern := range m.patterns[category] {
			if strings.Contains(lowerMsg, pattern) {
				return category
			}
		}
	}

	return CategoryUnknown
}
