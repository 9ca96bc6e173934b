package errors

import (
	"errors"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // compiled once, shared by all enrichers
	pathExtractionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}
)

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich categorizes err and attaches suggestions.
// An error that is already actionable is returned unchanged. The affected path
// is taken, in order, from the argument, from a wrapped IOError/FormatError,
// and finally from the error text.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	var (
		ioErr  *IOError
		fmtErr *FormatError
	)

	category := CategoryUnknown

	switch {
	case errors.As(err, &fmtErr):
		category = CategoryFormat
		if affectedPath == "" {
			affectedPath = fmtErr.Path
		}
	case errors.As(err, &ioErr):
		if affectedPath == "" {
			affectedPath = ioErr.Path
		}
	}

	if affectedPath == "" {
		affectedPath = extractPath(err.Error())
	}

	if category == CategoryUnknown {
		category = e.matcher.Match(err.Error())
	}

	return NewActionableError(err, category, e.generator.Generate(category, affectedPath), affectedPath)
}

// extractPath pulls a path out of common Go error texts such as
// "open /path/to/file: permission denied". Returns "" when none is found.
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
