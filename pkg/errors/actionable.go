// Package errors defines the two failure kinds of unisync and turns them into
// messages with actionable suggestions.
//
// I/O failures are wrapped in IOError and always name the path that failed.
// Problems with an update package manifest are FormatError values. Both are
// fatal to the command that hit them; malformed catalog lines never produce
// an error at all, they are skipped by the parser.
//
// At the top level the Enricher categorizes an error and attaches suggestions:
//
//	enricher := errors.NewEnricher()
//	if err := run(); err != nil {
//	    enriched := enricher.Enrich(err, "")
//	    fmt.Fprintln(os.Stderr, enriched)
//	    fmt.Fprintln(os.Stderr, errors.FormatSuggestions(enriched))
//	}
package errors

import "strings"

// Exported constants.
const (
	CategoryCopy       ErrorCategory = "copy"
	CategoryDelete     ErrorCategory = "delete"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryFormat     ErrorCategory = "format"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError represents an error with actionable suggestions for the user.
type ActionableError interface {
	error
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
	Unwrap() error
}

// NewActionableError creates a new ActionableError wrapping cause.
func NewActionableError(
	cause error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		cause:        cause,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions formats the suggestions from an ActionableError as a bulleted list.
// Returns empty string if the error is nil or has no suggestions.
func FormatSuggestions(err error) string {
	if err == nil {
		return ""
	}

	actionable, ok := err.(ActionableError)
	if !ok {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

type actionableError struct {
	cause        error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error implements the error interface.
func (e *actionableError) Error() string {
	return e.cause.Error()
}

func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap keeps IOError / FormatError reachable through errors.As.
func (e *actionableError) Unwrap() error {
	return e.cause
}
