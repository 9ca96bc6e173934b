package catalog

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/joe/unisync/pkg/fileops"
	"github.com/joe/unisync/pkg/filesystem"
)

const (
	fieldSeparator = "*"
	fileRecord     = "F"
	dirRecord      = "D"
)

// FormatEntry renders one catalog line without the trailing newline:
//
//	F*<path>*<mtime>*<size>*<TAG>:<hex>*
//	D*<path>*<mtime>*
//
// The hash field of a file record is empty when no hash was computed.
func FormatEntry(entry *Entry) string {
	var sb strings.Builder

	if entry.IsDir() {
		sb.WriteString(dirRecord)
		sb.WriteString(fieldSeparator)
		sb.WriteString(entry.Path)
		sb.WriteString(fieldSeparator)
		sb.WriteString(entry.ModTime)
		sb.WriteString(fieldSeparator)

		return sb.String()
	}

	sb.WriteString(fileRecord)
	sb.WriteString(fieldSeparator)
	sb.WriteString(entry.Path)
	sb.WriteString(fieldSeparator)
	sb.WriteString(entry.ModTime)
	sb.WriteString(fieldSeparator)
	sb.WriteString(strconv.FormatInt(entry.Size, 10))
	sb.WriteString(fieldSeparator)

	if entry.HasHash() {
		sb.WriteString(entry.Algorithm.Tag())
		sb.WriteString(":")
		sb.WriteString(entry.Hash)
	}

	sb.WriteString(fieldSeparator)

	return sb.String()
}

// ParseLine parses one catalog line. Lines that are not well formed yield
// ok == false and are meant to be skipped. Empty fields are ignored the way a
// tokenizer collapsing repeated separators would ignore them.
func ParseLine(line string) (*Entry, bool) {
	line = strings.TrimRight(line, "\r\n")

	fields := nonEmpty(strings.Split(line, fieldSeparator))
	if len(fields) == 0 {
		return nil, false
	}

	switch fields[0] {
	case fileRecord:
		return parseFile(fields)
	case dirRecord:
		return parseDir(fields)
	default:
		return nil, false
	}
}

func parseFile(fields []string) (*Entry, bool) {
	const minFields = 4

	if len(fields) < minFields {
		return nil, false
	}

	path := filesystem.NormalizePath(fields[1])
	if path == "" {
		return nil, false
	}

	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || size < 0 {
		return nil, false
	}

	entry := &Entry{
		Kind:    KindFile,
		Path:    path,
		ModTime: fields[2],
		Size:    size,
	}

	for _, field := range fields[minFields:] {
		if algorithm, sum, ok := parseHash(field); ok {
			entry.Algorithm = algorithm
			entry.Hash = sum
		}
	}

	return entry, true
}

func parseDir(fields []string) (*Entry, bool) {
	const minFields = 3

	if len(fields) < minFields {
		return nil, false
	}

	path := filesystem.NormalizePath(fields[1])
	if path == "" {
		return nil, false
	}

	return &Entry{
		Kind:    KindDirectory,
		Path:    path,
		ModTime: fields[2],
	}, true
}

// parseHash recognizes MD5:<hex> and SHA2:<hex>. Anything else means no hash.
func parseHash(field string) (fileops.HashAlgorithm, string, bool) {
	for _, algorithm := range []fileops.HashAlgorithm{fileops.HashMD5, fileops.HashSHA256} {
		prefix := algorithm.Tag() + ":"
		if sum, found := strings.CutPrefix(field, prefix); found && sum != "" {
			return algorithm, strings.ToLower(sum), true
		}
	}

	return fileops.HashNone, "", false
}

func nonEmpty(fields []string) []string {
	kept := fields[:0]

	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			kept = append(kept, field)
		}
	}

	return kept
}

// Writer streams catalog lines.
type Writer struct {
	w     *bufio.Writer
	lines int
}

// NewWriter creates a buffered catalog writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one entry as a line.
func (cw *Writer) Write(entry *Entry) error {
	if _, err := cw.w.WriteString(FormatEntry(entry) + "\n"); err != nil {
		return err
	}

	cw.lines++

	return nil
}

// Lines returns the number of lines written.
func (cw *Writer) Lines() int {
	return cw.lines
}

// Flush writes buffered data to the underlying writer.
func (cw *Writer) Flush() error {
	return cw.w.Flush()
}
