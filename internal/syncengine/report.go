package syncengine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joe/unisync/internal/catalog"
)

// Exported constants.
const (
	IdenticalMessage = "The folders seem to be identical"
	NothingToDo      = " - nothing - "
)

// WriteDiffReport prints every difference found by a diff, catalog side
// first: deleted folders and files, new folders and files, then modified
// folders and files with the reason. Fix-time files are reported as time
// changes.
func WriteDiffReport(w io.Writer, store *catalog.Store) error {
	var sb strings.Builder

	for entry := range store.Dirs.All() {
		fmt.Fprintf(&sb, "DELETED FOLDER: %s\n", entry.Path)
	}

	for entry := range store.Files.All() {
		fmt.Fprintf(&sb, "DELETED FILE: %s (%s bytes)\n", entry.Path, humanize.Comma(entry.Size))
	}

	for entry := range store.DirsNew.All() {
		fmt.Fprintf(&sb, "NEW FOLDER: %s\n", entry.Path)
	}

	for entry := range store.FilesNew.All() {
		fmt.Fprintf(&sb, "NEW FILE: %s (%s bytes)\n", entry.Path, humanize.Comma(entry.Size))
	}

	for entry := range store.DirsMod.All() {
		fmt.Fprintf(&sb, "MODIFIED FOLDER: %s (%s)\n", entry.Path, entry.Status)
	}

	for entry := range store.FilesMod.All() {
		fmt.Fprintf(&sb, "MODIFIED FILE: %s (%s)\n", entry.Path, entry.Status)
	}

	for entry := range store.FilesFixTime.All() {
		fmt.Fprintf(&sb, "MODIFIED FILE: %s (%s)\n", entry.Path, catalog.StatusTimeDiff)
	}

	if sb.Len() == 0 {
		sb.WriteString(IdenticalMessage + "\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

// WriteProcedures prints a summary of what executing plan will do.
func WriteProcedures(w io.Writer, plan *Plan, sourceRoot, targetRoot string) error {
	var sb strings.Builder

	sb.WriteString("-------------------------\nRequired actions to sync:\n")

	if count, _ := plan.Count(PhaseFixTime, ""); count > 0 {
		fmt.Fprintf(&sb, " FILE-FIX-TIMES: %q -> %d file(s) -> %q\n", sourceRoot, count, targetRoot)
	}

	if count, _ := plan.Count(PhaseDeleteFiles, ""); count > 0 {
		fmt.Fprintf(&sb, " DELETE FILES: %d file(s) -> %q\n", count, targetRoot)
	}

	if count, _ := plan.Count(PhaseDeleteDirs, ""); count > 0 {
		fmt.Fprintf(&sb, " DELETE FOLDERS: %d folder(s) -> %q\n", count, targetRoot)
	}

	if count, _ := plan.Count(PhaseCreateDirs, ""); count > 0 {
		fmt.Fprintf(&sb, " COPY FOLDERS: %q -> %d folder(s) -> %q\n", sourceRoot, count, targetRoot)
	}

	allCopies, allBytes := plan.Count(PhaseCopyFiles, "")
	modCopies, modBytes := plan.Count(PhaseCopyFiles, catalog.FilesMod)

	if missing := allCopies - modCopies; missing > 0 {
		fmt.Fprintf(&sb, " COPY MISSING FILES: %q -> %d file(s) / %s -> %q\n",
			sourceRoot, missing, humanize.IBytes(uint64(allBytes-modBytes)), targetRoot) //nolint:gosec // sizes are never negative
	}

	if modCopies > 0 {
		fmt.Fprintf(&sb, " COPY MODIFIED FILES: %q -> %d file(s) / %s -> %q\n",
			sourceRoot, modCopies, humanize.IBytes(uint64(modBytes)), targetRoot) //nolint:gosec // sizes are never negative
	}

	if plan.Empty() {
		sb.WriteString(NothingToDo + "\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

// WriteStats prints the statistics of an executed plan.
func WriteStats(w io.Writer, stats *Stats) error {
	line := fmt.Sprintf("%d action(s), %s copied in %s",
		stats.Total(), humanize.IBytes(uint64(stats.BytesCopied)), stats.Elapsed().Round(time.Millisecond)) //nolint:gosec // sizes are never negative

	if rate := stats.Throughput(); rate > 0 {
		line += fmt.Sprintf(" (%s/s)", humanize.IBytes(uint64(rate)))
	}

	_, err := io.WriteString(w, line+"\n")

	return err
}
