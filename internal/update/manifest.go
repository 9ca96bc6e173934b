package update

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/joe/unisync/internal/catalog"
	"github.com/joe/unisync/internal/syncengine"
	unierrors "github.com/joe/unisync/pkg/errors"
	"github.com/joe/unisync/pkg/filesystem"
)

// ManifestName is the file at the package root listing deletions.
const ManifestName = ".deleted_items"

const (
	filePrefix = "F:"
	dirPrefix  = "D:"
)

// Deletion is one manifest line.
type Deletion struct {
	Kind catalog.Kind
	Path string
}

// Manifest lists deletions in replay order, children before parents.
type Manifest struct {
	Deletions []Deletion
}

// ManifestFromPlan collects the delete phases of a plan: files first, then
// directories, each already in reverse discovery order.
func ManifestFromPlan(plan *syncengine.Plan) Manifest {
	var manifest Manifest

	for _, action := range plan.Step(syncengine.PhaseDeleteFiles).Actions {
		manifest.Deletions = append(manifest.Deletions, Deletion{Kind: catalog.KindFile, Path: action.Path})
	}

	for _, action := range plan.Step(syncengine.PhaseDeleteDirs).Actions {
		manifest.Deletions = append(manifest.Deletions, Deletion{Kind: catalog.KindDirectory, Path: action.Path})
	}

	return manifest
}

// Write renders the manifest, one F:<path> or D:<path> per line.
func (m Manifest) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, deletion := range m.Deletions {
		prefix := filePrefix
		if deletion.Kind == catalog.KindDirectory {
			prefix = dirPrefix
		}

		if _, err := bw.WriteString(prefix + deletion.Path + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Plan turns the manifest into delete steps. Consecutive deletions of the
// same kind share a step and the recorded order is kept.
func (m Manifest) Plan() *syncengine.Plan {
	plan := &syncengine.Plan{Direction: syncengine.DiffToCatalog}

	for _, deletion := range m.Deletions {
		phase, kind := syncengine.PhaseDeleteFiles, syncengine.ActionDeleteFile
		if deletion.Kind == catalog.KindDirectory {
			phase, kind = syncengine.PhaseDeleteDirs, syncengine.ActionDeleteDir
		}

		action := syncengine.Action{Kind: kind, Path: deletion.Path}

		last := len(plan.Steps) - 1
		if last >= 0 && plan.Steps[last].Phase == phase {
			plan.Steps[last].Actions = append(plan.Steps[last].Actions, action)
			continue
		}

		plan.Steps = append(plan.Steps, syncengine.Step{Phase: phase, Actions: []syncengine.Action{action}})
	}

	return plan
}

// ParseManifest reads and validates a whole manifest. name is used in error
// messages. Blank lines are ignored; any other line that is not a relative
// F: or D: path inside the tree is a FormatError.
func ParseManifest(r io.Reader, name string) (Manifest, error) {
	var manifest Manifest

	reader := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Manifest{}, unierrors.NewIOError("read manifest", name, err)
		}

		if trimmed := strings.TrimRight(line, "\r\n"); trimmed != "" {
			deletion, parseErr := parseDeletion(trimmed)
			if parseErr != nil {
				return Manifest{}, &unierrors.FormatError{Path: name, Line: lineNo, Msg: parseErr.Error()}
			}

			manifest.Deletions = append(manifest.Deletions, deletion)
		}

		if errors.Is(err, io.EOF) {
			return manifest, nil
		}
	}
}

func parseDeletion(line string) (Deletion, error) {
	var deletion Deletion

	switch {
	case strings.HasPrefix(line, filePrefix):
		deletion.Kind = catalog.KindFile
	case strings.HasPrefix(line, dirPrefix):
		deletion.Kind = catalog.KindDirectory
	default:
		return Deletion{}, fmt.Errorf("unrecognized manifest line %q", line)
	}

	raw := line[len(filePrefix):]

	if raw == "" {
		return Deletion{}, errors.New("empty path")
	}

	slashed := strings.ReplaceAll(raw, `\`, "/")
	if strings.HasPrefix(slashed, "/") || (len(slashed) >= 2 && slashed[1] == ':') {
		return Deletion{}, fmt.Errorf("absolute path %q", raw)
	}

	deletion.Path = filesystem.NormalizePath(raw)

	for _, segment := range strings.Split(deletion.Path, "/") {
		if segment == ".." {
			return Deletion{}, fmt.Errorf("path %q leaves the target directory", raw)
		}
	}

	if path.Clean(deletion.Path) == "." {
		return Deletion{}, fmt.Errorf("path %q names the target directory itself", raw)
	}

	return deletion, nil
}
