// Package tui asks the user to confirm a sync before anything is written.
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection
)

const (
	// Question is asked after the sync procedures are shown.
	Question = "Do you really want to start the sync? [y/n]"
	// Aborted is printed when the answer is anything but 'y'.
	Aborted = "Sync aborted."
)

// ConfirmModel shows the sync procedures and waits for a single key.
type ConfirmModel struct {
	title      string
	procedures string
	answered   bool
	confirmed  bool
}

// NewConfirmModel creates the confirmation screen for rendered procedures.
func NewConfirmModel(title, procedures string) ConfirmModel {
	return ConfirmModel{title: title, procedures: strings.TrimRight(procedures, "\n")}
}

// Confirmed reports whether the user pressed 'y'.
func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// Answered reports whether a key ended the screen.
func (m ConfirmModel) Answered() bool {
	return m.answered
}

// Init initializes the confirmation screen
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses. Only 'y' confirms; every other key aborts.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.answered = true
	m.confirmed = keyMsg.Type == tea.KeyRunes && keyMsg.String() == "y"

	return m, tea.Quit
}

// View renders the confirmation screen
func (m ConfirmModel) View() string {
	var builder strings.Builder

	builder.WriteString(TitleStyle().Render(m.title))
	builder.WriteString("\n")
	builder.WriteString(BoxStyle().Render(m.procedures))
	builder.WriteString("\n\n")

	switch {
	case !m.answered:
		builder.WriteString(PromptStyle().Render(PromptArrow + Question))
		builder.WriteString("\n")
		builder.WriteString(DimStyle().Render("Press y to sync, any other key to abort"))
	case m.confirmed:
		builder.WriteString(SuccessStyle().Render("Starting sync."))
	default:
		builder.WriteString(WarningStyle().Render(Aborted))
	}

	builder.WriteString("\n")

	return builder.String()
}

// Confirm shows the procedures and asks the question. A terminal gets the
// interactive screen; anything else reads one line and accepts it when it
// starts with 'y'. The abort message is written on refusal.
func Confirm(in io.Reader, out io.Writer, title, procedures string) (bool, error) {
	if isTerminal(in) && isTerminal(out) {
		return confirmScreen(in, out, title, procedures)
	}

	return ConfirmLine(in, out, title, procedures)
}

func confirmScreen(in io.Reader, out io.Writer, title, procedures string) (bool, error) {
	program := tea.NewProgram(NewConfirmModel(title, procedures), tea.WithInput(in), tea.WithOutput(out))

	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation screen: %w", err)
	}

	model, ok := final.(ConfirmModel)

	return ok && model.Confirmed(), nil
}

// ConfirmLine is the line-oriented prompt used without a terminal.
func ConfirmLine(in io.Reader, out io.Writer, title, procedures string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s\n%s\n%s\n", title, strings.TrimRight(procedures, "\n"), Question); err != nil {
		return false, err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(line), "y") {
		return true, nil
	}

	_, err = fmt.Fprintf(out, "\n%s\n", Aborted)

	return false, err
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)

	return ok && term.IsTerminal(int(file.Fd()))
}
