//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package tui_test

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/unisync/internal/tui"
)

const procedures = "Sync procedures \"a\" -> \"b\":\n - copy files: 2 (10 B)\n"

func TestConfirmModel_Update_YesConfirms(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	model := tui.NewConfirmModel("Sync", procedures)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})

	g.Expect(cmd).ShouldNot(BeNil(), "an answer should end the program")
	g.Expect(cmd()).Should(BeAssignableToTypeOf(tea.QuitMsg{}))

	result, ok := updated.(tui.ConfirmModel)
	g.Expect(ok).To(BeTrue())
	g.Expect(result.Answered()).To(BeTrue())
	g.Expect(result.Confirmed()).To(BeTrue())
	g.Expect(result.View()).To(ContainSubstring("Starting sync."))
}

func TestConfirmModel_Update_OtherKeysAbort(t *testing.T) {
	t.Parallel()

	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'n'}},
		{Type: tea.KeyRunes, Runes: []rune{'Y'}},
		{Type: tea.KeyEnter},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}

	for _, key := range keys {
		g := NewWithT(t)

		updated, cmd := tui.NewConfirmModel("Sync", procedures).Update(key)
		g.Expect(cmd).ShouldNot(BeNil(), key.String())

		result, ok := updated.(tui.ConfirmModel)
		g.Expect(ok).To(BeTrue())
		g.Expect(result.Answered()).To(BeTrue(), key.String())
		g.Expect(result.Confirmed()).To(BeFalse(), key.String())
		g.Expect(result.View()).To(ContainSubstring(tui.Aborted))
	}
}

func TestConfirmModel_Update_IgnoresNonKeyMessages(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	updated, cmd := tui.NewConfirmModel("Sync", procedures).Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	g.Expect(cmd).Should(BeNil())
	g.Expect(updated.(tui.ConfirmModel).Answered()).To(BeFalse())
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	model := tui.NewConfirmModel("Sync", procedures)

	g.Expect(model.Init()).Should(BeNil())

	view := model.View()
	g.Expect(view).To(ContainSubstring("Sync"))
	g.Expect(view).To(ContainSubstring("copy files: 2 (10 B)"))
	g.Expect(view).To(ContainSubstring(tui.Question))
}

func TestConfirmLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input       string
		want        bool
		wantAborted bool
	}{
		{"y\n", true, false},
		{"yes\n", true, false},
		{"  y", true, false},
		{"n\n", false, true},
		{"Y\n", false, true},
		{"\n", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		g := NewWithT(t)

		var out bytes.Buffer

		confirmed, err := tui.ConfirmLine(strings.NewReader(tt.input), &out, "Sync", procedures)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(confirmed).To(Equal(tt.want), "%q", tt.input)
		g.Expect(out.String()).To(HavePrefix("Sync\n" + procedures + tui.Question + "\n"))
		g.Expect(strings.Contains(out.String(), tui.Aborted)).To(Equal(tt.wantAborted), "%q", tt.input)
	}
}

func TestConfirmWithoutTerminalUsesLinePrompt(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var out bytes.Buffer

	confirmed, err := tui.Confirm(strings.NewReader("y\n"), &out, "Sync", procedures)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(confirmed).To(BeTrue())
	g.Expect(out.String()).To(ContainSubstring(tui.Question))
}
