// Package prompt renders the installer's interactive questions with huh forms.
package prompt

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"ckan-devstaller/internal/config"
	"ckan-devstaller/internal/terminal"
)

// ErrNoTerminal is returned when a prompt is shown without an interactive terminal.
var ErrNoTerminal = errors.New("interactive prompts require a terminal; rerun with --skip-interactive")

// HuhUI implements config.Prompter using charmbracelet/huh.
type HuhUI struct {
	isTerminal func() bool
}

var _ config.Prompter = (*HuhUI)(nil)

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhUI returns a HuhUI that checks terminal.IsInteractive before each prompt.
func NewHuhUI() *HuhUI {
	return &HuhUI{isTerminal: terminal.IsInteractive}
}

func (ui *HuhUI) ensureInteractive() error {
	checker := ui.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if !checker() {
		return ErrNoTerminal
	}
	return nil
}

func keyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel"))
	km.Select.Filter.SetEnabled(false)
	km.Select.SetFilter.SetEnabled(false)
	km.Select.ClearFilter.SetEnabled(false)
	return km
}

// interruptToQuit turns an interrupt into a quit so the form is cleared before returning.
func interruptToQuit(_ tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.InterruptMsg); ok {
		return tea.QuitMsg{}
	}
	return msg
}

func (ui *HuhUI) run(field huh.Field) error {
	if err := ui.ensureInteractive(); err != nil {
		return err
	}
	form := huh.NewForm(huh.NewGroup(field)).
		WithKeyMap(keyMap()).
		WithProgramOptions(
			tea.WithOutput(os.Stderr),
			tea.WithFilter(interruptToQuit),
		)

	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		return config.ErrCancelled
	}
	return err
}

func options(values []string) []huh.Option[string] {
	opts := make([]huh.Option[string], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(v, v)
	}
	return opts
}

// Note shows an informational screen.
func (ui *HuhUI) Note(title, body string) error {
	return ui.run(huh.NewNote().Title(title).Description(body))
}

// Confirm asks a yes/no question.
func (ui *HuhUI) Confirm(title, description string, value *bool) error {
	return ui.run(huh.NewConfirm().Title(title).Description(description).Value(value))
}

// Select asks for one of options.
func (ui *HuhUI) Select(title, description string, values []string, value *string) error {
	return ui.run(huh.NewSelect[string]().
		Title(title).
		Description(description).
		Options(options(values)...).
		Value(value))
}

// MultiSelect asks for any subset of options.
func (ui *HuhUI) MultiSelect(title, description string, values []string, value *[]string) error {
	return ui.run(huh.NewMultiSelect[string]().
		Title(title).
		Description(description).
		Filterable(false).
		Options(options(values)...).
		Value(value))
}

// Input asks for free text.
func (ui *HuhUI) Input(title, description string, value *string, validate func(string) error) error {
	in := huh.NewInput().Title(title).Description(description).Value(value)
	if validate != nil {
		in = in.Validate(validate)
	}
	return ui.run(in)
}

// SecretInput asks for free text without echoing it.
func (ui *HuhUI) SecretInput(title, description string, value *string, validate func(string) error) error {
	in := huh.NewInput().Title(title).Description(description).Value(value).EchoMode(huh.EchoModePassword)
	if validate != nil {
		in = in.Validate(validate)
	}
	return ui.run(in)
}
