package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crates/internal/shared"
	"github.com/mattn/go-isatty"
)

// CookiePrompt is the label shown when asking for the Bandcamp cookie.
const CookiePrompt = "enter your bandcamp cookie: "

// promptModel is a single line [textinput.Model] that quits on submit or cancel.
type promptModel struct {
	input     textinput.Model
	help      help.Model
	keys      keyMap
	value     string
	submitted bool
	cancelled bool
}

func newPromptModel(label string, masked bool) *promptModel {
	input := textinput.New()
	input.Prompt = label
	input.PromptStyle = styles.prompt
	input.Placeholder = "paste here"
	if masked {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	input.Focus()

	return &promptModel{input: input, help: help.New(), keys: newKeyMap()}
}

func (m *promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.submit):
			m.value = strings.TrimSpace(m.input.Value())
			m.submitted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.reveal):
			if m.input.EchoMode == textinput.EchoNormal {
				m.input.EchoMode = textinput.EchoPassword
			} else {
				m.input.EchoMode = textinput.EchoNormal
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *promptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return m.input.View() + "\n" + styles.help.Render(m.help.View(m.keys)) + "\n"
}

func (m *promptModel) result() (string, error) {
	if m.cancelled {
		return "", shared.ErrCancelled
	}
	if m.value == "" {
		return "", fmt.Errorf("%w: empty input", shared.ErrMissingCredentials)
	}
	return m.value, nil
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Prompt writes label to out and reads one line from in.
//
// A terminal input gets an interactive editor (masked when masked is set); any other input is
// read up to the first newline. Surrounding whitespace is trimmed and an empty answer is an error.
func Prompt(in io.Reader, out io.Writer, label string, masked bool) (string, error) {
	if IsTerminal(in) {
		return promptInteractive(in, out, label, masked)
	}
	return promptLine(in, out, label)
}

// PromptCookie asks for the Bandcamp cookie, masking it on terminals.
func PromptCookie(in io.Reader, out io.Writer) (string, error) {
	return Prompt(in, out, CookiePrompt, true)
}

func promptInteractive(in io.Reader, out io.Writer, label string, masked bool) (string, error) {
	model := newPromptModel(label, masked)

	p := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) {
			return "", shared.ErrCancelled
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return model.result()
}

func promptLine(in io.Reader, out io.Writer, label string) (string, error) {
	if _, err := fmt.Fprint(out, label); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: no input", shared.ErrMissingCredentials)
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%w: empty input", shared.ErrMissingCredentials)
	}
	return value, nil
}
