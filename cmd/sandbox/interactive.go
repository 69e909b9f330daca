package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/clr-host/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// action is one invocable entry in the menu.
type action struct {
	name   string
	desc   string
	params []paramInfo
	invoke func(args []string) (string, error)
}

type paramInfo struct {
	name    string
	typeStr string
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	title    string
	result   string
	actions  []action
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
	onQuit   func()
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(title string, actions []action, onQuit func()) *interactiveModel {
	return &interactiveModel{
		title:   title,
		actions: actions,
		state:   stateSelectFunc,
		onQuit:  onQuit,
	}
}

// sessionActions exposes the resolved entry points of s.
func sessionActions(s *session) []action {
	indexParam := []paramInfo{{name: "index", typeStr: "u32"}}

	return []action{
		{
			name:   fnPrintObjProperties,
			desc:   "pass an object by pointer",
			params: []paramInfo{{name: "text", typeStr: "string"}, {name: "double", typeStr: "f64"}},
			invoke: func(args []string) (string, error) {
				d, err := parseFloat(args[1])
				if err != nil {
					return "", err
				}
				obj := NewCustomObject(args[0], d)
				s.PrintObject(&obj)
				return "printed " + obj.String(), nil
			},
		},
		{
			name:   fnReadObjectFromSharedMemory,
			desc:   "managed side prints shared[index]",
			params: indexParam,
			invoke: func(args []string) (string, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return "", err
				}
				if err := s.ManagedRead(i); err != nil {
					return "", err
				}
				return fmt.Sprintf("managed side read shared[%d]", i), nil
			},
		},
		{
			name:   fnWriteObjectToSharedMemory,
			desc:   "managed side stores its sample at shared[index]",
			params: indexParam,
			invoke: func(args []string) (string, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return "", err
				}
				if err := s.ManagedWrite(i); err != nil {
					return "", err
				}
				obj, err := s.ReadShared(i)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("shared[%d] = %s", i, &obj), nil
			},
		},
		{
			name:   "write-shared",
			desc:   "store an object at shared[index]",
			params: append(indexParam, paramInfo{name: "text", typeStr: "string"}, paramInfo{name: "double", typeStr: "f64"}),
			invoke: func(args []string) (string, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return "", err
				}
				d, err := parseFloat(args[2])
				if err != nil {
					return "", err
				}
				obj := NewCustomObject(args[1], d)
				if err := s.WriteShared(i, obj); err != nil {
					return "", err
				}
				return fmt.Sprintf("shared[%d] = %s", i, &obj), nil
			},
		},
		{
			name:   "read-shared",
			desc:   "load shared[index]",
			params: indexParam,
			invoke: func(args []string) (string, error) {
				i, err := parseIndex(args[0])
				if err != nil {
					return "", err
				}
				obj, err := s.ReadShared(i)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("shared[%d] = %s", i, &obj), nil
			},
		},
	}
}

func parseIndex(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	return uint32(v), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("double: %w", err)
	}
	return v, nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m.quit()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.actions)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.actions) == 0 {
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
		m.onQuit = nil
	}
	return m, tea.Quit
}

func (m *interactiveModel) prepareInputs() {
	a := m.actions[m.selected]
	m.inputs = make([]textinput.Model, len(a.params))
	for i, p := range a.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	a := m.actions[m.selected]
	args := make([]string, len(a.params))
	for i := range args {
		if i < len(m.inputs) {
			args[i] = m.inputs[i].Value()
		}
	}

	result, err := a.invoke(args)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: result}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("CLR Host"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select an entry point to call:\n\n")
		for i, a := range m.actions {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatAction(a)))
			} else {
				b.WriteString("  " + m.formatAction(a))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		a := m.actions[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(a.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(a.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		a := m.actions[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(a.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatAction(a action) string {
	var params []string
	for _, p := range a.params {
		params = append(params, p.name+": "+typeStyle.Render(p.typeStr))
	}
	return funcStyle.Render(a.name) + "(" + strings.Join(params, ", ") + ") " + helpStyle.Render(a.desc)
}

// runInteractive starts the runtime first so resolution errors are
// reported before the TUI takes over the terminal.
func runInteractive(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s via .NET %s", cfg.Assembly.Name, s.ctrl.Runtime().Version)
	model := newInteractiveModel(title, sessionActions(s), func() { s.close(ctx) })
	_, err = tea.NewProgram(model).Run()
	if model.onQuit != nil {
		model.onQuit()
	}
	return err
}
