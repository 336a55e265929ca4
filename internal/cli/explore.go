package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/errors"
)

// List styles.
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command: an interactive browser over
// the analysis catalogue for one model.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "explore <model.uvl>",
		Short: "Interactively browse analyses of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readModel(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}

			model := newExploreModel(c.newRunner(noCache), text)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	return cmd
}

// parameterized marks operations that need extra input and are therefore
// run with defaults or skipped in the explorer.
var parameterized = map[catalog.Operation]string{
	catalog.OpFeatureAncestors:         "needs --feature; use uvlkit analyze",
	catalog.OpCommonality:              "needs --feature; use uvlkit analyze",
	catalog.OpFilter:                   "needs --criteria; use uvlkit analyze",
	catalog.OpSatisfiableConfiguration: "needs --selection; use uvlkit analyze",
}

// resultMsg carries one finished analysis back into the update loop.
type resultMsg struct {
	op     catalog.Operation
	output string
	failed bool
}

// exploreModel is the bubbletea model for the catalogue browser.
type exploreModel struct {
	runner *catalog.Runner
	text   string
	ops    []catalog.Operation

	cursor  int
	running bool
	result  string
	failed  bool
	lastOp  catalog.Operation
}

func newExploreModel(runner *catalog.Runner, text string) exploreModel {
	return exploreModel{
		runner: runner,
		text:   text,
		ops:    catalog.Operations(),
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.ops)-1 {
				m.cursor++
			}
		case "enter":
			if m.running {
				return m, nil
			}
			op := m.ops[m.cursor]
			if hint, ok := parameterized[op]; ok {
				m.result = hint
				m.failed = false
				m.lastOp = op
				return m, nil
			}
			m.running = true
			m.lastOp = op
			return m, m.runOp(op)
		}
	case resultMsg:
		m.running = false
		m.result = msg.output
		m.failed = msg.failed
		m.lastOp = msg.op
	}
	return m, nil
}

// runOp executes one operation off the update loop.
func (m exploreModel) runOp(op catalog.Operation) tea.Cmd {
	runner, text := m.runner, m.text
	return func() tea.Msg {
		req := catalog.Request{Operation: op, ModelText: text}
		if op == catalog.OpSampling {
			req.Count = 5
		}
		result, err := runner.Run(context.Background(), req)
		if err != nil {
			return resultMsg{op: op, output: errors.UserMessage(err), failed: true}
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return resultMsg{op: op, output: err.Error(), failed: true}
		}
		return resultMsg{op: op, output: string(data)}
	}
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("uvlkit explore"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ run  q quit"))
	b.WriteString("\n\n")

	for i, op := range m.ops {
		line := string(op)
		if _, ok := parameterized[op]; ok {
			line += listDimStyle.Render(" *")
		}
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.running:
		b.WriteString(StyleDim.Render(fmt.Sprintf("running %s…", m.lastOp)))
	case m.result != "" && m.failed:
		b.WriteString(styleIconError.Render(iconError) + " " + m.result)
	case m.result != "":
		b.WriteString(StyleHighlight.Render(string(m.lastOp)) + "\n")
		b.WriteString(StyleValue.Render(m.result))
	}
	b.WriteString("\n")

	return b.String()
}
