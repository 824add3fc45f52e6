package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command, an interactive browser over an
// exported dependency graph.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Browse a dependency graph interactively",
		Long: `Browse a dependency graph interactively.

Opens a terminal browser over an exported graph: navigate components, see
their files, and inspect incoming and outgoing dependencies. Components on
a cycle are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}
			model := NewComponentListModel(g)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// =============================================================================
// ComponentListModel - Interactive component browser
// =============================================================================

// ComponentListModel is the bubbletea model for browsing graph components.
type ComponentListModel struct {
	Graph    *graph.Graph
	IDs      []string
	OnCycle  map[string]bool
	Cursor   int
	Height   int
	Offset   int
	ShowDeps bool
}

// NewComponentListModel creates a component browser over g.
func NewComponentListModel(g *graph.Graph) ComponentListModel {
	ids := make([]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	onCycle := make(map[string]bool)
	for _, e := range g.Edges() {
		if e.Cyclic {
			onCycle[e.From] = true
			onCycle[e.To] = true
		}
	}

	return ComponentListModel{
		Graph:   g,
		IDs:     ids,
		OnCycle: onCycle,
		Height:  15,
	}
}

func (m ComponentListModel) Init() tea.Cmd {
	return nil
}

func (m ComponentListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.IDs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.ShowDeps = !m.ShowDeps
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ComponentListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Components"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle dependencies  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.IDs) {
		end = len(m.IDs)
	}

	for i := m.Offset; i < end; i++ {
		id := m.IDs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		marker := " "
		if m.OnCycle[id] {
			marker = StyleWarning.Render("●")
		}

		deps := fmt.Sprintf("%d out · %d in",
			len(m.Graph.Children(id)), len(m.Graph.Parents(id)))
		line := fmt.Sprintf("%s%s %-30s %s", cursor, marker, id, listDimStyle.Render(deps))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.ShowDeps && m.Cursor < len(m.IDs) {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(m.IDs[m.Cursor]))
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.IDs))))
	if len(m.OnCycle) > 0 {
		b.WriteString(listDimStyle.Render("  ") + StyleWarning.Render("●") +
			listDimStyle.Render(" on a cycle"))
	}

	return b.String()
}

// renderDetail shows the selected component's files and direct dependencies.
func (m ComponentListModel) renderDetail(id string) string {
	var b strings.Builder

	if node, ok := m.Graph.Node(id); ok && len(node.Files) > 0 {
		b.WriteString(listDimStyle.Render("  files: " + strings.Join(node.Files, ", ")))
		b.WriteString("\n")
	}
	if children := m.Graph.Children(id); len(children) > 0 {
		b.WriteString(listDimStyle.Render("  depends on: "))
		b.WriteString(StyleValue.Render(strings.Join(children, ", ")))
		b.WriteString("\n")
	}
	if parents := m.Graph.Parents(id); len(parents) > 0 {
		b.WriteString(listDimStyle.Render("  depended on by: "))
		b.WriteString(StyleValue.Render(strings.Join(parents, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}
