// Package tui is an interactive browser for an analysis report: one column
// per rule set and a detail pane for the selected violation.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/hierarchy"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

const errorsColumn = "Processing Errors"

var (
	focusedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	normalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	violationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type item struct {
	title, desc string
	violation   *report.Violation
	err         *report.ProcessingError
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + " " + i.desc }

// RefreshFunc re-runs the analysis.
type RefreshFunc func() (*report.Report, error)

type refreshedMsg struct {
	report *report.Report
	err    error
}

type Model struct {
	report  *report.Report
	graph   *hierarchy.Graph
	refresh RefreshFunc

	lists    []list.Model
	focused  int
	viewport viewport.Model
	status   string

	ready  bool
	width  int
	height int
}

// NewModel builds the browser for r. The graph is used for the hierarchy
// of the selected class and may be nil, as may refresh.
func NewModel(r *report.Report, g *hierarchy.Graph, refresh RefreshFunc) Model {
	m := Model{
		graph:   g,
		refresh: refresh,
	}
	m.load(r)
	return m
}

func (m *Model) load(r *report.Report) {
	m.report = r
	grouped := make(map[string][]list.Item)
	for _, v := range r.RuleViolations() {
		grouped[v.RuleSet] = append(grouped[v.RuleSet], item{
			title:     fmt.Sprintf("%s:%d %s", filepath.Base(v.File), v.BeginLine, v.Rule),
			desc:      v.Description,
			violation: v,
		})
	}

	columns := make([]string, 0, len(grouped)+1)
	for name := range grouped {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	for _, e := range r.Errors() {
		grouped[errorsColumn] = append(grouped[errorsColumn], item{
			title: filepath.Base(e.File),
			desc:  e.Message,
			err:   &e,
		})
	}
	if len(grouped[errorsColumn]) > 0 || len(columns) == 0 {
		columns = append(columns, errorsColumn)
	}

	width, height := 0, 0
	if len(m.lists) > 0 {
		width, height = m.lists[0].Width(), m.lists[0].Height()
	}
	m.lists = make([]list.Model, len(columns))
	for i, name := range columns {
		m.lists[i] = list.New(grouped[name], list.NewDefaultDelegate(), width, height)
		m.lists[i].Title = name
		m.lists[i].SetShowHelp(false)
	}
	if m.focused >= len(m.lists) {
		m.focused = 0
	}
	m.status = renderer.Summary(r)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.focused--
			if m.focused < 0 {
				m.focused = len(m.lists) - 1
			}
		case "right", "l":
			m.focused++
			if m.focused >= len(m.lists) {
				m.focused = 0
			}
		case "r":
			if m.refresh != nil {
				m.status = "Analyzing..."
				refresh := m.refresh
				return m, func() tea.Msg {
					r, err := refresh()
					return refreshedMsg{report: r, err: err}
				}
			}
		}
	case refreshedMsg:
		if msg.err != nil {
			m.status = "Analysis failed: " + msg.err.Error()
		} else {
			m.load(msg.report)
			m.resize()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height/3)
			m.viewport.YPosition = msg.Height - msg.Height/3
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height / 3
		}
		m.resize()
	}

	// Update focused list
	m.lists[m.focused], cmd = m.lists[m.focused].Update(msg)
	cmds = append(cmds, cmd)

	// Update viewport content based on selection
	if selected := m.lists[m.focused].SelectedItem(); selected != nil {
		m.viewport.SetContent(m.renderDetails(selected.(item)))
	} else {
		m.viewport.SetContent("No violations found.")
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	colWidth := m.width / max(len(m.lists), 1)
	listHeight := m.height - m.viewport.Height - 6 // borders and status line
	for i := range m.lists {
		m.lists[i].SetSize(colWidth-2, listHeight)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	// Render columns
	cols := make([]string, len(m.lists))
	for i, l := range m.lists {
		style := normalStyle
		if i == m.focused {
			style = focusedStyle
		}
		cols[i] = style.Render(l.View())
	}

	// Join columns
	board := lipgloss.JoinHorizontal(lipgloss.Left, cols...)

	// Render details
	details := detailStyle.Width(m.width - 4).Render(m.viewport.View())

	status := statusStyle.Render(m.status + "  (←/→ switch rule set, r re-run, q quit)")
	return lipgloss.JoinVertical(lipgloss.Left, board, details, status)
}

func (m Model) renderDetails(it item) string {
	var sb strings.Builder

	if it.err != nil {
		sb.WriteString(fmt.Sprintf("File: %s\n\n", it.err.File))
		sb.WriteString(violationStyle.Render(it.err.Message) + "\n")
		return sb.String()
	}

	v := it.violation
	sb.WriteString(fmt.Sprintf("Rule: %s (%s)\n", v.Rule, v.RuleSet))
	sb.WriteString(fmt.Sprintf("Priority: %d\n", v.Priority))
	sb.WriteString(fmt.Sprintf("File: %s:%d-%d\n", v.File, v.BeginLine, v.EndLine))
	if v.Namespace != "" {
		sb.WriteString(fmt.Sprintf("Namespace: %s\n", v.Namespace))
	}
	if v.Class != "" {
		sb.WriteString(fmt.Sprintf("Class: %s\n", v.Class))
	}
	if v.Method != "" {
		sb.WriteString(fmt.Sprintf("Method: %s\n", v.Method))
	}
	if v.Function != "" {
		sb.WriteString(fmt.Sprintf("Function: %s\n", v.Function))
	}
	sb.WriteString("\n" + violationStyle.Render(v.Description) + "\n")
	if v.ExternalInfoURL != "" {
		sb.WriteString(fmt.Sprintf("\nMore: %s\n", v.ExternalInfoURL))
	}

	if m.graph == nil || v.Class == "" {
		return sb.String()
	}
	id := v.Class
	if v.Namespace != "" {
		id = v.Namespace + `\` + v.Class
	}
	if _, ok := m.graph.GetType(id); !ok {
		return sb.String()
	}

	sb.WriteString("\nSupertypes:\n")
	for _, e := range m.graph.EdgesFrom(id) {
		sb.WriteString(fmt.Sprintf("-> %s (%s)\n", shortID(e.TargetID), e.Type))
	}

	sb.WriteString("\nSubtypes:\n")
	for _, e := range m.graph.EdgesTo(id) {
		sb.WriteString(fmt.Sprintf("<- %s (%s)\n", shortID(e.SourceID), e.Type))
	}

	return sb.String()
}

func shortID(id string) string {
	parts := strings.Split(id, `\`)
	return parts[len(parts)-1]
}
