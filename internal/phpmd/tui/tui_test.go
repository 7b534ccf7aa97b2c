package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/hierarchy"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

func sampleReport() *report.Report {
	r := report.New()
	r.AddRuleViolation(&report.Violation{
		Rule: "ElseExpression", RuleSet: "Clean Code Rules", Priority: 1,
		File: "/src/Cart.php", BeginLine: 12, EndLine: 14,
		Namespace: "Shop", Class: "Cart", Method: "add",
		Description: "The method add uses an else expression.",
	})
	r.AddRuleViolation(&report.Violation{
		Rule: "UnusedFormalParameter", RuleSet: "Unused Code Rules", Priority: 3,
		File: "/src/util.php", BeginLine: 3, EndLine: 3, Function: "helper",
		Description: "Avoid unused parameters such as '$b'.",
	})
	r.AddError(report.ProcessingError{File: "/src/Broken.php", Message: "syntax error"})
	return r
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func TestNewModelGroupsByRuleSet(t *testing.T) {
	m := NewModel(sampleReport(), nil, nil)

	require.Len(t, m.lists, 3)
	assert.Equal(t, "Clean Code Rules", m.lists[0].Title)
	assert.Equal(t, "Unused Code Rules", m.lists[1].Title)
	assert.Equal(t, errorsColumn, m.lists[2].Title)
	assert.Equal(t, "Cart.php:12 ElseExpression", m.lists[0].Items()[0].(item).title)
	assert.Equal(t, "2 violation(s), 1 error(s)", m.status)
}

func TestEmptyReportHasOneColumn(t *testing.T) {
	m := sized(t, NewModel(report.New(), nil, nil))
	require.Len(t, m.lists, 1)
	assert.Contains(t, m.View(), "No violations found.")
}

func TestNavigation(t *testing.T) {
	m := sized(t, NewModel(sampleReport(), nil, nil))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	assert.Equal(t, 2, m.focused)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	assert.Equal(t, 0, m.focused)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderDetails(t *testing.T) {
	g := hierarchy.NewGraph()
	g.AddType(&hierarchy.Type{ID: `Shop\Cart`, Kind: hierarchy.KindClass})
	g.AddType(&hierarchy.Type{ID: `Shop\Basket`, Kind: hierarchy.KindClass})
	g.AddEdge(`Shop\Cart`, `Shop\Model`, hierarchy.EdgeTypeExtends)
	g.AddEdge(`Shop\Basket`, `Shop\Cart`, hierarchy.EdgeTypeExtends)

	m := NewModel(sampleReport(), g, nil)
	details := m.renderDetails(m.lists[0].Items()[0].(item))
	assert.Contains(t, details, "Rule: ElseExpression (Clean Code Rules)")
	assert.Contains(t, details, "File: /src/Cart.php:12-14")
	assert.Contains(t, details, "-> Model (extends)")
	assert.Contains(t, details, "<- Basket (extends)")

	details = m.renderDetails(m.lists[2].Items()[0].(item))
	assert.Contains(t, details, "File: /src/Broken.php")
	assert.Contains(t, details, "syntax error")
}

func TestRefresh(t *testing.T) {
	calls := 0
	refresh := func() (*report.Report, error) {
		calls++
		if calls == 1 {
			return report.New(), nil
		}
		return nil, errors.New("boom")
	}
	m := sized(t, NewModel(sampleReport(), nil, refresh))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "Analyzing...", m.status)

	next, _ = m.Update(cmd())
	m = next.(Model)
	require.Len(t, m.lists, 1)
	assert.Equal(t, "0 violation(s), 0 error(s)", m.status)

	next, _ = m.Update(refreshedMsg{err: errors.New("boom")})
	m = next.(Model)
	assert.Equal(t, "Analysis failed: boom", m.status)
}
