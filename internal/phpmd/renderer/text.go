package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// Text writes one tab separated line per violation and per error.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Start() error { return nil }

func (t *Text) RenderReport(r *report.Report) error {
	for _, v := range r.RuleViolations() {
		if _, err := fmt.Fprintf(t.w, "%s:%d\t%s\t%s\n", v.File, v.BeginLine, v.Rule, v.Description); err != nil {
			return err
		}
	}
	for _, e := range r.Errors() {
		if _, err := fmt.Fprintf(t.w, "%s\t-\t%s\n", e.File, e.Message); err != nil {
			return err
		}
	}
	return nil
}

func (t *Text) End() error { return nil }

// ANSI groups violations per file with colored headers and a summary line.
type ANSI struct {
	w io.Writer

	header *color.Color
	line   *color.Color
	rule   *color.Color
	failed *color.Color
	ok     *color.Color
}

func NewANSI(w io.Writer) *ANSI {
	a := &ANSI{
		w:      w,
		header: color.New(color.Bold),
		line:   color.New(color.FgHiBlack),
		rule:   color.New(color.FgYellow),
		failed: color.New(color.FgRed),
		ok:     color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{a.header, a.line, a.rule, a.failed, a.ok} {
		c.EnableColor()
	}
	return a
}

// Plain strips color output, used when the sink is not a terminal.
func (a *ANSI) Plain() *ANSI {
	for _, c := range []*color.Color{a.header, a.line, a.rule, a.failed, a.ok} {
		c.DisableColor()
	}
	return a
}

func (a *ANSI) Start() error { return nil }

func (a *ANSI) RenderReport(r *report.Report) error {
	var sb strings.Builder

	for _, g := range groupByFile(r.RuleViolations()) {
		sb.WriteString(a.header.Sprintf("FILE: %s", g.File) + "\n")
		sb.WriteString(strings.Repeat("-", 6+len(g.File)) + "\n")
		for _, v := range g.Violations {
			fmt.Fprintf(&sb, " %s | %s | %s\n",
				a.line.Sprintf("%5d", v.BeginLine),
				a.rule.Sprintf("%-8s", "VIOLATION"),
				v.Description)
		}
		sb.WriteString("\n")
	}

	if errs := r.Errors(); len(errs) > 0 {
		sb.WriteString(a.failed.Sprint("ERRORS") + "\n")
		for _, e := range errs {
			fmt.Fprintf(&sb, " %s | %s\n", e.File, e.Message)
		}
		sb.WriteString("\n")
	}

	summary := fmt.Sprintf("Found %d violation(s) and %d error(s) in %s",
		len(r.RuleViolations()), len(r.Errors()), r.ElapsedTime())
	if n := len(r.Baselined()); n > 0 {
		summary += fmt.Sprintf(" (%d baselined)", n)
	}
	if r.IsEmpty() && !r.HasErrors() {
		sb.WriteString(a.ok.Sprint(summary) + "\n")
	} else {
		sb.WriteString(a.failed.Sprint(summary) + "\n")
	}

	_, err := io.WriteString(a.w, sb.String())
	return err
}

func (a *ANSI) End() error { return nil }

// GitHub emits workflow commands that annotate pull request diffs.
type GitHub struct {
	w io.Writer
}

func NewGitHub(w io.Writer) *GitHub {
	return &GitHub{w: w}
}

func (g *GitHub) Start() error { return nil }

func (g *GitHub) RenderReport(r *report.Report) error {
	for _, v := range r.RuleViolations() {
		if _, err := fmt.Fprintf(g.w, "::warning file=%s,line=%d::%s\n", v.File, v.BeginLine, escapeWorkflow(v.Description)); err != nil {
			return err
		}
	}
	for _, e := range r.Errors() {
		if _, err := fmt.Fprintf(g.w, "::error file=%s::%s\n", e.File, escapeWorkflow(e.Message)); err != nil {
			return err
		}
	}
	return nil
}

func (g *GitHub) End() error { return nil }

var workflowEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

func escapeWorkflow(s string) string {
	return workflowEscaper.Replace(s)
}
