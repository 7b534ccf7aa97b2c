// Package renderer writes a finalized report in one of the supported output
// formats.
package renderer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// Version is stamped into formats that carry a producer version.
var Version = "dev"

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer receives the report lifecycle hooks in order:
// Start, RenderReport, End.
type Renderer interface {
	Start() error
	RenderReport(r *report.Report) error
	End() error
}

type constructor func(w io.Writer) Renderer

var formats = map[string]constructor{
	"text":   func(w io.Writer) Renderer { return NewText(w) },
	"ansi":   func(w io.Writer) Renderer { return NewANSI(w) },
	"json":   func(w io.Writer) Renderer { return NewJSON(w) },
	"xml":    func(w io.Writer) Renderer { return NewXML(w) },
	"yaml":   func(w io.Writer) Renderer { return NewYAML(w) },
	"github": func(w io.Writer) Renderer { return NewGitHub(w) },
}

// New returns the renderer registered for format, writing to w.
func New(format string, w io.Writer) (Renderer, error) {
	c, ok := formats[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return c(w), nil
}

// Formats lists the supported format names.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for name := range formats {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render runs the full lifecycle of every renderer against r.
func Render(r *report.Report, renderers ...Renderer) error {
	for _, rd := range renderers {
		if err := rd.Start(); err != nil {
			return err
		}
		if err := rd.RenderReport(r); err != nil {
			return err
		}
		if err := rd.End(); err != nil {
			return err
		}
	}
	return nil
}

// fileGroup is a run of violations sharing one file, in report order.
type fileGroup struct {
	File       string
	Violations []*report.Violation
}

func groupByFile(vs []*report.Violation) []fileGroup {
	var groups []fileGroup
	for _, v := range vs {
		if n := len(groups); n > 0 && groups[n-1].File == v.File {
			groups[n-1].Violations = append(groups[n-1].Violations, v)
			continue
		}
		groups = append(groups, fileGroup{File: v.File, Violations: []*report.Violation{v}})
	}
	return groups
}
