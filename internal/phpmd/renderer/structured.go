package renderer

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// document is the format independent shape shared by json and yaml output.
type document struct {
	Version   string      `json:"version" yaml:"version"`
	Package   string      `json:"package" yaml:"package"`
	Timestamp string      `json:"timestamp" yaml:"timestamp"`
	Files     []fileEntry `json:"files" yaml:"files"`
	Errors    []errEntry  `json:"errors,omitempty" yaml:"errors,omitempty"`
	Baselined int         `json:"baselined,omitempty" yaml:"baselined,omitempty"`
}

type fileEntry struct {
	File       string              `json:"file" yaml:"file"`
	Violations []*report.Violation `json:"violations" yaml:"violations"`
}

type errEntry struct {
	FileName string `json:"fileName" yaml:"fileName"`
	Message  string `json:"message" yaml:"message"`
}

func newDocument(r *report.Report) document {
	doc := document{
		Version:   Version,
		Package:   "phpmd",
		Timestamp: timestamp(r),
		Files:     []fileEntry{},
		Baselined: len(r.Baselined()),
	}
	for _, g := range groupByFile(r.RuleViolations()) {
		doc.Files = append(doc.Files, fileEntry{File: g.File, Violations: g.Violations})
	}
	for _, e := range r.Errors() {
		doc.Errors = append(doc.Errors, errEntry{FileName: e.File, Message: e.Message})
	}
	return doc
}

func timestamp(r *report.Report) string {
	t := r.EndTime()
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(time.RFC3339)
}

// JSON writes the report as one indented JSON object.
type JSON struct {
	w io.Writer
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) Start() error { return nil }

func (j *JSON) RenderReport(r *report.Report) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(r))
}

func (j *JSON) End() error { return nil }

// YAML writes the same document as JSON in YAML syntax.
type YAML struct {
	w io.Writer
}

func NewYAML(w io.Writer) *YAML {
	return &YAML{w: w}
}

func (y *YAML) Start() error { return nil }

func (y *YAML) RenderReport(r *report.Report) error {
	enc := yaml.NewEncoder(y.w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return err
	}
	return enc.Close()
}

func (y *YAML) End() error { return nil }

// XML writes the PMD report layout.
type XML struct {
	w io.Writer
}

func NewXML(w io.Writer) *XML {
	return &XML{w: w}
}

type pmdReport struct {
	XMLName   xml.Name   `xml:"pmd"`
	Version   string     `xml:"version,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Files     []pmdFile  `xml:"file"`
	Errors    []pmdError `xml:"error"`
}

type pmdFile struct {
	Name       string         `xml:"name,attr"`
	Violations []pmdViolation `xml:"violation"`
}

type pmdViolation struct {
	BeginLine       int    `xml:"beginline,attr"`
	EndLine         int    `xml:"endline,attr"`
	Rule            string `xml:"rule,attr"`
	RuleSet         string `xml:"ruleset,attr"`
	Package         string `xml:"package,attr,omitempty"`
	ExternalInfoURL string `xml:"externalInfoUrl,attr,omitempty"`
	Function        string `xml:"function,attr,omitempty"`
	Class           string `xml:"class,attr,omitempty"`
	Method          string `xml:"method,attr,omitempty"`
	Priority        int    `xml:"priority,attr"`
	Description     string `xml:",chardata"`
}

type pmdError struct {
	FileName string `xml:"filename,attr"`
	Message  string `xml:"msg,attr"`
}

func (x *XML) Start() error {
	_, err := io.WriteString(x.w, xml.Header)
	return err
}

func (x *XML) RenderReport(r *report.Report) error {
	doc := pmdReport{Version: Version, Timestamp: timestamp(r)}
	for _, g := range groupByFile(r.RuleViolations()) {
		f := pmdFile{Name: g.File}
		for _, v := range g.Violations {
			f.Violations = append(f.Violations, pmdViolation{
				BeginLine:       v.BeginLine,
				EndLine:         v.EndLine,
				Rule:            v.Rule,
				RuleSet:         v.RuleSet,
				Package:         v.Namespace,
				ExternalInfoURL: v.ExternalInfoURL,
				Function:        v.Function,
				Class:           v.Class,
				Method:          v.Method,
				Priority:        v.Priority,
				Description:     "\n      " + v.Description + "\n    ",
			})
		}
		doc.Files = append(doc.Files, f)
	}
	for _, e := range r.Errors() {
		doc.Errors = append(doc.Errors, pmdError{FileName: e.File, Message: e.Message})
	}

	enc := xml.NewEncoder(x.w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}

func (x *XML) End() error {
	_, err := io.WriteString(x.w, "\n")
	return err
}

// Summary is a short human readable count used by watch and MCP output.
func Summary(r *report.Report) string {
	s := strconv.Itoa(len(r.RuleViolations())) + " violation(s), " +
		strconv.Itoa(len(r.Errors())) + " error(s)"
	if n := len(r.Baselined()); n > 0 {
		s += ", " + strconv.Itoa(n) + " baselined"
	}
	return s
}
