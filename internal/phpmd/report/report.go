// Package report collects rule violations and processing errors for one run.
package report

import (
	"sort"
	"time"
)

// Violation is one rule hit on a node.
type Violation struct {
	Rule            string   `json:"rule" yaml:"rule"`
	RuleSet         string   `json:"ruleSet" yaml:"ruleSet"`
	RuleClass       string   `json:"class" yaml:"class"`
	Priority        int      `json:"priority" yaml:"priority"`
	ExternalInfoURL string   `json:"externalInfoUrl,omitempty" yaml:"externalInfoUrl,omitempty"`
	File            string   `json:"file" yaml:"file"`
	BeginLine       int      `json:"beginLine" yaml:"beginLine"`
	EndLine         int      `json:"endLine" yaml:"endLine"`
	Namespace       string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Class           string   `json:"className,omitempty" yaml:"className,omitempty"`
	Method          string   `json:"method,omitempty" yaml:"method,omitempty"`
	Function        string   `json:"function,omitempty" yaml:"function,omitempty"`
	Description     string   `json:"description" yaml:"description"`
	Args            []string `json:"args,omitempty" yaml:"args,omitempty"`
	Metric          *float64 `json:"metric,omitempty" yaml:"metric,omitempty"`
}

// ProcessingError is a per-file failure that did not abort the run.
type ProcessingError struct {
	File    string `json:"file" yaml:"file"`
	Message string `json:"message" yaml:"message"`
}

func (e ProcessingError) Error() string {
	return e.File + ": " + e.Message
}

// Validator decides whether a violation is covered by a baseline.
type Validator interface {
	IsBaselined(v *Violation) bool
}

// Report accumulates violations keyed by file and begin line.
type Report struct {
	violations map[string]map[int][]*Violation
	baselined  []*Violation
	errors     []ProcessingError
	validator  Validator

	start time.Time
	end   time.Time
	now   func() time.Time
}

// Option configures a Report.
type Option func(*Report)

// WithValidator routes violations the validator accepts to Baselined.
func WithValidator(v Validator) Option {
	return func(r *Report) { r.validator = v }
}

// WithClock replaces time.Now for start/end timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Report) { r.now = now }
}

func New(opts ...Option) *Report {
	r := &Report{
		violations: make(map[string]map[int][]*Violation),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Report) Start() { r.start = r.now() }
func (r *Report) End() { r.end = r.now() }
func (r *Report) StartTime() time.Time { return r.start }
func (r *Report) EndTime() time.Time { return r.end }

// ElapsedTime is the duration between Start and End.
func (r *Report) ElapsedTime() time.Duration {
	if r.end.IsZero() {
		return 0
	}
	return r.end.Sub(r.start)
}

func (r *Report) AddRuleViolation(v *Violation) {
	if r.validator != nil && r.validator.IsBaselined(v) {
		r.baselined = append(r.baselined, v)
		return
	}
	lines, ok := r.violations[v.File]
	if !ok {
		lines = make(map[int][]*Violation)
		r.violations[v.File] = lines
	}
	lines[v.BeginLine] = append(lines[v.BeginLine], v)
}

// RuleViolations returns the non-baselined violations ordered by file path
// then begin line; violations on the same line keep insertion order.
func (r *Report) RuleViolations() []*Violation {
	files := make([]string, 0, len(r.violations))
	for f := range r.violations {
		files = append(files, f)
	}
	sort.Strings(files)

	var out []*Violation
	for _, f := range files {
		lines := r.violations[f]
		nums := make([]int, 0, len(lines))
		for l := range lines {
			nums = append(nums, l)
		}
		sort.Ints(nums)
		for _, l := range nums {
			out = append(out, lines[l]...)
		}
	}
	return out
}

// Baselined returns violations suppressed by the validator, in arrival order.
func (r *Report) Baselined() []*Violation {
	return r.baselined
}

func (r *Report) AddError(err ProcessingError) {
	r.errors = append(r.errors, err)
}

func (r *Report) Errors() []ProcessingError {
	return r.errors
}

func (r *Report) IsEmpty() bool { return len(r.violations) == 0 }
func (r *Report) HasErrors() bool { return len(r.errors) > 0 }

// Count returns the number of non-baselined violations.
func (r *Report) Count() int {
	n := 0
	for _, lines := range r.violations {
		for _, vs := range lines {
			n += len(vs)
		}
	}
	return n
}
