// Package baseline records known violations so later runs report only new
// ones. Entries are keyed by rule class, file path relative to the analyzed
// root and method name.
package baseline

import (
	"path/filepath"
	"sort"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// Mode selects how a Validator treats violations found in the baseline.
type Mode int

const (
	// ModeNone hides violations that are in the baseline.
	ModeNone Mode = iota
	// ModeUpdate hides violations that are not in the baseline, so the
	// remaining report is the baseline minus resolved entries.
	ModeUpdate
)

// Entry identifies one baselined violation.
type Entry struct {
	RuleClass string
	File      string
	Method    string
}

// Set is an unordered collection of entries.
type Set struct {
	entries map[Entry]bool
}

func NewSet() *Set {
	return &Set{entries: make(map[Entry]bool)}
}

func (s *Set) Add(e Entry) { s.entries[e] = true }

func (s *Set) Contains(e Entry) bool { return s.entries[e] }

func (s *Set) Len() int { return len(s.entries) }

// Entries returns the entries sorted by file, rule class and method.
func (s *Set) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.RuleClass != b.RuleClass {
			return a.RuleClass < b.RuleClass
		}
		return a.Method < b.Method
	})
	return out
}

// EntryFor builds the baseline key of v relative to baseDir.
func EntryFor(v *report.Violation, baseDir string) Entry {
	method := v.Method
	if method == "" {
		method = v.Function
	}
	return Entry{
		RuleClass: v.RuleClass,
		File:      relative(v.File, baseDir),
		Method:    method,
	}
}

func relative(file, baseDir string) string {
	if baseDir == "" {
		return filepath.ToSlash(file)
	}
	if rel, err := filepath.Rel(baseDir, file); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(file)
}

// FromReport collects the reported violations into a new Set.
func FromReport(r *report.Report, baseDir string) *Set {
	s := NewSet()
	for _, v := range r.RuleViolations() {
		s.Add(EntryFor(v, baseDir))
	}
	return s
}

// Validator implements report.Validator on top of a Set.
type Validator struct {
	set     *Set
	mode    Mode
	baseDir string
}

func NewValidator(set *Set, mode Mode, baseDir string) *Validator {
	return &Validator{set: set, mode: mode, baseDir: baseDir}
}

func (v *Validator) IsBaselined(violation *report.Violation) bool {
	found := v.set.Contains(EntryFor(violation, v.baseDir))
	if v.mode == ModeUpdate {
		return !found
	}
	return found
}
