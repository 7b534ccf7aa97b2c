// Package ruleset groups rules into named sets, routes nodes to the rules able
// to handle them and resolves rule-set documents into RuleSets.
package ruleset

import (
	"fmt"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// RuleSet is an ordered collection of rules indexed by capability.
type RuleSet struct {
	fileName    string
	name        string
	description string
	strict      bool
	report      *report.Report
	buckets     map[rule.Capability][]rule.Rule
}

func New() *RuleSet {
	return &RuleSet{buckets: make(map[rule.Capability][]rule.Rule)}
}

func (rs *RuleSet) FileName() string { return rs.fileName }
func (rs *RuleSet) SetFileName(name string) { rs.fileName = name }
func (rs *RuleSet) Name() string { return rs.name }
func (rs *RuleSet) SetName(name string) { rs.name = name }
func (rs *RuleSet) Description() string { return rs.description }
func (rs *RuleSet) SetDescription(desc string) { rs.description = desc }
func (rs *RuleSet) Strict() bool { return rs.strict }
func (rs *RuleSet) SetStrict(strict bool) { rs.strict = strict }
func (rs *RuleSet) Report() *report.Report { return rs.report }
func (rs *RuleSet) SetReport(r *report.Report) { rs.report = r }

// AddRule appends r to the bucket of every capability it accepts.
func (rs *RuleSet) AddRule(r rule.Rule) {
	accepts := r.Accepts()
	for _, c := range rule.Order {
		if accepts.Has(c) {
			rs.buckets[c] = append(rs.buckets[c], r)
		}
	}
}

// Rules returns every distinct rule once, walking buckets in rule.Order.
func (rs *RuleSet) Rules() []rule.Rule {
	seen := make(map[rule.Rule]bool)
	var out []rule.Rule
	for _, c := range rule.Order {
		for _, r := range rs.buckets[c] {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// RuleByName returns the first rule named name.
func (rs *RuleSet) RuleByName(name string) (rule.Rule, error) {
	for _, r := range rs.Rules() {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrRuleNotFound, name, rs.name)
}

// Apply runs every rule registered for the variant of n. Suppressed rules are
// skipped unless the set is strict.
func (rs *RuleSet) Apply(n *node.Node) {
	for _, r := range rs.buckets[rule.ForVariant(n.Variant())] {
		if !rs.strict && n.HasSuppressWarningsAnnotationFor(r) {
			continue
		}
		r.Meta().SetReport(rs.report)
		if s, ok := r.(rule.StrictAware); ok {
			s.SetStrict(rs.strict)
		}
		r.Apply(n)
	}
}
