package analysis

import (
	"fmt"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/ruleset"
)

// RuleSetInfo summarizes one available rule set.
type RuleSetInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rules       []string `json:"rules"`
}

// RuleInfo describes one configured rule.
type RuleInfo struct {
	Name            string            `json:"name"`
	RuleSet         string            `json:"ruleSet"`
	Class           string            `json:"class"`
	Priority        int               `json:"priority"`
	Since           string            `json:"since,omitempty"`
	Message         string            `json:"message"`
	Description     string            `json:"description"`
	ExternalInfoURL string            `json:"externalInfoUrl,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
	Examples        []string          `json:"examples,omitempty"`
}

// catalogFactory ignores the configured priority window so every rule is
// listed.
func (a *Analyzer) catalogFactory() *ruleset.Factory {
	var opts []ruleset.Option
	if a.Config.DataDir != "" {
		opts = append(opts, ruleset.WithDataDir(a.Config.DataDir))
	}
	return ruleset.NewFactory(a.Registry, opts...)
}

// Catalog lists the available rule sets and their rules.
func (a *Analyzer) Catalog() ([]RuleSetInfo, error) {
	f := a.catalogFactory()
	ids, err := f.ListAvailableRuleSets()
	if err != nil {
		return nil, err
	}

	out := make([]RuleSetInfo, 0, len(ids))
	for _, id := range ids {
		rs, err := f.CreateSingleRuleSet(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule set %s: %w", id, err)
		}
		info := RuleSetInfo{ID: id, Name: rs.Name(), Description: rs.Description()}
		for _, r := range rs.Rules() {
			info.Rules = append(info.Rules, r.Name())
		}
		out = append(out, info)
	}
	return out, nil
}

// DescribeRule finds a rule by name (case-insensitive) across the available
// rule sets.
func (a *Analyzer) DescribeRule(name string) (*RuleInfo, error) {
	f := a.catalogFactory()
	ids, err := f.ListAvailableRuleSets()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		rs, err := f.CreateSingleRuleSet(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule set %s: %w", id, err)
		}
		for _, r := range rs.Rules() {
			if strings.EqualFold(r.Name(), name) {
				return describe(r), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ruleset.ErrRuleNotFound, name)
}

func describe(r rule.Rule) *RuleInfo {
	m := r.Meta()
	return &RuleInfo{
		Name:            m.Name(),
		RuleSet:         m.RuleSetName(),
		Class:           m.ClassName(),
		Priority:        m.Priority(),
		Since:           m.Since(),
		Message:         m.Message(),
		Description:     m.Description(),
		ExternalInfoURL: m.ExternalInfoURL(),
		Properties:      m.Properties(),
		Examples:        m.Examples(),
	}
}
