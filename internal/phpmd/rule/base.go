package rule

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
)

// Base holds the metadata shared by all rules. Concrete rules embed it.
type Base struct {
	name            string
	message         string
	priority        int
	since           string
	externalInfoURL string
	description     string
	examples        []string
	ruleSetName     string
	className       string
	properties      map[string]string

	report *report.Report
	strict bool
}

func (b *Base) Meta() *Base { return b }

func (b *Base) Name() string { return b.name }
func (b *Base) SetName(name string) { b.name = name }
func (b *Base) Message() string { return b.message }
func (b *Base) SetMessage(msg string) { b.message = msg }
func (b *Base) Since() string { return b.since }
func (b *Base) SetSince(since string) { b.since = since }
func (b *Base) ExternalInfoURL() string { return b.externalInfoURL }
func (b *Base) SetExternalInfoURL(url string) { b.externalInfoURL = url }
func (b *Base) Description() string { return b.description }
func (b *Base) SetDescription(desc string) { b.description = desc }
func (b *Base) Examples() []string { return b.examples }
func (b *Base) AddExample(example string) { b.examples = append(b.examples, example) }
func (b *Base) RuleSetName() string { return b.ruleSetName }
func (b *Base) SetRuleSetName(name string) { b.ruleSetName = name }
func (b *Base) ClassName() string { return b.className }
func (b *Base) SetClassName(class string) { b.className = class }
func (b *Base) Report() *report.Report { return b.report }
func (b *Base) SetReport(r *report.Report) { b.report = r }
func (b *Base) Strict() bool { return b.strict }
func (b *Base) SetStrict(strict bool) { b.strict = strict }

// Priority defaults to LowestPriority until set.
func (b *Base) Priority() int {
	if b.priority == 0 {
		return LowestPriority
	}
	return b.priority
}

func (b *Base) SetPriority(p int) { b.priority = p }

func (b *Base) AddProperty(name, value string) {
	if b.properties == nil {
		b.properties = make(map[string]string)
	}
	b.properties[name] = value
}

// Properties returns a copy of the configured properties.
func (b *Base) Properties() map[string]string {
	return maps.Clone(b.properties)
}

func (b *Base) StringProperty(name string) (string, error) {
	v, ok := b.properties[name]
	if !ok {
		return "", fmt.Errorf("%w: %s on rule %s", ErrPropertyNotFound, name, b.name)
	}
	return v, nil
}

func (b *Base) StringPropertyDefault(name, def string) string {
	if v, err := b.StringProperty(name); err == nil {
		return v
	}
	return def
}

func (b *Base) IntProperty(name string) (int, error) {
	v, err := b.StringProperty(name)
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("property %s on rule %s: %w", name, b.name, err)
	}
	return i, nil
}

func (b *Base) IntPropertyDefault(name string, def int) int {
	if v, err := b.IntProperty(name); err == nil {
		return v
	}
	return def
}

// BoolProperty accepts true, on and 1 as true; anything else is false.
func (b *Base) BoolProperty(name string) (bool, error) {
	v, err := b.StringProperty(name)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1":
		return true, nil
	}
	return false, nil
}

func (b *Base) BoolPropertyDefault(name string, def bool) bool {
	if v, err := b.BoolProperty(name); err == nil {
		return v
	}
	return def
}

// StringListProperty splits a comma separated property, dropping blanks.
func (b *Base) StringListProperty(name string) ([]string, error) {
	v, err := b.StringProperty(name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func (b *Base) StringListPropertyDefault(name string, def []string) []string {
	if v, err := b.StringListProperty(name); err == nil {
		return v
	}
	return def
}

// AddViolation records a violation for n, substituting {i} in the message
// template with args[i]. Without an attached report it does nothing.
func (b *Base) AddViolation(n *node.Node, args ...any) {
	b.addViolation(n, nil, args)
}

// AddMetricViolation is AddViolation carrying the offending metric value.
func (b *Base) AddMetricViolation(n *node.Node, metric float64, args ...any) {
	b.addViolation(n, &metric, args)
}

func (b *Base) addViolation(n *node.Node, metric *float64, args []any) {
	if b.report == nil {
		return
	}
	strs := make([]string, len(args))
	msg := b.message
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
		msg = strings.ReplaceAll(msg, "{"+strconv.Itoa(i)+"}", strs[i])
	}
	v := &report.Violation{
		Rule:            b.name,
		RuleSet:         b.ruleSetName,
		RuleClass:       b.className,
		Priority:        b.Priority(),
		ExternalInfoURL: b.externalInfoURL,
		File:            n.FileName(),
		BeginLine:       n.BeginLine(),
		EndLine:         n.EndLine(),
		Description:     msg,
		Args:            strs,
		Metric:          metric,
	}
	fillContext(v, n)
	b.report.AddRuleViolation(v)
}

func fillContext(v *report.Violation, n *node.Node) {
	owner := n
	for owner != nil && owner.Variant() == node.VariantNone {
		owner = owner.Parent()
	}
	if owner == nil {
		return
	}
	v.Namespace = owner.NamespaceName()
	switch variant := owner.Variant(); {
	case variant.IsType():
		v.Class = owner.Name()
	case variant == node.VariantMethod:
		v.Method = owner.Name()
		v.Class = owner.ParentName()
	case variant == node.VariantFunction:
		v.Function = owner.Name()
	}
}
