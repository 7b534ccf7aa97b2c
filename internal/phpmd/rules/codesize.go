package rules

import (
	"github.com/phpmd/phpmd-sub001/internal/phpmd/metrics"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

// CyclomaticComplexity reports callables whose ccn2 reaches reportLevel.
type CyclomaticComplexity struct {
	rule.Base
}

func (r *CyclomaticComplexity) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *CyclomaticComplexity) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("reportLevel", 10)
	ccn := metric(n, metrics.CCN2)
	if ccn < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, ccn, n.Variant(), n.Name(), ccn, threshold)
}

// lines picks eloc over loc when whitespace and comments should not count.
func lines(b *rule.Base, n *node.Node) float64 {
	if b.BoolPropertyDefault("ignore-whitespace", false) {
		return metric(n, metrics.ELOC)
	}
	return metric(n, metrics.LOC)
}

// LongMethod reports callables with at least minimum lines.
type LongMethod struct {
	rule.Base
}

func (r *LongMethod) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *LongMethod) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 100)
	loc := lines(&r.Base, n)
	if loc < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, loc, n.Variant(), n.Name(), loc, threshold)
}

// LongClass reports classes with at least minimum lines.
type LongClass struct {
	rule.Base
}

func (r *LongClass) Accepts() rule.Capability { return rule.ClassAware }

func (r *LongClass) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 1000)
	loc := lines(&r.Base, n)
	if loc < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, loc, n.Name(), loc, threshold)
}

// LongParameterList reports callables with at least minimum parameters.
type LongParameterList struct {
	rule.Base
}

func (r *LongParameterList) Accepts() rule.Capability {
	return rule.MethodAware | rule.FunctionAware
}

func (r *LongParameterList) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 10)
	nop := metric(n, metrics.NOP)
	if nop < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, nop, n.Variant(), n.Name(), nop, threshold)
}

// ExcessivePublicCount reports classes whose public surface reaches minimum.
type ExcessivePublicCount struct {
	rule.Base
}

func (r *ExcessivePublicCount) Accepts() rule.Capability { return rule.ClassAware }

func (r *ExcessivePublicCount) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("minimum", 45)
	cis := metric(n, metrics.CIS)
	if cis < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, cis, n.Variant(), n.Name(), cis, threshold)
}

// TooManyFields reports classes with more than maxfields properties.
type TooManyFields struct {
	rule.Base
}

func (r *TooManyFields) Accepts() rule.Capability { return rule.ClassAware }

func (r *TooManyFields) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("maxfields", 15)
	vars := metric(n, metrics.VARS)
	if vars <= float64(threshold) {
		return
	}
	r.AddMetricViolation(n, vars, n.Variant(), n.Name(), vars, threshold)
}

// TooManyMethods reports classes with more than maxmethods methods whose
// names do not match ignorepattern.
type TooManyMethods struct {
	rule.Base
}

func (r *TooManyMethods) Accepts() rule.Capability { return rule.ClassAware }

func (r *TooManyMethods) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("maxmethods", 25)
	if metric(n, metrics.NOM) <= float64(threshold) {
		return
	}
	ignore := optionalPattern(r.StringPropertyDefault("ignorepattern", "(^(set|get|is|has|with))i"))
	count := 0
	for _, m := range n.Methods() {
		if ignore == nil || !ignore.MatchString(m.Name()) {
			count++
		}
	}
	if count <= threshold {
		return
	}
	r.AddMetricViolation(n, float64(count), n.Variant(), n.Name(), count, threshold)
}

// WeightedMethodCount reports classes whose summed method complexity
// reaches maximum.
type WeightedMethodCount struct {
	rule.Base
}

func (r *WeightedMethodCount) Accepts() rule.Capability { return rule.ClassAware }

func (r *WeightedMethodCount) Apply(n *node.Node) {
	threshold := r.IntPropertyDefault("maximum", 50)
	wmc := metric(n, metrics.WMC)
	if wmc < float64(threshold) {
		return
	}
	r.AddMetricViolation(n, wmc, n.Name(), wmc, threshold)
}
