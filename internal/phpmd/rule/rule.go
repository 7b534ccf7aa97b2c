// Package rule defines the contract every code-smell rule implements and the
// embeddable Base carrying rule metadata, properties and violation reporting.
package rule

import (
	"errors"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
)

const (
	HighestPriority = 1
	LowestPriority  = 5
)

var ErrPropertyNotFound = errors.New("rule property not found")

// Capability is the set of node variants a rule handles.
type Capability uint8

const (
	ClassAware Capability = 1 << iota
	TraitAware
	EnumAware
	FunctionAware
	InterfaceAware
	MethodAware
)

// Order is the bucket order used when flattening a rule set.
var Order = []Capability{ClassAware, TraitAware, EnumAware, FunctionAware, InterfaceAware, MethodAware}

func (c Capability) Has(o Capability) bool { return c&o != 0 }

func (c Capability) String() string {
	switch c {
	case ClassAware:
		return "class"
	case TraitAware:
		return "trait"
	case EnumAware:
		return "enum"
	case FunctionAware:
		return "function"
	case InterfaceAware:
		return "interface"
	case MethodAware:
		return "method"
	}
	return "mixed"
}

// ForVariant returns the capability that routes nodes of variant v.
func ForVariant(v node.Variant) Capability {
	switch v {
	case node.VariantClass:
		return ClassAware
	case node.VariantInterface:
		return InterfaceAware
	case node.VariantTrait:
		return TraitAware
	case node.VariantEnum:
		return EnumAware
	case node.VariantMethod:
		return MethodAware
	case node.VariantFunction:
		return FunctionAware
	}
	return 0
}

// Rule is one code-smell check. Apply is the only extension point; it reads
// the node and records violations through the embedded Base.
type Rule interface {
	Name() string
	ClassName() string
	Accepts() Capability
	Apply(n *node.Node)
	Meta() *Base
}

// StrictAware rules receive the rule set's strict flag before dispatch.
type StrictAware interface {
	SetStrict(strict bool)
}
