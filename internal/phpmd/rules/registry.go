// Package rules holds the built-in rule implementations and registers them
// under their class identifiers.
package rules

import "github.com/phpmd/phpmd-sub001/internal/phpmd/rule"

var builtin = map[string]rule.Constructor{
	`PHPMD\Rule\UnusedFormalParameter`: func() rule.Rule { return &UnusedFormalParameter{} },
	`PHPMD\Rule\UnusedPrivateField`:    func() rule.Rule { return &UnusedPrivateField{} },
	`PHPMD\Rule\UnusedPrivateMethod`:   func() rule.Rule { return &UnusedPrivateMethod{} },

	`PHPMD\Rule\CyclomaticComplexity`:       func() rule.Rule { return &CyclomaticComplexity{} },
	`PHPMD\Rule\Design\LongMethod`:          func() rule.Rule { return &LongMethod{} },
	`PHPMD\Rule\Design\LongClass`:           func() rule.Rule { return &LongClass{} },
	`PHPMD\Rule\Design\LongParameterList`:   func() rule.Rule { return &LongParameterList{} },
	`PHPMD\Rule\ExcessivePublicCount`:       func() rule.Rule { return &ExcessivePublicCount{} },
	`PHPMD\Rule\Design\TooManyFields`:       func() rule.Rule { return &TooManyFields{} },
	`PHPMD\Rule\Design\TooManyMethods`:      func() rule.Rule { return &TooManyMethods{} },
	`PHPMD\Rule\Design\WeightedMethodCount`: func() rule.Rule { return &WeightedMethodCount{} },

	`PHPMD\Rule\Design\ExitExpression`:          func() rule.Rule { return &ExitExpression{} },
	`PHPMD\Rule\Design\GotoStatement`:           func() rule.Rule { return &GotoStatement{} },
	`PHPMD\Rule\Design\DepthOfInheritance`:      func() rule.Rule { return &DepthOfInheritance{} },
	`PHPMD\Rule\Design\NumberOfChildren`:        func() rule.Rule { return &NumberOfChildren{} },
	`PHPMD\Rule\Design\CouplingBetweenObjects`:  func() rule.Rule { return &CouplingBetweenObjects{} },
	`PHPMD\Rule\Design\EmptyCatchBlock`:         func() rule.Rule { return &EmptyCatchBlock{} },
	`PHPMD\Rule\Design\DevelopmentCodeFragment`: func() rule.Rule { return &DevelopmentCodeFragment{} },

	`PHPMD\Rule\CleanCode\BooleanArgumentFlag`: func() rule.Rule { return &BooleanArgumentFlag{} },
	`PHPMD\Rule\CleanCode\ElseExpression`:      func() rule.Rule { return &ElseExpression{} },
	`PHPMD\Rule\CleanCode\StaticAccess`:        func() rule.Rule { return &StaticAccess{} },

	`PHPMD\Rule\Naming\ShortMethodName`:                     func() rule.Rule { return &ShortMethodName{} },
	`PHPMD\Rule\Naming\ConstructorWithNameAsEnclosingClass`: func() rule.Rule { return &ConstructorWithNameAsEnclosingClass{} },
	`PHPMD\Rule\Naming\ConstantNamingConventions`:           func() rule.Rule { return &ConstantNamingConventions{} },

	`PHPMD\Rule\Controversial\Superglobals`:        func() rule.Rule { return &Superglobals{} },
	`PHPMD\Rule\Controversial\CamelCaseClassName`:  func() rule.Rule { return &CamelCaseClassName{} },
	`PHPMD\Rule\Controversial\CamelCaseMethodName`: func() rule.Rule { return &CamelCaseMethodName{} },
}

// Register adds every built-in rule to reg.
func Register(reg *rule.Registry) {
	for class, ctor := range builtin {
		reg.Register(class, ctor)
	}
}

// NewRegistry returns a registry holding the built-in rules.
func NewRegistry() *rule.Registry {
	reg := rule.NewRegistry()
	Register(reg)
	return reg
}
