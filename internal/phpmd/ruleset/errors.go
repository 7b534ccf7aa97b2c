package ruleset

import (
	"errors"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
)

var (
	ErrRuleSetNotFound       = errors.New("rule set not found")
	ErrRuleNotFound          = errors.New("rule not found")
	ErrRuleClassNotFound     = rule.ErrRuleClassNotFound
	ErrRuleClassFileNotFound = errors.New("rule class file not found")
	ErrCyclicReference       = errors.New("cyclic rule set reference")
	ErrMalformedDocument     = errors.New("malformed rule set document")
)
