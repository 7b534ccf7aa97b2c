package rule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrRuleClassNotFound = errors.New("rule class not found")

// Constructor builds a fresh rule instance.
type Constructor func() Rule

// Registry maps implementation class identifiers such as
// PHPMD\Rule\UnusedFormalParameter to rule constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

func (r *Registry) Register(class string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[NormalizeClass(class)] = ctor
}

// NormalizeClass strips the leading namespace separator and maps the legacy
// underscore notation (PHPMD_Rule_Foo) to backslashes.
func NormalizeClass(class string) string {
	class = strings.TrimPrefix(strings.TrimSpace(class), `\`)
	if !strings.Contains(class, `\`) {
		class = strings.ReplaceAll(class, "_", `\`)
	}
	return class
}

func (r *Registry) Has(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[NormalizeClass(class)]
	return ok
}

// New instantiates the rule registered for class. The class identifier is
// recorded on the rule and, when the constructor set no name, the last class
// segment becomes the rule name.
func (r *Registry) New(class string) (Rule, error) {
	key := NormalizeClass(class)
	r.mu.RLock()
	ctor, ok := r.ctors[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleClassNotFound, class)
	}
	rl := ctor()
	meta := rl.Meta()
	meta.SetClassName(key)
	if meta.Name() == "" {
		meta.SetName(key[strings.LastIndex(key, `\`)+1:])
	}
	return rl, nil
}

// Classes lists the registered class identifiers, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ctors))
	for c := range r.ctors {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
