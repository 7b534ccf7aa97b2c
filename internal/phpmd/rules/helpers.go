package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/node"
)

var magicMethods = map[string]bool{
	"__construct": true, "__destruct": true, "__call": true, "__callstatic": true,
	"__get": true, "__set": true, "__isset": true, "__unset": true,
	"__sleep": true, "__wakeup": true, "__serialize": true, "__unserialize": true,
	"__tostring": true, "__invoke": true, "__set_state": true, "__clone": true,
	"__debuginfo": true,
}

func isMagic(name string) bool {
	return magicMethods[strings.ToLower(name)]
}

var closingDelimiters = map[byte]byte{'(': ')', '{': '}', '[': ']', '<': '>'}

// compilePattern compiles a PCRE-style pattern with delimiters and trailing
// modifiers, e.g. "(^(set|get))i" or "/^create/i". Supported modifiers are
// i, m, s and u; anything else is an error.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if len(pattern) < 2 {
		return nil, fmt.Errorf("pattern %q: missing delimiters", pattern)
	}
	open := pattern[0]
	closing, ok := closingDelimiters[open]
	if !ok {
		closing = open
	}
	end := strings.LastIndexByte(pattern, closing)
	if end <= 0 {
		return nil, fmt.Errorf("pattern %q: missing closing delimiter", pattern)
	}
	body, modifiers := pattern[1:end], pattern[end+1:]

	flags := ""
	for _, m := range modifiers {
		switch m {
		case 'i', 'm', 's':
			flags += string(m)
		case 'u':
		default:
			return nil, fmt.Errorf("pattern %q: unsupported modifier %q", pattern, m)
		}
	}
	if flags != "" {
		body = "(?" + flags + ")" + body
	}
	return regexp.Compile(body)
}

// optionalPattern compiles a pattern property; blank or invalid patterns
// match nothing.
func optionalPattern(pattern string) *regexp.Regexp {
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	re, err := compilePattern(strings.TrimSpace(pattern))
	if err != nil {
		return nil
	}
	return re
}

// paramName returns the $-prefixed name of a formal parameter.
func paramName(p *node.Node) string {
	if name := p.Field("name"); name != nil {
		return name.Image()
	}
	if v := p.FirstChildOfType("variable_name"); v != nil {
		return v.Image()
	}
	return p.Image()
}

// calledFunction returns the lower-cased name of a plain function call
// without leading namespace separator, or "" for dynamic calls.
func calledFunction(call *node.Node) string {
	fn := call.Field("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "name", "qualified_name":
		return strings.ToLower(strings.TrimPrefix(fn.Image(), `\`))
	}
	return ""
}

// isThis reports whether n is the $this variable.
func isThis(n *node.Node) bool {
	return n != nil && n.Type() == "variable_name" && n.Image() == "$this"
}

// isOwnScope reports whether a static scope refers to the type named owner.
func isOwnScope(scope *node.Node, owner string) bool {
	if scope == nil {
		return false
	}
	img := strings.TrimPrefix(scope.Image(), `\`)
	switch strings.ToLower(img) {
	case "self", "static":
		return true
	}
	if i := strings.LastIndex(img, `\`); i >= 0 {
		img = img[i+1:]
	}
	return strings.EqualFold(img, owner)
}

// memberName returns the identifier of a member access or call, or "" when
// the member is dynamic.
func memberName(n *node.Node) string {
	name := n.Field("name")
	if name == nil || name.Type() != "name" {
		return ""
	}
	return name.Image()
}

// objectOf returns the object side of a member access or call.
func objectOf(n *node.Node) *node.Node {
	if obj := n.Field("object"); obj != nil {
		return obj
	}
	if n.ChildCount() > 0 {
		return n.Child(0)
	}
	return nil
}

// scopeOf returns the class side of a static access or call.
func scopeOf(n *node.Node) *node.Node {
	if scope := n.Field("scope"); scope != nil {
		return scope
	}
	if n.ChildCount() > 0 {
		return n.Child(0)
	}
	return nil
}

func metric(n *node.Node, name string) float64 {
	v, _ := n.Metric(name)
	return v
}
