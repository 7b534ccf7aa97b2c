package node

import (
	"regexp"
	"strings"
)

// RuleIdentity is what a suppression annotation can name.
type RuleIdentity interface {
	Name() string
	ClassName() string
}

var annotationPattern = regexp.MustCompile(`(?i)@([a-z_][a-z0-9_]+)\(([^)]+)\)`)

// Annotation is one @SuppressWarnings(value) directive.
type Annotation struct {
	Name  string
	Value string
}

// ParseAnnotations extracts the suppression directives of a doc comment.
func ParseAnnotations(doc string) []Annotation {
	if doc == "" {
		return nil
	}
	var out []Annotation
	for _, m := range annotationPattern.FindAllStringSubmatch(doc, -1) {
		if !strings.EqualFold(m[1], "SuppressWarnings") {
			continue
		}
		out = append(out, Annotation{
			Name:  "suppresswarnings",
			Value: strings.Trim(m[2], `"' `),
		})
	}
	return out
}

// Suppresses reports whether the annotation value names r. Matching is exact:
// PHPMD or PMD silence every rule, otherwise the value must be the rule name,
// PHPMD.<name>, PMD.<name> or the rule's class identifier.
func (a Annotation) Suppresses(r RuleIdentity) bool {
	switch a.Value {
	case "PHPMD", "PMD":
		return true
	case r.Name(), "PHPMD." + r.Name(), "PMD." + r.Name():
		return r.Name() != ""
	}
	class := strings.TrimPrefix(r.ClassName(), `\`)
	return class != "" && a.Value == class
}
