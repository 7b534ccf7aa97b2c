package ruleset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Element is a format-independent rule-set document node. XML and YAML
// documents are both decoded into this tree before resolution.
type Element struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Element
}

// Attr returns the trimmed attribute value, or "".
func (e *Element) Attr(name string) string {
	return strings.TrimSpace(e.Attrs[name])
}

// First returns the first child element named name.
func (e *Element) First(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns the child elements named name.
func (e *Element) All(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// TrimmedText returns the element's character data without surrounding space.
func (e *Element) TrimmedText() string {
	return strings.TrimSpace(e.Text)
}

func newElement(name string) *Element {
	return &Element{Name: name, Attrs: make(map[string]string)}
}

// ParseDocument decodes a rule-set document. Names ending in .yml or .yaml
// are read as YAML, everything else as XML.
func ParseDocument(name string, data []byte) (*Element, error) {
	var (
		root *Element
		err  error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".yml", ".yaml":
		root, err = parseYAML(data)
	default:
		root, err = parseXML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, name, err)
	}
	if root == nil || root.Name != "ruleset" {
		return nil, fmt.Errorf("%w: %s: root element must be <ruleset>", ErrMalformedDocument, name)
	}
	return root, nil
}

func parseXML(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := newElement(t.Name.Local)
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

type yamlRuleSet struct {
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description"`
	IncludePaths    []string   `yaml:"php-includepath"`
	ExcludePatterns []string   `yaml:"exclude-pattern"`
	Rules           []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Ref             string            `yaml:"ref"`
	Name            string            `yaml:"name"`
	Class           string            `yaml:"class"`
	File            string            `yaml:"file"`
	Message         string            `yaml:"message"`
	Since           string            `yaml:"since"`
	ExternalInfoURL string            `yaml:"externalInfoUrl"`
	Description     string            `yaml:"description"`
	Priority        string            `yaml:"priority"`
	Examples        []string          `yaml:"examples"`
	Exclude         []string          `yaml:"exclude"`
	Properties      map[string]string `yaml:"properties"`
}

func parseYAML(data []byte) (*Element, error) {
	var doc yamlRuleSet
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	root := newElement("ruleset")
	root.Attrs["name"] = doc.Name
	root.Children = append(root.Children, textElement("description", doc.Description))
	for _, p := range doc.IncludePaths {
		root.Children = append(root.Children, textElement("php-includepath", p))
	}
	for _, p := range doc.ExcludePatterns {
		root.Children = append(root.Children, textElement("exclude-pattern", p))
	}
	for _, r := range doc.Rules {
		root.Children = append(root.Children, r.element())
	}
	return root, nil
}

func (r yamlRule) element() *Element {
	el := newElement("rule")
	for k, v := range map[string]string{
		"ref":             r.Ref,
		"name":            r.Name,
		"class":           r.Class,
		"file":            r.File,
		"message":         r.Message,
		"since":           r.Since,
		"externalInfoUrl": r.ExternalInfoURL,
	} {
		if v != "" {
			el.Attrs[k] = v
		}
	}
	if r.Description != "" {
		el.Children = append(el.Children, textElement("description", r.Description))
	}
	if r.Priority != "" {
		el.Children = append(el.Children, textElement("priority", r.Priority))
	}
	for _, ex := range r.Examples {
		el.Children = append(el.Children, textElement("example", ex))
	}
	for _, name := range r.Exclude {
		ex := newElement("exclude")
		ex.Attrs["name"] = name
		el.Children = append(el.Children, ex)
	}
	if len(r.Properties) > 0 {
		props := newElement("properties")
		names := make([]string, 0, len(r.Properties))
		for name := range r.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := newElement("property")
			p.Attrs["name"] = name
			p.Attrs["value"] = r.Properties[name]
			props.Children = append(props.Children, p)
		}
		el.Children = append(el.Children, props)
	}
	return el
}

func textElement(name, text string) *Element {
	el := newElement(name)
	el.Text = text
	return el
}
