package ruleset

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/log"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/rule"
	"github.com/phpmd/phpmd-sub001/resources"
)

const builtinPrefix = "builtin:"

// Factory resolves rule-set names and paths into RuleSets.
type Factory struct {
	registry *rule.Registry
	builtin  fs.FS
	dataDir  string
	workDir  string
	minimum  int
	maximum  int
	strict   bool
	state    *resolution
}

// resolution is shared by every nested resolution started from one Factory.
type resolution struct {
	includePaths []string
	stack        []string
}

type Option func(*Factory)

// WithDataDir replaces the embedded rule sets with <dir>/rulesets/*.xml.
func WithDataDir(dir string) Option {
	return func(f *Factory) { f.dataDir = dir }
}

func WithWorkDir(dir string) Option {
	return func(f *Factory) { f.workDir = dir }
}

func WithIncludePaths(paths ...string) Option {
	return func(f *Factory) { f.state.includePaths = append(f.state.includePaths, paths...) }
}

// WithMinimumPriority sets the numerically largest priority still included.
func WithMinimumPriority(p int) Option {
	return func(f *Factory) { f.minimum = p }
}

// WithMaximumPriority sets the numerically smallest priority still included.
func WithMaximumPriority(p int) Option {
	return func(f *Factory) { f.maximum = p }
}

func WithStrict(strict bool) Option {
	return func(f *Factory) { f.strict = strict }
}

// WithBuiltin replaces the embedded rule-set documents.
func WithBuiltin(fsys fs.FS) Option {
	return func(f *Factory) { f.builtin = fsys }
}

func NewFactory(registry *rule.Registry, opts ...Option) *Factory {
	f := &Factory{
		registry: registry,
		builtin:  resources.FS,
		minimum:  rule.LowestPriority,
		maximum:  rule.HighestPriority,
		state:    &resolution{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			f.workDir = wd
		}
	}
	return f
}

// IncludePaths returns the include paths collected so far.
func (f *Factory) IncludePaths() []string {
	return slices.Clone(f.state.includePaths)
}

// withWindow returns a factory sharing registry and resolution state but
// filtering with another priority window.
func (f *Factory) withWindow(minimum, maximum int) *Factory {
	c := *f
	c.minimum = minimum
	c.maximum = maximum
	return &c
}

func (f *Factory) inWindow(priority int) bool {
	return priority <= f.minimum && priority >= f.maximum
}

// CreateRuleSets resolves a comma separated list, one RuleSet per entry.
func (f *Factory) CreateRuleSets(names string) ([]*RuleSet, error) {
	var out []*RuleSet
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rs, err := f.CreateSingleRuleSet(name)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty rule set list", ErrRuleSetNotFound)
	}
	return out, nil
}

// CreateSingleRuleSet locates and parses one rule-set document.
func (f *Factory) CreateSingleRuleSet(name string) (*RuleSet, error) {
	loc, err := f.locate(name)
	if err != nil {
		return nil, err
	}
	if slices.Contains(f.state.stack, loc.path) {
		chain := append(slices.Clone(f.state.stack), loc.path)
		return nil, fmt.Errorf("%w: %s", ErrCyclicReference, strings.Join(chain, " -> "))
	}
	f.state.stack = append(f.state.stack, loc.path)
	defer func() { f.state.stack = f.state.stack[:len(f.state.stack)-1] }()

	root, err := ParseDocument(loc.path, loc.data)
	if err != nil {
		return nil, err
	}
	log.Debug("resolving rule set %s", loc.path)
	return f.parseRuleSet(loc, root)
}

// IgnorePatterns returns the exclude-pattern entries of the first rule set
// in names. Later entries are not consulted.
func (f *Factory) IgnorePatterns(names string) ([]string, error) {
	first := strings.TrimSpace(strings.Split(names, ",")[0])
	loc, err := f.locate(first)
	if err != nil {
		return nil, err
	}
	root, err := ParseDocument(loc.path, loc.data)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, el := range root.All("exclude-pattern") {
		if p := el.TrimmedText(); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAvailableRuleSets returns the names of the built-in rule sets.
func (f *Factory) ListAvailableRuleSets() ([]string, error) {
	var (
		files []string
		err   error
	)
	if f.dataDir != "" {
		files, err = filepath.Glob(filepath.Join(f.dataDir, "rulesets", "*.xml"))
	} else {
		files, err = fs.Glob(f.builtin, "rulesets/*.xml")
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, strings.TrimSuffix(filepath.Base(file), ".xml"))
	}
	sort.Strings(names)
	return names, nil
}

type located struct {
	path string
	dir  string
	data []byte
}

type candidate struct {
	fsys fs.FS
	name string
}

func (c candidate) open() (*located, bool) {
	if c.fsys != nil {
		if !fs.ValidPath(c.name) {
			return nil, false
		}
		info, err := fs.Stat(c.fsys, c.name)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		data, err := fs.ReadFile(c.fsys, c.name)
		if err != nil {
			return nil, false
		}
		return &located{path: builtinPrefix + c.name, data: data}, true
	}
	info, err := os.Stat(c.name)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	data, err := os.ReadFile(c.name)
	if err != nil {
		return nil, false
	}
	abs, err := filepath.Abs(c.name)
	if err != nil {
		abs = c.name
	}
	return &located{path: abs, dir: filepath.Dir(abs), data: data}, true
}

func (f *Factory) candidates(name string) []candidate {
	out := []candidate{{name: name}}
	if f.dataDir != "" {
		out = append(out,
			candidate{name: filepath.Join(f.dataDir, name)},
			candidate{name: filepath.Join(f.dataDir, "rulesets", name+".xml")},
		)
	} else if f.builtin != nil {
		out = append(out,
			candidate{fsys: f.builtin, name: path.Clean(filepath.ToSlash(name))},
			candidate{fsys: f.builtin, name: path.Join("rulesets", filepath.ToSlash(name)+".xml")},
		)
	}
	if f.workDir != "" {
		out = append(out,
			candidate{name: filepath.Join(f.workDir, name)},
			candidate{name: filepath.Join(f.workDir, "rulesets", name+".xml")},
		)
	}
	for _, ip := range f.state.includePaths {
		out = append(out,
			candidate{name: filepath.Join(ip, name)},
			candidate{name: filepath.Join(ip, name+".xml")},
		)
	}
	return out
}

// locate walks the search order and returns the first readable regular file.
func (f *Factory) locate(name string) (*located, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrRuleSetNotFound)
	}
	for _, c := range f.candidates(name) {
		if loc, ok := c.open(); ok {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRuleSetNotFound, name)
}

func (f *Factory) parseRuleSet(loc *located, root *Element) (*RuleSet, error) {
	rs := New()
	rs.SetFileName(loc.path)
	rs.SetName(root.Attr("name"))
	rs.SetStrict(f.strict)
	if d := root.First("description"); d != nil {
		rs.SetDescription(d.TrimmedText())
	}
	for _, el := range root.Children {
		switch el.Name {
		case "php-includepath":
			f.addIncludePath(loc, el.TrimmedText())
		case "rule":
			if err := f.parseRule(rs, loc, el); err != nil {
				return nil, err
			}
		}
	}
	return rs, nil
}

func (f *Factory) addIncludePath(loc *located, p string) {
	if p == "" {
		return
	}
	if loc.dir != "" && !filepath.IsAbs(p) {
		if info, err := os.Stat(filepath.Join(loc.dir, p)); err == nil && info.IsDir() {
			p = filepath.Join(loc.dir, p)
		}
	}
	f.state.includePaths = append(f.state.includePaths, p)
}

func isRuleSetReference(ref string) bool {
	switch strings.ToLower(path.Ext(ref)) {
	case ".xml", ".yml", ".yaml":
		return true
	}
	return false
}

func (f *Factory) parseRule(rs *RuleSet, loc *located, el *Element) error {
	ref := el.Attr("ref")
	switch {
	case ref == "":
		return f.parseInlineRule(rs, loc, el)
	case isRuleSetReference(ref):
		return f.parseRuleSetReference(rs, el, ref)
	default:
		return f.parseSingleRuleReference(rs, el, ref)
	}
}

func (f *Factory) parseInlineRule(rs *RuleSet, loc *located, el *Element) error {
	if file := el.Attr("file"); file != "" {
		p := file
		if loc.dir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(loc.dir, p)
		}
		if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrRuleClassFileNotFound, file)
		}
	}
	r, err := f.registry.New(el.Attr("class"))
	if err != nil {
		return fmt.Errorf("rule set %s: %w", loc.path, err)
	}
	meta := r.Meta()
	meta.SetRuleSetName(rs.Name())
	applyAttributes(meta, el)
	if v := el.Attr("since"); v != "" {
		meta.SetSince(v)
	}
	if err := applyChildren(meta, el); err != nil {
		return err
	}
	if f.inWindow(meta.Priority()) {
		rs.AddRule(r)
	}
	return nil
}

// parseRuleSetReference imports every rule of another rule set except the
// ones named by nested exclude elements.
func (f *Factory) parseRuleSetReference(rs *RuleSet, el *Element, ref string) error {
	sub, err := f.CreateSingleRuleSet(ref)
	if err != nil {
		return err
	}
	excluded := make(map[string]bool)
	for _, ex := range el.All("exclude") {
		excluded[ex.Attr("name")] = true
	}
	for _, r := range sub.Rules() {
		if !excluded[r.Name()] {
			rs.AddRule(r)
		}
	}
	return nil
}

// parseSingleRuleReference imports one rule addressed as <ruleset>/<RuleName>.
// The target document is resolved with the full priority window so every
// reference yields its own instance; the caller's window is applied after
// the overrides.
func (f *Factory) parseSingleRuleReference(rs *RuleSet, el *Element, ref string) error {
	idx := strings.LastIndex(ref, "/")
	if idx <= 0 {
		return fmt.Errorf("%w: %s", ErrRuleSetNotFound, ref)
	}
	setRef, ruleName := ref[:idx], ref[idx+1:]

	sub, err := f.withWindow(rule.LowestPriority, rule.HighestPriority).CreateSingleRuleSet(setRef)
	if err != nil {
		return err
	}
	r, err := sub.RuleByName(ruleName)
	if err != nil {
		return err
	}
	meta := r.Meta()
	applyAttributes(meta, el)
	if err := applyChildren(meta, el); err != nil {
		return err
	}
	if f.inWindow(meta.Priority()) {
		rs.AddRule(r)
	}
	return nil
}

func applyAttributes(meta *rule.Base, el *Element) {
	if v := el.Attr("name"); v != "" {
		meta.SetName(v)
	}
	if v := el.Attr("message"); v != "" {
		meta.SetMessage(v)
	}
	if v := el.Attr("externalInfoUrl"); v != "" {
		meta.SetExternalInfoURL(v)
	}
}

func applyChildren(meta *rule.Base, el *Element) error {
	for _, c := range el.Children {
		switch c.Name {
		case "description":
			meta.SetDescription(c.TrimmedText())
		case "example":
			meta.AddExample(c.TrimmedText())
		case "priority":
			p, err := strconv.Atoi(c.TrimmedText())
			if err != nil {
				return fmt.Errorf("%w: rule %s: priority %q", ErrMalformedDocument, meta.Name(), c.TrimmedText())
			}
			meta.SetPriority(p)
		case "properties":
			applyProperties(meta, c)
		}
	}
	return nil
}

// applyProperties reads <property name value/> and <property name><value/>.
// Entries without a name are skipped; an empty value clears a default.
func applyProperties(meta *rule.Base, props *Element) {
	for _, p := range props.All("property") {
		name := p.Attr("name")
		value := p.Attr("value")
		if v := p.First("value"); v != nil && value == "" {
			value = v.TrimmedText()
		}
		if name == "" {
			continue
		}
		meta.AddProperty(name, value)
	}
}
