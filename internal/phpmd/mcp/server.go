package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phpmd/phpmd-sub001/internal/phpmd/analysis"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/config"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/log"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/renderer"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/report"
	"github.com/phpmd/phpmd-sub001/internal/phpmd/watcher"
)

// PhpmdServer exposes the analyzer of one project root through MCP tools
// and resources. It keeps the report of the most recent analysis, which the
// file watcher refreshes.
type PhpmdServer struct {
	Analyzer *analysis.Analyzer // The project analyzer.
	Config   *config.Config     // Server configuration.
	Watcher  *watcher.Watcher   // File system watcher.
	RootDir  string             // The root directory of the analyzed codebase.

	mu      sync.RWMutex
	last    *report.Report
	lastErr error
}

// NewServer initializes and returns a new MCP server instance.
// It loads configuration, runs the initial analysis and, when watch is set,
// starts the file watcher.
func NewServer(ctx context.Context, rootDir string, watch bool) (*mcp.Server, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		log.Warn("failed to load config: %v. Using defaults.", err)
		cfg = config.Default()
	}

	ps := newPhpmdServer(rootDir, cfg)
	ps.refresh(ctx)

	if watch {
		w, err := watcher.NewWatcher(rootDir, cfg, func(ctx context.Context) (*report.Report, error) {
			return ps.Analyzer.Analyze(ctx, "")
		}, ps.store)
		if err != nil {
			log.Warn("failed to start file watcher: %v", err)
		} else {
			ps.Watcher = w
			w.Start(ctx)
		}
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "phpmd",
		Version: renderer.Version,
	}, &mcp.ServerOptions{})

	// Register Tools
	mcp.AddTool(s, &mcp.Tool{
		Name:        "analyze",
		Description: "Run the configured rule sets over a file or directory and return the report as JSON",
	}, ps.analyze)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "describe_rule",
		Description: "Describe a rule: rule set, priority, message, properties and examples",
	}, ps.describeRule)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "type_hierarchy",
		Description: "Show inheritance depth, direct children and descendants of a class or interface",
	}, ps.typeHierarchy)

	// Register Resources
	s.AddResource(&mcp.Resource{
		Name:     "rulesets",
		URI:      "phpmd://rulesets",
		MIMEType: "application/json",
	}, ps.handleRuleSets)

	s.AddResource(&mcp.Resource{
		Name:     "violations",
		URI:      "phpmd://violations",
		MIMEType: "application/json",
	}, ps.handleViolations)

	s.AddResource(&mcp.Resource{
		Name:     "status",
		URI:      "phpmd://status",
		MIMEType: "application/json",
	}, ps.handleStatus)

	return s, nil
}

func newPhpmdServer(rootDir string, cfg *config.Config) *PhpmdServer {
	return &PhpmdServer{
		Analyzer: analysis.NewAnalyzer(rootDir, cfg),
		Config:   cfg,
		RootDir:  rootDir,
	}
}

func (ps *PhpmdServer) refresh(ctx context.Context) {
	ps.store(ps.Analyzer.Analyze(ctx, ""))
}

func (ps *PhpmdServer) store(r *report.Report, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.last, ps.lastErr = r, err
	if err != nil {
		log.Warn("analysis of %s failed: %v", ps.RootDir, err)
	}
}

func (ps *PhpmdServer) snapshot() (*report.Report, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.last, ps.lastErr
}

// Tool Inputs

// AnalyzeInput defines the input parameters for the analyze tool.
type AnalyzeInput struct {
	Path string `json:"path,omitempty" jsonschema:"file or directory relative to the project root, defaults to the root"`
}

// DescribeRuleInput defines the input parameters for the describe_rule tool.
type DescribeRuleInput struct {
	Name string `json:"name" jsonschema:"rule name such as CyclomaticComplexity"`
}

// TypeHierarchyInput defines the input parameters for the type_hierarchy tool.
type TypeHierarchyInput struct {
	Type string `json:"type" jsonschema:"fully qualified class or interface name"`
}

// Tool Handlers

func (ps *PhpmdServer) analyze(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	target := ps.RootDir
	if input.Path != "" {
		target = input.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(ps.RootDir, target)
		}
	}

	var buf bytes.Buffer
	r, err := ps.Analyzer.Run(ctx, target, nil, renderer.NewJSON(&buf))
	if err != nil {
		return errorResult(err), nil, nil
	}
	if input.Path == "" {
		ps.store(r, nil)
	}
	return textResult(buf.String()), nil, nil
}

func (ps *PhpmdServer) describeRule(ctx context.Context, req *mcp.CallToolRequest, input DescribeRuleInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return errorResult(fmt.Errorf("name required")), nil, nil
	}
	info, err := ps.Analyzer.DescribeRule(input.Name)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(info), nil, nil
}

func (ps *PhpmdServer) typeHierarchy(ctx context.Context, req *mcp.CallToolRequest, input TypeHierarchyInput) (*mcp.CallToolResult, any, error) {
	g := ps.Analyzer.Graph
	t, ok := g.GetType(input.Type)
	if !ok {
		return errorResult(fmt.Errorf("type %q not found", input.Type)), nil, nil
	}

	var parents []string
	for _, e := range g.EdgesFrom(t.ID) {
		parents = append(parents, fmt.Sprintf("%s %s", e.Type, e.TargetID))
	}
	res := map[string]interface{}{
		"type":        t.ID,
		"kind":        t.Kind,
		"file":        t.File,
		"line":        t.Line,
		"parents":     parents,
		"depth":       g.Depth(t.ID),
		"children":    g.Children(t.ID),
		"descendants": g.Descendants(t.ID),
	}
	return jsonResult(res), nil, nil
}

// Resource Handlers

func (ps *PhpmdServer) handleRuleSets(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	sets, err := ps.Analyzer.Catalog()
	if err != nil {
		return nil, err
	}
	return jsonResource(req, sets), nil
}

func (ps *PhpmdServer) handleViolations(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	r, err := ps.snapshot()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return jsonResource(req, []*report.Violation{}), nil
	}
	vs := r.RuleViolations()
	if vs == nil {
		vs = []*report.Violation{}
	}
	return jsonResource(req, vs), nil
}

func (ps *PhpmdServer) handleStatus(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	status := map[string]interface{}{
		"root":     ps.RootDir,
		"rulesets": ps.Config.RuleSets,
		"watching": ps.Watcher != nil,
	}
	r, err := ps.snapshot()
	switch {
	case err != nil:
		status["status"] = "failed"
		status["error"] = err.Error()
	case r == nil:
		status["status"] = "pending"
	default:
		status["status"] = "healthy"
		status["violations"] = len(r.RuleViolations())
		status["baselined"] = len(r.Baselined())
		status["errors"] = len(r.Errors())
		status["elapsed"] = r.ElapsedTime().String()
	}
	return jsonResource(req, status), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}}}
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ")
	return textResult(string(jsonBytes))
}

func jsonResource(req *mcp.ReadResourceRequest, v any) *mcp.ReadResourceResult {
	bytes, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(bytes)},
		},
	}
}
