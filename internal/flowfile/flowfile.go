// Package flowfile loads declarative pipeline definitions from HCL.
//
// A flow file declares agent and team blocks plus optional edge blocks and
// run defaults:
//
//	run {
//	  tickers    = ["AAPL", "NVDA"]
//	  start_date = "2026-06-01"
//	  end_date   = "2026-09-01"
//	  model {
//	    name     = "gpt-4o"
//	    provider = "OpenAI"
//	  }
//	}
//
//	agent "warren_buffett" {
//	  model    = "gpt-4o"
//	  provider = "OpenAI"
//	}
//
//	edge {
//	  from = start
//	  to   = warren_buffett
//	}
//
// Edge endpoints are identifiers evaluated against the declared nodes:
// every agent key is in scope, plus `start` and `report`. When a file
// declares no edges, the manager is wired to every agent and every agent
// to the report sink.
package flowfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/flow"
)

// Defaults are the run parameters a flow file may carry.
type Defaults struct {
	Tickers   []string
	StartDate string
	EndDate   string
	Model     *flow.ModelConfig
}

// File is a fully resolved flow definition.
type File struct {
	Flow     *flow.Flow
	Defaults Defaults
}

// Layout constants for file-declared nodes.
const (
	agentColumnX  = 300
	agentRowStep  = 120
	teamRowStep   = 700
	reportColumnX = 700
)

type modelBlock struct {
	Name     string `hcl:"name"`
	Provider string `hcl:"provider"`
}

type runBlock struct {
	Tickers   []string    `hcl:"tickers,optional"`
	StartDate string      `hcl:"start_date,optional"`
	EndDate   string      `hcl:"end_date,optional"`
	Model     *modelBlock `hcl:"model,block"`
}

type agentBlock struct {
	Name     string `hcl:"name,label"`
	Model    string `hcl:"model,optional"`
	Provider string `hcl:"provider,optional"`
}

type teamBlock struct {
	Name string `hcl:"name,label"`
}

type edgeBlock struct {
	From hcl.Expression `hcl:"from"`
	To   hcl.Expression `hcl:"to"`
}

// fileRoot decodes all recognized top-level blocks from one file.
type fileRoot struct {
	Run    *runBlock     `hcl:"run,block"`
	Agents []*agentBlock `hcl:"agent,block"`
	Teams  []*teamBlock  `hcl:"team,block"`
	Edges  []*edgeBlock  `hcl:"edge,block"`
}

// Load parses a flow definition from a single .hcl file or every .hcl
// file under a directory, merged in walk order.
func Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl flow files found at %s", path)
	}
	logger.Debug("Discovered flow files.", "count", len(files))

	parser := hclparse.NewParser()
	merged := fileRoot{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse flow file %s: %w", file, diags)
		}
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decode flow file %s: %w", file, diags)
		}
		if root.Run != nil {
			if merged.Run != nil {
				return nil, fmt.Errorf("decode flow file %s: duplicate run block", file)
			}
			merged.Run = root.Run
		}
		merged.Agents = append(merged.Agents, root.Agents...)
		merged.Teams = append(merged.Teams, root.Teams...)
		merged.Edges = append(merged.Edges, root.Edges...)
	}

	return build(ctx, &merged)
}

// build materializes the merged definition into a flow.
func build(ctx context.Context, root *fileRoot) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	f := flow.New()

	for i, team := range root.Teams {
		if !flow.IsTemplate(team.Name) {
			return nil, fmt.Errorf("unknown team %q", team.Name)
		}
		base := flow.Position{X: 0, Y: float64(i) * teamRowStep}
		if _, err := f.AddComponent(team.Name, base); err != nil {
			return nil, fmt.Errorf("expand team %q: %w", team.Name, err)
		}
	}

	agentIDs := make([]string, 0, len(root.Agents))
	for i, a := range root.Agents {
		c, err := flow.LookupComponent(a.Name)
		if err != nil || c.Kind != flow.KindAgent {
			return nil, fmt.Errorf("unknown agent %q", a.Name)
		}
		pos := flow.Position{X: agentColumnX, Y: float64(i) * agentRowStep}
		ids, err := f.AddComponent(a.Name, pos)
		if err != nil {
			return nil, fmt.Errorf("add agent %q: %w", a.Name, err)
		}
		agentIDs = append(agentIDs, ids[0])
		if a.Model != "" {
			m := &flow.ModelConfig{ModelName: a.Model, Provider: a.Provider}
			if err := f.SetAgentModel(ids[0], m); err != nil {
				return nil, fmt.Errorf("set model for agent %q: %w", a.Name, err)
			}
		}
	}

	// Teams carry their own manager and report nodes; standalone agent
	// declarations get them implicitly.
	startID, ok := f.StartNode()
	if !ok {
		ids, err := f.AddComponent(flow.KeyPortfolioManager, flow.Position{X: 0, Y: 0})
		if err != nil {
			return nil, err
		}
		startID = ids[0]
	}
	reportID := flow.ReportNodeID
	if _, ok := f.Node(reportID); !ok {
		ids, err := f.AddComponent(flow.KeyInvestmentReport, flow.Position{X: reportColumnX, Y: 0})
		if err != nil {
			return nil, err
		}
		reportID = ids[0]
	}

	if len(root.Edges) == 0 {
		for _, id := range agentIDs {
			f.Connect(startID, id)
			f.Connect(id, reportID)
		}
	} else {
		evalCtx := edgeEvalContext(f, startID, reportID)
		for _, e := range root.Edges {
			from, err := endpoint(e.From, evalCtx)
			if err != nil {
				return nil, err
			}
			to, err := endpoint(e.To, evalCtx)
			if err != nil {
				return nil, err
			}
			f.Connect(from, to)
		}
	}

	out := &File{Flow: f}
	if root.Run != nil {
		out.Defaults = Defaults{
			Tickers:   root.Run.Tickers,
			StartDate: root.Run.StartDate,
			EndDate:   root.Run.EndDate,
		}
		if root.Run.Model != nil {
			out.Defaults.Model = &flow.ModelConfig{
				ModelName: root.Run.Model.Name,
				Provider:  root.Run.Model.Provider,
			}
		}
	}

	logger.Debug("Flow definition loaded.", "nodes", len(f.Nodes()), "edges", len(f.Edges()))
	return out, nil
}

// edgeEvalContext exposes every declared node as an identifier: agent
// nodes under their component key, the manager as `start`, and the report
// sink as `report`.
func edgeEvalContext(f *flow.Flow, startID, reportID string) *hcl.EvalContext {
	vars := map[string]cty.Value{
		"start":  cty.StringVal(startID),
		"report": cty.StringVal(reportID),
	}
	for _, n := range f.Nodes() {
		if n.Kind == flow.KindAgent {
			vars[n.ComponentKey] = cty.StringVal(n.ID)
		}
	}
	return &hcl.EvalContext{Variables: vars}
}

// endpoint evaluates one edge endpoint expression to a node id.
func endpoint(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("resolve edge endpoint at %s: %w", expr.Range(), diags)
	}
	if v.Type() != cty.String {
		return "", fmt.Errorf("edge endpoint at %s is not a node reference", expr.Range())
	}
	return v.AsString(), nil
}

// findHCLFiles resolves path to the list of flow files to parse.
func findHCLFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("access flow path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(p) == ".hcl" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
