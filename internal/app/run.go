package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/flow"
	"github.com/quantflow/quantflow/internal/flowfile"
	"github.com/quantflow/quantflow/internal/flowstore/postgres"
	"github.com/quantflow/quantflow/internal/history"
	"github.com/quantflow/quantflow/internal/nodestate"
	"github.com/quantflow/quantflow/internal/report"
	"github.com/quantflow/quantflow/internal/runclient"
	"github.com/quantflow/quantflow/internal/runreq"
)

// ErrNoResult is returned when a run ends without a completed report.
var ErrNoResult = errors.New("run finished without a result")

// Run executes one full analysis: load the flow, send the run request,
// consume the stream, render the report, and record history.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	f, defaults, err := a.loadFlow(ctx)
	if err != nil {
		return err
	}
	startID, ok := f.StartNode()
	if !ok {
		return errors.New("flow has no start node")
	}

	states := nodestate.New()
	for _, n := range f.Nodes() {
		if n.Kind == flow.KindAgent && n.Model != nil {
			states.SetAgentModel(n.ID, *n.Model)
		}
	}

	params := a.runParams(defaults)
	req, err := runreq.Build(f, states, startID, params)
	if err != nil {
		return err
	}
	a.logger.Info("Starting analysis run.",
		"tickers", req.Tickers, "agents", len(req.SelectedAgents),
		"start_date", req.StartDate, "end_date", req.EndDate)

	client := runclient.New(a.cfg.BaseURL, a.cfg.Token, nil, states)
	run := client.Start(ctx, req)
	go a.logProgress(ctx, states, run)
	if err := run.Wait(); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	output := states.OutputNodeData()
	if output == nil {
		return ErrNoResult
	}

	if err := report.WriteSummary(a.outW, output); err != nil {
		return err
	}
	fmt.Fprintln(a.outW)
	if err := report.WriteSignals(a.outW, output); err != nil {
		return err
	}

	if err := a.export(output); err != nil {
		return err
	}
	return a.record(ctx, req, output)
}

// runParams merges explicit config values over flow file defaults.
func (a *App) runParams(defaults flowfile.Defaults) runreq.Params {
	p := runreq.Params{
		Tickers:   a.cfg.Tickers,
		StartDate: a.cfg.StartDate,
		EndDate:   a.cfg.EndDate,
	}
	if p.Tickers == "" && len(defaults.Tickers) > 0 {
		p.Tickers = strings.Join(defaults.Tickers, ",")
	}
	if p.StartDate == "" {
		p.StartDate = defaults.StartDate
	}
	if p.EndDate == "" {
		p.EndDate = defaults.EndDate
	}
	if a.cfg.ModelName != "" {
		p.Model = &flow.ModelConfig{ModelName: a.cfg.ModelName, Provider: a.cfg.ModelProvider}
	} else if defaults.Model != nil {
		p.Model = defaults.Model
	}
	return p
}

// loadFlow resolves the configured flow source.
func (a *App) loadFlow(ctx context.Context) (*flow.Flow, flowfile.Defaults, error) {
	switch {
	case a.cfg.FlowID != "":
		f, err := a.loadStoredFlow(ctx)
		return f, flowfile.Defaults{}, err
	case a.cfg.FlowPath != "":
		file, err := flowfile.Load(ctx, a.cfg.FlowPath)
		if err != nil {
			return nil, flowfile.Defaults{}, err
		}
		return file.Flow, file.Defaults, nil
	default:
		a.logger.Debug("No flow source configured, using the default flow.")
		return flow.Default(), flowfile.Defaults{}, nil
	}
}

func (a *App) loadStoredFlow(ctx context.Context) (*flow.Flow, error) {
	pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect flow database: %w", err)
	}
	defer pool.Close()

	rec, err := postgres.New(pool).GetFlow(ctx, a.cfg.FlowID)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Stored flow loaded.", "flow_id", rec.ID, "nodes", len(rec.Nodes))
	return rec.Materialize(), nil
}

// logProgress surfaces node status transitions while the run is active.
func (a *App) logProgress(ctx context.Context, states *nodestate.Store, run *runclient.Run) {
	seen := map[string]nodestate.Status{}
	for {
		select {
		case <-run.Done():
			return
		case <-ctx.Done():
			return
		case <-states.Changed():
		}
		for _, n := range states.NodeIDs() {
			status := states.Status(n)
			if seen[n] != status {
				seen[n] = status
				a.logger.Info("Node status changed.", "node", n, "status", string(status))
			}
		}
	}
}

// export writes the JSON (and optionally PNG) report artifacts.
func (a *App) export(output *report.OutputNodeData) error {
	if a.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	now := time.Now()
	path, err := report.ExportJSONFile(a.cfg.OutputDir, output, now)
	if err != nil {
		return err
	}
	a.logger.Info("Report exported.", "path", path)

	if a.cfg.ExportImage {
		path, err := report.ExportImageFile(a.cfg.OutputDir, output, now)
		if err != nil {
			return err
		}
		a.logger.Info("Report image exported.", "path", path)
	}
	return nil
}

// record appends the completed run to the local history database.
func (a *App) record(ctx context.Context, req *runreq.Request, output *report.OutputNodeData) error {
	if a.cfg.HistoryDB == "" {
		return nil
	}
	db, err := history.Open(a.cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.Save(ctx, &history.Entry{
		Tickers:        req.Tickers,
		SelectedAgents: req.SelectedAgents,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ModelName:      req.ModelName,
		ModelProvider:  req.ModelProvider,
		Output:         output,
	})
	if err != nil {
		return err
	}
	a.logger.Info("Run recorded.", "run_id", id)
	return nil
}
