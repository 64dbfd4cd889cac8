// Package runreq translates the current flow topology and user-entered run
// parameters into the outbound run request contract.
package runreq

import (
	"errors"
	"strings"
	"time"

	"github.com/quantflow/quantflow/internal/flow"
	"github.com/quantflow/quantflow/internal/nodestate"
)

// Validation failures are detected before any network call is made and are
// surfaced to the user as-is.
var (
	ErrNoTickers = errors.New("runreq: no tickers entered")
	ErrNoAgents  = errors.New("runreq: no analyst nodes connected to the start node")
)

// defaultLookback is applied when no start date is given: 90 days before
// the end date, matching the backend's own default.
const defaultLookback = 90 * 24 * time.Hour

const dateLayout = "2006-01-02"

// AgentModel is a per-agent model override.
type AgentModel struct {
	AgentID       string `json:"agent_id"`
	ModelName     string `json:"model_name,omitempty"`
	ModelProvider string `json:"model_provider,omitempty"`
}

// Request is the outbound run contract. It is constructed fresh per run and
// immutable once sent.
type Request struct {
	Tickers        []string     `json:"tickers"`
	SelectedAgents []string     `json:"selected_agents"`
	AgentModels    []AgentModel `json:"agent_models,omitempty"`
	StartDate      string       `json:"start_date,omitempty"`
	EndDate        string       `json:"end_date,omitempty"`
	// Global model kept top-level for backward compatibility with older
	// backend contracts; per-agent overrides take precedence server-side.
	ModelName     string `json:"model_name,omitempty"`
	ModelProvider string `json:"model_provider,omitempty"`
}

// Params are the user-entered run inputs.
type Params struct {
	// Tickers is the raw comma-separated ticker field.
	Tickers   string
	StartDate string
	EndDate   string
	// Model is the global fallback model for agents without an override.
	Model *flow.ModelConfig
}

// Build derives a request from the flow reachable from startID and the
// per-agent models recorded in the state store. An agent is selected if and
// only if a direct edge connects the start node to it.
func Build(f *flow.Flow, states *nodestate.Store, startID string, p Params) (*Request, error) {
	tickers := splitTickers(p.Tickers)
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	selected := f.ConnectedAgents(startID)
	if len(selected) == 0 {
		return nil, ErrNoAgents
	}

	req := &Request{
		Tickers:        tickers,
		SelectedAgents: selected,
		EndDate:        p.EndDate,
		StartDate:      p.StartDate,
	}
	if req.EndDate == "" {
		req.EndDate = time.Now().Format(dateLayout)
	}
	if req.StartDate == "" {
		if end, err := time.Parse(dateLayout, req.EndDate); err == nil {
			req.StartDate = end.Add(-defaultLookback).Format(dateLayout)
		}
	}

	models := states.AllAgentModels()
	for _, agentID := range selected {
		m, ok := models[agentID]
		if !ok {
			continue
		}
		req.AgentModels = append(req.AgentModels, AgentModel{
			AgentID:       agentID,
			ModelName:     m.ModelName,
			ModelProvider: m.Provider,
		})
	}
	if p.Model != nil {
		req.ModelName = p.Model.ModelName
		req.ModelProvider = p.Model.Provider
	}
	return req, nil
}

// splitTickers parses the comma-separated ticker field, trimming blanks.
func splitTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
