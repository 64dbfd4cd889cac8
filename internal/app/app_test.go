package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/quantflow/internal/history"
	"github.com/quantflow/quantflow/internal/report"
	"github.com/quantflow/quantflow/internal/runreq"
)

// fakeBackend records the run request and replies with a fixed stream.
func fakeBackend(t *testing.T, got *runreq.Request) *httptest.Server {
	t.Helper()
	price := 431.5
	output := report.OutputNodeData{
		Decisions: map[string]report.Decision{
			"NVDA": {Action: "buy", Quantity: 10, Confidence: 85},
		},
		AnalystSignals: map[string]map[string]report.Signal{
			"warren_buffett_agent":     {"NVDA": {Signal: "bullish", Confidence: 85}},
			report.RiskManagementAgent: {"NVDA": {CurrentPrice: &price}},
		},
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: start\ndata: {}\n\n")
		fmt.Fprint(w, "event: progress\ndata: {\"agent\":\"warren_buffett_agent\",\"ticker\":\"NVDA\",\"status\":\"Done\"}\n\n")
		raw, _ := json.Marshal(map[string]any{"data": output})
		fmt.Fprintf(w, "event: complete\ndata: %s\n\n", raw)
	}))
}

func TestRunDefaultFlow(t *testing.T) {
	var got runreq.Request
	srv := fakeBackend(t, &got)
	defer srv.Close()

	outDir := t.TempDir()
	historyDB := filepath.Join(t.TempDir(), "history.db")
	var out, logs bytes.Buffer

	cfg, err := NewConfig(Config{
		BaseURL:   srv.URL,
		Tickers:   "NVDA",
		EndDate:   "2026-09-01",
		HistoryDB: historyDB,
		OutputDir: outDir,
		LogLevel:  "debug",
	})
	require.NoError(t, err)

	a := NewApp(&out, &logs, cfg)
	require.NoError(t, a.Run(context.Background()))

	// The default flow selects every wired analyst.
	assert.Equal(t, []string{"NVDA"}, got.Tickers)
	assert.Contains(t, got.SelectedAgents, "warren_buffett")
	assert.Contains(t, got.SelectedAgents, "risk_manager")
	assert.Equal(t, "2026-09-01", got.EndDate)
	assert.Equal(t, "2026-06-03", got.StartDate)

	rendered := out.String()
	assert.Contains(t, rendered, "NVDA")
	assert.Contains(t, rendered, "买入 (buy)")
	assert.Contains(t, rendered, "$431.50")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "output-")

	db, err := history.Open(historyDB)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"NVDA"}, runs[0].Tickers)
	require.NotNil(t, runs[0].Output)
	assert.Equal(t, "buy", runs[0].Output.Decisions["NVDA"].Action)
}

func TestRunFlowFile(t *testing.T) {
	var got runreq.Request
	srv := fakeBackend(t, &got)
	defer srv.Close()

	flowPath := filepath.Join(t.TempDir(), "flow.hcl")
	require.NoError(t, os.WriteFile(flowPath, []byte(`
run {
  tickers  = ["NVDA"]
  end_date = "2026-09-01"
}

agent "warren_buffett" {
  model    = "gpt-4o"
  provider = "OpenAI"
}
`), 0o644))

	cfg, err := NewConfig(Config{BaseURL: srv.URL, FlowPath: flowPath})
	require.NoError(t, err)

	var out, logs bytes.Buffer
	a := NewApp(&out, &logs, cfg)
	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, []string{"NVDA"}, got.Tickers)
	assert.Equal(t, []string{"warren_buffett"}, got.SelectedAgents)
	require.Len(t, got.AgentModels, 1)
	assert.Equal(t, "gpt-4o", got.AgentModels[0].ModelName)
	assert.Equal(t, "2026-09-01", got.EndDate)
}

func TestRunNoTickers(t *testing.T) {
	cfg, err := NewConfig(Config{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	var out, logs bytes.Buffer
	a := NewApp(&out, &logs, cfg)
	err = a.Run(context.Background())
	require.ErrorIs(t, err, runreq.ErrNoTickers)
}

func TestRunBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg, err := NewConfig(Config{BaseURL: srv.URL, Tickers: "AAPL"})
	require.NoError(t, err)

	var out, logs bytes.Buffer
	a := NewApp(&out, &logs, cfg)
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
