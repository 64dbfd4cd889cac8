package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantflow/quantflow/internal/apiclient"
	"github.com/quantflow/quantflow/internal/report"
	"github.com/quantflow/quantflow/internal/runreq"
	"github.com/quantflow/quantflow/internal/sse"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(context.Background(), Config{Addr: ":0"})
}

func TestPing(t *testing.T) {
	s := testServer(t)
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	s := testServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/hedge-fund/agents", nil))
	require.NoError(t, err)
	var agentList []apiclient.AgentInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&agentList))
	require.NotEmpty(t, agentList)
	keys := make([]string, 0, len(agentList))
	for _, a := range agentList {
		keys = append(keys, a.Key)
	}
	assert.Contains(t, keys, "warren_buffett")

	resp, err = s.App().Test(httptest.NewRequest("GET", "/hedge-fund/models", nil))
	require.NoError(t, err)
	var models []apiclient.ModelInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&models))
	require.NotEmpty(t, models)
	assert.Equal(t, "gpt-4o", models[0].ModelName)
}

func TestRunRejectsEmptyRequest(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(runreq.Request{})
	req := httptest.NewRequest("POST", "/hedge-fund/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestRunStreamsSimulatedEvents(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(runreq.Request{
		Tickers:        []string{"AAPL", "NVDA"},
		SelectedAgents: []string{"warren_buffett"},
		StartDate:      "2026-06-01",
		EndDate:        "2026-09-01",
	})
	req := httptest.NewRequest("POST", "/hedge-fund/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	dec := sse.NewDecoder()
	events := dec.Feed(raw)
	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0].Type)
	assert.Equal(t, "complete", events[len(events)-1].Type)

	var doneCount int
	for _, ev := range events[1 : len(events)-1] {
		require.NoError(t, ev.Err)
		require.Equal(t, "progress", ev.Type)
		var p struct {
			Agent  string `json:"agent"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(ev.Data, &p))
		assert.Equal(t, "warren_buffett_agent", p.Agent)
		if p.Status == "Done" {
			doneCount++
		}
	}
	assert.Equal(t, 2, doneCount)

	var complete struct {
		Data report.OutputNodeData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(events[len(events)-1].Data, &complete))
	assert.Len(t, complete.Data.Decisions, 2)
	assert.Contains(t, complete.Data.AnalystSignals, "warren_buffett_agent")

	// The risk entry carries current prices and is not a display agent.
	risk, ok := complete.Data.AnalystSignals[report.RiskManagementAgent]
	require.True(t, ok)
	require.NotNil(t, risk["AAPL"].CurrentPrice)
	assert.NotContains(t, complete.Data.Agents(), report.RiskManagementAgent)
}

func TestSynthesizedOutputDeterministic(t *testing.T) {
	req := &runreq.Request{
		Tickers:        []string{"AAPL", "NVDA", "TSLA"},
		SelectedAgents: []string{"warren_buffett", "cathie_wood"},
	}
	a := synthesizeOutput(req)
	b := synthesizeOutput(req)
	rawA, _ := json.Marshal(a)
	rawB, _ := json.Marshal(b)
	assert.JSONEq(t, string(rawA), string(rawB))

	assert.Equal(t, "buy", a.Decisions["AAPL"].Action)
	assert.Equal(t, "hold", a.Decisions["NVDA"].Action)
	assert.Zero(t, a.Decisions["NVDA"].Quantity)
}
