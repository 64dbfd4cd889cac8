package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/quantflow/quantflow/internal/agents"
	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/report"
	"github.com/quantflow/quantflow/internal/runreq"
)

// Simulated per-agent progress stages, in emission order.
var runStages = []string{
	"Fetching financial data",
	"Analyzing fundamentals",
	"Generating signal",
}

// handleRun streams a synthesized analysis run.
func (s *Server) handleRun(ctx context.Context) fiber.Handler {
	logger := ctxlog.FromContext(ctx)

	return func(c fiber.Ctx) error {
		var req runreq.Request
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if len(req.Tickers) == 0 || len(req.SelectedAgents) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "tickers and selected_agents are required"})
		}
		logger.Info("Simulated run started.",
			"tickers", len(req.Tickers), "agents", len(req.SelectedAgents))

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		delay := s.cfg.StepDelay

		return c.SendStreamWriter(func(w *bufio.Writer) {
			writeEvent(w, "start", fiber.Map{})

			for _, agent := range req.SelectedAgents {
				event := agents.EventName(agent)
				for _, ticker := range req.Tickers {
					for _, stage := range runStages {
						writeEvent(w, "progress", fiber.Map{
							"agent":     event,
							"ticker":    ticker,
							"status":    stage,
							"timestamp": time.Now().UTC().Format(time.RFC3339),
						})
						pause(delay)
					}
					writeEvent(w, "progress", fiber.Map{
						"agent":     event,
						"ticker":    ticker,
						"status":    "Done",
						"analysis":  fmt.Sprintf("Synthesized view on %s.", ticker),
						"timestamp": time.Now().UTC().Format(time.RFC3339),
					})
					pause(delay)
				}
			}

			writeEvent(w, "complete", fiber.Map{
				"data": synthesizeOutput(&req),
			})
		})
	}
}

// writeEvent emits one SSE block and flushes it immediately so clients
// observe incremental delivery.
func writeEvent(w *bufio.Writer, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw)
	w.Flush()
}

func pause(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Per-ticker decision rotation for synthesized results.
var decisionCycle = []string{"buy", "hold", "sell", "short", "long"}

var signalCycle = []string{"bullish", "neutral", "bearish"}

// synthesizeOutput fabricates a deterministic result payload for the
// requested tickers and agents.
func synthesizeOutput(req *runreq.Request) *report.OutputNodeData {
	out := &report.OutputNodeData{
		Decisions:      map[string]report.Decision{},
		AnalystSignals: map[string]map[string]report.Signal{},
	}

	for i, ticker := range req.Tickers {
		action := decisionCycle[i%len(decisionCycle)]
		quantity := 0.0
		if action != "hold" {
			quantity = float64(10 + 5*i)
		}
		reasoning, _ := json.Marshal(fmt.Sprintf("Synthesized %s decision for %s.", action, ticker))
		out.Decisions[ticker] = report.Decision{
			Action:     action,
			Quantity:   quantity,
			Confidence: float64(60 + 7*i%40),
			Reasoning:  reasoning,
		}
	}

	for j, agent := range req.SelectedAgents {
		signals := map[string]report.Signal{}
		for i, ticker := range req.Tickers {
			reasoning, _ := json.Marshal(fmt.Sprintf("Synthesized view on %s.", ticker))
			signals[ticker] = report.Signal{
				Signal:     signalCycle[(i+j)%len(signalCycle)],
				Confidence: float64(50 + 9*(i+j)%50),
				Reasoning:  reasoning,
			}
		}
		out.AnalystSignals[agents.EventName(agent)] = signals
	}

	prices := map[string]report.Signal{}
	for i, ticker := range req.Tickers {
		price := 100.0 + 50.0*float64(i)
		prices[ticker] = report.Signal{CurrentPrice: &price}
	}
	out.AnalystSignals[report.RiskManagementAgent] = prices

	return out
}
