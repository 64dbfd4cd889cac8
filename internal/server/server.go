// Package server is a development stand-in for the analysis backend. It
// implements the same HTTP contract with synthesized results so the CLI
// and client packages can be exercised without the real engine.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/quantflow/quantflow/internal/agents"
	"github.com/quantflow/quantflow/internal/apiclient"
	"github.com/quantflow/quantflow/internal/ctxlog"
	"github.com/quantflow/quantflow/internal/flowstore"
)

// Config controls the development server.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string
	// StepDelay is the pause between simulated stream events.
	StepDelay time.Duration
	// Store enables the flow CRUD endpoints when non-nil.
	Store flowstore.Store
}

// Server is the development backend.
type Server struct {
	cfg Config
	app *fiber.App
}

// modelCatalog is the static model list served to clients.
var modelCatalog = []apiclient.ModelInfo{
	{ModelName: "gpt-4o", DisplayName: "GPT 4o", Provider: "OpenAI"},
	{ModelName: "gpt-4o-mini", DisplayName: "GPT 4o mini", Provider: "OpenAI"},
	{ModelName: "claude-3-5-sonnet-latest", DisplayName: "Claude 3.5 Sonnet", Provider: "Anthropic"},
	{ModelName: "deepseek-chat", DisplayName: "DeepSeek Chat", Provider: "DeepSeek"},
}

// New builds the server and registers all routes.
func New(ctx context.Context, cfg Config) *Server {
	s := &Server{cfg: cfg, app: fiber.New()}
	s.routes(ctx)
	return s
}

// App exposes the fiber app, mainly for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or is shut down.
func (s *Server) Listen(ctx context.Context) error {
	ctxlog.FromContext(ctx).Info("Development backend listening.", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) routes(ctx context.Context) {
	s.app.Get("/ping", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})

	s.app.Get("/hedge-fund/agents", func(c fiber.Ctx) error {
		out := make([]apiclient.AgentInfo, 0)
		for _, a := range agents.All() {
			out = append(out, apiclient.AgentInfo{
				Key:         a.Key,
				DisplayName: a.DisplayName,
				Description: a.Description,
				Order:       a.Order,
			})
		}
		return c.JSON(out)
	})

	s.app.Get("/hedge-fund/models", func(c fiber.Ctx) error {
		return c.JSON(modelCatalog)
	})

	s.app.Post("/hedge-fund/run", s.handleRun(ctx))

	if s.cfg.Store != nil {
		s.flowRoutes()
	}
}

func (s *Server) flowRoutes() {
	store := s.cfg.Store

	s.app.Post("/flows", func(c fiber.Ctx) error {
		var rec flowstore.Record
		if err := c.Bind().JSON(&rec); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		saved, err := store.SaveFlow(c.Context(), &rec)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(saved)
	})

	s.app.Get("/flows", func(c fiber.Ctx) error {
		flows, err := store.ListFlows(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(flows)
	})

	s.app.Get("/flows/:id", func(c fiber.Ctx) error {
		rec, err := store.GetFlow(c.Context(), c.Params("id"))
		if errors.Is(err, flowstore.ErrFlowNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "flow not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(rec)
	})

	s.app.Delete("/flows/:id", func(c fiber.Ctx) error {
		err := store.DeleteFlow(c.Context(), c.Params("id"))
		if errors.Is(err, flowstore.ErrFlowNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "flow not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	s.app.Post("/flows/:id/nodes", func(c fiber.Ctx) error {
		var node flowstore.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddNode(c.Context(), c.Params("id"), &node)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	s.app.Put("/nodes/:id", func(c fiber.Ctx) error {
		var node flowstore.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		node.ID = c.Params("id")
		err := store.UpdateNode(c.Context(), &node)
		if errors.Is(err, flowstore.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	s.app.Delete("/nodes/:id", func(c fiber.Ctx) error {
		if err := store.DeleteNode(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	s.app.Post("/flows/:id/edges", func(c fiber.Ctx) error {
		var edge flowstore.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddEdge(c.Context(), c.Params("id"), &edge)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	s.app.Delete("/edges/:id", func(c fiber.Ctx) error {
		if err := store.DeleteEdge(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}
