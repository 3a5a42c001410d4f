// Package api serves workflows and executions over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/meikuraledutech/workflow"
)

// bodyLimit matches the largest workflow documents the editor produces.
const bodyLimit = 50 * 1024 * 1024

// Runner starts a run without waiting for it.
type Runner interface {
	Dispatch(ctx context.Context, executionID string, wf *workflow.Workflow, input any)
}

// Options configures New.
type Options struct {
	Logger *slog.Logger
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
}

type server struct {
	store  workflow.Store
	runs   Runner
	logger *slog.Logger
}

// New builds the HTTP application.
func New(store workflow.Store, runs Runner, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &server{store: store, runs: runs, logger: opts.Logger}

	app := fiber.New(fiber.Config{
		AppName:      "workflow",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recoverer.New())
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(requestLogger(s.logger))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "workflow"})
	})
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}

	// ── Workflows ─────────────────────────────────────────────────────
	wf := app.Group("/api/workflows")
	wf.Get("/", s.listWorkflows)
	wf.Post("/", s.createWorkflow)
	wf.Get("/:id", s.getWorkflow)
	wf.Put("/:id", s.updateWorkflow)
	wf.Delete("/:id", s.deleteWorkflow)
	wf.Get("/:id/executions", s.listExecutions)
	wf.Get("/:id/lint", s.lintWorkflow)

	// ── Executions ────────────────────────────────────────────────────
	ex := app.Group("/api/executions")
	ex.Post("/:workflowId", s.startExecution)
	ex.Get("/:id", s.getExecution)

	return app
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start),
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		log.Info("request", attrs...)
		return err
	}
}
