package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/logging"
)

type startRequest struct {
	InputData any `json:"inputData"`
}

// startExecution records a running execution, hands the run to the Runner
// and answers 202 without waiting for it.
func (s *server) startExecution(c fiber.Ctx) error {
	var req startRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
	}
	if req.InputData == nil {
		req.InputData = map[string]any{}
	}

	w, err := s.store.GetWorkflow(c.Context(), c.Params("workflowId"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Workflow not found"})
	}

	e, err := s.store.CreateExecution(c.Context(), &workflow.Execution{
		WorkflowID: w.ID,
		Status:     workflow.StatusRunning,
		Input:      req.InputData,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	// The request context is recycled once the handler returns, so the run
	// gets its own.
	s.runs.Dispatch(logging.WithLogger(context.Background(), s.logger), e.ID, w, req.InputData)

	return c.Status(202).JSON(fiber.Map{
		"id":         e.ID,
		"workflowId": w.ID,
		"status":     workflow.StatusRunning,
	})
}

func (s *server) getExecution(c fiber.Ctx) error {
	e, err := s.store.GetExecution(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if e == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Execution not found"})
	}
	return c.JSON(e)
}
