package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/meikuraledutech/workflow"
)

// executionHistory is how many executions a workflow listing returns.
const executionHistory = 50

func (s *server) listWorkflows(c fiber.Ctx) error {
	all, err := s.store.ListWorkflows(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(all)
}

func (s *server) createWorkflow(c fiber.Ctx) error {
	var w workflow.Workflow
	if err := c.Bind().JSON(&w); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	if w.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	w.ID = ""

	created, err := s.store.CreateWorkflow(c.Context(), &w)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(created)
}

func (s *server) getWorkflow(c fiber.Ctx) error {
	w, err := s.store.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Workflow not found"})
	}
	return c.JSON(w)
}

func (s *server) updateWorkflow(c fiber.Ctx) error {
	var w workflow.Workflow
	if err := c.Bind().JSON(&w); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	w.ID = c.Params("id")

	updated, err := s.store.UpdateWorkflow(c.Context(), &w)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Workflow not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(updated)
}

func (s *server) deleteWorkflow(c fiber.Ctx) error {
	if err := s.store.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *server) listExecutions(c fiber.Ctx) error {
	runs, err := s.store.ListExecutions(c.Context(), c.Params("id"), executionHistory)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}

func (s *server) lintWorkflow(c fiber.Ctx) error {
	w, err := s.store.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Workflow not found"})
	}
	issues := workflow.Lint(w)
	if issues == nil {
		issues = []workflow.Issue{}
	}
	return c.JSON(fiber.Map{"issues": issues})
}
