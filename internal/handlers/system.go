package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-assistant/internal/logging"
	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SystemHandler serves health and recent logs
type SystemHandler struct {
	orchestrator *queue.Orchestrator
	logs         *logging.LogBuffer
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(orchestrator *queue.Orchestrator, logs *logging.LogBuffer) *SystemHandler {
	return &SystemHandler{orchestrator: orchestrator, logs: logs}
}

// Health reports liveness and whether transcription is available
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	if !h.orchestrator.Ready() {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":       status,
		"engine_ready": h.orchestrator.Ready(),
		"version":      Version,
	})
}

// Logs returns the most recent log lines
func (h *SystemHandler) Logs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"logs": h.logs.GetLogs(),
	})
}

// Root describes the API
func (h *SystemHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Meeting transcription API is running. Use /api/transcribe to submit audio and /api/job/{task_id} to check progress.",
	})
}
