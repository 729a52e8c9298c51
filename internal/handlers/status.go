package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-assistant/internal/tasks"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// StatusHandler serves read-only task lookups
type StatusHandler struct {
	store *tasks.Store
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store *tasks.Store) *StatusHandler {
	return &StatusHandler{store: store}
}

type statusResponse struct {
	TaskID        string           `json:"task_id"`
	Status        types.TaskStatus `json:"status"`
	Transcription *string          `json:"transcription,omitempty"`
	Error         *string          `json:"error,omitempty"`
}

// Get returns the status of one task
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	task, err := h.store.Get(c.Params("task_id"))
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Task ID not found.", "ERR_TASK_NOT_FOUND")
	}
	if err != nil {
		return err
	}

	return c.JSON(statusResponse{
		TaskID:        task.ID,
		Status:        task.Status,
		Transcription: task.Transcription,
		Error:         task.Error,
	})
}

// List returns every task, newest first, without transcripts
func (h *StatusHandler) List(c *fiber.Ctx) error {
	all := h.store.List()
	for i := range all {
		all[i].Transcription = nil
	}
	return c.JSON(fiber.Map{"jobs": all})
}
