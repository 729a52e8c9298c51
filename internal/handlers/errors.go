package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
)

// errTooLarge marks a body that exceeded the configured size limit
var errTooLarge = errors.New("file too large")

func errorJSON(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// submitError maps an orchestrator error to its HTTP answer.
// A non-empty taskID names the task that was created and then failed to schedule.
func submitError(c *fiber.Ctx, taskID string, err error) error {
	status, message, code := fiber.StatusInternalServerError, "Failed to start audio processing task", "ERR_SAVE_FAILED"
	switch {
	case errors.Is(err, queue.ErrEngineUnavailable):
		status, code = fiber.StatusServiceUnavailable, "ERR_ENGINE_UNAVAILABLE"
		message = "ASR service is not loaded or available. Check server logs for startup errors."
	case errors.Is(err, queue.ErrPoolClosed):
		status, message, code = fiber.StatusServiceUnavailable, "Server is shutting down", "ERR_SHUTTING_DOWN"
	case errors.Is(err, queue.ErrUnsupportedFormat):
		status, message, code = fiber.StatusBadRequest, "Unsupported audio format", "ERR_INVALID_FORMAT"
	case errors.Is(err, errTooLarge):
		status, message, code = fiber.StatusBadRequest, err.Error(), "ERR_FILE_TOO_LARGE"
	}

	body := fiber.Map{"error": message, "code": code}
	if taskID != "" {
		body["task_id"] = taskID
		body["status"] = "FAILED"
	}
	return c.Status(status).JSON(body)
}

func accepted(c *fiber.Ctx, taskID, detail string) error {
	return c.Status(fiber.StatusAccepted).JSON(acceptedResponse(taskID, detail))
}

func acceptedResponse(taskID, detail string) fiber.Map {
	return fiber.Map{
		"task_id": taskID,
		"status":  "SAVED",
		"detail":  detail,
	}
}
