package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
	"github.com/codebuildervaibhav/meeting-assistant/internal/transcription"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// UploadHandler handles multipart audio uploads
type UploadHandler struct {
	orchestrator *queue.Orchestrator
	maxSizeMB    int
	log          logrus.FieldLogger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(orchestrator *queue.Orchestrator, maxSizeMB int, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{
		orchestrator: orchestrator,
		maxSizeMB:    maxSizeMB,
		log:          log,
	}
}

// Handle accepts the upload and answers 202 with the task id before any recognition runs
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	if !h.orchestrator.Ready() {
		return submitError(c, "", queue.ErrEngineUnavailable)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded", "ERR_NO_FILE")
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return errorJSON(c, fiber.StatusBadRequest,
			fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB), "ERR_FILE_TOO_LARGE")
	}

	if !transcription.ValidateAudioFormat(file.Filename) {
		return errorJSON(c, fiber.StatusBadRequest, "Unsupported audio format", "ERR_INVALID_FORMAT")
	}

	src, err := file.Open()
	if err != nil {
		h.log.WithError(err).Error("Failed to open uploaded file")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to read uploaded file", "ERR_SAVE_FAILED")
	}
	defer src.Close()

	taskID, err := h.orchestrator.Submit(queue.Submission{
		Filename: file.Filename,
		Source:   types.SourceUpload,
		Body:     src,
	})
	if err != nil {
		return submitError(c, taskID, err)
	}

	return accepted(c, taskID, "File uploaded successfully, transcription started.")
}
