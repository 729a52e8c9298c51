package handlers

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/storage"
)

const transcriptListLimit = 50

// TranscriptsHandler serves the archive of completed transcripts
type TranscriptsHandler struct {
	db  *storage.MetadataDB
	log logrus.FieldLogger
}

// NewTranscriptsHandler creates a new archive handler
func NewTranscriptsHandler(db *storage.MetadataDB, log logrus.FieldLogger) *TranscriptsHandler {
	return &TranscriptsHandler{db: db, log: log}
}

// List returns the most recent archived transcripts
func (h *TranscriptsHandler) List(c *fiber.Ctx) error {
	transcripts, err := h.db.ListTranscripts(transcriptListLimit)
	if err != nil {
		h.log.WithError(err).Error("Failed to list transcripts")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to list transcripts", "ERR_DATABASE")
	}
	return c.JSON(transcripts)
}

// Text returns the archived transcript text of one task
func (h *TranscriptsHandler) Text(c *fiber.Ctx) error {
	transcript, err := h.db.GetTranscript(c.Params("id"))
	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return errorJSON(c, fiber.StatusNotFound, "Transcript not found", "ERR_TRANSCRIPT_NOT_FOUND")
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to load transcript")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load transcript", "ERR_DATABASE")
	}
	if transcript.LocalPath == "" {
		return errorJSON(c, fiber.StatusNotFound, "Transcript file path not found", "ERR_TRANSCRIPT_NOT_FOUND")
	}

	content, err := os.ReadFile(transcript.LocalPath)
	if err != nil {
		h.log.WithError(err).Error("Failed to read transcript file")
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to read transcript file", "ERR_READ_FAILED")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(content)
}
