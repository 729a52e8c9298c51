package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

const (
	streamEndMessage   = "END"
	defaultStreamName  = "stream_recording"
	streamExtension    = ".webm"
	maxStreamNameBytes = 200
)

// errNoStreamData is returned when a stream ends before any audio arrived
var errNoStreamData = errors.New("no audio data received")

// StreamHandler handles WebSocket audio streaming
type StreamHandler struct {
	orchestrator *queue.Orchestrator
	maxSizeMB    int
	log          logrus.FieldLogger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(orchestrator *queue.Orchestrator, maxSizeMB int, log logrus.FieldLogger) *StreamHandler {
	return &StreamHandler{
		orchestrator: orchestrator,
		maxSizeMB:    maxSizeMB,
		log:          log,
	}
}

// Upgrade rejects non websocket requests and refuses streams while no engine is loaded
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if !h.orchestrator.Ready() {
		return submitError(c, "", queue.ErrEngineUnavailable)
	}
	return c.Next()
}

// Handle buffers binary frames until the client sends END, then submits the recording.
// A text frame other than END names the recording.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	rec, err := collectStream(c.ReadMessage, int64(h.maxSizeMB)*1024*1024)
	if err != nil {
		h.log.WithError(err).Warn("Stream rejected")
		code := "ERR_STREAM_FAILED"
		switch {
		case errors.Is(err, errNoStreamData):
			code = "ERR_NO_DATA"
		case errors.Is(err, errTooLarge):
			code = "ERR_FILE_TOO_LARGE"
		}
		h.reply(c, fiber.Map{"error": err.Error(), "code": code})
		return
	}

	h.log.WithFields(logrus.Fields{
		"name":  rec.name,
		"bytes": rec.audio.Len(),
	}).Info("Stream received")

	taskID, err := h.orchestrator.Submit(queue.Submission{
		Filename: rec.name + streamExtension,
		Source:   types.SourceStream,
		Body:     &rec.audio,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to submit stream")
		msg := fiber.Map{"error": err.Error(), "code": "ERR_SUBMIT_FAILED"}
		if taskID != "" {
			msg["task_id"] = taskID
			msg["status"] = "FAILED"
		}
		h.reply(c, msg)
		return
	}

	h.reply(c, acceptedResponse(taskID, "Stream received, transcription started."))
}

func (h *StreamHandler) reply(c *websocket.Conn, msg fiber.Map) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		h.log.WithError(err).Debug("Failed to send stream reply")
	}
}

type streamRecording struct {
	name  string
	audio bytes.Buffer
}

// collectStream reads frames from next until END or a read error. A read error after
// audio has arrived ends the stream like END does.
func collectStream(next func() (int, []byte, error), maxBytes int64) (*streamRecording, error) {
	rec := &streamRecording{}

	for {
		messageType, message, err := next()
		if err != nil {
			break
		}

		if messageType == websocket.TextMessage {
			msg := string(message)
			if msg == streamEndMessage {
				break
			}
			if len(msg) > 0 && len(msg) < maxStreamNameBytes {
				rec.name = msg
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			if int64(rec.audio.Len()+len(message)) > maxBytes {
				return nil, fmt.Errorf("%w (max %dMB)", errTooLarge, maxBytes/(1024*1024))
			}
			rec.audio.Write(message)
		}
	}

	if rec.audio.Len() == 0 {
		return nil, errNoStreamData
	}
	if rec.name == "" {
		rec.name = defaultStreamName
	}
	return rec, nil
}
