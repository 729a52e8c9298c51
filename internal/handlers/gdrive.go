package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/queue"
	"github.com/codebuildervaibhav/meeting-assistant/internal/transcription"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

const driveDownloadURL = "https://drive.google.com/uc?export=download&id=%s"

var (
	driveFilePathPattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveIDParamPattern  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	driveBareIDPattern   = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// GDriveHandler imports a shared Google Drive recording
type GDriveHandler struct {
	orchestrator *queue.Orchestrator
	client       *http.Client
	downloadURL  string
	maxSizeMB    int
	log          logrus.FieldLogger
}

// NewGDriveHandler creates a new Google Drive handler
func NewGDriveHandler(orchestrator *queue.Orchestrator, client *http.Client, maxSizeMB int, log logrus.FieldLogger) *GDriveHandler {
	return &GDriveHandler{
		orchestrator: orchestrator,
		client:       client,
		downloadURL:  driveDownloadURL,
		maxSizeMB:    maxSizeMB,
		log:          log,
	}
}

// GDriveRequest represents the request body
type GDriveRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Handle downloads the shared file and submits it like an upload
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	if !h.orchestrator.Ready() {
		return submitError(c, "", queue.ErrEngineUnavailable)
	}

	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}
	if req.URL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "URL is required", "ERR_NO_URL")
	}

	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid Google Drive URL", "ERR_INVALID_URL")
	}

	log := h.log.WithField("gdrive_id", fileID)
	log.Info("Downloading from Google Drive")

	dl, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, fmt.Sprintf(h.downloadURL, fileID), nil)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to download file from Google Drive", "ERR_DOWNLOAD_FAILED")
	}
	resp, err := h.client.Do(dl)
	if err != nil {
		log.WithError(err).Error("Failed to download from Google Drive")
		return errorJSON(c, fiber.StatusBadGateway, "Failed to download file from Google Drive", "ERR_DOWNLOAD_FAILED")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorJSON(c, fiber.StatusBadRequest,
			"File not accessible (may be private or doesn't exist)", "ERR_FILE_NOT_ACCESSIBLE")
	}

	taskID, err := h.orchestrator.Submit(queue.Submission{
		Filename: driveFilename(req.Name, resp.Header.Get("Content-Disposition")),
		Source:   types.SourceGDrive,
		Body:     newLimitedReader(resp.Body, int64(h.maxSizeMB)*1024*1024),
	})
	if err != nil {
		return submitError(c, taskID, err)
	}

	return accepted(c, taskID, "Google Drive file downloaded, transcription started.")
}

// driveFilename picks the task file name: the requested name with the extension Drive reports,
// falling back to mp3 when Drive does not name a supported format
func driveFilename(name, disposition string) string {
	ext := ".mp3"
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if remote := params["filename"]; remote != "" && transcription.ValidateAudioFormat(remote) && filepath.Ext(remote) != "" {
			ext = strings.ToLower(filepath.Ext(remote))
			if name == "" {
				name = strings.TrimSuffix(remote, filepath.Ext(remote))
			}
		}
	}
	if name == "" {
		name = "gdrive_file"
	}
	if filepath.Ext(name) != "" && transcription.ValidateAudioFormat(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name + ext
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(url string) string {
	// https://drive.google.com/file/d/{ID}/view
	if matches := driveFilePathPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	// https://drive.google.com/open?id={ID}
	if matches := driveIDParamPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	// bare ID
	if matches := driveBareIDPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// limitedReader fails with errTooLarge once more than max bytes were read
type limitedReader struct {
	r   io.Reader
	max int64
	n   int64
}

func newLimitedReader(r io.Reader, max int64) *limitedReader {
	return &limitedReader{r: r, max: max}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > l.max {
		return n, fmt.Errorf("%w (max %dMB)", errTooLarge, l.max/(1024*1024))
	}
	return n, err
}
