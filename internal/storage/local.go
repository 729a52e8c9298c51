package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// LocalStorage handles saving transcripts to the local filesystem
type LocalStorage struct {
	outputDir string
	now       func() time.Time
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// SaveTranscript saves the transcript and metadata to local disk
func (ls *LocalStorage) SaveTranscript(result *types.TranscriptionResult) (string, error) {
	// outputs/2025/01/23/
	now := ls.now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %w", err)
	}

	// 20250123_143022_weekly_sync.txt
	baseFilename := archiveBaseName(now, result.Name)
	txtPath := filepath.Join(dateDir, baseFilename+".txt")
	metaPath := filepath.Join(dateDir, baseFilename+"_meta.json")

	if err := os.WriteFile(txtPath, []byte(result.Text), 0644); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	meta := *result
	meta.LocalPath = txtPath
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %w", err)
	}

	return txtPath, nil
}

func archiveBaseName(t time.Time, name string) string {
	return fmt.Sprintf("%s_%s", t.Format("20060102_150405"), sanitizeFilename(name))
}

// sanitizeFilename replaces characters that are invalid in file names
func sanitizeFilename(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	result := replacer.Replace(strings.TrimSpace(name))
	if result == "" || result == "." {
		result = "untitled"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
