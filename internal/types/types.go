package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaskStatus is the lifecycle phase of a transcription task
type TaskStatus string

// Task status constants
const (
	StatusSaved      TaskStatus = "SAVED"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusFormatting TaskStatus = "FORMATTING"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusFailed     TaskStatus = "FAILED"
)

// IsTerminal reports whether no further transitions can happen from s
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Source type constants
const (
	SourceUpload = "upload"
	SourceGDrive = "gdrive"
	SourceStream = "stream"
)

// Fixed transcript texts
const (
	NoResultsTranscript   = "No transcription results were returned."
	EmptyResultTranscript = "Transcription result is empty or invalid."
	FailedTranscript      = "Transcription failed."
	UnknownSpeaker        = "unknown"
	SpeakerPrefix         = "Speaker"
)

// RecognitionSentence is one timed, speaker-tagged sentence produced by the engine.
// StartMs and EndMs are nil when the engine omitted them.
type RecognitionSentence struct {
	Speaker string   `json:"spk"`
	Text    string   `json:"text"`
	StartMs *float64 `json:"start"`
	EndMs   *float64 `json:"end"`
}

// UnmarshalJSON accepts the speaker id as a number, a string or null
func (s *RecognitionSentence) UnmarshalJSON(data []byte) error {
	var raw struct {
		Speaker json.RawMessage `json:"spk"`
		Text    string          `json:"text"`
		StartMs *float64        `json:"start"`
		EndMs   *float64        `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	speaker, err := decodeSpeaker(raw.Speaker)
	if err != nil {
		return err
	}

	*s = RecognitionSentence{
		Speaker: speaker,
		Text:    raw.Text,
		StartMs: raw.StartMs,
		EndMs:   raw.EndMs,
	}
	return nil
}

func decodeSpeaker(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return UnknownSpeaker, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid speaker label: %w", err)
		}
		if s == "" {
			return UnknownSpeaker, nil
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid speaker label %s: %w", trimmed, err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

// RecognitionResultItem is one entry of the engine output list
type RecognitionResultItem struct {
	Key          string                `json:"key,omitempty"`
	Text         string                `json:"text,omitempty"`
	SentenceInfo []RecognitionSentence `json:"sentence_info"`
}

// SpeakerTurn is a maximal run of consecutive sentences from one speaker
type SpeakerTurn struct {
	Speaker      string
	StartSeconds float64
	EndSeconds   float64
	Text         string
}

// Line renders the turn in the transcript wire format
func (t SpeakerTurn) Line() string {
	return fmt.Sprintf("%s %s [%.2fs - %.2fs]: %s",
		SpeakerPrefix, t.Speaker, t.StartSeconds, t.EndSeconds, t.Text)
}

// Ms builds a millisecond timestamp pointer
func Ms(v float64) *float64 {
	return &v
}

// TranscriptionResult is the archived form of a completed task
type TranscriptionResult struct {
	TaskID      string    `json:"task_id"`
	Name        string    `json:"request_name"`
	Source      string    `json:"source_type"`
	Text        string    `json:"-"`
	Speakers    []string  `json:"speakers"`
	Duration    float64   `json:"duration_seconds"`
	WordCount   int       `json:"word_count"`
	ProcessedAt time.Time `json:"created_at"`
	LocalPath   string    `json:"local_path,omitempty"`
	GDriveURL   string    `json:"gdrive_url,omitempty"`
}
