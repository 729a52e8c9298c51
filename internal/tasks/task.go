package tasks

import (
	"time"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// Task is the record of one accepted upload
type Task struct {
	ID            string           `json:"task_id"`
	Status        types.TaskStatus `json:"status"`
	Transcription *string          `json:"transcription,omitempty"`
	Error         *string          `json:"error,omitempty"`
	Speakers      []string         `json:"speakers,omitempty"`
	Filename      string           `json:"filename"`
	Source        string           `json:"source"`
	ScratchPath   string           `json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// SetTranscription stores text as the task transcript
func (t *Task) SetTranscription(text string) {
	t.Transcription = &text
}

// SetError stores msg as the task error
func (t *Task) SetError(msg string) {
	t.Error = &msg
}

// clone returns a deep copy so callers never share memory with the store
func (t *Task) clone() Task {
	c := *t
	if t.Transcription != nil {
		v := *t.Transcription
		c.Transcription = &v
	}
	if t.Error != nil {
		v := *t.Error
		c.Error = &v
	}
	if t.Speakers != nil {
		c.Speakers = append([]string(nil), t.Speakers...)
	}
	return c
}

// isValidTransition enforces the forward-only task state machine.
// Every status is entered at most once, so from == to is never valid.
func isValidTransition(from, to types.TaskStatus) bool {
	switch from {
	case types.StatusSaved:
		return to == types.StatusProcessing || to == types.StatusFailed
	case types.StatusProcessing:
		return to == types.StatusFormatting || to == types.StatusFailed
	case types.StatusFormatting:
		return to == types.StatusCompleted || to == types.StatusFailed
	default:
		return false
	}
}
