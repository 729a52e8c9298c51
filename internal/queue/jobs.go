package queue

import (
	"time"

	"github.com/codebuildervaibhav/meeting-assistant/internal/tasks"
)

// Job is the unit of background work for one accepted task
type Job struct {
	TaskID      string
	RequestName string
	SourceType  string
	ScratchPath string
	AcceptedAt  time.Time
}

// NewJob builds the job that processes task
func NewJob(task tasks.Task) *Job {
	return &Job{
		TaskID:      task.ID,
		RequestName: task.Filename,
		SourceType:  task.Source,
		ScratchPath: task.ScratchPath,
		AcceptedAt:  task.CreatedAt,
	}
}
