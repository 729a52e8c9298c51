package queue

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/metrics"
	"github.com/codebuildervaibhav/meeting-assistant/internal/tasks"
	"github.com/codebuildervaibhav/meeting-assistant/internal/transcription"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

var (
	// ErrEngineUnavailable is returned when no recognition engine is loaded
	ErrEngineUnavailable = errors.New("transcription service not available")
	// ErrUnsupportedFormat is returned for file names with an extension the engine does not take
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrScratchWrite is returned when the upload could not be written to disk
	ErrScratchWrite = errors.New("failed to save uploaded file")
)

// Submission is one audio recording handed to the orchestrator
type Submission struct {
	Filename string
	Source   string
	Body     io.Reader
}

// Orchestrator accepts recordings, creates their tasks and schedules the workers
type Orchestrator struct {
	store      *tasks.Store
	pool       *WorkerPool
	recognizer *transcription.Recognizer
	tempDir    string
	log        logrus.FieldLogger
	newID      func() string
}

// NewOrchestrator creates an orchestrator writing scratch files to tempDir
func NewOrchestrator(
	store *tasks.Store,
	pool *WorkerPool,
	recognizer *transcription.Recognizer,
	tempDir string,
	log logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		pool:       pool,
		recognizer: recognizer,
		tempDir:    tempDir,
		log:        log,
		newID:      newTaskID,
	}
}

func newTaskID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Ready reports whether submissions can currently be accepted
func (o *Orchestrator) Ready() bool {
	return o.recognizer.Ready() && !o.pool.Closed()
}

// Submit stores the recording, creates a SAVED task and schedules it without waiting.
// When scheduling fails after the task exists, the task is moved to FAILED and its id
// is returned together with the error.
func (o *Orchestrator) Submit(sub Submission) (string, error) {
	if !o.recognizer.Ready() {
		return "", ErrEngineUnavailable
	}
	if o.pool.Closed() {
		return "", ErrPoolClosed
	}
	if !transcription.ValidateAudioFormat(sub.Filename) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(sub.Filename))
	}
	if sub.Source == "" {
		sub.Source = types.SourceUpload
	}

	id := o.newID()
	log := o.log.WithField("task_id", id)

	scratchPath := filepath.Join(o.tempDir, id+transcription.ScratchExtension(sub.Filename))
	if err := writeScratch(scratchPath, sub.Body); err != nil {
		log.WithError(err).Error("Failed to save uploaded file")
		return "", fmt.Errorf("%w: %w", ErrScratchWrite, err)
	}

	task := tasks.Task{
		ID:          id,
		Filename:    sub.Filename,
		Source:      sub.Source,
		ScratchPath: scratchPath,
	}
	if err := o.store.Create(task); err != nil {
		removeQuietly(log, scratchPath)
		return "", err
	}
	created, err := o.store.Get(id)
	if err != nil {
		removeQuietly(log, scratchPath)
		return "", err
	}

	if err := o.pool.Schedule(NewJob(created)); err != nil {
		removeQuietly(log, scratchPath)
		if uerr := o.store.Update(id, func(t *tasks.Task) error {
			t.Status = types.StatusFailed
			t.SetError(fmt.Sprintf("failed to schedule task: %v", err))
			t.SetTranscription(types.FailedTranscript)
			return nil
		}); uerr != nil {
			log.WithError(uerr).Error("Failed to record scheduling failure")
		}
		metrics.RecordFinished(types.StatusFailed)
		return id, err
	}

	metrics.RecordSubmitted(sub.Source)
	log.WithFields(logrus.Fields{
		"filename": sub.Filename,
		"source":   sub.Source,
	}).Info("Task accepted")
	return id, nil
}

// writeScratch copies body to path, leaving nothing behind on failure
func writeScratch(path string, body io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func removeQuietly(log logrus.FieldLogger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warnf("Failed to remove scratch file %s", path)
	}
}
