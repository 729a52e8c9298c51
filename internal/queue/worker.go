package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/codebuildervaibhav/meeting-assistant/internal/metrics"
	"github.com/codebuildervaibhav/meeting-assistant/internal/storage"
	"github.com/codebuildervaibhav/meeting-assistant/internal/tasks"
	"github.com/codebuildervaibhav/meeting-assistant/internal/transcription"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// ErrPoolClosed is returned when work is scheduled after Shutdown started
var ErrPoolClosed = errors.New("worker pool is shut down")

// WorkerPool runs one goroutine per scheduled task. Recognition itself is
// bounded by a fixed number of slots since the engine is CPU/GPU bound.
type WorkerPool struct {
	store      *tasks.Store
	recognizer *transcription.Recognizer
	archive    *storage.Archive
	slots      *semaphore.Weighted
	log        logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool with slotCount concurrent recognitions. archive may be nil.
func NewWorkerPool(
	store *tasks.Store,
	recognizer *transcription.Recognizer,
	slotCount int,
	archive *storage.Archive,
	log logrus.FieldLogger,
) *WorkerPool {
	if slotCount < 1 {
		slotCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		store:      store,
		recognizer: recognizer,
		archive:    archive,
		slots:      semaphore.NewWeighted(int64(slotCount)),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Closed reports whether Shutdown has been called
func (wp *WorkerPool) Closed() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.closed
}

// Schedule starts processing job in the background and returns immediately
func (wp *WorkerPool) Schedule(job *Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.closed {
		return ErrPoolClosed
	}

	wp.wg.Add(1)
	metrics.TasksInFlight.Inc()
	go wp.run(job)

	wp.log.WithFields(logrus.Fields{
		"task_id": job.TaskID,
		"source":  job.SourceType,
		"name":    job.RequestName,
	}).Info("Task scheduled")
	return nil
}

// Shutdown stops accepting work and waits for in-flight tasks.
// When ctx expires first, pending slot waits are cancelled and Shutdown returns without
// waiting for recognitions already inside the engine.
func (wp *WorkerPool) Shutdown(ctx context.Context) error {
	wp.mu.Lock()
	wp.closed = true
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.cancel()
		return nil
	case <-ctx.Done():
		wp.cancel()
		return ctx.Err()
	}
}

type outcome struct {
	text     string
	speakers []string
	duration float64
}

// run owns the job from scheduling until its terminal state
func (wp *WorkerPool) run(job *Job) {
	defer wp.wg.Done()
	defer metrics.TasksInFlight.Dec()

	log := wp.log.WithField("task_id", job.TaskID)

	out, err := wp.execute(log, job)
	wp.cleanupScratch(log, job.ScratchPath)

	if err != nil {
		log.WithError(err).Error("Task failed")
		wp.fail(log, job.TaskID, err)
		return
	}

	if err := wp.store.Update(job.TaskID, func(t *tasks.Task) error {
		t.Status = types.StatusCompleted
		t.SetTranscription(out.text)
		t.Speakers = out.speakers
		return nil
	}); err != nil {
		log.WithError(err).Error("Failed to record completed task")
		return
	}
	metrics.RecordFinished(types.StatusCompleted)
	log.WithField("speakers", len(out.speakers)).Info("Task completed")

	if wp.archive != nil {
		wp.archive.Store(wp.ctx, &types.TranscriptionResult{
			TaskID:      job.TaskID,
			Name:        job.RequestName,
			Source:      job.SourceType,
			Text:        out.text,
			Speakers:    out.speakers,
			Duration:    out.duration,
			WordCount:   len(strings.Fields(out.text)),
			ProcessedAt: time.Now(),
		})
	}
}

// execute runs recognition and formatting. A panic anywhere is returned as an error.
func (wp *WorkerPool) execute(log logrus.FieldLogger, job *Job) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("PANIC processing task: %v\n%s", r, string(debug.Stack()))
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	if err := wp.setStatus(job.TaskID, types.StatusProcessing); err != nil {
		return out, err
	}

	if err := wp.slots.Acquire(wp.ctx, 1); err != nil {
		return out, fmt.Errorf("no recognition slot: %w", err)
	}
	start := time.Now()
	items, err := wp.recognizer.Recognize(wp.ctx, job.ScratchPath)
	wp.slots.Release(1)
	metrics.RecordRecognition(time.Since(start).Seconds(), err)
	if err != nil {
		return out, fmt.Errorf("recognition failed: %w", err)
	}
	log.WithField("items", len(items)).Debug("Recognition finished")

	if err := wp.setStatus(job.TaskID, types.StatusFormatting); err != nil {
		return out, err
	}

	if len(items) == 0 {
		return outcome{text: types.EmptyResultTranscript, speakers: []string{}}, nil
	}

	turns, speakers := transcription.ReduceTurns(items)
	out = outcome{
		text:     transcription.FormatTurns(turns),
		speakers: speakers,
	}
	if n := len(turns); n > 0 {
		out.duration = turns[n-1].EndSeconds
	}
	return out, nil
}

func (wp *WorkerPool) setStatus(id string, status types.TaskStatus) error {
	return wp.store.Update(id, func(t *tasks.Task) error {
		t.Status = status
		return nil
	})
}

// fail moves the task to FAILED, keeping any transcript already recorded
func (wp *WorkerPool) fail(log logrus.FieldLogger, id string, cause error) {
	err := wp.store.Update(id, func(t *tasks.Task) error {
		t.Status = types.StatusFailed
		t.SetError(cause.Error())
		if t.Transcription == nil {
			t.SetTranscription(types.FailedTranscript)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to record task failure")
		return
	}
	metrics.RecordFinished(types.StatusFailed)
}

// cleanupScratch removes the uploaded audio; failures are only logged
func (wp *WorkerPool) cleanupScratch(log logrus.FieldLogger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warnf("Failed to cleanup scratch file %s", path)
	}
}
