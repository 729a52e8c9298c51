package tasks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

var (
	// ErrTaskNotFound is returned for ids the store has never seen
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskExists is returned when creating a task under a taken id
	ErrTaskExists = errors.New("task already exists")
	// ErrInvalidTransition is returned when an update would move a task backwards or out of a terminal state
	ErrInvalidTransition = errors.New("invalid task transition")
)

// Store keeps every task of the process in memory.
// Reads return copies, so a reader never sees a half-applied update.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// Create registers a new task in SAVED state
func (s *Store) Create(task Task) error {
	if task.ID == "" {
		return errors.New("task id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	now := s.now()
	task.Status = types.StatusSaved
	task.CreatedAt = now
	task.UpdatedAt = now
	stored := task.clone()
	s.tasks[task.ID] = &stored
	return nil
}

// Get returns a snapshot of the task
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task.clone(), nil
}

// Update applies mutate to a copy of the task and commits it atomically.
// Every update is a status transition: nothing is committed when mutate fails or leaves
// the status unchanged or moves it backwards.
func (s *Store) Update(id string, mutate func(*Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	next := current.clone()
	if err := mutate(&next); err != nil {
		return err
	}
	if next.ID != current.ID {
		return errors.New("task id is immutable")
	}
	if !isValidTransition(current.Status, next.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next.Status)
	}

	next.UpdatedAt = s.now()
	s.tasks[id] = &next
	return nil
}

// List returns snapshots of all tasks, newest first
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
