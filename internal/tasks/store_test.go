package tasks

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

func setStatus(status types.TaskStatus) func(*Task) error {
	return func(t *Task) error {
		t.Status = status
		return nil
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a", Filename: "call.wav", ScratchPath: "/tmp/a.wav"}))

	task, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSaved, task.Status)
	assert.Equal(t, "call.wav", task.Filename)
	assert.Nil(t, task.Transcription)
	assert.Nil(t, task.Error)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestStoreCreateDuplicate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))
	assert.ErrorIs(t, s.Create(Task{ID: "a"}), ErrTaskExists)
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore()
	task, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Empty(t, task.ID)
	assert.ErrorIs(t, s.Update("missing", setStatus(types.StatusProcessing)), ErrTaskNotFound)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))

	for _, status := range []types.TaskStatus{types.StatusProcessing, types.StatusFormatting} {
		require.NoError(t, s.Update("a", setStatus(status)))
	}
	require.NoError(t, s.Update("a", func(task *Task) error {
		task.Status = types.StatusCompleted
		task.SetTranscription("Speaker 0 [0.00s - 1.00s]: hi")
		task.Speakers = []string{"0"}
		return nil
	}))

	task, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, task.Status)
	require.NotNil(t, task.Transcription)
	assert.Equal(t, "Speaker 0 [0.00s - 1.00s]: hi", *task.Transcription)
}

func TestStoreRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		path []types.TaskStatus
		next types.TaskStatus
	}{
		{nil, types.StatusFormatting},
		{nil, types.StatusCompleted},
		{[]types.TaskStatus{types.StatusProcessing}, types.StatusSaved},
		{[]types.TaskStatus{types.StatusProcessing}, types.StatusCompleted},
		{[]types.TaskStatus{types.StatusProcessing, types.StatusFormatting}, types.StatusProcessing},
		{[]types.TaskStatus{types.StatusProcessing, types.StatusFormatting, types.StatusCompleted}, types.StatusFailed},
		{[]types.TaskStatus{types.StatusFailed}, types.StatusProcessing},
		{[]types.TaskStatus{types.StatusFailed}, types.StatusFailed},
		{nil, types.StatusSaved},
		{[]types.TaskStatus{types.StatusProcessing}, types.StatusProcessing},
		{[]types.TaskStatus{types.StatusProcessing, types.StatusFormatting}, types.StatusFormatting},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case%d_%s", i, tc.next), func(t *testing.T) {
			s := NewStore()
			require.NoError(t, s.Create(Task{ID: "a"}))
			for _, status := range tc.path {
				require.NoError(t, s.Update("a", setStatus(status)))
			}
			before, _ := s.Get("a")

			err := s.Update("a", setStatus(tc.next))
			assert.ErrorIs(t, err, ErrInvalidTransition)

			after, _ := s.Get("a")
			assert.Equal(t, before.Status, after.Status)
		})
	}
}

func TestStoreRejectsFieldOnlyUpdate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))
	require.NoError(t, s.Update("a", setStatus(types.StatusProcessing)))

	err := s.Update("a", func(task *Task) error {
		task.SetError("no status change")
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	task, _ := s.Get("a")
	assert.Equal(t, types.StatusProcessing, task.Status)
	assert.Nil(t, task.Error)
}

func TestStoreFailedFromEveryActiveState(t *testing.T) {
	for _, path := range [][]types.TaskStatus{
		nil,
		{types.StatusProcessing},
		{types.StatusProcessing, types.StatusFormatting},
	} {
		s := NewStore()
		require.NoError(t, s.Create(Task{ID: "a"}))
		for _, status := range path {
			require.NoError(t, s.Update("a", setStatus(status)))
		}
		assert.NoError(t, s.Update("a", setStatus(types.StatusFailed)))
	}
}

func TestStoreUpdateMutatorErrorCommitsNothing(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))

	boom := errors.New("boom")
	err := s.Update("a", func(task *Task) error {
		task.Status = types.StatusProcessing
		task.SetError("half written")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	task, _ := s.Get("a")
	assert.Equal(t, types.StatusSaved, task.Status)
	assert.Nil(t, task.Error)
}

func TestStoreSnapshotsAreIsolated(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))
	require.NoError(t, s.Update("a", func(task *Task) error {
		task.Status = types.StatusFailed
		task.SetError("first")
		task.Speakers = []string{"0"}
		return nil
	}))

	snap, _ := s.Get("a")
	*snap.Error = "changed by reader"
	snap.Speakers[0] = "9"

	again, _ := s.Get("a")
	assert.Equal(t, "first", *again.Error)
	assert.Equal(t, []string{"0"}, again.Speakers)
}

func TestStoreConcurrentReadersSeeWholeUpdates(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create(Task{ID: "a"}))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				task, err := s.Get("a")
				if err != nil {
					t.Error(err)
					return
				}
				// transcription and status are written together
				if task.Status == types.StatusCompleted && task.Transcription == nil {
					t.Error("completed task without transcription")
					return
				}
			}
		}()
	}

	require.NoError(t, s.Update("a", setStatus(types.StatusProcessing)))
	require.NoError(t, s.Update("a", setStatus(types.StatusFormatting)))
	require.NoError(t, s.Update("a", func(task *Task) error {
		task.Status = types.StatusCompleted
		task.SetTranscription("done")
		return nil
	}))
	close(stop)
	wg.Wait()
}

func TestStoreListNewestFirst(t *testing.T) {
	s := NewStore()
	base := s.now()
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	require.NoError(t, s.Create(Task{ID: "old"}))
	require.NoError(t, s.Create(Task{ID: "new"}))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}
