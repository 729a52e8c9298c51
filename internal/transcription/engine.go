package transcription

import (
	"context"
	"errors"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// ErrEngineNotLoaded is returned when the recognition engine failed to start
var ErrEngineNotLoaded = errors.New("recognition engine is not loaded")

// Engine turns a local audio file into timed, speaker-tagged sentences
type Engine interface {
	Recognize(ctx context.Context, audioPath string) ([]types.RecognitionResultItem, error)
}

// Recognizer is the process-wide handle to the engine loaded at startup.
// A Recognizer built with a nil engine reports not ready and rejects every call.
type Recognizer struct {
	engine Engine
}

// NewRecognizer wraps engine, which may be nil when loading failed
func NewRecognizer(engine Engine) *Recognizer {
	return &Recognizer{engine: engine}
}

// liveness is implemented by engines backed by a process that can die
type liveness interface {
	Alive() bool
}

// Ready reports whether an engine is loaded and still running
func (r *Recognizer) Ready() bool {
	if r == nil || r.engine == nil {
		return false
	}
	if l, ok := r.engine.(liveness); ok {
		return l.Alive()
	}
	return true
}

// Recognize runs the engine on audioPath
func (r *Recognizer) Recognize(ctx context.Context, audioPath string) ([]types.RecognitionResultItem, error) {
	if !r.Ready() {
		return nil, ErrEngineNotLoaded
	}
	return r.engine.Recognize(ctx, audioPath)
}
