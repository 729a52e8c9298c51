package minutes

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-assistant/internal/metrics"
)

// ErrNotConfigured is returned when no LLM endpoint is configured
var ErrNotConfigured = errors.New("LLM API URL is not configured")

// Completer produces a model answer for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Request is an edited transcript plus what is known about the meeting
type Request struct {
	Transcription string            `json:"transcription" validate:"required"`
	SpeakerNames  map[string]string `json:"speaker_names"`
	Meeting       MeetingInfo       `json:"meeting"`
}

// Result is the generated minutes and the suggested download name
type Result struct {
	Minutes  string `json:"minutes"`
	Filename string `json:"filename"`
}

// Generator turns transcripts into meeting minutes
type Generator struct {
	llm Completer
	log logrus.FieldLogger
	now func() time.Time
}

// NewGenerator creates a generator; llm may be nil when no endpoint is configured
func NewGenerator(llm Completer, log logrus.FieldLogger) *Generator {
	return &Generator{llm: llm, log: log, now: time.Now}
}

// Enabled reports whether an LLM endpoint is configured
func (g *Generator) Enabled() bool {
	return g != nil && g.llm != nil
}

// Generate applies the speaker names, prompts the model and cleans its answer
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if !g.Enabled() {
		return Result{}, ErrNotConfigured
	}

	now := g.now()
	transcript := ApplySpeakerNames(req.Transcription, req.SpeakerNames)
	prompt := BuildPrompt(req.Meeting, transcript, now)

	start := time.Now()
	content, err := g.llm.Complete(ctx, prompt)
	metrics.RecordMinutes(err)
	if err != nil {
		g.log.WithError(err).Error("Minutes generation failed")
		return Result{}, err
	}
	g.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Minutes generated")

	date := now
	if req.Meeting.Date != "" {
		if d, err := time.Parse(dateLayout, req.Meeting.Date); err == nil {
			date = d
		}
	}

	return Result{
		Minutes:  CleanMinutes(content),
		Filename: DownloadFilename(req.Meeting.Topic, date),
	}, nil
}
