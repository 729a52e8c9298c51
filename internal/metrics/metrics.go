package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

var (
	// TasksSubmitted counts accepted uploads.
	// Labels: source (upload/gdrive/stream)
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_tasks_submitted_total",
			Help: "Total number of transcription tasks accepted, by source",
		},
		[]string{"source"},
	)

	// TasksFinished counts tasks reaching a terminal state.
	// Labels: status (COMPLETED/FAILED)
	TasksFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_tasks_finished_total",
			Help: "Total number of transcription tasks that reached a terminal state",
		},
		[]string{"status"},
	)

	// TasksInFlight tracks tasks that have been scheduled and not yet finished
	TasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meeting_tasks_in_flight",
			Help: "Number of transcription tasks currently being processed",
		},
	)

	// EngineReady reports whether the recognition engine loaded (0=no, 1=yes)
	EngineReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meeting_engine_ready",
			Help: "Recognition engine readiness (0=not loaded, 1=loaded)",
		},
	)

	// RecognitionDuration observes engine call time in seconds.
	// Labels: outcome (success/error)
	RecognitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meeting_recognition_duration_seconds",
			Help:    "Recognition engine call duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"outcome"},
	)

	// MinutesRequests counts LLM minutes generations.
	// Labels: outcome (success/error)
	MinutesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_minutes_requests_total",
			Help: "Total number of meeting minutes generation requests, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordSubmitted records an accepted task
func RecordSubmitted(source string) {
	TasksSubmitted.WithLabelValues(source).Inc()
}

// RecordFinished records a terminal state
func RecordFinished(status types.TaskStatus) {
	TasksFinished.WithLabelValues(string(status)).Inc()
}

// SetEngineReady sets the engine readiness gauge
func SetEngineReady(ready bool) {
	if ready {
		EngineReady.Set(1)
	} else {
		EngineReady.Set(0)
	}
}

// RecordRecognition records one engine call
func RecordRecognition(seconds float64, err error) {
	RecognitionDuration.WithLabelValues(outcome(err)).Observe(seconds)
}

// RecordMinutes records one minutes generation
func RecordMinutes(err error) {
	MinutesRequests.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
