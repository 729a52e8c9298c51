package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

func TestRecordFinished(t *testing.T) {
	before := testutil.ToFloat64(TasksFinished.WithLabelValues("FAILED"))
	RecordFinished(types.StatusFailed)
	assert.Equal(t, before+1, testutil.ToFloat64(TasksFinished.WithLabelValues("FAILED")))
}

func TestSetEngineReady(t *testing.T) {
	SetEngineReady(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(EngineReady))
	SetEngineReady(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(EngineReady))
}

func TestRecordMinutesOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(MinutesRequests.WithLabelValues("success"))
	errBefore := testutil.ToFloat64(MinutesRequests.WithLabelValues("error"))

	RecordMinutes(nil)
	RecordMinutes(errors.New("llm down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(MinutesRequests.WithLabelValues("success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(MinutesRequests.WithLabelValues("error")))
}
