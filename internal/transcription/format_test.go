package transcription

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

func sentence(spk, text string, start, end float64) types.RecognitionSentence {
	return types.RecognitionSentence{Speaker: spk, Text: text, StartMs: types.Ms(start), EndMs: types.Ms(end)}
}

func items(sentences ...types.RecognitionSentence) []types.RecognitionResultItem {
	return []types.RecognitionResultItem{{SentenceInfo: sentences}}
}

func TestFormatMergesSameSpeaker(t *testing.T) {
	text, speakers := FormatRecognitionResult(items(
		sentence("0", "hello", 0, 1000),
		sentence("0", "world", 1000, 2000),
	))

	assert.Equal(t, "Speaker 0 [0.00s - 2.00s]: hello world", text)
	assert.Equal(t, []string{"0"}, speakers)
}

func TestFormatSplitsOnSpeakerChange(t *testing.T) {
	text, speakers := FormatRecognitionResult(items(
		sentence("0", "hi", 0, 500),
		sentence("1", "there", 500, 1000),
	))

	assert.Equal(t, "Speaker 0 [0.00s - 0.50s]: hi\nSpeaker 1 [0.50s - 1.00s]: there", text)
	assert.Equal(t, []string{"0", "1"}, speakers)
}

func TestFormatAlternatingSpeakersYieldOneTurnEach(t *testing.T) {
	var sents []types.RecognitionSentence
	for i := 0; i < 7; i++ {
		spk := "A"
		if i%2 == 1 {
			spk = "B"
		}
		sents = append(sents, sentence(spk, "line", float64(i*1000), float64(i*1000+900)))
	}

	text, _ := FormatRecognitionResult(items(sents...))
	assert.Len(t, strings.Split(text, "\n"), 7)
}

func TestFormatIgnoresNoiseSentences(t *testing.T) {
	clean := items(
		sentence("0", "one", 0, 1000),
		sentence("1", "two", 1000, 2000),
		sentence("0", "three", 2000, 3000),
	)
	noisy := items(
		sentence("0", "one", 0, 1000),
		sentence("1", "", 1000, 1100),
		types.RecognitionSentence{Speaker: "1", Text: "no start", EndMs: types.Ms(1200)},
		sentence("1", "two", 1000, 2000),
		types.RecognitionSentence{Speaker: "0", Text: "no end", StartMs: types.Ms(2000)},
		sentence("1", "   ", 1900, 1950),
		sentence("0", "three", 2000, 3000),
	)

	cleanText, _ := FormatRecognitionResult(clean)
	noisyText, _ := FormatRecognitionResult(noisy)
	assert.Equal(t, cleanText, noisyText)
}

func TestFormatNoiseDoesNotSplitTurns(t *testing.T) {
	text, speakers := FormatRecognitionResult(items(
		sentence("0", "a", 0, 100),
		types.RecognitionSentence{Speaker: "1", Text: "dropped", StartMs: types.Ms(100)},
		sentence("0", "b", 100, 200),
	))

	assert.Equal(t, "Speaker 0 [0.00s - 0.20s]: a b", text)
	assert.Equal(t, []string{"0", "1"}, speakers)
}

func TestFormatFlattensItemsInOrder(t *testing.T) {
	text, _ := FormatRecognitionResult([]types.RecognitionResultItem{
		{SentenceInfo: []types.RecognitionSentence{sentence("0", "first", 0, 1000)}},
		{SentenceInfo: []types.RecognitionSentence{sentence("0", "second", 1000, 1500)}},
		{SentenceInfo: nil},
		{SentenceInfo: []types.RecognitionSentence{sentence("2", "third", 1500, 2250)}},
	})

	assert.Equal(t, "Speaker 0 [0.00s - 1.50s]: first second\nSpeaker 2 [1.50s - 2.25s]: third", text)
}

func TestFormatEmptyInput(t *testing.T) {
	for name, in := range map[string][]types.RecognitionResultItem{
		"nil":      nil,
		"no items": {},
		"all noise": items(
			sentence("0", "", 0, 10),
			types.RecognitionSentence{Speaker: "1", Text: "x"},
		),
	} {
		t.Run(name, func(t *testing.T) {
			text, speakers := FormatRecognitionResult(in)
			assert.Equal(t, types.NoResultsTranscript, text)
			assert.Empty(t, speakers)
		})
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	in := items(
		sentence("0", "x", 0, 333),
		sentence("unknown", "y", 333, 667),
		sentence("0", "z", 667, 1001),
	)

	first, firstSpeakers := FormatRecognitionResult(in)
	second, secondSpeakers := FormatRecognitionResult(in)
	assert.Equal(t, first, second)
	assert.Equal(t, firstSpeakers, secondSpeakers)
	assert.Contains(t, first, "Speaker unknown [0.33s - 0.67s]: y")
}

func TestFormatDecodesEngineOutput(t *testing.T) {
	raw := `[{"key":"meeting","sentence_info":[
		{"spk":0,"text":"good morning","start":120,"end":1840},
		{"spk":0,"text":"everyone","start":1840,"end":2500},
		{"text":"who is this","start":2600,"end":3100},
		{"spk":"3","text":"me","start":3100,"end":3300}
	]}]`

	var result []types.RecognitionResultItem
	require.NoError(t, json.Unmarshal([]byte(raw), &result))

	text, speakers := FormatRecognitionResult(result)
	assert.Equal(t, strings.Join([]string{
		"Speaker 0 [0.12s - 2.50s]: good morning everyone",
		"Speaker unknown [2.60s - 3.10s]: who is this",
		"Speaker 3 [3.10s - 3.30s]: me",
	}, "\n"), text)
	assert.Equal(t, []string{"0", "3", "unknown"}, speakers)
}
