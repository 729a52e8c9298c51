package transcription

import (
	"sort"
	"strings"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// FormatRecognitionResult flattens every item's sentences in input order and merges
// consecutive sentences of the same speaker into one transcript line per turn.
// Sentences with empty text or a missing timestamp are skipped.
func FormatRecognitionResult(items []types.RecognitionResultItem) (string, []string) {
	turns, speakers := ReduceTurns(items)
	return FormatTurns(turns), speakers
}

// FormatTurns renders one line per turn, or the fixed no-results text when there are none
func FormatTurns(turns []types.SpeakerTurn) string {
	if len(turns) == 0 {
		return types.NoResultsTranscript
	}

	lines := make([]string, len(turns))
	for i, turn := range turns {
		lines[i] = turn.Line()
	}
	return strings.Join(lines, "\n")
}

// ReduceTurns returns the speaker turns and the sorted set of speaker labels seen in items
func ReduceTurns(items []types.RecognitionResultItem) ([]types.SpeakerTurn, []string) {
	seen := make(map[string]struct{})
	var turns []types.SpeakerTurn

	var (
		current *types.SpeakerTurn
		buffer  []string
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(buffer, " ")
		turns = append(turns, *current)
		current = nil
		buffer = nil
	}

	for _, item := range items {
		for _, sent := range item.SentenceInfo {
			speaker := sent.Speaker
			if speaker == "" {
				speaker = types.UnknownSpeaker
			}
			seen[speaker] = struct{}{}

			text := strings.TrimSpace(sent.Text)
			if text == "" || sent.StartMs == nil || sent.EndMs == nil {
				continue
			}
			start := *sent.StartMs / 1000
			end := *sent.EndMs / 1000

			if current != nil && current.Speaker == speaker {
				buffer = append(buffer, text)
				current.EndSeconds = end
				continue
			}

			flush()
			current = &types.SpeakerTurn{
				Speaker:      speaker,
				StartSeconds: start,
				EndSeconds:   end,
			}
			buffer = []string{text}
		}
	}
	flush()

	if len(turns) == 0 {
		return nil, []string{}
	}

	speakers := make([]string, 0, len(seen))
	for s := range seen {
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)
	return turns, speakers
}
