package minutes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

var (
	speakerLinePattern  = regexp.MustCompile(`^(` + types.SpeakerPrefix + `)\s*(\S+)(.*)`)
	speakerLabelPattern = regexp.MustCompile(`(?m)^(` + types.SpeakerPrefix + `\s*[^\[\n]+?)\s*\[`)
)

// ApplySpeakerNames replaces the "Speaker <id>" prefix of every transcript line with the
// mapped display name. Labels without a mapping, or mapped to an empty name, are kept.
func ApplySpeakerNames(transcript string, mapping map[string]string) string {
	lines := strings.Split(transcript, "\n")
	for i, line := range lines {
		m := speakerLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := m[1] + " " + m[2]
		name := strings.TrimSpace(mapping[label])
		if name == "" {
			name = label
		}
		lines[i] = name + m[3]
	}
	return strings.Join(lines, "\n")
}

// SpeakerLabels lists the distinct "Speaker <id>" labels found in transcript, sorted
func SpeakerLabels(transcript string) []string {
	seen := make(map[string]struct{})
	for _, m := range speakerLabelPattern.FindAllStringSubmatch(transcript, -1) {
		seen[strings.TrimSpace(m[1])] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
