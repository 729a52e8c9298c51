package minutes

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const thinkEnd = "</think>\n"

var (
	leadingFence    = regexp.MustCompile("(?i)^```markdown\\s*")
	trailingFence   = regexp.MustCompile("\\s*```$")
	filenameUnsafe  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	filenameSpacing = regexp.MustCompile(`\s`)
)

// CleanMinutes strips reasoning output and the Markdown code fence some models wrap answers in
func CleanMinutes(content string) string {
	if strings.Contains(content, "</think>") {
		if i := strings.LastIndex(content, thinkEnd); i >= 0 {
			content = content[i+len(thinkEnd):]
		}
	}
	content = leadingFence.ReplaceAllString(content, "")
	content = trailingFence.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// DownloadFilename names the Markdown file offered for download
func DownloadFilename(topic string, date time.Time) string {
	name := strings.TrimSpace(filenameUnsafe.ReplaceAllString(topic, ""))
	if name == "" {
		name = "Untitled_Meeting"
	}
	name = filenameSpacing.ReplaceAllString(name, "_")
	return fmt.Sprintf("MeetingMinutes_%s_%s.md", name, date.Format("20060102"))
}
