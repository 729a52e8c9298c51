package minutes

import (
	"strings"
	"text/template"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	defaultTopic    = "Untitled Topic"
	defaultLocation = "Not specified"
)

// MeetingInfo describes the meeting the minutes are written for.
// Date and Time default to the moment the prompt is built.
type MeetingInfo struct {
	Topic    string `json:"topic" validate:"max=200"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     string `json:"time" validate:"omitempty,datetime=15:04"`
	Location string `json:"location" validate:"max=200"`
}

type promptData struct {
	Topic      string
	Date       string
	Time       string
	Location   string
	Transcript string
	Deadline1  string
	Deadline2  string
}

var promptTemplate = template.Must(template.New("minutes").Parse(`
Below is the transcript of a meeting recording, split by speaker. It may contain recognition mistakes and misattributed speakers. Write high quality meeting minutes in Markdown following these rules:

1.  **Corrections**: Fix obvious typos, filler words and small grammatical errors.
2.  **Speakers**: Merge content that is clearly from one person but split across label variants. When a segment is obviously attributed to the wrong speaker, use the context to fix it, or write "Unknown Speaker" when the context is not enough.
3.  **Structure**:
    - Use the headings ` + "`# Meeting Minutes`, `## Basic Information`, `## Main Discussion Points`, `## Resolutions/Conclusions`, `## Action Items`" + `.
    - Use bullet (` + "`-`" + `) or numbered (` + "`1.`" + `) lists for key points.
    - Put key terms, decisions and figures in **bold**.
4.  **Detail**:
    - Under "Main Discussion Points" list the 3 to 5 main topics, each summarised in 2 or 3 lines.
    - Under "Resolutions/Conclusions" state the decisions and agreements reached.
    - Under "Action Items" give an owner and a **suggested** deadline for each item as ` + "`- [Person's Name] — By YYYY-MM-DD: Task description`" + `. When the transcript names no owner or date, write "To be determined" or infer one if reasonable.

**Meeting Information**
- Topic: {{.Topic}}
- Time: {{.Date}} {{.Time}}
- Location: {{.Location}}

**Transcript:**
{{.Transcript}}

---
Write the minutes using this outline:
# Meeting Minutes

## Basic Information
- **Topic**: {{.Topic}}
- **Time**: {{.Date}} {{.Time}}
- **Location**: {{.Location}}
- **Attendees**: (List them when the transcript identifies them, otherwise write "Not recorded")

## Main Discussion Points
(Summarise each topic and attribute points to speakers where possible.)
1.  **Topic One**: ...
    - [Speaker A's Name or Role]: ...
    - [Speaker B's Name or Role]: ...
2.  **Topic Two**: ...
3.  **Topic Three**: ...

## Resolutions/Conclusions
(Summarise the outcomes of the meeting.)
- ...

## Action Items
(Use the format above. Write "To be determined" when owner or date is unknown.)
- [John Doe] — By {{.Deadline1}}: Compile and distribute meeting materials.
- [Jane Smith] — By {{.Deadline2}}: Confirm next steps with the supplier.
`))

// BuildPrompt renders the minutes instructions for transcript. now fills in a missing
// meeting date or time and anchors the example deadlines.
func BuildPrompt(info MeetingInfo, transcript string, now time.Time) string {
	data := promptData{
		Topic:      orDefault(info.Topic, defaultTopic),
		Date:       orDefault(info.Date, now.Format(dateLayout)),
		Time:       orDefault(info.Time, now.Format(timeLayout)),
		Location:   orDefault(info.Location, defaultLocation),
		Transcript: transcript,
		Deadline1:  now.AddDate(0, 0, 10).Format(dateLayout),
		Deadline2:  now.AddDate(0, 0, 15).Format(dateLayout),
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		// the template is static and data holds only strings
		panic(err)
	}
	return b.String()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
