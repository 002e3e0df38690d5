package transcript

import (
	"strings"

	"transcript-sync/internal/timecode"
)

// Render writes lines as plain text, one "[HH:MM:SS - HH:MM:SS] text" per
// line. The output of Render parses back with ParseText for offsets under 24 hours.
func Render(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("[")
		b.WriteString(timecode.Format(l.Start))
		b.WriteString(" - ")
		b.WriteString(timecode.Format(l.End))
		b.WriteString("] ")
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}
