package transcript

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"transcript-sync/internal/timecode"
)

// lineRe matches "[HH:MM:SS - HH:MM:SS] text".
var lineRe = regexp.MustCompile(`(?s)^\[(\d{2}):(\d{2}):(\d{2}) - (\d{2}):(\d{2}):(\d{2})\](.*)$`)

// Result is the outcome of Normalize.
type Result struct {
	Lines []Line
	// Dropped is the number of records that did not parse.
	Dropped int
}

// ParseText parses a string record. ok is false when s does not match the grammar.
func ParseText(s string) (line Line, ok bool) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Line{}, false
	}
	f := make([]int, 6)
	for i := range f {
		f[i], _ = strconv.Atoi(m[i+1])
	}
	return valid(Line{
		Start: timecode.ToSeconds(f[0], f[1], f[2]),
		End:   timecode.ToSeconds(f[3], f[4], f[5]),
		Text:  strings.TrimSpace(m[7]),
	})
}

// Parse turns one raw record into a Line. Structured records are taken as
// given; string records go through ParseText. Records that would break
// End >= Start >= 0 are rejected either way.
func Parse(raw RawLine) (line Line, ok bool) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return Line{}, false
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return Line{}, false
		}
		return ParseText(s)
	case '{':
		var rec record
		if err := json.Unmarshal(b, &rec); err != nil {
			return Line{}, false
		}
		if rec.Start == nil || rec.End == nil {
			return Line{}, false
		}
		return valid(Line{Start: int(*rec.Start), End: int(*rec.End), Text: rec.Text})
	default:
		return Line{}, false
	}
}

// Normalize parses every record in order and keeps the ones that parse.
// Order is preserved; nothing is sorted or deduplicated.
func Normalize(raws []RawLine) Result {
	res := Result{Lines: make([]Line, 0, len(raws))}
	for _, raw := range raws {
		line, ok := Parse(raw)
		if !ok {
			res.Dropped++
			continue
		}
		res.Lines = append(res.Lines, line)
	}
	return res
}

func valid(l Line) (Line, bool) {
	if l.Start < 0 || l.End < l.Start {
		return Line{}, false
	}
	return l, true
}
