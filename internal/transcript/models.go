// Package transcript parses time-coded transcript records returned by the
// transcription service and holds the normalized result.
package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"transcript-sync/internal/timecode"
)

// Line is one time-coded unit of transcript text. Offsets are whole seconds
// and End >= Start >= 0 for every Line produced by this package.
type Line struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// RawLine is a single undecoded record from the service's "lines" array. It is
// either a JSON string "[HH:MM:SS - HH:MM:SS] text" or an object
// {"start": ..., "end": ..., "text": ...}. Decoding a RawLine never fails so a
// bad record cannot reject the whole response; Parse decides per record.
type RawLine []byte

// UnmarshalJSON keeps a copy of the record bytes.
func (r *RawLine) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

// MarshalJSON writes the record back unchanged.
func (r RawLine) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// TextLine returns the RawLine for a string record.
func TextLine(s string) RawLine {
	b, _ := json.Marshal(s)
	return b
}

// RecordLine returns the RawLine for a structured record with second offsets.
func RecordLine(start, end int, text string) RawLine {
	b, _ := json.Marshal(Line{Start: start, End: end, Text: text})
	return b
}

// record is the structured form. start and end may be numbers (seconds,
// fractions truncated) or time-code strings.
type record struct {
	Start *offset `json:"start"`
	End   *offset `json:"end"`
	Text  string  `json:"text"`
}

type offset int

func (o *offset) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := timecode.Parse(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*o = offset(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("offset out of range: %v", f)
	}
	*o = offset(int(f))
	return nil
}
