// Package timecode converts between "HH:MM:SS" time codes and integer second offsets.
package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const secondsPerDay = 24 * 3600

// ErrMalformed is returned by Parse when the input is not a H:MM:SS or HH:MM:SS time code.
var ErrMalformed = errors.New("malformed time code")

var timeCodeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)

// ToSeconds returns hh*3600 + mm*60 + ss. Components are not range checked,
// so "00:99:99" style values are accepted arithmetically.
func ToSeconds(hh, mm, ss int) int {
	return hh*3600 + mm*60 + ss
}

// Components splits seconds into the hour, minute and second fields Format prints.
// Offsets are taken modulo 24 hours.
func Components(seconds int) (hh, mm, ss int) {
	s := seconds % secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return s / 3600, (s % 3600) / 60, s % 60
}

// Format renders seconds as a zero-padded "HH:MM:SS" wall-clock string.
//
// Durations of 24 hours or more wrap: Format(86400+5) == "00:00:05".
func Format(seconds int) string {
	hh, mm, ss := Components(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

// Parse is the inverse of Format for "H:MM:SS" and "HH:MM:SS" strings.
func Parse(s string) (int, error) {
	m := timeCodeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.Atoi(m[3])
	return ToSeconds(hh, mm, ss), nil
}
