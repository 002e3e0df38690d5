package transcript

import (
	"strings"
)

// Store is an ordered, immutable set of transcript lines for one session.
// A new submission replaces the whole Store. A nil *Store is empty.
type Store struct {
	lines []Line
}

// Match is a search hit: the line and its zero-based position.
type Match struct {
	Index int  `json:"index"`
	Line  Line `json:"line"`
}

// NewStore returns a Store holding a copy of lines.
func NewStore(lines []Line) *Store {
	cp := make([]Line, len(lines))
	copy(cp, lines)
	return &Store{lines: cp}
}

// Len returns the number of lines.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Lines returns a copy of the lines in order.
func (s *Store) Lines() []Line {
	if s == nil {
		return []Line{}
	}
	cp := make([]Line, len(s.lines))
	copy(cp, s.lines)
	return cp
}

// Line returns the line at zero-based index i.
func (s *Store) Line(i int) (Line, bool) {
	if s == nil || i < 0 || i >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[i], true
}

// LineAt returns the first line whose [Start, End] range contains seconds.
func (s *Store) LineAt(seconds int) (int, Line, bool) {
	if s == nil {
		return -1, Line{}, false
	}
	for i, l := range s.lines {
		if l.Start <= seconds && seconds <= l.End {
			return i, l, true
		}
	}
	return -1, Line{}, false
}

// Search returns the lines whose text contains query, ignoring case, in order.
// An empty query matches nothing.
func (s *Store) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if s == nil || q == "" {
		return nil
	}
	var out []Match
	for i, l := range s.lines {
		if strings.Contains(strings.ToLower(l.Text), q) {
			out = append(out, Match{Index: i, Line: l})
		}
	}
	return out
}
