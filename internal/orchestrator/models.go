package orchestrator

import (
	"io"

	"transcript-sync/internal/playback"
	"transcript-sync/internal/transcript"
)

// SessionID uniquely identifies a transcript playback session.
type SessionID string

// RequestState is the submission lifecycle of a session.
type RequestState string

const (
	StateIdle       RequestState = "idle"
	StateSubmitting RequestState = "submitting"
	StateReady      RequestState = "ready"
	StateFailed     RequestState = "failed"
)

// Flow is the kind of submission.
type Flow string

const (
	FlowUpload Flow = "upload"
	FlowURL    Flow = "url"
)

// failureMessage is the user-facing message recorded when a flow fails.
func (f Flow) failureMessage() string {
	if f == FlowUpload {
		return "upload/transcribe failed"
	}
	return "URL transcription failed"
}

// MediaKind is the user-selected kind of media.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// Origin says where a MediaSource's reference points.
type Origin string

const (
	OriginLocalFile Origin = "local_file"
	OriginRemoteURL Origin = "remote_url"
)

// MediaSource is the playable reference paired with its kind.
// For local files Reference is the handle URL; for remote sources it is the
// submitted URL.
type MediaSource struct {
	Kind      MediaKind `json:"kind"`
	Origin    Origin    `json:"origin"`
	Reference string    `json:"reference"`

	// HandleID is set for local files; the session owns and releases it.
	HandleID string `json:"-"`
}

// Upload is a local file submission.
type Upload struct {
	Name string
	Kind MediaKind
	// Size is the payload size in bytes, or -1 if unknown.
	Size int64
	Body io.Reader
}

// Snapshot is a consistent read of a session's state. The transcript and
// source always come from the same successful submission.
type Snapshot struct {
	ID          SessionID           `json:"id"`
	State       RequestState        `json:"state"`
	Error       string              `json:"error,omitempty"`
	ErrorDetail string              `json:"error_detail,omitempty"`
	Source      *MediaSource        `json:"source,omitempty"`
	Language    string              `json:"language,omitempty"`
	Lines       []transcript.Line   `json:"lines"`
	Dropped     int                 `json:"dropped_lines"`
	Player      playback.Descriptor `json:"player"`
}

// SeekResult reports where a seek went.
type SeekResult struct {
	Route    playback.Route `json:"route"`
	Seconds  int            `json:"seconds"`
	Timecode string         `json:"timecode"`
	// Line is the index of the transcript line containing Seconds, if any.
	Line *int `json:"line,omitempty"`
}
