package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"transcript-sync/internal/media"
	"transcript-sync/internal/platform/metrics"
	"transcript-sync/internal/playback"
	"transcript-sync/internal/timecode"
	"transcript-sync/internal/transcribe"
	"transcript-sync/internal/transcript"
)

// DefaultMaxUploadBytes is the upload size limit when none is configured.
const DefaultMaxUploadBytes = 100 << 20

// supportedExtensions are the upload types the transcription service accepts.
var supportedExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".mp4": true,
	".m4a": true,
}

var (
	// ErrValidation wraps every submission rejected before any network call.
	ErrValidation = errors.New("validation error")

	ErrNoFile          = fmt.Errorf("%w: no file selected", ErrValidation)
	ErrNoURL           = fmt.Errorf("%w: no URL provided", ErrValidation)
	ErrUnsupportedFile = fmt.Errorf("%w: unsupported file type", ErrValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrValidation)
	ErrInvalidKind     = fmt.Errorf("%w: media type must be video or audio", ErrValidation)
	ErrInvalidSeek     = fmt.Errorf("%w: invalid seek target", ErrValidation)

	// ErrSubmissionInFlight is returned when a submission is attempted while
	// another one is outstanding. The attempt has no effect.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrSessionClosed is returned by a session after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrLineNotFound is returned when seeking to a line index that does not exist.
	ErrLineNotFound = errors.New("transcript line not found")
)

// SubmitError is a failed transcription request. The session is left in
// StateFailed with Message; earlier results are kept.
type SubmitError struct {
	Flow    Flow
	Message string
	Cause   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// Transcriber is the remote transcription service.
type Transcriber interface {
	TranscribeUpload(ctx context.Context, filename string, media io.Reader) (*transcribe.Result, error)
	TranscribeURL(ctx context.Context, mediaURL string) (*transcribe.Result, error)
}

// HandleStore creates and releases the local copies uploads are played from.
type HandleStore interface {
	Acquire(name string, r io.Reader) (*media.Handle, error)
	Open(id string) (*os.File, error)
	Release(id string) error
}

// SessionConfig carries a session's collaborators.
type SessionConfig struct {
	Transcriber    Transcriber
	Handles        HandleStore
	MaxUploadBytes int64
	Log            *slog.Logger
	// Metrics may be nil to disable metric recording (e.g. in tests).
	Metrics *metrics.Metrics
}

// Session is one user's submission state machine plus the transcript, media
// source and player it produced. Every field below mu changes only inside the
// transition methods; readers get consistent Snapshots.
type Session struct {
	id     SessionID
	cfg    SessionConfig
	log    *slog.Logger
	hub    *playback.Hub
	syncer *playback.Synchronizer

	mu        sync.Mutex
	state     RequestState
	errMsg    string
	errDetail string
	prev      [3]string // state, errMsg, errDetail before begin
	store     *transcript.Store
	source    *MediaSource
	lang      string
	dropped   int
	player    playback.Descriptor
	closed    bool
}

// NewSession returns an idle session.
func NewSession(id SessionID, cfg SessionConfig) *Session {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("session_id", string(id)))

	s := &Session{
		id:     id,
		cfg:    cfg,
		log:    log,
		hub:    playback.NewHub(),
		state:  StateIdle,
		player: playback.Descriptor{Surface: playback.SurfaceNone},
	}
	s.syncer = playback.NewSynchronizer(s.mounted, log)
	return s
}

// ID returns the session ID.
func (s *Session) ID() SessionID {
	return s.id
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		Error:       s.errMsg,
		ErrorDetail: s.errDetail,
		Language:    s.lang,
		Lines:       s.store.Lines(),
		Dropped:     s.dropped,
		Player:      s.player,
	}
	if s.source != nil {
		src := *s.source
		snap.Source = &src
	}
	return snap
}

// Transcript returns the current transcript store. It is immutable; a later
// submission swaps in a new one.
func (s *Session) Transcript() *transcript.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// SubmitUpload transcribes a local file. Validation runs before anything else.
// While another submission is in flight it returns ErrSubmissionInFlight and
// changes nothing.
func (s *Session) SubmitUpload(ctx context.Context, up Upload) error {
	if err := s.validateUpload(up); err != nil {
		s.reject(FlowUpload, err)
		return err
	}
	if err := s.begin(FlowUpload); err != nil {
		return err
	}

	h, err := s.cfg.Handles.Acquire(up.Name, io.LimitReader(up.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return s.fail(FlowUpload, err)
	}
	if h.Size > s.cfg.MaxUploadBytes {
		s.releaseHandle(h.ID)
		s.abort()
		s.reject(FlowUpload, ErrFileTooLarge)
		return ErrFileTooLarge
	}

	f, err := s.cfg.Handles.Open(h.ID)
	if err != nil {
		s.releaseHandle(h.ID)
		return s.fail(FlowUpload, err)
	}
	res, err := s.cfg.Transcriber.TranscribeUpload(ctx, up.Name, f)
	f.Close()
	if err != nil {
		s.releaseHandle(h.ID)
		return s.fail(FlowUpload, err)
	}

	return s.commit(FlowUpload, MediaSource{
		Kind:      kindOrDefault(up.Kind),
		Origin:    OriginLocalFile,
		Reference: h.URL(),
		HandleID:  h.ID,
	}, res)
}

// SubmitURL transcribes remote media by URL, with the same guards as SubmitUpload.
func (s *Session) SubmitURL(ctx context.Context, mediaURL string, kind MediaKind) error {
	mediaURL = strings.TrimSpace(mediaURL)
	if err := validateURL(mediaURL, kind); err != nil {
		s.reject(FlowURL, err)
		return err
	}
	if err := s.begin(FlowURL); err != nil {
		return err
	}

	res, err := s.cfg.Transcriber.TranscribeURL(ctx, mediaURL)
	if err != nil {
		return s.fail(FlowURL, err)
	}

	return s.commit(FlowURL, MediaSource{
		Kind:      kindOrDefault(kind),
		Origin:    OriginRemoteURL,
		Reference: mediaURL,
	}, res)
}

// Mount records the player surface the client has mounted.
func (s *Session) Mount(d playback.Descriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.player = d
	return nil
}

// Seek jumps the mounted player to seconds.
func (s *Session) Seek(seconds int) (SeekResult, error) {
	if seconds < 0 {
		return SeekResult{}, ErrInvalidSeek
	}
	s.mu.Lock()
	closed, store := s.closed, s.store
	s.mu.Unlock()
	if closed {
		return SeekResult{}, ErrSessionClosed
	}

	route := s.syncer.Seek(seconds)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncSeeks(string(route))
	}

	res := SeekResult{Route: route, Seconds: seconds, Timecode: timecode.Format(seconds)}
	if i, _, ok := store.LineAt(seconds); ok {
		res.Line = &i
	}
	return res, nil
}

// SeekLine jumps to the start of the transcript line at zero-based index i.
func (s *Session) SeekLine(i int) (SeekResult, error) {
	line, ok := s.Transcript().Line(i)
	if !ok {
		return SeekResult{}, ErrLineNotFound
	}
	res, err := s.Seek(line.Start)
	if err != nil {
		return res, err
	}
	res.Line = &i
	return res, nil
}

// SeekTimestamp jumps to an "HH:MM:SS" time code.
func (s *Session) SeekTimestamp(tc string) (SeekResult, error) {
	seconds, err := timecode.Parse(strings.TrimSpace(tc))
	if err != nil {
		return SeekResult{}, fmt.Errorf("%w: %v", ErrInvalidSeek, err)
	}
	return s.Seek(seconds)
}

// Subscribe streams player commands for this session. cancel must be called.
func (s *Session) Subscribe(buffer int) (<-chan playback.Command, func()) {
	return s.hub.Subscribe(buffer)
}

// Close tears the session down: its media handle is released and player
// subscribers are disconnected. A submission still in flight commits nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	src := s.source
	s.player = playback.Descriptor{Surface: playback.SurfaceNone}
	s.mu.Unlock()

	s.hub.Close()
	if src != nil && src.HandleID != "" {
		return s.cfg.Handles.Release(src.HandleID)
	}
	return nil
}

// mounted builds the live player from the registered descriptor.
func (s *Session) mounted() playback.Player {
	s.mu.Lock()
	d := s.player
	s.mu.Unlock()
	return playback.Mount(d, s.hub)
}

// begin moves to StateSubmitting unless a submission is outstanding.
func (s *Session) begin(flow Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state == StateSubmitting {
		s.log.Info("submission ignored, another is in flight", slog.String("flow", string(flow)))
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.IncSubmissions(string(flow), "rejected")
		}
		return ErrSubmissionInFlight
	}
	s.prev = [3]string{string(s.state), s.errMsg, s.errDetail}
	s.state = StateSubmitting
	s.errMsg, s.errDetail = "", ""
	return nil
}

// abort undoes begin.
func (s *Session) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitting {
		return
	}
	s.state = RequestState(s.prev[0])
	s.errMsg, s.errDetail = s.prev[1], s.prev[2]
}

// commit swaps in the new transcript and source together and releases the
// superseded handle.
func (s *Session) commit(flow Flow, src MediaSource, res *transcribe.Result) error {
	if res == nil {
		if src.HandleID != "" {
			s.releaseHandle(src.HandleID)
		}
		return s.fail(flow, errors.New("empty transcription response"))
	}
	norm := transcript.Normalize(res.Records())
	store := transcript.NewStore(norm.Lines)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if src.HandleID != "" {
			s.releaseHandle(src.HandleID)
		}
		return ErrSessionClosed
	}
	old := s.source
	s.state = StateReady
	s.errMsg, s.errDetail = "", ""
	s.store = store
	s.source = &src
	s.lang = res.Language
	s.dropped = norm.Dropped
	s.player = playback.DefaultDescriptor(src.Origin == OriginLocalFile, src.Reference)
	s.mu.Unlock()

	if old != nil && old.HandleID != "" && old.HandleID != src.HandleID {
		s.releaseHandle(old.HandleID)
	}

	s.log.Info("transcription ready",
		slog.String("flow", string(flow)),
		slog.String("origin", string(src.Origin)),
		slog.Int("lines", len(norm.Lines)),
		slog.Int("dropped_lines", norm.Dropped))
	if norm.Dropped > 0 {
		s.log.Warn("malformed transcript lines dropped", slog.Int("dropped_lines", norm.Dropped))
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncSubmissions(string(flow), "ready")
		s.cfg.Metrics.AddLines(len(norm.Lines), norm.Dropped)
	}
	return nil
}

// fail records a failed request. Transcript and source stay as they were.
func (s *Session) fail(flow Flow, cause error) error {
	e := &SubmitError{Flow: flow, Message: flow.failureMessage(), Cause: cause}

	s.mu.Lock()
	if !s.closed {
		s.state = StateFailed
		s.errMsg = e.Message
		s.errDetail = cause.Error()
	}
	s.mu.Unlock()

	s.log.Error("transcription failed",
		slog.String("flow", string(flow)),
		slog.String("error", cause.Error()))
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncSubmissions(string(flow), "failed")
	}
	return e
}

func (s *Session) reject(flow Flow, err error) {
	s.log.Info("submission rejected", slog.String("flow", string(flow)), slog.String("error", err.Error()))
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.IncSubmissions(string(flow), "rejected")
	}
}

func (s *Session) releaseHandle(id string) {
	if err := s.cfg.Handles.Release(id); err != nil {
		s.log.Error("release media handle failed", slog.String("handle_id", id), slog.String("error", err.Error()))
	}
}

func (s *Session) validateUpload(up Upload) error {
	if up.Body == nil || strings.TrimSpace(up.Name) == "" {
		return ErrNoFile
	}
	if up.Kind != "" && up.Kind != KindVideo && up.Kind != KindAudio {
		return ErrInvalidKind
	}
	if !supportedExtensions[strings.ToLower(filepath.Ext(up.Name))] {
		return ErrUnsupportedFile
	}
	if up.Size > s.cfg.MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}

func validateURL(mediaURL string, kind MediaKind) error {
	if mediaURL == "" {
		return ErrNoURL
	}
	if kind != "" && kind != KindVideo && kind != KindAudio {
		return ErrInvalidKind
	}
	return nil
}

func kindOrDefault(k MediaKind) MediaKind {
	if k == "" {
		return KindVideo
	}
	return k
}
