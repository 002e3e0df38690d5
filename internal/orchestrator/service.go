package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"transcript-sync/internal/media"
	"transcript-sync/internal/platform/metrics"

	"github.com/google/uuid"
)

// Options configures a Service. Zero values pick the defaults.
type Options struct {
	// SubmitTimeout bounds each transcription request. Zero means no limit
	// beyond the caller's context.
	SubmitTimeout  time.Duration
	MaxUploadBytes int64
	Log            *slog.Logger
	Metrics        *metrics.Metrics
}

// MediaLookup resolves media handles for serving.
type MediaLookup interface {
	Lookup(id string) (*media.Handle, error)
}

// Handles is the media handle store a Service needs.
type Handles interface {
	HandleStore
	MediaLookup
}

// Service creates sessions and routes operations to them.
type Service struct {
	repo        Repository
	transcriber Transcriber
	handles     Handles
	opts        Options
	log         *slog.Logger
}

// NewService returns a Service that keeps sessions in repo.
func NewService(repo Repository, transcriber Transcriber, handles Handles, opts Options) *Service {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, transcriber: transcriber, handles: handles, opts: opts, log: opts.Log}
}

// MaxUploadBytes returns the configured upload limit.
func (s *Service) MaxUploadBytes() int64 {
	return s.opts.MaxUploadBytes
}

// CreateSession starts a new idle session.
func (s *Service) CreateSession() (*Session, error) {
	sess := NewSession(SessionID(uuid.NewString()), SessionConfig{
		Transcriber:    s.transcriber,
		Handles:        s.handles,
		MaxUploadBytes: s.opts.MaxUploadBytes,
		Log:            s.log,
		Metrics:        s.opts.Metrics,
	})
	if err := s.repo.AddSession(sess); err != nil {
		return nil, err
	}
	s.log.Info("session created", slog.String("session_id", string(sess.ID())))
	return sess, nil
}

// Session returns the session for id, or ErrSessionNotFound.
func (s *Service) Session(id SessionID) (*Session, error) {
	sess, ok := s.repo.GetSession(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SubmitUpload runs an upload submission on the session for id.
func (s *Service) SubmitUpload(ctx context.Context, id SessionID, up Upload) (Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Snapshot{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = sess.SubmitUpload(ctx, up)
	return sess.Snapshot(), err
}

// SubmitURL runs a URL submission on the session for id.
func (s *Service) SubmitURL(ctx context.Context, id SessionID, mediaURL string, kind MediaKind) (Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return Snapshot{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	err = sess.SubmitURL(ctx, mediaURL, kind)
	return sess.Snapshot(), err
}

// EndSession removes and closes the session for id.
func (s *Service) EndSession(id SessionID) error {
	sess, ok := s.repo.RemoveSession(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.log.Info("session ended", slog.String("session_id", string(id)))
	return sess.Close()
}

// Media returns a live media handle.
func (s *Service) Media(id string) (*media.Handle, error) {
	return s.handles.Lookup(id)
}

// ActiveSessionCount returns the number of open sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

// Close ends every session.
func (s *Service) Close() error {
	var errs []error
	for _, sess := range s.repo.Sessions() {
		s.repo.RemoveSession(sess.ID())
		if err := sess.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.SubmitTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.SubmitTimeout)
	}
	return context.WithCancel(ctx)
}
