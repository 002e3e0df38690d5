package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"transcript-sync/internal/media"
	"transcript-sync/internal/platform/metrics"
	"transcript-sync/internal/playback"
	"transcript-sync/internal/transcript"

	"github.com/go-chi/chi/v5"
)

const (
	transcriptContentType = "text/plain; charset=utf-8"
	eventStreamBuffer     = 16

	// multipartMemory is the part of an upload form kept in memory; the rest
	// spills to disk.
	multipartMemory = 8 << 20
)

// Handler exposes session HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes mounts the session and media endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.EndSession)
		r.Post("/upload", h.SubmitUpload)
		r.Post("/url", h.SubmitURL)
		r.Get("/transcript", h.GetTranscript)
		r.Put("/player", h.MountPlayer)
		r.Post("/seek", h.Seek)
		r.Get("/events", h.Events)
	})
	r.Get("/media/{handle_id}", h.ServeMedia)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type submitURLBody struct {
	URL       string    `json:"url"`
	MediaType MediaKind `json:"media_type"`
}

type seekBody struct {
	Seconds   *int    `json:"seconds"`
	Timestamp *string `json:"timestamp"`
	Line      *int    `json:"line"`
}

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateSession()
	if err != nil {
		h.log.Error("create session failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]SessionID{"id": sess.ID()})
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// EndSession handles DELETE /sessions/{session_id}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if err := h.svc.EndSession(id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Error("end session failed", slog.String("session_id", string(id)), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitUpload handles POST /sessions/{session_id}/upload.
// Body: multipart form with "file" and optional "media_type" ("video" or "audio").
func (h *Handler) SubmitUpload(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	// Leave headroom for the form fields around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxUploadBytes()+multipartMemory)

	up := Upload{Size: -1}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.log.Debug("invalid upload form", slog.String("error", err.Error()))
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid form", ErrValidation))
			return
		}
	} else {
		defer r.MultipartForm.RemoveAll()
		up.Kind = MediaKind(r.FormValue("media_type"))
		if f, hdr, err := r.FormFile("file"); err == nil {
			defer f.Close()
			up.Name, up.Size, up.Body = hdr.Filename, hdr.Size, f
		}
	}

	snap, err := h.svc.SubmitUpload(r.Context(), id, up)
	h.writeSubmit(w, snap, err)
}

// SubmitURL handles POST /sessions/{session_id}/url.
// Body: { "url": "https://...", "media_type": "video" }.
func (h *Handler) SubmitURL(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var body submitURLBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("invalid url body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid JSON body", ErrValidation))
		return
	}

	snap, err := h.svc.SubmitURL(r.Context(), id, body.URL, body.MediaType)
	h.writeSubmit(w, snap, err)
}

// GetTranscript handles GET /sessions/{session_id}/transcript[?q=term].
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	store := sess.Transcript()
	lines := store.Lines()
	if q := r.URL.Query().Get("q"); q != "" {
		matches := store.Search(q)
		lines = make([]transcript.Line, len(matches))
		for i, m := range matches {
			lines[i] = m.Line
		}
	}

	w.Header().Set("Content-Type", transcriptContentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(transcript.Render(lines)))
}

// MountPlayer handles PUT /sessions/{session_id}/player.
// Body: { "surface": "embedded", "play": true }.
func (h *Handler) MountPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var d playback.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid JSON body", ErrValidation))
		return
	}
	if err := sess.Mount(d); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	h.log.Debug("player mounted",
		slog.String("session_id", string(sess.ID())),
		slog.String("surface", string(d.Surface)))
	w.WriteHeader(http.StatusNoContent)
}

// Seek handles POST /sessions/{session_id}/seek.
// Body: exactly one of { "seconds": 90 }, { "timestamp": "00:01:30" }, { "line": 3 }.
func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var body seekBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid JSON body", ErrValidation))
		return
	}

	var (
		res SeekResult
		err error
	)
	switch {
	case body.Seconds != nil && body.Timestamp == nil && body.Line == nil:
		res, err = sess.Seek(*body.Seconds)
	case body.Timestamp != nil && body.Seconds == nil && body.Line == nil:
		res, err = sess.SeekTimestamp(*body.Timestamp)
	case body.Line != nil && body.Seconds == nil && body.Timestamp == nil:
		res, err = sess.SeekLine(*body.Line)
	default:
		err = fmt.Errorf("%w: give exactly one of seconds, timestamp or line", ErrInvalidSeek)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	h.log.Debug("seek",
		slog.String("session_id", string(sess.ID())),
		slog.Int("seconds", res.Seconds),
		slog.String("route", string(res.Route)))
	writeJSON(w, http.StatusOK, res)
}

// Events handles GET /sessions/{session_id}/events as a server-sent event
// stream of player commands for the mounted surface.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	ch, cancel := sess.Subscribe(eventStreamBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.log.Error("event stream unsupported", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(cmd)
			if err != nil {
				h.log.Error("encode command failed", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: command\ndata: %s\n\n", b); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// ServeMedia handles GET /media/{handle_id}.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	hd, err := h.svc.Media(chi.URLParam(r, "handle_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	f, err := os.Open(hd.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, media.ErrHandleNotFound)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.ServeContent(w, r, hd.Name, fi.ModTime(), f)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if strings.TrimSpace(string(id)) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: missing session id", ErrValidation))
		return nil, false
	}
	sess, err := h.svc.Session(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeSubmit(w http.ResponseWriter, snap Snapshot, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("submission failed", slog.String("session_id", string(snap.ID)), slog.String("error", err.Error()))
	}
	if status == http.StatusBadGateway {
		// The failure is part of the session state; return it with the snapshot.
		writeJSON(w, status, snap)
		return
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	var submitErr *SubmitError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrValidation), errors.Is(err, playback.ErrUnknownSurface):
		return http.StatusBadRequest
	case errors.Is(err, ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	case errors.As(err, &submitErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Success: false, Error: err.Error()})
}
