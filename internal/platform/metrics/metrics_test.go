package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape: expected 200, got %d", rec.Code)
	}
	b, _ := io.ReadAll(rec.Body)
	return string(b)
}

func TestMetrics_counters_and_gauges(t *testing.T) {
	m := New()
	m.IncSubmissions("upload", "ready")
	m.IncSubmissions("url", "failed")
	m.AddLines(5, 2)
	m.IncSeeks("embedded")

	out := scrape(t, m, func() {
		m.SetActiveSessions(3)
		m.SetMediaHandles(1)
	})

	for _, want := range []string{
		`transcript_submissions_total{flow="upload",outcome="ready"} 1`,
		`transcript_submissions_total{flow="url",outcome="failed"} 1`,
		`transcript_lines_parsed_total 5`,
		`transcript_lines_dropped_total 2`,
		`transcript_seeks_total{route="embedded"} 1`,
		`transcript_active_sessions 3`,
		`transcript_media_handles 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	for _, p := range []string{"/ok", "/bad", "/ok"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	out := scrape(t, m, nil)
	if !strings.Contains(out, "transcript_requests_total 3") {
		t.Errorf("requests counter: %s", out)
	}
	if !strings.Contains(out, "transcript_errors_total 1") {
		t.Errorf("errors counter: %s", out)
	}
}
