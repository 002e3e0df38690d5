// Package transcribe is the HTTP client for the remote transcription service.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"transcript-sync/internal/transcript"
)

const (
	uploadPath = "/transcribe/upload"
	urlPath    = "/transcribe/youtube"

	// maxErrorBody bounds how much of a failed response is kept in StatusError.
	maxErrorBody = 4 << 10
)

// Result is the service's JSON response body.
type Result struct {
	Success  *bool                `json:"success,omitempty"`
	Language string               `json:"language,omitempty"`
	Lines    []transcript.RawLine `json:"lines"`
	Segments []transcript.RawLine `json:"segments,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Records returns the raw records to normalize: "lines", or "segments" when
// the body had no "lines" field.
func (r *Result) Records() []transcript.RawLine {
	if r.Lines == nil {
		return r.Segments
	}
	return r.Lines
}

// StatusError is returned when the service answers with anything other than
// 200, or with a 200 body flagged "success": false.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transcription service http %d", e.StatusCode)
	}
	return fmt.Sprintf("transcription service http %d: %s", e.StatusCode, e.Message)
}

// Client talks to the transcription service at a base URL.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient returns a Client for baseURL. A nil hc uses a client with no
// timeout; callers bound each call with the context they pass.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

// TranscribeUpload sends the media as multipart field "file".
func (c *Client) TranscribeUpload(ctx context.Context, filename string, media io.Reader) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, media); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// TranscribeURL asks the service to fetch and transcribe a remote URL.
func (c *Client) TranscribeURL(ctx context.Context, mediaURL string) (*Result, error) {
	b, err := json.Marshal(map[string]string{"url": mediaURL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+urlPath, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Result, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(b)}
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	if res.Success != nil && !*res.Success {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: res.Error}
	}
	return &res, nil
}

// errorMessage pulls "error" out of a JSON failure body, falling back to the raw text.
func errorMessage(b []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(b))
}
