// Package backend talks to the REST backend that sends push notifications, analyzes
// camera frames and synthesizes speech.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	pushPath    = "/api/notifications/push"
	analyzePath = "/api/analyze-image"
	speakPath   = "/api/tts/speak"

	maxAudioBytes = 20 << 20
)

// ErrDisabled is returned by assistant calls when no backend URL is configured.
var ErrDisabled = errors.New("backend not configured")

// PushNotification is the body of a push request.
type PushNotification struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// AnalysisResult is the backend verdict for an analyzed image.
type AnalysisResult struct {
	Status   string `json:"status"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Service is the subset of the backend the handlers depend on.
type Service interface {
	Notify(ctx context.Context, n PushNotification) error
	AnalyzeImage(ctx context.Context, filename string, image io.Reader) (AnalysisResult, error)
	Speak(ctx context.Context, text string) ([]byte, string, error)
}

// StatusError carries a non-2xx backend response.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client. An empty baseURL turns push into a no-op.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a backend URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

func (c *Client) Notify(ctx context.Context, n PushNotification) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend push: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus("push", resp)
}

func (c *Client) AnalyzeImage(ctx context.Context, filename string, image io.Reader) (AnalysisResult, error) {
	if !c.Enabled() {
		return AnalysisResult{}, ErrDisabled
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return AnalysisResult{}, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return AnalysisResult{}, err
	}
	if err := mw.Close(); err != nil {
		return AnalysisResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, &buf)
	if err != nil {
		return AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("backend analyze: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus("analyze", resp); err != nil {
		return AnalysisResult{}, err
	}

	var result AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return AnalysisResult{}, fmt.Errorf("backend analyze: decode: %w", err)
	}
	return result, nil
}

// Speak returns the synthesized audio and its content type.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, string, error) {
	if !c.Enabled() {
		return nil, "", ErrDisabled
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speakPath, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("backend speak: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus("speak", resp); err != nil {
		return nil, "", err
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, "", fmt.Errorf("backend speak: read: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}
