// Package upload posts annotated screenshots to an image hosting endpoint.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultField = "image"
	maxRetries   = 3
	initialDelay = 1 * time.Second
	// error bodies are truncated to this many bytes
	maxErrorBody = 512
)

var (
	ErrNotConfigured = errors.New("upload endpoint is not configured")
	ErrEmptyImage    = errors.New("refusing to upload an empty image")
	ErrNoURL         = errors.New("upload response did not contain a url")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool { return e.Code >= 500 }

// Response is the JSON body returned by the endpoint.
type Response struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

type Client struct {
	Endpoint string
	APIKey   string
	// Field is the multipart form field for the image; defaults to "image".
	Field string
	HTTP  *http.Client

	// retryDelay overrides the backoff base in tests.
	retryDelay time.Duration
}

func New(endpoint, apiKey, field string) *Client {
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Field:    field,
		HTTP:     &http.Client{Timeout: 45 * time.Second},
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.Endpoint) != ""
}

// Upload sends png and returns the public URL reported by the endpoint.
// Transport errors and 5xx responses are retried with a growing delay.
func (c *Client) Upload(ctx context.Context, png []byte) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if len(png) == 0 {
		return "", ErrEmptyImage
	}

	filename := fmt.Sprintf("screenshot-%s.png", uuid.NewString())
	body, contentType, err := c.encode(filename, png)
	if err != nil {
		return "", err
	}

	delayBase := c.retryDelay
	if delayBase <= 0 {
		delayBase = initialDelay
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(delayBase) * (1.5 * float64(attempt)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		url, err := c.post(ctx, body, contentType)
		if err == nil {
			return url, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return "", err
		}
		if errors.Is(err, ErrNoURL) || ctx.Err() != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("upload failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) encode(filename string, png []byte) ([]byte, string, error) {
	field := c.Field
	if field == "" {
		field = DefaultField
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return nil, "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "..."
		}
		return "", &StatusError{Code: resp.StatusCode, Body: text}
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.URL == "" {
		if out.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoURL, out.Error)
		}
		return "", ErrNoURL
	}
	return out.URL, nil
}
