package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
)

// ErrNoMatch is returned when no enrolled face is similar enough.
var ErrNoMatch = errors.New("no matching face")

// Matcher identifies the enrolled face shown in an image.
type Matcher interface {
	MatchFace(ctx context.Context, image []byte) (string, error)
}

// Client calls the face recognition collaborator over HTTP.
type Client struct {
	httpClient    *http.Client
	url           string
	apiKey        string
	minSimilarity float64
}

// NewClient creates a face match client from configuration
func NewClient(cfg config.FaceMatchConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		url:           cfg.URL,
		apiKey:        cfg.APIKey,
		minSimilarity: cfg.MinSimilarity,
	}
}

// APIError represents a non-2xx answer from the collaborator
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("face match API error [%d]: %s", e.StatusCode, e.Message)
}

type searchResponse struct {
	Matches []struct {
		FaceID     string  `json:"face_id"`
		Similarity float64 `json:"similarity"`
	} `json:"matches"`
	Message string `json:"message,omitempty"`
}

// MatchFace uploads image and returns the face id of the best match at or
// above the configured similarity.
func (c *Client) MatchFace(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build face match request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to build face match request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build face match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build face match request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call face match service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read face match response: %w", err)
	}

	var parsed searchResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.Unmarshal(raw, &parsed)
		msg := parsed.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode face match response: %w", err)
	}

	best, bestScore := "", -1.0
	for _, m := range parsed.Matches {
		if m.FaceID == "" || m.Similarity < c.minSimilarity {
			continue
		}
		if m.Similarity > bestScore {
			best, bestScore = m.FaceID, m.Similarity
		}
	}
	if best == "" {
		return "", ErrNoMatch
	}
	return best, nil
}

// Static always answers with the same face id. Used for kiosks in
// development and in tests.
type Static struct {
	FaceID string
	Err    error
}

func (s Static) MatchFace(ctx context.Context, image []byte) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.FaceID == "" {
		return "", ErrNoMatch
	}
	return s.FaceID, nil
}
