package relaylog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Entry is the wire payload for one log line.
type Entry struct {
	ID        string            `json:"id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	DeviceID  string            `json:"deviceId,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	File      string            `json:"file,omitempty"`
	Function  string            `json:"function,omitempty"`
	Line      int               `json:"line,omitempty"`
}

// Sender delivers a batch of entries. Implementations may fail the
// batch as a unit or per item; the logger treats any error as
// best-effort loss and moves on.
type Sender interface {
	Send(ctx context.Context, entries []Entry) error
}

// HTTPSender posts entries to the relay. The submit endpoint accepts
// exactly one entry per call, so a batch becomes one request per entry.
type HTTPSender struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPSender builds a sender against the relay base URL. token may
// be empty for an open relay.
func NewHTTPSender(baseURL, token string) *HTTPSender {
	return &HTTPSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Send posts each entry, collecting per-item failures.
func (s *HTTPSender) Send(ctx context.Context, entries []Entry) error {
	var errs []error
	for _, entry := range entries {
		if err := s.sendOne(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *HTTPSender) sendOne(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/logs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("submit failed: http %d", resp.StatusCode)
	}
	return nil
}
