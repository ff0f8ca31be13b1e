package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP fetches http and https URLs.
type HTTP struct {
	Client *http.Client
	// MaxBytes caps the body size; zero means unlimited.
	MaxBytes int64
}

// NewHTTP returns an HTTP provider with the given request timeout.
func NewHTTP(timeout time.Duration, maxBytes int64) *HTTP {
	return &HTTP{Client: &http.Client{Timeout: timeout}, MaxBytes: maxBytes}
}

func (h *HTTP) Fetch(ctx context.Context, location string) (string, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return "", ErrNotHandled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	c := h.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RetrievalError{Location: location, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var body io.Reader = resp.Body
	if h.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, h.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	if h.MaxBytes > 0 && int64(len(data)) > h.MaxBytes {
		return "", &RetrievalError{Location: location, Err: fmt.Errorf("body exceeds %d bytes", h.MaxBytes)}
	}
	return string(data), nil
}
