package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"examboard/internal/registration/models"
)

// HTTPStore PUTs photos to a binary-object endpoint. The returned URL is
// rooted at the public base URL when set, otherwise at the endpoint itself.
type HTTPStore struct {
	endpoint  string
	publicURL string
	client    *http.Client
}

type HTTPOption func(*HTTPStore)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		s.client = c
	}
}

func WithPublicBaseURL(u string) HTTPOption {
	return func(s *HTTPStore) {
		s.publicURL = strings.TrimRight(u, "/")
	}
}

func NewHTTP(endpoint string, timeout time.Duration, opts ...HTTPOption) (*HTTPStore, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("upload endpoint is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	s := &HTTPStore{
		endpoint:  endpoint,
		publicURL: endpoint,
		client:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *HTTPStore) Upload(ctx context.Context, photo models.Photo) (string, error) {
	if len(photo.Data) == 0 {
		return "", errors.New("photo is empty")
	}
	key := objectKey(photo)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint+"/"+key, bytes.NewReader(photo.Data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = int64(len(photo.Data))
	if photo.ContentType != "" {
		req.Header.Set("Content-Type", photo.ContentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("put photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("put photo: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return s.publicURL + "/" + key, nil
}
