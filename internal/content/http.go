package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medquest/internal/logger"
)

// HTTPSource loads content documents over HTTP with no-cache semantics.
// A non-2xx status or a non-JSON content type is a load error. The
// long-form bank is served from an ordered candidate list: sources are
// tried in sequence and the first success wins.
type HTTPSource struct {
	httpClient *http.Client
	notesURL   string
	bankURL    string
	longURLs   []string
	log        *logger.Logger
}

func NewHTTPSource(notesURL, bankURL string, longURLs []string) *HTTPSource {
	return &HTTPSource{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		notesURL:   notesURL,
		bankURL:    bankURL,
		longURLs:   longURLs,
		log:        logger.Default().WithPrefix("content"),
	}
}

var _ Source = (*HTTPSource)(nil)

func (s *HTTPSource) LoadNotes(ctx context.Context) (json.RawMessage, error) {
	return s.fetchJSON(ctx, s.notesURL)
}

func (s *HTTPSource) LoadQuestionBank(ctx context.Context, kind Kind) (json.RawMessage, error) {
	if kind != KindLongForm {
		return s.fetchJSON(ctx, s.bankURL)
	}

	urls := s.longURLs
	if len(urls) == 0 {
		// No dedicated long-form sources configured; the regular bank
		// serves both pools.
		urls = []string{s.bankURL}
	}
	var lastErr error
	for _, u := range urls {
		payload, err := s.fetchJSON(ctx, u)
		if err == nil {
			return payload, nil
		}
		s.log.Warn("long-form candidate failed: url=%s, err=%v", u, err)
		lastErr = err
	}
	return nil, fmt.Errorf("all %d long-form sources failed: %w", len(urls), lastErr)
}

func (s *HTTPSource) fetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	log := logger.FromContext(ctx).WithPrefix("content").WithField("url", url)

	log.Debug("fetching content document")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error("fetch failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("fetch failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "json") {
		log.Error("unexpected content type: %s", ct)
		return nil, fmt.Errorf("fetch %s: expected JSON, got content type %q", url, ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read body: %v", err)
		return nil, err
	}
	if !json.Valid(body) {
		log.Error("body is not valid JSON (%d bytes)", len(body))
		return nil, fmt.Errorf("fetch %s: body is not valid JSON", url)
	}

	log.Info("fetched %d bytes", len(body))
	return json.RawMessage(body), nil
}
