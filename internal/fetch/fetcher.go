// Package fetch retrieves receipt renders from the upstream verification
// service, with bounded retries and write-through caching.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sufscan/receipt-processor/internal/cache"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/metrics"
)

// maxBodyBytes caps a single receipt render; real pages are a few hundred KB.
const maxBodyBytes = 8 << 20

// errRedirectRefused rejects upstream redirects: following one would fetch an
// arbitrary host and cache its body under the validated URL.
var errRedirectRefused = errors.New("upstream redirect refused")

// errBodyTooLarge marks a response body over the size cap.
var errBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher performs the network retrieval on a cache miss. All timing and retry
// policy lives here; no other pipeline stage retries.
type Fetcher struct {
	client     *http.Client
	store      *cache.Cache
	logger     *slog.Logger
	retries    int
	retryDelay time.Duration
	maxBody    int64
}

func New(cfg common.FetchConfig, store *cache.Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return errRedirectRefused
			},
		},
		store:      store,
		logger:     logger,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		maxBody:    maxBodyBytes,
	}
}

// Fetch retrieves the document at the canonical URL. Transient failures
// (network errors, timeouts, 5xx) are retried with exponential backoff up to
// the configured attempt count; other non-2xx responses fail immediately.
// On success the body is written through to the cache before returning; a
// cache write failure is logged and counted but never fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, canonicalURL string) (*entity.Document, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	var body []byte
	var contentTypeHeader string
	var lastErr error

	delay := f.retryDelay
	attempts := f.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.FetchAttempts.Inc()
		if attempt > 1 {
			metrics.FetchRetries.Inc()
			select {
			case <-ctx.Done():
				return nil, common.NewError(common.KindFetchUnavailable, "fetch cancelled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		b, ct, err := f.do(ctx, canonicalURL, reqID, attempt)
		if err == nil {
			body, contentTypeHeader = b, ct
			lastErr = nil
			break
		}
		lastErr = err
		if !retriable(err) {
			break
		}
		f.logger.Warn("fetch.retrying", "req_id", reqID, "attempt", attempt, "error", err)
	}

	if lastErr != nil {
		kind := common.KindFetchUnavailable
		if isTimeout(lastErr) {
			kind = common.KindFetchTimeout
		}
		f.logger.Error("fetch.failed",
			"req_id", reqID,
			"kind", string(kind),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", lastErr,
		)
		return nil, common.NewError(kind, "upstream fetch failed", lastErr)
	}

	ct := Classify(contentTypeHeader, body)
	doc := &entity.Document{
		SourceURL:   canonicalURL,
		Body:        body,
		ContentType: ct,
		FetchedAt:   time.Now().UTC(),
	}

	if _, err := f.store.Store(canonicalURL, body, ct); err != nil {
		metrics.CacheWriteFailures.Inc()
		f.logger.Warn("fetch.cache_store_failed", "req_id", reqID, "error", err)
	}

	f.logger.Info("fetch.ok",
		"req_id", reqID,
		"bytes", len(body),
		"content_type", string(ct),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (f *Fetcher) do(ctx context.Context, url, reqID string, attempt int) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.5")

	f.logger.Debug("fetch.request", "req_id", reqID, "attempt", attempt)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, "", &statusError{Code: resp.StatusCode}
	}
	if int64(len(raw)) > f.maxBody {
		return nil, "", fmt.Errorf("%w: over %d bytes", errBodyTooLarge, f.maxBody)
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

// statusError marks a non-2xx upstream response.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.Code)
}

// retriable reports whether an attempt error is worth another try: network
// failures and 5xx responses are, client errors like 404 are not.
func retriable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	if errors.Is(err, errRedirectRefused) || errors.Is(err, errBodyTooLarge) {
		return false
	}
	// Anything else that is not an HTTP status failure is a transport-level error.
	return !errors.Is(err, context.Canceled)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
