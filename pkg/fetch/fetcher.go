package fetch

import (
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"linkaudit/pkg/config"
	"linkaudit/pkg/models"
)

// Fetcher performs single-page GETs and classifies each result as a tagged
// Outcome. Errors never escape: every failure mode becomes a
// TransportError or HTTPError outcome for the caller to record
type Fetcher struct {
	client *http.Client
	cfg    *config.Config
	log    *logrus.Entry
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, cfg *config.Config, log *logrus.Entry) *Fetcher {
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// Fetch GETs rawURL and returns the classified outcome, plus the page body
// for responses with status < 400 (nil otherwise)
// Transport errors and 5xx statuses are retried with exponential backoff
// and jitter when MaxRetries > 0; only the final attempt's outcome is
// returned, so the caller's histogram counts one entry per URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (models.Outcome, []byte) {
	var last models.Outcome
	reqLog := f.log.WithField("url", rawURL)

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "delay": delay}).Warn("Retrying request...")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return models.TransportError("context cancelled during retry delay: " + ctx.Err().Error()), nil
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			// Malformed URL; no retry will fix it
			return models.TransportError(err.Error()), nil
		}
		req.Header.Set("User-Agent", f.cfg.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			reqLog.WithField("attempt", attempt).Debugf("Request error: %v", err)
			last = models.TransportError(err.Error())
			if ctx.Err() != nil {
				return last, nil
			}
			continue
		}

		status := resp.StatusCode
		if status >= 400 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			last = models.HTTPError(status)
			if status >= 500 && attempt < f.cfg.MaxRetries {
				reqLog.WithFields(logrus.Fields{"status_code": status, "attempt": attempt}).Warn("Server error, retrying...")
				continue
			}
			return last, nil
		}

		// Success: read the body up to the size limit so link extraction
		// cannot OOM on an oversized page
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxPageSizeBytes))
		resp.Body.Close()
		if readErr != nil {
			last = models.TransportError("reading response body: " + readErr.Error())
			continue
		}
		return models.Success(status), body
	}

	return last, nil
}

// backoffDelay computes initial * 2^(attempt-1) capped at the max, with
// +/- 10% jitter
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	backoff := float64(f.cfg.InitialRetryDelay) * math.Pow(2, float64(attempt-1))
	delay := time.Duration(backoff)
	if delay <= 0 || delay > f.cfg.MaxRetryDelay {
		delay = f.cfg.MaxRetryDelay
	}
	var jitter time.Duration
	if delay > 0 {
		jitter = time.Duration(rand.Int63n(int64(delay)/5)) - (delay / 10)
	}
	if delay+jitter < 0 {
		return 0
	}
	return delay + jitter
}
