package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkaudit/pkg/config"
	"linkaudit/pkg/models"
)

// testConfig returns a validated Config with fast retry delays for testing
func testConfig(t *testing.T, maxRetries int) *config.Config {
	t.Helper()
	cfg := &config.Config{
		BaseURL:           "https://example.com",
		MaxRetries:        maxRetries,
		InitialRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:     50 * time.Millisecond,
	}
	_, err := cfg.Validate()
	require.NoError(t, err)
	return cfg
}

// testLogger returns a logger that discards output
func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// mockServer creates an httptest.Server that returns status codes in
// sequence, repeating the last one, with the given body on success
func mockServer(t *testing.T, statusCodes []int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attempts := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attempts.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1
		}
		w.WriteHeader(statusCodes[idx])
		if statusCodes[idx] < 400 {
			io.WriteString(w, body)
		}
	}))
	t.Cleanup(server.Close)
	return server, attempts
}

func TestFetch_Success(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK}, "<html>hello</html>")
	f := NewFetcher(server.Client(), testConfig(t, 0), testLogger())

	outcome, body := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, "<html>hello</html>", string(body))
	assert.EqualValues(t, 1, attempts.Load())
}

func TestFetch_HTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"404 Not Found", http.StatusNotFound},
		{"400 Bad Request", http.StatusBadRequest},
		{"403 Forbidden", http.StatusForbidden},
		{"500 Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, attempts := mockServer(t, []int{tt.status}, "")
			f := NewFetcher(server.Client(), testConfig(t, 0), testLogger())

			outcome, body := f.Fetch(context.Background(), server.URL)

			assert.Equal(t, models.OutcomeHTTPError, outcome.Kind)
			assert.Equal(t, tt.status, outcome.Status)
			assert.Nil(t, body)
			assert.True(t, outcome.Broken())
			assert.EqualValues(t, 1, attempts.Load(), "no retries by default")
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := server.Client()
	server.Close() // connection refused from here on

	f := NewFetcher(client, testConfig(t, 0), testLogger())
	outcome, body := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, models.OutcomeTransportError, outcome.Kind)
	assert.NotEmpty(t, outcome.Description)
	assert.Nil(t, body)
	assert.Equal(t, models.TransportErrorKey, outcome.HistogramKey())
}

func TestFetch_RetriesServerErrorThenSucceeds(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError, http.StatusOK}, "ok")
	f := NewFetcher(server.Client(), testConfig(t, 2), testLogger())

	outcome, body := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 2, attempts.Load())
}

func TestFetch_RetriesExhausted_FinalOutcomeOnly(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError}, "")
	f := NewFetcher(server.Client(), testConfig(t, 2), testLogger())

	outcome, _ := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, models.OutcomeHTTPError, outcome.Kind)
	assert.Equal(t, http.StatusInternalServerError, outcome.Status)
	assert.EqualValues(t, 3, attempts.Load(), "initial attempt plus two retries")
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusNotFound}, "")
	f := NewFetcher(server.Client(), testConfig(t, 3), testLogger())

	outcome, _ := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, http.StatusNotFound, outcome.Status)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestFetch_ContextCancelled(t *testing.T) {
	server, _ := mockServer(t, []int{http.StatusOK}, "ok")
	f := NewFetcher(server.Client(), testConfig(t, 0), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, body := f.Fetch(ctx, server.URL)
	assert.Equal(t, models.OutcomeTransportError, outcome.Kind)
	assert.Nil(t, body)
}

func TestFetch_BodySizeLimited(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.MaxPageSizeBytes = 16

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "0123456789abcdefOVERFLOW")
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(server.Client(), cfg, testLogger())
	outcome, body := f.Fetch(context.Background(), server.URL)

	assert.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Len(t, body, 16)
}
