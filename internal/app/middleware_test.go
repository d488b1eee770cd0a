package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-api/restaurant-api/internal/auth"
	"github.com/restaurant-api/restaurant-api/internal/observability"
	"github.com/restaurant-api/restaurant-api/internal/platform/httpx"
)

// steppingClock returns base, then base+step on the following call, and so on.
func steppingClock(step time.Duration) func() time.Time {
	base := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		t := base.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func logRecords(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

func TestRequestTimerLogsOnlySlowRequests(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		logged  int
	}{
		{"fast", 100 * time.Millisecond, 0},
		{"at threshold", 4 * time.Second, 0},
		{"slow", 5000 * time.Millisecond, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			slowCount := 0
			timer := RequestTimer{
				Logger:    slog.New(slog.NewJSONHandler(&buf, nil)),
				Threshold: 4 * time.Second,
				Now:       steppingClock(tc.elapsed),
				OnSlow:    func() { slowCount++ },
			}
			calls := 0
			h := timer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(http.StatusOK)
			}))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/restaurant/1", nil))

			assert.Equal(t, 1, calls)
			assert.Equal(t, http.StatusOK, rr.Code)
			records := logRecords(&buf)
			assert.Len(t, records, tc.logged)
			assert.Equal(t, tc.logged, slowCount)
			if tc.logged == 1 {
				assert.Equal(t, "slow request", records[0]["msg"])
				assert.Equal(t, "GET", records[0]["method"])
				assert.Equal(t, "/api/restaurant/1", records[0]["path"])
				assert.EqualValues(t, 5000, records[0]["elapsed_ms"])
			}
		})
	}
}

func TestRequestTimerDefaultsToFourSeconds(t *testing.T) {
	var buf bytes.Buffer
	timer := RequestTimer{Logger: slog.New(slog.NewJSONHandler(&buf, nil)), Now: steppingClock(4001 * time.Millisecond)}
	timer.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, logRecords(&buf), 1)
}

func TestErrorBoundaryHidesPanicDetails(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	calls := 0
	h := ErrorBoundary(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		panic("pq: password authentication failed for user restaurant")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/restaurant/1", nil))

	assert.Equal(t, 1, calls)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, httpx.GenericMessage, body.Message)
	assert.NotContains(t, rr.Body.String(), "password")

	records := logRecords(&buf)
	require.Len(t, records, 1)
	assert.Equal(t, "panic recovered", records[0]["msg"])
}

func TestErrorBoundaryKeepsStartedResponse(t *testing.T) {
	h := ErrorBoundary(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("late failure")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}

func TestErrorBoundaryReraisesAbort(t *testing.T) {
	h := ErrorBoundary(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestErrorBoundaryPassesThrough(t *testing.T) {
	calls := 0
	h := ErrorBoundary(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestPipelineBoundaryIsOutermost(t *testing.T) {
	var buf bytes.Buffer
	metrics := observability.NewMetrics()
	r := chi.NewRouter()
	for _, mw := range Pipeline(MiddlewareConfig{
		Logger:  slog.New(slog.NewJSONHandler(&buf, nil)),
		Config:  &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: time.Second},
		Metrics: metrics,
		Tokens:  auth.NewTokenIssuer("pipeline-test-key", "restaurant-api", time.Hour),
	}) {
		r.Use(mw)
	}
	r.Get("/api/explode", func(w http.ResponseWriter, r *http.Request) {
		panic("dial tcp 10.0.0.5:5432: connection refused")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/explode", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, httpx.GenericMessage, body.Message)
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")

	requestID := rr.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)
	records := logRecords(&buf)
	require.Len(t, records, 1)
	assert.Equal(t, "panic recovered", records[0]["msg"])
	assert.Equal(t, requestID, records[0]["request_id"])

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `restaurant_http_requests_total{code="500",route="/api/explode"} 1`)
}
