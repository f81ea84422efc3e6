package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gameshelf/internal/api/middleware"
	"github.com/mcoot/gameshelf/internal/testutil"
)

func TestRecoveryWritesJSONError(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	h := middleware.Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestLoggingRecordsRouteAndStatus(t *testing.T) {
	logger, logs := testutil.CaptureLogger()
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.HandleFunc("/games/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/games/abc", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Contains(t, logs.String(), "/games/{id}")
	assert.Contains(t, logs.String(), "418")
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.NewHTTPMetrics(reg)))
	r.HandleFunc("/games/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/games/"+id, nil))
	}

	// Three requests to different ids share one series
	n, err := promtest.GatherAndCount(reg, "gameshelf_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
