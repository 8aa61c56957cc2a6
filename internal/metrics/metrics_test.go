package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveProviderCall(t *testing.T) {
	before := testutil.ToFloat64(providerCalls.WithLabelValues("groq-test", "error"))
	ObserveProviderCall("groq-test", 10*time.Millisecond, errors.New("x"))
	ObserveProviderCall("groq-test", 10*time.Millisecond, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(providerCalls.WithLabelValues("groq-test", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(providerCalls.WithLabelValues("groq-test", "ok")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveOperation("generate", "ok")
	ObserveHTTP(http.MethodGet, "/", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nebula_operations_total")
	assert.Contains(t, rec.Body.String(), "nebula_http_requests_total")
}
