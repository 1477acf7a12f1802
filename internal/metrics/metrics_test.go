package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}

func TestObservePublish(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("EMPORIA.orders.Shipped", "ok"))
	ObservePublish("EMPORIA.orders.Shipped", nil, 5*time.Millisecond)
	after := testutil.ToFloat64(EventsPublished.WithLabelValues("EMPORIA.orders.Shipped", "ok"))
	assert.Equal(t, before+1, after)
}

func TestHandler(t *testing.T) {
	OrderTransitions.WithLabelValues("Shipped", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "emporia_order_transitions_total")
}
