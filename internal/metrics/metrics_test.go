package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveInspection(t *testing.T) {
	before := testutil.ToFloat64(inspectionsTotal.WithLabelValues("observe.example", "success"))
	ObserveInspection("https://Observe.Example/page", "success")
	after := testutil.ToFloat64(inspectionsTotal.WithLabelValues("observe.example", "success"))
	if after-before != 1 {
		t.Fatalf("expected inspections counter to grow by 1, got %f", after-before)
	}
}

func TestObserveFetchSkipsEmptyBodies(t *testing.T) {
	ObserveFetch("https://bytes.example/a", 10*time.Millisecond, 0)
	if val := testutil.ToFloat64(fetchedBytesTotal.WithLabelValues("bytes.example")); val != 0 {
		t.Fatalf("expected no bytes recorded, got %f", val)
	}
	ObserveFetch("https://bytes.example/a", 10*time.Millisecond, 512)
	if val := testutil.ToFloat64(fetchedBytesTotal.WithLabelValues("bytes.example")); val != 512 {
		t.Fatalf("expected 512 bytes recorded, got %f", val)
	}
	if count := testutil.CollectAndCount(fetchDurationSeconds); count == 0 {
		t.Fatal("expected fetch duration to be observed")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	ObserveInspection("https://handler.example", "fetch_failed")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "weblink_inspections_total") || !strings.Contains(body, "handler.example") {
		t.Fatalf("metrics output missing inspection counter: %s", body)
	}
}

func TestObserveRateLimitDelay(t *testing.T) {
	ObserveRateLimitDelay("https://slow.example/x", 200*time.Millisecond)
	if count := testutil.CollectAndCount(rateLimitDelaySeconds); count == 0 {
		t.Fatal("expected rate limit delay to be observed")
	}
}
