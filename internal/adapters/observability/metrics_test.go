package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tenmunches/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so vectors are exported
	observability.ObserveHTTP("/api/categories", "GET", 200, 12*time.Millisecond)
	observability.ObserveCategory("coffee", nil)
	observability.ObserveCategory("pizza", errors.New("boom"))
	observability.ObserveRefresh("partial", 3*time.Second)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"tenmunches_http_requests_total",
		`tenmunches_category_refreshes_total{category="pizza",outcome="error"} 1`,
		`tenmunches_refresh_duration_seconds_count{status="partial"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}
