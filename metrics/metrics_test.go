package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(201)
	c.RecordGenerationAttempt("gpt-4o-mini", "quota")
	c.RecordGenerationAttempt("gpt-4.1-mini", "ok")
	c.RecordIngestFailure("empty_days")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`wanderplan_http_status_total{status_code="201"} 1`,
		`wanderplan_generation_attempts_total{model="gpt-4o-mini",outcome="quota"} 1`,
		`wanderplan_generation_attempts_total{model="gpt-4.1-mini",outcome="ok"} 1`,
		`wanderplan_ingest_failures_total{reason="empty_days"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordHTTPStatus(500)
}
