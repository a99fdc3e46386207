package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestMonitor() *Monitor {
	reg := prometheus.NewRegistry()
	return NewMonitorWith("test", reg, reg)
}

func scrape(t *testing.T, m *Monitor) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func TestObserveAction(t *testing.T) {
	m := newTestMonitor()
	m.ObserveAction("hunt", "ok", time.Millisecond)
	m.ObserveAction("hunt", "ok", time.Millisecond)
	m.ObserveAction("combat", "INVALID_PHASE_FOR_ACTION", time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `test_actions_total{family="hunt",outcome="ok"} 2`) {
		t.Errorf("Expected 2 hunt actions, got:\n%s", body)
	}
	if !strings.Contains(body, `test_action_errors_total{code="INVALID_PHASE_FOR_ACTION"} 1`) {
		t.Errorf("Expected 1 error, got:\n%s", body)
	}
	if m.Requests() != 3 {
		t.Errorf("Expected 3 requests, got %d", m.Requests())
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := newTestMonitor()
	m.SetActiveSessions(4)
	m.IncGraphViolations()

	body := scrape(t, m)
	if !strings.Contains(body, "test_active_sessions 4") {
		t.Errorf("Expected active sessions gauge in output, got:\n%s", body)
	}
	if !strings.Contains(body, "test_phase_graph_violations_total 1") {
		t.Errorf("Expected violation counter in output")
	}
}
