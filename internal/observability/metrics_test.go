package observability

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/api/v1/permissions/:module", "GET", 200, 2*time.Millisecond)
			m.RecordDecision("lab", "create", false)
		}()
	}
	wg.Wait()
	m.RecordError("/api/v1/access-requests/:id/review", "POST", "INVALID_STATE")

	snap := m.Snapshot()
	if got := snap.Requests["/api/v1/permissions/:module|GET|200"]; got != 10 {
		t.Fatalf("expected 10 requests, got %d", got)
	}
	if got := snap.RequestMillis["/api/v1/permissions/:module|GET|200"]; got != 20 {
		t.Fatalf("expected 20ms total, got %d", got)
	}
	if got := snap.AccessDecisions["lab|create|denied"]; got != 10 {
		t.Fatalf("expected 10 denials, got %d", got)
	}
	if got := snap.Errors["/api/v1/access-requests/:id/review|POST|INVALID_STATE"]; got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordDecision("lab", "view", true)
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("expected empty snapshot")
	}
}
