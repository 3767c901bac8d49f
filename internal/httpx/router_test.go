package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/verdantiq/analytics/internal/analytics"
	"github.com/verdantiq/analytics/internal/cache"
	"github.com/verdantiq/analytics/internal/catalog"
	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/source"
	"github.com/verdantiq/analytics/internal/window"
	"github.com/verdantiq/analytics/internal/ws"
)

type stubService struct {
	snapshot domain.LiveAnalyticsSnapshot
	health   map[string]string
}

func (s *stubService) Snapshot(ctx context.Context) domain.LiveAnalyticsSnapshot {
	return s.snapshot
}

func (s *stubService) SourceHealth() map[string]string {
	return s.health
}

func testSnapshot() domain.LiveAnalyticsSnapshot {
	return domain.LiveAnalyticsSnapshot{
		GeneratedAt:   1700000000000,
		WindowSeconds: 110,
		Metrics: []domain.MetricSnapshot{
			{
				ID:        "habitat_integrity",
				Label:     "Habitat Integrity",
				Unit:      "%",
				Format:    domain.FormatPercentage,
				Value:     82.4,
				Delta:     1.2,
				Direction: domain.DirectionUp,
				Trend:     []domain.TrendPoint{{Timestamp: 1699999990000, Value: 81.2}, {Timestamp: 1700000000000, Value: 82.4}},
				Anomaly:   domain.Anomaly{Status: domain.StatusOK, Message: "Within configured bounds"},
			},
		},
		Narrative: "Habitat Integrity climbed 1.2%.",
	}
}

func TestLiveAnalyticsEndpoint(t *testing.T) {
	router := NewRouter(nil, &stubService{snapshot: testSnapshot()}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live-analytics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	var snapshot domain.LiveAnalyticsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(snapshot.Metrics))
	}
	if snapshot.Metrics[0].ID != "habitat_integrity" {
		t.Fatalf("unexpected metric id %q", snapshot.Metrics[0].ID)
	}
	if snapshot.Narrative == "" {
		t.Fatal("expected a narrative")
	}
}

func TestHealthEndpoint(t *testing.T) {
	svc := &stubService{snapshot: testSnapshot(), health: map[string]string{"queue": "degraded"}}
	router := NewRouter(nil, svc, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status  string            `json:"status"`
		Sources map[string]string `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status %q", body.Status)
	}
	if body.Sources["queue"] != "degraded" {
		t.Fatalf("unexpected sources %v", body.Sources)
	}
}

func TestStreamDisabledWithoutHub(t *testing.T) {
	router := NewRouter(nil, &stubService{snapshot: testSnapshot()}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live-analytics/stream", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a hub, got %d", rec.Code)
	}
}

func TestStreamSendsInitialSnapshot(t *testing.T) {
	router := NewRouter(nil, &stubService{snapshot: testSnapshot()}, ws.NewHub())
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/live-analytics/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("expected data frame, got %q", line)
	}

	var snapshot domain.LiveAnalyticsSnapshot
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &snapshot); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if len(snapshot.Metrics) != 1 {
		t.Fatalf("expected 1 metric in frame, got %d", len(snapshot.Metrics))
	}
}

func TestLiveAnalyticsWithAllSourcesDown(t *testing.T) {
	defs := catalog.Default().Definitions()
	svc := analytics.NewService(
		source.NewChain(),
		window.NewStore(0),
		analytics.NewBuilder(defs, 110),
		cache.NewMemory(),
		time.Second,
		nil,
		analytics.NewMetrics(),
		nil,
	)
	defer svc.Close()
	router := NewRouter(nil, svc, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live-analytics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with every source down, got %d", rec.Code)
	}
	var snapshot domain.LiveAnalyticsSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Metrics) != len(defs) {
		t.Fatalf("expected %d metrics, got %d", len(defs), len(snapshot.Metrics))
	}
	if snapshot.Narrative == "" {
		t.Fatal("expected a narrative")
	}
	for _, m := range snapshot.Metrics {
		if len(m.Trend) == 0 {
			t.Fatalf("metric %s has no trend", m.ID)
		}
	}
}

func TestWebsocketPush(t *testing.T) {
	hub := ws.NewHub()
	router := NewRouter(nil, &stubService{snapshot: testSnapshot()}, hub)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/live-analytics/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, initial, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	var snapshot domain.LiveAnalyticsSnapshot
	if err := json.Unmarshal(initial, &snapshot); err != nil {
		t.Fatalf("decode initial frame: %v", err)
	}
	if snapshot.WindowSeconds != 110 {
		t.Fatalf("unexpected window %d", snapshot.WindowSeconds)
	}

	hub.Broadcast([]byte(`{"generatedAt":1,"windowSeconds":110,"metrics":[],"narrative":"n"}`))
	_, pushed, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pushed frame: %v", err)
	}
	if !strings.Contains(string(pushed), `"narrative":"n"`) {
		t.Fatalf("unexpected push payload %q", pushed)
	}
}
