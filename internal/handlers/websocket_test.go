package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"petdoor_hub/internal/models"
	"petdoor_hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type wsTestEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Snapshot models.Snapshot `json:"snapshot"`
	} `json:"data"`
	Error string `json:"error"`
}

func dialTestWS(t *testing.T, s *service.Service, rawQuery string) (*websocket.Conn, func()) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = rawQuery

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial error: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestWebSocket_SnapshotStream_InitialAndPushed(t *testing.T) {
	mon := &mockMonitoring{
		snap: models.Snapshot{
			Fast: models.FastStateMap{models.KeyDoor: false, models.KeyRFID: true},
			Slow: models.SlowStateMap{},
		},
	}
	s := &service.Service{Monitoring: mon}

	// Slow resync so only the initial frame and pushed merges arrive.
	conn, teardown := dialTestWS(t, s, "interval=10s")
	defer teardown()

	// Read initial snapshot
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env wsTestEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "snapshot" {
		t.Fatalf("bad envelope: %+v", env)
	}
	if env.Data.Snapshot.Fast[models.KeyRFID] != true {
		t.Fatalf("unexpected snapshot: %+v", env.Data.Snapshot)
	}

	// A merge pushed through the fan-out must arrive without waiting for the
	// resync ticker.
	mon.push(models.Snapshot{
		Fast: models.FastStateMap{models.KeyDoor: true, models.KeyRFID: true},
		Slow: models.SlowStateMap{},
	})

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = wsTestEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read pushed: %v", err)
	}
	if env.Type != "snapshot" || env.Data.Snapshot.Fast[models.KeyDoor] != true {
		t.Fatalf("expected pushed door=true, got %+v", env)
	}
}

func TestWebSocket_ResyncTicks(t *testing.T) {
	mon := &mockMonitoring{
		snap: models.Snapshot{Fast: models.FastStateMap{models.KeySystem: true}, Slow: models.SlowStateMap{}},
	}
	s := &service.Service{Monitoring: mon}

	conn, teardown := dialTestWS(t, s, "interval_ms=20")
	defer teardown()

	// Initial frame plus at least one resync frame.
	for i := 0; i < 2; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		var env wsTestEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if env.Type != "snapshot" {
			t.Fatalf("expected type=snapshot, got %+v", env)
		}
	}
}
