package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"petdoor_hub/internal/coordinator"
	"petdoor_hub/internal/models"
	"petdoor_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDoor struct {
	openErr      error
	closeErr     error
	setErr       error
	openCalled   int
	closeCalled  int
	setCalls     int
	lastSetKey   string
	lastSetValue bool
}

func (m *mockDoor) Open(ctx context.Context) error {
	m.openCalled++
	return m.openErr
}
func (m *mockDoor) Close(ctx context.Context) error {
	m.closeCalled++
	return m.closeErr
}
func (m *mockDoor) SetSwitch(ctx context.Context, key string, on bool) error {
	m.setCalls++
	m.lastSetKey = key
	m.lastSetValue = on
	return m.setErr
}

// mockMonitoring serves a fixed snapshot and lets tests drive the fan-out by
// calling push.
type mockMonitoring struct {
	mu       sync.Mutex
	snap     models.Snapshot
	avail    coordinator.Availability
	identity models.DeviceIdentity
	presence []service.PetPresence
	subs     []coordinator.SubscriberFunc
}

func (m *mockMonitoring) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}
func (m *mockMonitoring) Availability() coordinator.Availability {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.avail
}
func (m *mockMonitoring) Identity() models.DeviceIdentity { return m.identity }
func (m *mockMonitoring) Presence() []service.PetPresence { return m.presence }
func (m *mockMonitoring) Subscribe(fn coordinator.SubscriberFunc) *coordinator.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return &coordinator.Subscription{}
}

func (m *mockMonitoring) push(snap models.Snapshot) {
	m.mu.Lock()
	m.snap = snap
	subs := append([]coordinator.SubscriberFunc(nil), m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

type mockEventLog struct {
	resp     []models.DoorEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DoorEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
