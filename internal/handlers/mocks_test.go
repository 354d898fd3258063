package handlers

import (
	"context"
	"net/http"
	"sync"

	"condensing_unit/internal/models"
	"condensing_unit/internal/service"

	"github.com/gin-gonic/gin"
)

type mockAuth struct {
	signUpID  int
	signUpErr error

	token    string
	tokenErr error

	parseID        int
	parseErr       error
	lastParseToken string
}

func (m *mockAuth) SignUp(_, _ string) (int, error) { return m.signUpID, m.signUpErr }

func (m *mockAuth) GenerateToken(_, _ string) (string, error) { return m.token, m.tokenErr }

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	mu    sync.Mutex
	state models.UnitState
	err   error
}

func (m *mockMonitoring) GetState(context.Context) (models.UnitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

func (m *mockMonitoring) GetFans(context.Context) ([]models.FanUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Fans, m.err
}

func (m *mockMonitoring) setCycle(cycle uint64) {
	m.mu.Lock()
	m.state.Cycle = cycle
	m.mu.Unlock()
}

type mockEventLog struct {
	events []models.UnitEvent
	err    error
	last   service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.UnitEvent, error) {
	m.last = f
	return m.events, m.err
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil).InitRoutes()
}

// authed returns a service whose token check accepts anything.
func authed(s *service.Service) *service.Service {
	if s.Authorization == nil {
		s.Authorization = &mockAuth{parseID: 1}
	}
	return s
}

func withBearer(req *http.Request) *http.Request {
	req.Header.Set(authorizationHeader, "Bearer test-token")
	return req
}
