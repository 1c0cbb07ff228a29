package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrm-io/gocrm-ce/internal/auth"
	"github.com/gocrm-io/gocrm-ce/internal/middleware"
	"github.com/gocrm-io/gocrm-ce/internal/models"
	"github.com/gocrm-io/gocrm-ce/internal/repository/memory"
	"github.com/gocrm-io/gocrm-ce/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	router *gin.Engine
	tokens *auth.TokenManager
	agents *memory.AgentRepository
	roles  *memory.RoleRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	roleStore := memory.NewRoleRepository()
	agents := memory.NewAgentRepository(roleStore)
	sessions := memory.NewSessionRepository()

	catalog := auth.DefaultCatalog()
	resolver := auth.NewResolver(catalog)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := NewRouter(Deps{
		Auth:     auth.NewService(agents, tokens, resolver),
		Issuer:   auth.NewIssuer(false, "", time.Hour),
		Limiter:  auth.NewLoginRateLimiter(3, 60, time.Minute, 10*time.Minute),
		Sessions: service.NewSessionService(sessions, time.Hour),
		Roles:    service.NewRoleService(roleStore),
		Perms:    service.NewPermissionService(agents, resolver, catalog),
		AuthMW:   middleware.NewAuthMiddleware(tokens, agents),
	})

	return &apiFixture{router: router, tokens: tokens, agents: agents, roles: roleStore}
}

func (f *apiFixture) seedAgent(t *testing.T, status string) *models.Agent {
	t.Helper()
	agent := &models.Agent{
		ID:       7,
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Status:   status,
	}
	require.NoError(t, agent.SetPassword("correct-horse"))
	f.agents.Put(agent)
	return agent
}

func loginBody(t *testing.T, fields map[string]string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(fields)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func cookieNames(res *http.Response) []string {
	names := make([]string, 0, len(res.Cookies()))
	for _, c := range res.Cookies() {
		names = append(names, c.Name)
	}
	return names
}

func TestLoginSetsAllCookies(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusActive)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		loginBody(t, map[string]string{"username": "jdoe", "password": "correct-horse"}))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	names := cookieNames(res)
	assert.Contains(t, names, auth.CookieAgentToken)
	assert.Contains(t, names, auth.CookieAgentSession)
	assert.Contains(t, names, auth.CookieSessionID)

	for _, c := range res.Cookies() {
		switch c.Name {
		case auth.CookieAgentToken, auth.CookieSessionID:
			assert.True(t, c.HttpOnly, "%s should be HTTP-only", c.Name)
		case auth.CookieAgentSession:
			assert.False(t, c.HttpOnly, "%s should be client-readable", c.Name)
		}
	}

	var resp struct {
		Success bool                 `json:"success"`
		Token   string               `json:"token"`
		User    *models.AgentSummary `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "jdoe", resp.User.Username)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeAgent, claims.TokenType)
}

func TestLoginFieldFallbacks(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusActive)

	for _, field := range []string{"username", "login", "email"} {
		t.Run(field, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
				loginBody(t, map[string]string{field: "jdoe", "password": "correct-horse"}))
			req.Header.Set("Content-Type", "application/json")
			f.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestLoginGenericFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusActive)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "unknown user", body: map[string]string{"username": "ghost", "password": "x"}},
		{name: "wrong password", body: map[string]string{"username": "jdoe", "password": "wrong"}},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", loginBody(t, tt.body))
			req.Header.Set("Content-Type", "application/json")
			f.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, cookieNames(w.Result()))
			bodies = append(bodies, w.Body.String())
		})
	}

	// Same response for both failure modes: no enumeration.
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
}

func TestLoginSuspendedAgent(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusSuspended)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		loginBody(t, map[string]string{"username": "jdoe", "password": "correct-horse"}))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusActive)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			loginBody(t, map[string]string{"username": "jdoe", "password": "wrong"}))
		req.Header.Set("Content-Type", "application/json")
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Fourth attempt hits the block, even with the right password.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		loginBody(t, map[string]string{"username": "jdoe", "password": "correct-horse"}))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestLoginMissingCredentials(t *testing.T) {
	f := newAPIFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		loginBody(t, map[string]string{"username": "jdoe"}))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookies(t *testing.T) {
	f := newAPIFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0, "cookie %s should be expired", c.Name)
	}
	assert.Len(t, w.Result().Cookies(), 3)
}

func TestRefreshReissuesToken(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.seedAgent(t, models.AgentStatusActive)

	token, err := f.tokens.GenerateAgentToken(agent, models.PermissionSet{})
	require.NoError(t, err)

	// Grant a role after the token was minted.
	role := &models.Role{Name: "support"}
	require.NoError(t, f.roles.Create(context.Background(), role))
	require.NoError(t, f.agents.SetRoles(context.Background(), agent.ID, []int64{role.ID}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	f.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.True(t, claims.Permissions.Has(auth.ModuleTickets, auth.PermViewAll))
}

func TestRefreshRejectsSessionCookieOnly(t *testing.T) {
	f := newAPIFixture(t)
	f.seedAgent(t, models.AgentStatusActive)

	// Refresh reissues credentials, so it must only trust the signed
	// token, never the client-writable session cookie.
	forged, err := json.Marshal(models.AgentSummary{ID: 7, Username: "jdoe"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieAgentSession, Value: url.QueryEscape(string(forged))})
	f.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsSuspendedAgent(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.seedAgent(t, models.AgentStatusActive)

	token, err := f.tokens.GenerateAgentToken(agent, models.PermissionSet{})
	require.NoError(t, err)

	agent.Status = models.AgentStatusSuspended
	f.agents.Put(agent)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	f.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWhoami(t *testing.T) {
	f := newAPIFixture(t)
	agent := f.seedAgent(t, models.AgentStatusActive)

	token, err := f.tokens.GenerateAgentToken(agent, models.PermissionSet{
		auth.ModuleLeads: {auth.PermEnableDisable, auth.PermViewAll},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/whoami", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	f.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"jdoe"`)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
