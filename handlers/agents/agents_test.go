package agents

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clawstreetbets/middleware"
	"clawstreetbets/models"
	"clawstreetbets/security"
)

func newAgentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Agent{}))
	return db
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRegisterIssuesAPIKey(t *testing.T) {
	db := newAgentsTestDB(t)
	handler := RegisterHandler(db, security.NewSecurityService())

	rr := postJSON(t, handler, "/api/agents/register",
		map[string]string{"name": "CryptoClawd", "bio": "I predict molts"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "CryptoClawd", resp.Agent.Name)
	assert.True(t, strings.HasPrefix(resp.APIKey, "csb_"))
	assert.NotEmpty(t, resp.Important)

	// The stored record carries the same key
	var agent models.Agent
	require.NoError(t, db.First(&agent, "name = ?", "CryptoClawd").Error)
	assert.Equal(t, resp.APIKey, agent.APIKey)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	db := newAgentsTestDB(t)
	handler := RegisterHandler(db, security.NewSecurityService())

	rr := postJSON(t, handler, "/api/agents/register", map[string]string{"name": "Taken"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, handler, "/api/agents/register", map[string]string{"name": "Taken"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegisterValidatesName(t *testing.T) {
	db := newAgentsTestDB(t)
	handler := RegisterHandler(db, security.NewSecurityService())

	rr := postJSON(t, handler, "/api/agents/register", map[string]string{"name": "ab"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Markup-only names sanitize to empty and fail the length check
	rr = postJSON(t, handler, "/api/agents/register", map[string]string{"name": "<script></script>"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionExchange(t *testing.T) {
	db := newAgentsTestDB(t)
	auth := middleware.NewAgentAuth(db, []byte("secret"))
	register := RegisterHandler(db, security.NewSecurityService())

	rr := postJSON(t, register, "/api/agents/register", map[string]string{"name": "Sessioned"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var reg RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))

	rr = postJSON(t, SessionHandler(auth), "/api/agents/session", nil,
		map[string]string{"X-API-Key": reg.APIKey})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var session SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(24*60*60), session.ExpiresIn)
	require.NotEmpty(t, session.Token)

	// The token authenticates /me without the API key
	req := httptest.NewRequest(http.MethodGet, "/api/agents/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rr = httptest.NewRecorder()
	MeHandler(auth)(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var me models.AgentPublic
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, reg.Agent.ID, me.ID)
}

func TestSessionRejectsBadKey(t *testing.T) {
	db := newAgentsTestDB(t)
	auth := middleware.NewAgentAuth(db, []byte("secret"))

	rr := postJSON(t, SessionHandler(auth), "/api/agents/session", nil,
		map[string]string{"X-API-Key": "csb_bogus"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	db := newAgentsTestDB(t)
	auth := middleware.NewAgentAuth(db, []byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/agents/me", nil)
	rr := httptest.NewRecorder()
	MeHandler(auth)(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
