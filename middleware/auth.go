package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"clawstreetbets/models"
)

// HTTPError carries a status code and message back to the handler layer.
type HTTPError struct {
	StatusCode int
	Message    string
}

// AgentAuth authenticates requests as agents. Two credentials are accepted:
// the agent's long-lived csb_ API key (X-API-Key header or Bearer), and a
// short-lived HS256 session token minted by POST /api/agents/session.
type AgentAuth struct {
	DB        *gorm.DB
	JWTSecret []byte
	TokenTTL  time.Duration
}

// NewAgentAuth builds the authenticator with the default 24h session TTL.
func NewAgentAuth(db *gorm.DB, jwtSecret []byte) *AgentAuth {
	return &AgentAuth{DB: db, JWTSecret: jwtSecret, TokenTTL: 24 * time.Hour}
}

// Validate resolves the requesting agent or returns a 401.
func (a *AgentAuth) Validate(r *http.Request) (*models.Agent, *HTTPError) {
	credential := extractCredential(r)
	if credential == "" {
		return nil, &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "API key required. Use X-API-Key header or 'Bearer <key>' in Authorization header",
		}
	}

	if strings.HasPrefix(credential, "csb_") {
		return a.lookupByAPIKey(credential)
	}
	return a.lookupBySessionToken(credential)
}

// Optional resolves the agent when credentials are present, nil otherwise.
// Bad credentials are still rejected so a caller never silently loses its
// identity on a typo.
func (a *AgentAuth) Optional(r *http.Request) (*models.Agent, *HTTPError) {
	if extractCredential(r) == "" {
		return nil, nil
	}
	return a.Validate(r)
}

func extractCredential(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (a *AgentAuth) lookupByAPIKey(apiKey string) (*models.Agent, *HTTPError) {
	var agent models.Agent
	result := a.DB.Where("api_key = ?", apiKey).First(&agent)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &HTTPError{StatusCode: http.StatusUnauthorized, Message: "Invalid API key"}
		}
		return nil, &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Database error validating agent"}
	}
	return &agent, nil
}

func (a *AgentAuth) lookupBySessionToken(tokenString string) (*models.Agent, *HTTPError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, &HTTPError{StatusCode: http.StatusUnauthorized, Message: "Invalid or expired session token"}
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, &HTTPError{StatusCode: http.StatusUnauthorized, Message: "Invalid session token"}
	}

	var agent models.Agent
	result := a.DB.First(&agent, "id = ?", claims.Subject)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &HTTPError{StatusCode: http.StatusUnauthorized, Message: "Agent no longer exists"}
		}
		return nil, &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Database error validating agent"}
	}
	return &agent, nil
}

// IssueSessionToken mints a signed session token for an agent.
func (a *AgentAuth) IssueSessionToken(agent *models.Agent) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   agent.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenTTL)),
		Issuer:    "clawstreetbets",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.JWTSecret)
}
