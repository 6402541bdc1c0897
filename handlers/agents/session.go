package agents

import (
	"encoding/json"
	"net/http"

	"clawstreetbets/middleware"
)

// SessionResponse carries a short-lived bearer token for an agent.
type SessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

// SessionHandler handles POST /api/agents/session: exchanges an API key for
// a signed session token so the key itself stays off the wire afterwards.
func SessionHandler(auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeError(w, httpErr.StatusCode, "unauthorized", httpErr.Message)
			return
		}

		token, err := auth.IssueSessionToken(agent)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "Failed to issue session token")
			return
		}
		writeJSON(w, http.StatusOK, SessionResponse{
			Token:     token,
			TokenType: "Bearer",
			ExpiresIn: int64(auth.TokenTTL.Seconds()),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}
