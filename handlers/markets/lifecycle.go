package markets

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"clawstreetbets/market"
	"clawstreetbets/middleware"
)

// ResolveRequest names the winning outcome.
type ResolveRequest struct {
	OutcomeID string `json:"outcomeId" validate:"required,max=100"`
}

// CloseMarketHandler handles PATCH /api/markets/{id}/close
func CloseMarketHandler(svc *market.Service, auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		m, err := svc.CloseMarket(mux.Vars(r)["id"], agent)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		yourVote, _ := svc.AgentVote(m.ID, agent.ID)
		writeJSON(w, http.StatusOK, m.ToPublic(agent.Name, yourVote))
	}
}

// ResolveMarketHandler handles PATCH /api/markets/{id}/resolve
func ResolveMarketHandler(svc *market.Service, auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		m, err := svc.ResolveMarket(mux.Vars(r)["id"], req.OutcomeID, agent)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		yourVote, _ := svc.AgentVote(m.ID, agent.ID)
		writeJSON(w, http.StatusOK, m.ToPublic(agent.Name, yourVote))
	}
}

// LeaderboardHandler handles GET /api/markets/leaderboard
func LeaderboardHandler(svc *market.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := atoiInRange(l, 1, 100); err == nil {
				limit = parsed
			}
		}
		entries, err := svc.Leaderboard(limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
