package markets

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"clawstreetbets/market"
	"clawstreetbets/middleware"
)

// VoteRequest is the request body for casting or changing a vote.
type VoteRequest struct {
	OutcomeID string `json:"outcomeId" validate:"required,max=100"`
}

// MoltbookVoteRequest votes with a Moltbook API key instead of a local
// account.
type MoltbookVoteRequest struct {
	OutcomeID      string `json:"outcomeId" validate:"required,max=100"`
	MoltbookAPIKey string `json:"moltbookApiKey" validate:"required,max=200"`
}

// CastVoteHandler handles POST /api/markets/{id}/vote
func CastVoteHandler(svc *market.Service, auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		var req VoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		vote, err := svc.CastVote(mux.Vars(r)["id"], req.OutcomeID, agent)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, vote.ToPublic(agent.Name))
	}
}

// RemoveVoteHandler handles DELETE /api/markets/{id}/vote
func RemoveVoteHandler(svc *market.Service, auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		if err := svc.RemoveVote(mux.Vars(r)["id"], agent); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
	}
}

// MoltbookVoteHandler handles POST /api/markets/{id}/vote/moltbook
func MoltbookVoteHandler(svc *market.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoltbookVoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		vote, agent, err := svc.CastVoteWithMoltbook(r.Context(), mux.Vars(r)["id"], req.OutcomeID, req.MoltbookAPIKey)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, vote.ToPublic(agent.Name))
	}
}
