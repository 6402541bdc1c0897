package markets

import (
	"encoding/json"
	"net/http"
	"time"

	"clawstreetbets/market"
	"clawstreetbets/middleware"
	"clawstreetbets/security"
)

// OutcomeInput is one outcome label in a create request; input position
// becomes the outcome's permanent sort order.
type OutcomeInput struct {
	Label string `json:"label" validate:"required,max=100"`
}

// CreateMarketRequest is the request body for creating a market.
type CreateMarketRequest struct {
	Title          string         `json:"title" validate:"required,max=200"`
	Description    string         `json:"description" validate:"max=2000"`
	Category       string         `json:"category" validate:"max=50"`
	ResolutionDate time.Time      `json:"resolutionDate" validate:"required"`
	Outcomes       []OutcomeInput `json:"outcomes" validate:"dive"`
}

// CreateMarketHandler handles POST /api/markets
func CreateMarketHandler(svc *market.Service, auth *middleware.AgentAuth, sec *security.SecurityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeHTTPError(w, httpErr)
			return
		}

		var req CreateMarketRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "Invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err.Error())
			return
		}

		labels := make([]string, len(req.Outcomes))
		for i, o := range req.Outcomes {
			labels[i] = o.Label
		}
		clean := sec.SanitizeMarketInput(security.MarketInput{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Outcomes:    labels,
		})
		if clean.Title == "" {
			writeValidationError(w, "Title is required")
			return
		}

		created, err := svc.CreateMarket(agent, market.CreateMarketInput{
			Title:          clean.Title,
			Description:    clean.Description,
			Category:       clean.Category,
			ResolutionDate: req.ResolutionDate,
			Outcomes:       clean.Outcomes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		yourVote, _ := svc.AgentVote(created.ID, agent.ID)
		writeJSON(w, http.StatusCreated, created.ToPublic(agent.Name, yourVote))
	}
}
