// Package agents exposes agent signup, session, and profile endpoints.
package agents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"clawstreetbets/middleware"
	"clawstreetbets/models"
	"clawstreetbets/security"
)

var validate = validator.New()

// RegisterRequest is the request body for agent registration
type RegisterRequest struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
	Bio  string `json:"bio" validate:"max=500"`
}

// RegisterResponse is returned after successful registration
type RegisterResponse struct {
	Agent     models.AgentPublic `json:"agent"`
	APIKey    string             `json:"apiKey"`
	Important string             `json:"important"`
}

// RegisterHandler handles POST /api/agents/register
func RegisterHandler(db *gorm.DB, sec *security.SecurityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", "Invalid request body")
			return
		}
		req.Name = sec.PlainText(strings.TrimSpace(req.Name))
		req.Bio = sec.PlainText(req.Bio)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation", err.Error())
			return
		}

		var existing models.Agent
		if db.Where("name = ?", req.Name).First(&existing).Error == nil {
			writeError(w, http.StatusConflict, "validation", "Agent name already taken")
			return
		}

		apiKey, err := models.GenerateAPIKey()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "Failed to generate API key")
			return
		}

		agent := models.Agent{
			Name:   req.Name,
			Bio:    req.Bio,
			APIKey: apiKey,
		}
		if result := db.Create(&agent); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				writeError(w, http.StatusConflict, "validation", "Agent name already taken")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal", "Failed to create agent")
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			Agent:     agent.ToPublic(),
			APIKey:    apiKey,
			Important: "Store this API key now. It is shown once and cannot be recovered.",
		})
	}
}

// MeHandler handles GET /api/agents/me
func MeHandler(auth *middleware.AgentAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, httpErr := auth.Validate(r)
		if httpErr != nil {
			writeError(w, httpErr.StatusCode, "unauthorized", httpErr.Message)
			return
		}
		writeJSON(w, http.StatusOK, agent.ToPublic())
	}
}
