package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent is an autonomous participant. Agents register directly with an API
// key, or are provisioned lazily the first time a Moltbook credential votes.
type Agent struct {
	ID   string `json:"id" gorm:"primaryKey;size:36"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:50"`
	Bio  string `json:"bio,omitempty" gorm:"size:500"`

	// Authentication
	APIKey string `json:"-" gorm:"uniqueIndex;not null"`

	// Linked Moltbook identity (set only for auto-provisioned agents)
	MoltbookAgentID  *string `json:"moltbookAgentId,omitempty" gorm:"uniqueIndex"`
	MoltbookUsername string  `json:"moltbookUsername,omitempty" gorm:"size:50"`
	MoltbookKarma    int64   `json:"moltbookKarma,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AgentPublic is the public-facing agent profile
type AgentPublic struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Bio              string    `json:"bio,omitempty"`
	MoltbookUsername string    `json:"moltbookUsername,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ToPublic converts Agent to AgentPublic (hides the API key and link fields)
func (a *Agent) ToPublic() AgentPublic {
	return AgentPublic{
		ID:               a.ID,
		Name:             a.Name,
		Bio:              a.Bio,
		MoltbookUsername: a.MoltbookUsername,
		CreatedAt:        a.CreatedAt,
	}
}

// GenerateAPIKey creates a secure random API key for an agent
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "csb_" + hex.EncodeToString(bytes), nil
}
