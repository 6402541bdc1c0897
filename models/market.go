package models

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketStatus is the lifecycle state of a market.
// Transitions: open -> closed -> resolved, or open -> resolved directly.
type MarketStatus string

const (
	MarketOpen     MarketStatus = "open"
	MarketClosed   MarketStatus = "closed"
	MarketResolved MarketStatus = "resolved"
)

// ParseMarketStatus validates a status string from a query parameter.
func ParseMarketStatus(s string) (MarketStatus, error) {
	switch MarketStatus(s) {
	case MarketOpen, MarketClosed, MarketResolved:
		return MarketStatus(s), nil
	}
	return "", fmt.Errorf("invalid status: %q", s)
}

// Market is a prediction question with a fixed set of outcomes.
// VoteCount is denormalized and must always equal both the number of
// MarketVote rows for the market and the sum of its outcome counts.
type Market struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	AgentID     string `json:"agentId" gorm:"not null;index;size:36"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"size:2000"`
	Category    string `json:"category" gorm:"default:general;index;size:50"`

	Status           MarketStatus `json:"status" gorm:"default:open;index;size:10"`
	ResolutionDate   time.Time    `json:"resolutionDate"`
	VoteCount        int64        `json:"voteCount" gorm:"default:0"`
	WinningOutcomeID *string      `json:"winningOutcomeId,omitempty" gorm:"size:36"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Outcomes []MarketOutcome `json:"outcomes,omitempty" gorm:"foreignKey:MarketID"`
}

func (m *Market) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MarketOutcome is one selectable answer for a market. The outcome set is
// fixed at creation time; SortOrder is the canonical display and tie-break
// order everywhere outcomes are listed.
type MarketOutcome struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	MarketID  string `json:"marketId" gorm:"not null;index;size:36"`
	Label     string `json:"label" gorm:"not null;size:100"`
	SortOrder int    `json:"sortOrder" gorm:"not null"`
	VoteCount int64  `json:"voteCount" gorm:"default:0"`
}

func (o *MarketOutcome) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OutcomePublic is an outcome with its share of the market's votes.
type OutcomePublic struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	VoteCount      int64   `json:"voteCount"`
	VotePercentage float64 `json:"votePercentage"`
}

// MarketPublic is the market representation returned by the API.
type MarketPublic struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	DescriptionHTML string          `json:"descriptionHtml,omitempty"`
	Category        string          `json:"category"`
	Status          MarketStatus    `json:"status"`
	ResolutionDate  time.Time       `json:"resolutionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	VoteCount       int64           `json:"voteCount"`
	AgentID         string          `json:"agentId"`
	AgentName       string          `json:"agentName"`
	WinningOutcome  *string         `json:"winningOutcomeId,omitempty"`
	Outcomes        []OutcomePublic `json:"outcomes"`
	YourVote        *string         `json:"yourVote,omitempty"`
}

// ToPublic builds the API view of a market. Outcomes must be loaded; they
// are emitted in SortOrder regardless of query order. yourVote is the
// viewer's current outcome id, nil when unauthenticated or not voted.
func (m *Market) ToPublic(agentName string, yourVote *string) MarketPublic {
	sorted := make([]MarketOutcome, len(m.Outcomes))
	copy(sorted, m.Outcomes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })

	outcomes := make([]OutcomePublic, len(sorted))
	for i, o := range sorted {
		pct := 0.0
		if m.VoteCount > 0 {
			pct = math.Round(float64(o.VoteCount)/float64(m.VoteCount)*1000) / 10
		}
		outcomes[i] = OutcomePublic{
			ID:             o.ID,
			Label:          o.Label,
			VoteCount:      o.VoteCount,
			VotePercentage: pct,
		}
	}
	return MarketPublic{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		Category:       m.Category,
		Status:         m.Status,
		ResolutionDate: m.ResolutionDate,
		CreatedAt:      m.CreatedAt,
		VoteCount:      m.VoteCount,
		AgentID:        m.AgentID,
		AgentName:      agentName,
		WinningOutcome: m.WinningOutcomeID,
		Outcomes:       outcomes,
		YourVote:       yourVote,
	}
}
