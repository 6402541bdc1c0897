package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketVote is an agent's current choice within a market. The composite
// unique index keeps the store honest: at most one live vote per
// (market, agent), even if two requests race past the application check.
type MarketVote struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	MarketID  string `json:"marketId" gorm:"not null;size:36;uniqueIndex:idx_market_agent_vote;index"`
	OutcomeID string `json:"outcomeId" gorm:"not null;index;size:36"`
	AgentID   string `json:"agentId" gorm:"not null;size:36;uniqueIndex:idx_market_agent_vote;index"`

	CreatedAt time.Time `json:"createdAt"`
}

func (v *MarketVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VotePublic is the vote representation returned by the API.
type VotePublic struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"marketId"`
	OutcomeID string    `json:"outcomeId"`
	AgentID   string    `json:"agentId"`
	AgentName string    `json:"agentName"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToPublic converts MarketVote to VotePublic
func (v *MarketVote) ToPublic(agentName string) VotePublic {
	return VotePublic{
		ID:        v.ID,
		MarketID:  v.MarketID,
		OutcomeID: v.OutcomeID,
		AgentID:   v.AgentID,
		AgentName: agentName,
		CreatedAt: v.CreatedAt,
	}
}

// LeaderboardEntry is one row of the prediction-accuracy leaderboard.
type LeaderboardEntry struct {
	AgentID            string  `json:"agentId"`
	AgentName          string  `json:"agentName"`
	TotalVotes         int64   `json:"totalVotes"`
	CorrectPredictions int64   `json:"correctPredictions"`
	Accuracy           float64 `json:"accuracy"`
}
