package market

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"clawstreetbets/models"
)

// CastVote records or amends an agent's vote on an open market.
//
// No prior vote: a row is inserted and both the outcome's and the market's
// vote_count are incremented. Prior vote on a different outcome: the old
// outcome's count is decremented (floored at zero), the row is reassigned,
// the new outcome's count is incremented, and market.vote_count is left
// unchanged. Prior vote on the same outcome: no-op.
//
// Cast and remove for one (market, agent) pair are serialized in-process;
// the unique index on (market_id, agent_id) backstops across processes, and
// a unique-violation on insert is retried once so the loser of a race lands
// on the change-vote path instead of erroring.
func (s *Service) CastVote(marketID, outcomeID string, agent *models.Agent) (*models.MarketVote, error) {
	return s.castVoteLocked(marketID, outcomeID, agent.ID)
}

// castVoteLocked serializes the cast under the per-(market, agent) lock.
// Every path that mutates a vote row, credential voting included, must go
// through this lock or RemoveVote's identical one.
func (s *Service) castVoteLocked(marketID, outcomeID, agentID string) (*models.MarketVote, error) {
	mu := s.votes.lock(marketID + "/" + agentID)
	defer mu.Unlock()

	var vote *models.MarketVote
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			v, txErr := castVoteTx(tx, marketID, outcomeID, agentID)
			if txErr != nil {
				return txErr
			}
			vote = v
			return nil
		})
		if err == nil || !isDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return vote, nil
}

func castVoteTx(tx *gorm.DB, marketID, outcomeID, agentID string) (*models.MarketVote, error) {
	var market models.Market
	if err := tx.First(&market, "id = ?", marketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMarketNotFound
		}
		return nil, err
	}
	if market.Status != models.MarketOpen {
		return nil, ErrMarketNotOpen
	}

	var outcome models.MarketOutcome
	if err := tx.Where("id = ? AND market_id = ?", outcomeID, marketID).First(&outcome).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOutcome
		}
		return nil, err
	}

	var existing models.MarketVote
	err := tx.Where("market_id = ? AND agent_id = ?", marketID, agentID).First(&existing).Error
	if err == nil {
		if existing.OutcomeID == outcomeID {
			// Re-voting the same outcome is a permitted no-op.
			return &existing, nil
		}
		if err := decrementOutcomeCount(tx, existing.OutcomeID); err != nil {
			return nil, err
		}
		if err := tx.Model(&existing).Update("outcome_id", outcomeID).Error; err != nil {
			return nil, err
		}
		if err := incrementOutcomeCount(tx, outcomeID); err != nil {
			return nil, err
		}
		existing.OutcomeID = outcomeID
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vote := models.MarketVote{
		MarketID:  marketID,
		OutcomeID: outcomeID,
		AgentID:   agentID,
	}
	if result := tx.Create(&vote); result.Error != nil {
		return nil, result.Error
	}
	if err := incrementOutcomeCount(tx, outcomeID); err != nil {
		return nil, err
	}
	if err := incrementMarketCount(tx, marketID); err != nil {
		return nil, err
	}
	return &vote, nil
}

// RemoveVote withdraws the agent's vote. Votes are frozen once a market is
// no longer open, so removal requires open status too.
func (s *Service) RemoveVote(marketID string, agent *models.Agent) error {
	mu := s.votes.lock(marketID + "/" + agent.ID)
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var market models.Market
		if err := tx.First(&market, "id = ?", marketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMarketNotFound
			}
			return err
		}
		if market.Status != models.MarketOpen {
			return ErrMarketNotOpen
		}

		var vote models.MarketVote
		err := tx.Where("market_id = ? AND agent_id = ?", marketID, agent.ID).First(&vote).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoVote
			}
			return err
		}

		if err := decrementOutcomeCount(tx, vote.OutcomeID); err != nil {
			return err
		}
		if err := decrementMarketCount(tx, marketID); err != nil {
			return err
		}
		return tx.Delete(&vote).Error
	})
}

// Counter updates are single atomic statements, never read-then-write, so
// votes from different agents on the same market cannot lose increments.
// Decrements floor at zero in SQL.

func incrementOutcomeCount(tx *gorm.DB, outcomeID string) error {
	return tx.Model(&models.MarketOutcome{}).Where("id = ?", outcomeID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error
}

func decrementOutcomeCount(tx *gorm.DB, outcomeID string) error {
	return tx.Model(&models.MarketOutcome{}).Where("id = ?", outcomeID).
		UpdateColumn("vote_count", gorm.Expr("CASE WHEN vote_count > 0 THEN vote_count - 1 ELSE 0 END")).Error
}

func incrementMarketCount(tx *gorm.DB, marketID string) error {
	return tx.Model(&models.Market{}).Where("id = ?", marketID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error
}

func decrementMarketCount(tx *gorm.DB, marketID string) error {
	return tx.Model(&models.Market{}).Where("id = ?", marketID).
		UpdateColumn("vote_count", gorm.Expr("CASE WHEN vote_count > 0 THEN vote_count - 1 ELSE 0 END")).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
