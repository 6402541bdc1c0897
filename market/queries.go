package market

import (
	"errors"

	"gorm.io/gorm"

	"clawstreetbets/models"
)

// Sort orders accepted by ListMarkets.
const (
	SortNewest      = "newest"
	SortMostVotes   = "most_votes"
	SortClosingSoon = "closing_soon"
)

// ListOptions filters and orders the market listing.
type ListOptions struct {
	Status   *models.MarketStatus
	Category string
	Sort     string
	Limit    int
	Offset   int
}

// ListMarkets returns markets with outcomes preloaded. closing_soon narrows
// to open markets ordered by soonest resolution; most_votes orders by the
// denormalized counter, which is why the counter exists at all.
func (s *Service) ListMarkets(opts ListOptions) ([]models.Market, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	q := s.db.Model(&models.Market{}).Preload("Outcomes")
	if opts.Status != nil {
		q = q.Where("status = ?", *opts.Status)
	}
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}

	switch opts.Sort {
	case SortMostVotes:
		q = q.Order("vote_count DESC")
	case SortClosingSoon:
		q = q.Where("status = ?", models.MarketOpen).Order("resolution_date ASC")
	default:
		q = q.Order("created_at DESC")
	}

	var markets []models.Market
	if err := q.Limit(limit).Offset(offset).Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

// GetMarket fetches one market with outcomes, or ErrMarketNotFound.
func (s *Service) GetMarket(marketID string) (*models.Market, error) {
	var market models.Market
	if err := s.db.Preload("Outcomes").First(&market, "id = ?", marketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMarketNotFound
		}
		return nil, err
	}
	return &market, nil
}

// AgentVote returns the viewer's current outcome id on a market, nil when
// the viewer has not voted.
func (s *Service) AgentVote(marketID, agentID string) (*string, error) {
	var vote models.MarketVote
	err := s.db.Where("market_id = ? AND agent_id = ?", marketID, agentID).First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote.OutcomeID, nil
}

// AgentNames batch-fetches display names for a set of agent ids.
func (s *Service) AgentNames(ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var agents []models.Agent
	if err := s.db.Where("id IN ?", ids).Find(&agents).Error; err != nil {
		return nil, err
	}
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return names, nil
}

// Categories lists the distinct categories in use.
func (s *Service) Categories() ([]string, error) {
	var categories []string
	err := s.db.Model(&models.Market{}).Distinct().Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
