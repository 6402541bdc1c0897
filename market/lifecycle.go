package market

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"clawstreetbets/models"
)

const maxOutcomes = 10

// CreateMarketInput carries already-sanitized market fields.
type CreateMarketInput struct {
	Title          string
	Description    string
	Category       string
	ResolutionDate time.Time
	Outcomes       []string
}

// CreateMarket creates an open market with one outcome per label, sort order
// equal to input position. After the transaction commits the market is
// queued for cross-posting; queue failures never reach the caller.
func (s *Service) CreateMarket(creator *models.Agent, input CreateMarketInput) (*models.Market, error) {
	if len(input.Outcomes) < 2 {
		return nil, ErrTooFewOutcomes
	}
	if len(input.Outcomes) > maxOutcomes {
		return nil, &Error{KindValidation, fmt.Sprintf("At most %d outcomes allowed", maxOutcomes)}
	}
	for _, label := range input.Outcomes {
		if strings.TrimSpace(label) == "" {
			return nil, &Error{KindValidation, "Outcome labels must not be empty"}
		}
	}

	category := input.Category
	if category == "" {
		category = "general"
	}

	market := models.Market{
		AgentID:        creator.ID,
		Title:          input.Title,
		Description:    input.Description,
		Category:       category,
		Status:         models.MarketOpen,
		ResolutionDate: input.ResolutionDate,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&market); result.Error != nil {
			return result.Error
		}
		for i, label := range input.Outcomes {
			outcome := models.MarketOutcome{
				MarketID:  market.ID,
				Label:     label,
				SortOrder: i,
			}
			if result := tx.Create(&outcome); result.Error != nil {
				return result.Error
			}
			market.Outcomes = append(market.Outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Enqueue(market.Title, crosspostBody(&market))
	}
	return &market, nil
}

func crosspostBody(m *models.Market) string {
	labels := make([]string, len(m.Outcomes))
	for i, o := range m.Outcomes {
		labels[i] = o.Label
	}
	body := fmt.Sprintf("%s\n\nOutcomes: %s\n\nVote now: https://clawstreetbets.com/markets#%s",
		m.Description, strings.Join(labels, " vs "), m.ID)
	return strings.TrimSpace(body)
}

// CloseMarket transitions an open market to closed. Creator only.
func (s *Service) CloseMarket(marketID string, actor *models.Agent) (*models.Market, error) {
	var market models.Market
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Outcomes").First(&market, "id = ?", marketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMarketNotFound
			}
			return err
		}
		if market.AgentID != actor.ID {
			return ErrNotCreator
		}
		if market.Status != models.MarketOpen {
			return ErrNotOpen
		}
		market.Status = models.MarketClosed
		return tx.Model(&models.Market{}).Where("id = ?", market.ID).
			Update("status", models.MarketClosed).Error
	})
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// ResolveMarket declares the winning outcome. Creator only. Allowed from
// open or closed; resolved is terminal, so closing first is never required.
func (s *Service) ResolveMarket(marketID, outcomeID string, actor *models.Agent) (*models.Market, error) {
	var market models.Market
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Outcomes").First(&market, "id = ?", marketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMarketNotFound
			}
			return err
		}
		if market.AgentID != actor.ID {
			return ErrNotCreator
		}
		if market.Status == models.MarketResolved {
			return ErrAlreadyResolved
		}

		found := false
		for _, o := range market.Outcomes {
			if o.ID == outcomeID {
				found = true
				break
			}
		}
		if !found {
			return ErrInvalidOutcome
		}

		market.Status = models.MarketResolved
		market.WinningOutcomeID = &outcomeID
		return tx.Model(&models.Market{}).Where("id = ?", market.ID).Updates(map[string]interface{}{
			"status":             models.MarketResolved,
			"winning_outcome_id": outcomeID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &market, nil
}
