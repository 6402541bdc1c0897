package migrations

import (
	"log"

	"gorm.io/gorm"

	"clawstreetbets/migration"
	"clawstreetbets/models"
)

func init() {
	if err := migration.Register("20260301_market_core", Migration20260301MarketCore); err != nil {
		log.Fatalf("Failed to register migration 20260301_market_core: %v", err)
	}
}

// Migration20260301MarketCore creates the agent, market, outcome, and vote
// tables. The composite unique index on market_votes(market_id, agent_id)
// comes from the model tags and is what makes racing casts safe across
// processes.
func Migration20260301MarketCore(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Agent{},
		&models.Market{},
		&models.MarketOutcome{},
		&models.MarketVote{},
	); err != nil {
		return err
	}

	// Secondary indexes for the hot listing paths
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_markets_status_votes ON markets(status, vote_count DESC)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_markets_resolution ON markets(status, resolution_date ASC)").Error; err != nil {
		return err
	}

	return nil
}
