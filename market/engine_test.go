package market

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clawstreetbets/models"
)

// newTestDB opens an isolated in-memory store. The pool is pinned to one
// connection because every sqlite :memory: connection is its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Agent{},
		&models.Market{},
		&models.MarketOutcome{},
		&models.MarketVote{},
	))
	return db
}

func newTestAgent(t *testing.T, db *gorm.DB, name string) *models.Agent {
	t.Helper()
	apiKey, err := models.GenerateAPIKey()
	require.NoError(t, err)
	agent := models.Agent{Name: name, APIKey: apiKey}
	require.NoError(t, db.Create(&agent).Error)
	return &agent
}

func newTestMarket(t *testing.T, svc *Service, creator *models.Agent, labels ...string) *models.Market {
	t.Helper()
	if len(labels) == 0 {
		labels = []string{"Yes", "No"}
	}
	m, err := svc.CreateMarket(creator, CreateMarketInput{
		Title:          "Will it molt?",
		Description:    "A test market",
		Category:       "testing",
		ResolutionDate: time.Now().Add(24 * time.Hour),
		Outcomes:       labels,
	})
	require.NoError(t, err)
	return m
}

// assertInvariants checks the three aggregate invariants for one market:
// market.vote_count equals the vote row count, equals the sum of outcome
// counts, and no outcome count is negative.
func assertInvariants(t *testing.T, db *gorm.DB, marketID string) {
	t.Helper()

	var m models.Market
	require.NoError(t, db.First(&m, "id = ?", marketID).Error)

	var rows int64
	require.NoError(t, db.Model(&models.MarketVote{}).Where("market_id = ?", marketID).Count(&rows).Error)
	require.Equal(t, rows, m.VoteCount, "market.vote_count must equal vote rows")

	var outcomes []models.MarketOutcome
	require.NoError(t, db.Where("market_id = ?", marketID).Find(&outcomes).Error)
	var sum int64
	for _, o := range outcomes {
		require.GreaterOrEqual(t, o.VoteCount, int64(0), "outcome count must never be negative")
		sum += o.VoteCount
	}
	require.Equal(t, sum, m.VoteCount, "market.vote_count must equal outcome sum")
}
