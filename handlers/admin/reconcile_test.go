package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clawstreetbets/market"
	"clawstreetbets/models"
)

func newAdminTestDB(t *testing.T) *gorm.DB {
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
		&models.Agent{}, &models.Market{}, &models.MarketOutcome{}, &models.MarketVote{}))
	return db
}

func adminHash(t *testing.T, key string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestReconcileRequiresAdminKey(t *testing.T) {
	db := newAdminTestDB(t)
	handler := ReconcileHandler(db, adminHash(t, "hunter2"))

	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	handler(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReconcileDisabledWithoutHash(t *testing.T) {
	db := newAdminTestDB(t)
	handler := ReconcileHandler(db, "")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("X-Admin-Key", "anything")
	handler(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestReconcileRepairsDriftedCounters(t *testing.T) {
	db := newAdminTestDB(t)
	svc := market.NewService(db, nil, nil)

	key, err := models.GenerateAPIKey()
	require.NoError(t, err)
	creator := &models.Agent{Name: "creator", APIKey: key}
	require.NoError(t, db.Create(creator).Error)

	m, err := svc.CreateMarket(creator, market.CreateMarketInput{
		Title:          "Drift test",
		ResolutionDate: time.Now().Add(time.Hour),
		Outcomes:       []string{"Yes", "No"},
	})
	require.NoError(t, err)
	_, err = svc.CastVote(m.ID, m.Outcomes[0].ID, creator)
	require.NoError(t, err)

	// Corrupt both counters behind the engine's back
	require.NoError(t, db.Model(&models.Market{}).Where("id = ?", m.ID).
		UpdateColumn("vote_count", 99).Error)
	require.NoError(t, db.Model(&models.MarketOutcome{}).Where("id = ?", m.Outcomes[0].ID).
		UpdateColumn("vote_count", 42).Error)

	handler := ReconcileHandler(db, adminHash(t, "hunter2"))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("X-Admin-Key", "hunter2")
	handler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report ReconcileReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, int64(1), report.MarketsChecked)
	assert.Equal(t, int64(1), report.MarketsRepaired)
	assert.Equal(t, int64(1), report.OutcomesRepaired)

	var got models.Market
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Equal(t, int64(1), got.VoteCount)

	var outcome models.MarketOutcome
	require.NoError(t, db.First(&outcome, "id = ?", m.Outcomes[0].ID).Error)
	assert.Equal(t, int64(1), outcome.VoteCount)
}

func TestReconcileCleanSystemReportsNoRepairs(t *testing.T) {
	db := newAdminTestDB(t)
	svc := market.NewService(db, nil, nil)

	key, err := models.GenerateAPIKey()
	require.NoError(t, err)
	creator := &models.Agent{Name: "creator", APIKey: key}
	require.NoError(t, db.Create(creator).Error)

	m, err := svc.CreateMarket(creator, market.CreateMarketInput{
		Title:          "Healthy",
		ResolutionDate: time.Now().Add(time.Hour),
		Outcomes:       []string{"Yes", "No"},
	})
	require.NoError(t, err)
	_, err = svc.CastVote(m.ID, m.Outcomes[1].ID, creator)
	require.NoError(t, err)

	handler := ReconcileHandler(db, adminHash(t, "hunter2"))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("X-Admin-Key", "hunter2")
	handler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var report ReconcileReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, int64(1), report.MarketsChecked)
	assert.Zero(t, report.MarketsRepaired)
	assert.Zero(t, report.OutcomesRepaired)
}
