// Package admin holds operator-only maintenance endpoints.
package admin

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clawstreetbets/models"
)

// ReconcileReport summarizes a counter-repair sweep.
type ReconcileReport struct {
	MarketsChecked   int64 `json:"marketsChecked"`
	MarketsRepaired  int64 `json:"marketsRepaired"`
	OutcomesRepaired int64 `json:"outcomesRepaired"`
}

func authorize(r *http.Request, adminHash string) bool {
	if adminHash == "" {
		return false
	}
	key := r.Header.Get("X-Admin-Key")
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(adminHash), []byte(key)) == nil
}

// ReconcileHandler handles POST /api/admin/reconcile. It resets every
// market and outcome counter to the count of its underlying vote rows.
// The voting engine keeps these consistent on its own; this sweep exists
// for recovery after manual data surgery, and doubles as a cheap audit —
// a nonzero repair count on a healthy system is a bug report.
func ReconcileHandler(db *gorm.DB, adminHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorize(r, adminHash) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": "Admin key required"})
			return
		}

		var report ReconcileReport
		err := db.Transaction(func(tx *gorm.DB) error {
			var markets []models.Market
			if err := tx.Find(&markets).Error; err != nil {
				return err
			}
			report.MarketsChecked = int64(len(markets))

			for _, m := range markets {
				var actual int64
				if err := tx.Model(&models.MarketVote{}).Where("market_id = ?", m.ID).Count(&actual).Error; err != nil {
					return err
				}
				if actual != m.VoteCount {
					if err := tx.Model(&models.Market{}).Where("id = ?", m.ID).
						UpdateColumn("vote_count", actual).Error; err != nil {
						return err
					}
					report.MarketsRepaired++
				}

				var outcomes []models.MarketOutcome
				if err := tx.Where("market_id = ?", m.ID).Find(&outcomes).Error; err != nil {
					return err
				}
				for _, o := range outcomes {
					var votes int64
					if err := tx.Model(&models.MarketVote{}).Where("outcome_id = ?", o.ID).Count(&votes).Error; err != nil {
						return err
					}
					if votes != o.VoteCount {
						if err := tx.Model(&models.MarketOutcome{}).Where("id = ?", o.ID).
							UpdateColumn("vote_count", votes).Error; err != nil {
							return err
						}
						report.OutcomesRepaired++
					}
				}
			}
			return nil
		})
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "internal", "message": "Reconcile failed"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
