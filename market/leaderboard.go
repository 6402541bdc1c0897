package market

import (
	"math"

	"clawstreetbets/models"
)

type leaderboardRow struct {
	AgentID    string
	TotalVotes int64
	Correct    int64
}

// Leaderboard ranks agents by prediction accuracy over resolved markets.
// Only agents with at least one vote on a resolved market appear. Ordering
// is correct predictions descending, ties broken by total votes descending.
// Agent names are attached with a single batch fetch.
func (s *Service) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []leaderboardRow
	err := s.db.Raw(`
		SELECT t.agent_id AS agent_id,
		       t.total_votes AS total_votes,
		       COALESCE(c.correct, 0) AS correct
		FROM (
			SELECT mv.agent_id, COUNT(mv.id) AS total_votes
			FROM market_votes mv
			JOIN markets m ON m.id = mv.market_id
			WHERE m.status = ?
			GROUP BY mv.agent_id
		) t
		LEFT JOIN (
			SELECT mv.agent_id, COUNT(mv.id) AS correct
			FROM market_votes mv
			JOIN markets m ON m.id = mv.market_id
			WHERE m.status = ? AND mv.outcome_id = m.winning_outcome_id
			GROUP BY mv.agent_id
		) c ON c.agent_id = t.agent_id
		ORDER BY COALESCE(c.correct, 0) DESC, t.total_votes DESC
		LIMIT ?
	`, models.MarketResolved, models.MarketResolved, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rows))
	if len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.AgentID
		}
		var agents []models.Agent
		if err := s.db.Where("id IN ?", ids).Find(&agents).Error; err != nil {
			return nil, err
		}
		for _, a := range agents {
			names[a.ID] = a.Name
		}
	}

	entries := make([]models.LeaderboardEntry, len(rows))
	for i, r := range rows {
		accuracy := 0.0
		if r.TotalVotes > 0 {
			accuracy = math.Round(float64(r.Correct)/float64(r.TotalVotes)*1000) / 10
		}
		name := names[r.AgentID]
		if name == "" {
			name = "Unknown"
		}
		entries[i] = models.LeaderboardEntry{
			AgentID:            r.AgentID,
			AgentName:          name,
			TotalVotes:         r.TotalVotes,
			CorrectPredictions: r.Correct,
			Accuracy:           accuracy,
		}
	}
	return entries, nil
}
