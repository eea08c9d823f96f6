package store

import (
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
)

// ModelStats aggregates the performance log for one model.
type ModelStats struct {
	Model          string  `json:"model"`
	Count          int64   `json:"count"`
	AvgLatency     float64 `json:"avg_latency"`
	TotalTokensIn  int64   `json:"total_tokens_in"`
	TotalTokensOut int64   `json:"total_tokens_out"`
	TotalCost      float64 `json:"total_cost"`
}

// StorePerformance appends one provider-call record. Like StoreMessage it
// is a write-through logging call: failures are logged, never surfaced, and
// the 0 sentinel is returned.
func (s *Store) StorePerformance(userID uint, model string, latency float64, tokensIn, tokensOut int, campaignID *uint, costEstimate float64) uint {
	if model == "" || latency < 0 {
		s.log.Warn("dropping invalid performance record", "user_id", userID, "model", model)
		return 0
	}

	record := models.PerformanceLog{
		UserID:       userID,
		CampaignID:   campaignID,
		Model:        model,
		Latency:      latency,
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
		CostEstimate: costEstimate,
		Timestamp:    time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		s.log.Error("failed to store performance record", "user_id", userID, "model", model, "error", err)
		return 0
	}
	return record.ID
}

// GetPerformanceStats aggregates the user's performance log per model over
// the last days. A non-positive days means no time bound.
func (s *Store) GetPerformanceStats(userID uint, days int) ([]ModelStats, error) {
	query := s.db.Model(&models.PerformanceLog{}).
		Select("model, COUNT(*) AS count, AVG(latency_seconds) AS avg_latency, SUM(tokens_in) AS total_tokens_in, SUM(tokens_out) AS total_tokens_out, SUM(cost_estimate) AS total_cost").
		Where("user_id = ?", userID).
		Group("model").
		Order("count DESC")
	if days > 0 {
		query = query.Where("timestamp >= ?", time.Now().AddDate(0, 0, -days))
	}

	var stats []ModelStats
	if err := query.Scan(&stats).Error; err != nil {
		return nil, apperrors.NewStorageError(err.Error())
	}
	if stats == nil {
		stats = []ModelStats{}
	}
	return stats, nil
}
