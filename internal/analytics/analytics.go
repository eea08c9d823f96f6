// Package analytics summarizes the performance log per model and time
// window. Summaries are cheap but hit on every dashboard refresh, so they
// sit behind a short TTL cache.
package analytics

import (
	"fmt"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/cache"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
)

// defaultStatsTTL is how long a computed summary stays fresh.
const defaultStatsTTL = 120 * time.Second

// Summary is the per-user analytics view over a time window.
type Summary struct {
	ByModel       map[string]store.ModelStats `json:"by_model"`
	TotalRequests int64                       `json:"total_requests"`
	TotalCost     float64                     `json:"total_cost"`
	MostUsedModel string                      `json:"most_used_model,omitempty"`
	WindowDays    int                         `json:"window_days"`
	GeneratedAt   time.Time                   `json:"generated_at"`
}

// Service aggregates performance records.
type Service struct {
	store *store.Store
	cache *cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewService creates the aggregator. The cache may be nil.
func NewService(st *store.Store, c *cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &Service{store: st, cache: c, ttl: ttl, log: log}
}

func statsKey(userID uint, days int) string {
	return fmt.Sprintf("stats:user:%d:days:%d", userID, days)
}

// GetStats returns the per-model summary for the user over the last days.
// A non-positive days means the whole log. Keyed by user and window, cached
// for the service TTL.
func (s *Service) GetStats(userID uint, days int) (*Summary, error) {
	key := statsKey(userID, days)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(*Summary), nil
		}
	}

	stats, err := s.store.GetPerformanceStats(userID, days)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByModel:     make(map[string]store.ModelStats, len(stats)),
		WindowDays:  days,
		GeneratedAt: time.Now(),
	}
	var mostUsed int64
	for _, st := range stats {
		summary.ByModel[st.Model] = st
		summary.TotalRequests += st.Count
		summary.TotalCost += st.TotalCost
		if st.Count > mostUsed {
			mostUsed = st.Count
			summary.MostUsedModel = st.Model
		}
	}

	if s.cache != nil {
		s.cache.SetWithExpiration(key, summary, s.ttl)
	}
	return summary, nil
}
