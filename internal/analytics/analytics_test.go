package analytics

import (
	"testing"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/models"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/store"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/cache"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func newTestService(t *testing.T) (*Service, *store.Store, uint) {
	db, err := store.OpenInMemory(testLogger())
	require.NoError(t, err)
	st := store.New(db, nil, testLogger())

	user, err := st.CreateUser(&models.CreateUserRequest{Email: "hero@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	svc := NewService(st, cache.New(5*time.Minute, 0, 100), 120*time.Second, testLogger())
	return svc, st, user.ID
}

func TestGetStatsSummarizesPerModel(t *testing.T) {
	svc, st, userID := newTestService(t)

	require.NotZero(t, st.StorePerformance(userID, "GPT-4", 1.0, 10, 5, nil, 0.02))
	require.NotZero(t, st.StorePerformance(userID, "GPT-4", 2.0, 20, 10, nil, 0.03))
	require.NotZero(t, st.StorePerformance(userID, "GPT-4o", 3.0, 30, 15, nil, 0.04))

	summary, err := svc.GetStats(userID, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalRequests)
	assert.InDelta(t, 0.09, summary.TotalCost, 1e-9)
	assert.Equal(t, "GPT-4", summary.MostUsedModel)

	gpt4 := summary.ByModel["GPT-4"]
	assert.Equal(t, int64(2), gpt4.Count)
	assert.InDelta(t, 1.5, gpt4.AvgLatency, 1e-9)
	assert.Equal(t, int64(30), gpt4.TotalTokensIn)
}

func TestGetStatsEmptyLog(t *testing.T) {
	svc, _, userID := newTestService(t)

	summary, err := svc.GetStats(userID, 30)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRequests)
	assert.Empty(t, summary.ByModel)
	assert.Empty(t, summary.MostUsedModel)
}

func TestGetStatsCachedPerWindow(t *testing.T) {
	svc, st, userID := newTestService(t)

	require.NotZero(t, st.StorePerformance(userID, "GPT-4", 1.0, 10, 5, nil, 0.02))

	first, err := svc.GetStats(userID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalRequests)

	// A write inside the TTL is not visible through the same key.
	require.NotZero(t, st.StorePerformance(userID, "GPT-4", 1.0, 10, 5, nil, 0.02))
	cached, err := svc.GetStats(userID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalRequests)

	// A different window is a different key and recomputes.
	fresh, err := svc.GetStats(userID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.TotalRequests)
}
