package store

import (
	"fmt"

	"github.com/AFlo59/CompareModelPoc-sub000/pkg/cache"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	"gorm.io/gorm"
)

// Store bundles the database handle with the TTL cache in front of hot
// reads. Cache invalidation happens at the write site: every write path
// enumerates the keys it invalidates, and deleting a missing key is a
// no-op.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logger.Logger
}

// New creates a store. The cache may be nil, in which case all reads go to
// the database.
func New(db *gorm.DB, c *cache.Cache, log *logger.Logger) *Store {
	return &Store{db: db, cache: c, log: log}
}

// Cache keys, one scheme per collection.

func keyUserCampaigns(userID uint) string  { return fmt.Sprintf("campaigns:user:%d", userID) }
func keyUserCharacters(userID uint) string { return fmt.Sprintf("characters:user:%d", userID) }
func keyModelChoice(userID uint) string    { return fmt.Sprintf("model_choice:user:%d", userID) }

func (s *Store) cacheGet(key string) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Store) cacheSet(key string, value interface{}) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}

func (s *Store) cacheDelete(keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		s.cache.Delete(key)
	}
}
