package scores

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

// ExclusionSet is a bounded, short-lived set of report message IDs that
// an admin is correcting by hand. The auto-ingest listener consults it so
// a manually handled report is not double-processed. Entries age out via
// TTL and the LRU bound caps memory regardless of marking rate.
type ExclusionSet struct {
	cache *lru.Cache
	ttl   time.Duration
}

func NewExclusionSet(size int, ttl time.Duration) *ExclusionSet {
	cache, _ := lru.New(size)
	return &ExclusionSet{cache: cache, ttl: ttl}
}

// Mark records a message as being handled manually.
func (s *ExclusionSet) Mark(messageID snowflake.ID) {
	s.cache.Add(messageID, time.Now().Add(s.ttl))
}

// Excluded reports whether a message is currently marked. Expired
// entries are evicted on lookup.
func (s *ExclusionSet) Excluded(messageID snowflake.ID) bool {
	v, ok := s.cache.Get(messageID)
	if !ok {
		return false
	}
	if time.Now().After(v.(time.Time)) {
		s.cache.Remove(messageID)
		return false
	}
	return true
}
