package slides

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ShapeStore remembers the labeled shapes of a slide session so later
// arrange requests can omit them.
type ShapeStore struct {
	cache *cache.Cache
}

// NewShapeStore keeps entries for ttl after their last write.
func NewShapeStore(ttl time.Duration) *ShapeStore {
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &ShapeStore{cache: cache.New(ttl, cleanup)}
}

func (s *ShapeStore) Save(sessionID string, shapes []LabeledShape) {
	s.cache.Set(sessionID, append([]LabeledShape(nil), shapes...), cache.DefaultExpiration)
}

func (s *ShapeStore) Get(sessionID string) ([]LabeledShape, bool) {
	if x, found := s.cache.Get(sessionID); found {
		return append([]LabeledShape(nil), x.([]LabeledShape)...), true
	}
	return nil, false
}
