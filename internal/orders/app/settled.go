package app

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultSettledTTL = 10 * time.Minute

// SettledTracker remembers order ids that recently reached a terminal status so a refresh
// served by a lagging backend does not bring them back.
type SettledTracker struct {
	ids *cache.Cache
}

func NewSettledTracker(ttl time.Duration) *SettledTracker {
	if ttl <= 0 {
		ttl = DefaultSettledTTL
	}
	return &SettledTracker{ids: cache.New(ttl, 2*ttl)}
}

// Mark records ids as settled.
func (t *SettledTracker) Mark(ids ...string) {
	for _, id := range ids {
		t.ids.SetDefault(id, struct{}{})
	}
}

// Settled reports whether id settled within the tracker's TTL.
func (t *SettledTracker) Settled(id string) bool {
	_, ok := t.ids.Get(id)
	return ok
}

// Forget drops every remembered id.
func (t *SettledTracker) Forget() {
	t.ids.Flush()
}
