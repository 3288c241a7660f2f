package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/escribo/planos-web/pkg/logger"
	"github.com/escribo/planos-web/pkg/metrics"
	"github.com/escribo/planos-web/pkg/supabase"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	userKeyPrefix    = "user:token:"
	cacheCheckPeriod = 30 * time.Second
	cacheName        = "provider_user"
)

// UserCache remembers provider user lookups per access token.
// Keys are token hashes so raw tokens never sit in memory twice.
type UserCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewUserCache creates a cache; ttlSeconds <= 0 disables it
func NewUserCache(ttlSeconds int) *UserCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &UserCache{
		cache: gocache.New(ttl, cacheCheckPeriod),
		ttl:   ttl,
	}
}

// Enabled reports whether lookups are cached at all
func (uc *UserCache) Enabled() bool {
	return uc != nil && uc.ttl > 0
}

// Get returns the cached user for the token
func (uc *UserCache) Get(accessToken string) (*supabase.User, bool) {
	if !uc.Enabled() || accessToken == "" {
		return nil, false
	}

	data, found := uc.cache.Get(key(accessToken))
	if !found {
		metrics.CacheMisses.WithLabelValues(cacheName).Inc()
		return nil, false
	}

	user, ok := data.(*supabase.User)
	if !ok {
		logger.Warn("Unexpected value type in user cache")
		uc.cache.Delete(key(accessToken))
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(cacheName).Inc()
	return user, true
}

// Set stores the user. ttl caps the entry lifetime below the cache TTL,
// typically the token's remaining validity; zero means the cache TTL and a
// negative value (already expired) stores nothing.
func (uc *UserCache) Set(accessToken string, user *supabase.User, ttl time.Duration) {
	if !uc.Enabled() || accessToken == "" || user == nil || ttl < 0 {
		return
	}
	if ttl == 0 || ttl > uc.ttl {
		ttl = uc.ttl
	}
	uc.cache.Set(key(accessToken), user, ttl)
	logger.Debug("Cached provider user", zap.String("user_id", user.ID), zap.Duration("ttl", ttl))
}

// Invalidate drops the entry for the token
func (uc *UserCache) Invalidate(accessToken string) {
	if !uc.Enabled() || accessToken == "" {
		return
	}
	uc.cache.Delete(key(accessToken))
}

// Len returns the number of live entries
func (uc *UserCache) Len() int {
	if !uc.Enabled() {
		return 0
	}
	return uc.cache.ItemCount()
}

func key(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return userKeyPrefix + hex.EncodeToString(sum[:])
}
