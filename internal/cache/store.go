package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

const defaultStoreTTL = 5 * time.Minute

// CachedStore is a read-through cache over a DataStore. Investigations
// of repeated customers hit the cache instead of the database; cache
// failures fall through to the underlying store.
type CachedStore struct {
	store domain.DataStore
	cache domain.Cache
	ttl   time.Duration
}

// NewCachedStore wraps a datastore with a cache. A zero ttl uses the
// default.
func NewCachedStore(store domain.DataStore, c domain.Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultStoreTTL
	}
	return &CachedStore{store: store, cache: c, ttl: ttl}
}

// Profile returns the cached profile when present, loading and caching
// it otherwise. A customer with no profile caches the JSON null so
// repeat misses skip the database too.
func (s *CachedStore) Profile(ctx context.Context, customerID string) (*domain.Profile, error) {
	key := "profile:" + customerID

	if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
		var p *domain.Profile
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
	}

	p, err := s.store.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}

	return p, nil
}

// RecentLogins returns cached login events keyed by customer and limit.
func (s *CachedStore) RecentLogins(ctx context.Context, customerID string, limit int) ([]domain.LoginEvent, error) {
	key := "logins:" + customerID + ":" + strconv.Itoa(limit)

	if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
		var logins []domain.LoginEvent
		if err := json.Unmarshal(data, &logins); err == nil {
			return logins, nil
		}
	}

	logins, err := s.store.RecentLogins(ctx, customerID, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(logins); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}

	return logins, nil
}

// Devices returns cached device records for the customer.
func (s *CachedStore) Devices(ctx context.Context, customerID string) ([]domain.Device, error) {
	key := "devices:" + customerID

	if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
		var devices []domain.Device
		if err := json.Unmarshal(data, &devices); err == nil {
			return devices, nil
		}
	}

	devices, err := s.store.Devices(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(devices); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}

	return devices, nil
}

// Invalidate drops the cached records for a customer, for use after
// auxiliary data writes.
func (s *CachedStore) Invalidate(ctx context.Context, customerID string) {
	_ = s.cache.Delete(ctx, "profile:"+customerID)
	_ = s.cache.Delete(ctx, "devices:"+customerID)
}
