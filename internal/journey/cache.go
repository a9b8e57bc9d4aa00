package journey

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/internal/pipedrive"
)

// DefaultCacheTTL is how long raw journey inputs stay cached.
const DefaultCacheTTL = 24 * time.Hour

// RawInputs is one cache entry: the raw upstream payloads for an email, never
// the derived aggregate. The aggregate is rebuilt on every read so analyzer
// changes take effect without cache invalidation.
type RawInputs struct {
	Email     string             `json:"email"`
	Mautic    *mautic.LeadData   `json:"mauticData"`
	Pipedrive *pipedrive.CRMData `json:"pipedriveData"`
	CachedAt  time.Time          `json:"cachedAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// CacheStore keeps raw journey inputs in redis with a fixed TTL.
type CacheStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewCacheStore builds a CacheStore. A non-positive ttl falls back to the
// default 24 hours.
func NewCacheStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *CacheStore {
	if client == nil {
		panic("journey: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("leadinsights.internal.journey.cache")
	}
	return &CacheStore{redis: client, ttl: ttl, tracer: tracer}
}

// Get returns the cached raw inputs for the email, or nil on a miss. Entries
// past their recorded expiry are treated as misses even if redis has not
// evicted them yet.
func (s *CacheStore) Get(ctx context.Context, email string) (*RawInputs, error) {
	ctx, span := s.tracer.Start(ctx, "journey.cache_get")
	defer span.End()

	data, err := s.redis.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("journey: failed to read cache: %w", err)
	}

	var entry RawInputs
	if err := json.Unmarshal(data, &entry); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("journey: failed to decode cache entry: %w", err)
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		return nil, nil
	}
	return &entry, nil
}

// Put stores the raw inputs with a fresh expiry.
func (s *CacheStore) Put(ctx context.Context, email string, mauticData *mautic.LeadData, pipedriveData *pipedrive.CRMData) error {
	ctx, span := s.tracer.Start(ctx, "journey.cache_put")
	defer span.End()

	now := time.Now().UTC()
	entry := RawInputs{
		Email:     normalizeEmail(email),
		Mautic:    mauticData,
		Pipedrive: pipedriveData,
		CachedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("journey: failed to marshal cache entry: %w", err)
	}
	if err := s.redis.Set(ctx, cacheKey(email), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("journey: failed to persist cache entry: %w", err)
	}
	return nil
}

func cacheKey(email string) string {
	return fmt.Sprintf("lead_journey:%s", normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
