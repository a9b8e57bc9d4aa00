package journey

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/internal/pipedrive"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CacheStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheStore(client, ttl, nil), mr
}

func sampleRawInputs() (*mautic.LeadData, *pipedrive.CRMData) {
	return &mautic.LeadData{
			Contact: &mautic.Contact{ID: 42, DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			Activities: []mautic.ActivityEvent{
				{Event: "page.hit", Timestamp: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
			},
		}, &pipedrive.CRMData{
			Person: &pipedrive.Person{ID: 17, Name: "Ana Souza"},
		}
}

func TestCacheStore_PutAndGet(t *testing.T) {
	store, _ := newTestCache(t, time.Hour)
	mauticData, pipedriveData := sampleRawInputs()

	require.NoError(t, store.Put(context.Background(), "Lead@Example.com", mauticData, pipedriveData))

	entry, err := store.Get(context.Background(), "lead@example.com")
	require.NoError(t, err)
	require.NotNil(t, entry, "key is case-insensitive on email")
	assert.Equal(t, "lead@example.com", entry.Email)
	assert.Equal(t, 42, entry.Mautic.Contact.ID)
	assert.Equal(t, 17, entry.Pipedrive.Person.ID)
	assert.True(t, entry.ExpiresAt.After(entry.CachedAt))
}

func TestCacheStore_MissReturnsNil(t *testing.T) {
	store, _ := newTestCache(t, time.Hour)

	entry, err := store.Get(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCacheStore_ExpiredEntryIsAMiss(t *testing.T) {
	store, mr := newTestCache(t, time.Hour)
	mauticData, pipedriveData := sampleRawInputs()

	require.NoError(t, store.Put(context.Background(), "lead@example.com", mauticData, pipedriveData))

	mr.FastForward(2 * time.Hour)

	entry, err := store.Get(context.Background(), "lead@example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCacheStore_PutRefreshesExpiry(t *testing.T) {
	store, _ := newTestCache(t, time.Hour)
	mauticData, pipedriveData := sampleRawInputs()

	require.NoError(t, store.Put(context.Background(), "lead@example.com", mauticData, pipedriveData))
	first, err := store.Get(context.Background(), "lead@example.com")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Put(context.Background(), "lead@example.com", mauticData, pipedriveData))
	second, err := store.Get(context.Background(), "lead@example.com")
	require.NoError(t, err)

	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestCacheStore_DefaultTTL(t *testing.T) {
	store, _ := newTestCache(t, 0)
	assert.Equal(t, DefaultCacheTTL, store.ttl)
}
