package mautic

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/grupoblue/lead-insights/pkg/logging"
)

const lookupSyncLimit = 500

// LookupKind identifies one of the synced id→name tables.
type LookupKind string

const (
	LookupEmails    LookupKind = "email"
	LookupPages     LookupKind = "page"
	LookupSegments  LookupKind = "segment"
	LookupCampaigns LookupKind = "campaign"
	LookupStages    LookupKind = "stage"
)

type lookupDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// LookupStore persists the Mautic id→name tables in postgres and refreshes
// them from the API on demand. Names are cosmetic; every consumer tolerates
// a missing entry.
type LookupStore struct {
	db     lookupDB
	client *Client
	logger *logging.Logger
}

// NewLookupStore builds a lookup store. client may be nil when on-demand
// refresh is not wanted (e.g. in tests).
func NewLookupStore(db lookupDB, client *Client, logger *logging.Logger) *LookupStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &LookupStore{db: db, client: client, logger: logger}
}

// Load reads every lookup table from postgres. When the tables are still
// cold and an API client is available, the names are fetched straight from
// the listing endpoints instead, so first lookups after a deploy do not
// degrade to placeholder titles.
func (s *LookupStore) Load(ctx context.Context) (Lookups, error) {
	lookups := Lookups{
		Emails:    map[int]string{},
		Pages:     map[int]string{},
		Segments:  map[int]string{},
		Campaigns: map[int]string{},
		Stages:    map[int]string{},
	}
	if s == nil || s.db == nil {
		return lookups, nil
	}

	rows, err := s.db.Query(ctx, `SELECT kind, mautic_id, name FROM mautic_lookups`)
	if err != nil {
		return lookups, fmt.Errorf("mautic: load lookups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var id int
		var name string
		if err := rows.Scan(&kind, &id, &name); err != nil {
			return lookups, fmt.Errorf("mautic: scan lookup row: %w", err)
		}
		if name == "" {
			continue
		}
		if table := lookups.table(LookupKind(kind)); table != nil {
			table[id] = name
		}
	}
	if err := rows.Err(); err != nil {
		return lookups, fmt.Errorf("mautic: iterate lookup rows: %w", err)
	}

	if lookups.Empty() && s.client != nil {
		s.logger.Info("lookup tables are cold, fetching names from the API")
		s.refreshFromAPI(ctx, lookups)
	}
	return lookups, nil
}

// refreshFromAPI fills the tables straight from the listing endpoints and
// persists what it got for the next reader. A failed fetch leaves that table
// empty; persistence failures only cost the next reader a refetch.
func (s *LookupStore) refreshFromAPI(ctx context.Context, lookups Lookups) {
	for _, f := range s.fetchers() {
		items, err := f.list(ctx, lookupSyncLimit)
		if err != nil {
			s.logger.Warn("lookup refresh fetch failed", "kind", string(f.kind), "error", err)
			continue
		}
		table := lookups.table(f.kind)
		for _, item := range items {
			if item.ID == 0 || item.Name == "" {
				continue
			}
			table[item.ID] = item.Name
		}
		if _, err := s.upsert(ctx, f.kind, items); err != nil {
			s.logger.Warn("lookup refresh persist failed", "kind", string(f.kind), "error", err)
		}
	}
}

// SyncResult reports how many rows each sync pass wrote.
type SyncResult struct {
	Synced map[LookupKind]int `json:"synced"`
	Errors int                `json:"errors"`
}

// Sync refreshes every lookup table from the Mautic listing endpoints.
// Failures on one kind are counted and do not abort the others.
func (s *LookupStore) Sync(ctx context.Context) (SyncResult, error) {
	result := SyncResult{Synced: map[LookupKind]int{}}
	if s.client == nil {
		return result, fmt.Errorf("mautic: lookup sync requires an API client")
	}

	for _, k := range s.fetchers() {
		items, err := k.list(ctx, lookupSyncLimit)
		if err != nil {
			s.logger.Error("lookup sync fetch failed", "kind", string(k.kind), "error", err)
			result.Errors++
			continue
		}
		n, err := s.upsert(ctx, k.kind, items)
		if err != nil {
			s.logger.Error("lookup sync upsert failed", "kind", string(k.kind), "error", err)
			result.Errors++
			continue
		}
		result.Synced[k.kind] = n
	}
	return result, nil
}

type lookupFetcher struct {
	kind LookupKind
	list func(context.Context, int) ([]NamedResource, error)
}

func (s *LookupStore) fetchers() []lookupFetcher {
	return []lookupFetcher{
		{LookupEmails, s.client.ListEmails},
		{LookupPages, s.client.ListPages},
		{LookupSegments, s.client.ListSegments},
		{LookupCampaigns, s.client.ListCampaigns},
		{LookupStages, s.client.ListStages},
	}
}

func (s *LookupStore) upsert(ctx context.Context, kind LookupKind, items []NamedResource) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("mautic: lookup store has no database")
	}
	count := 0
	now := time.Now().UTC()
	for _, item := range items {
		if item.ID == 0 || item.Name == "" {
			continue
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO mautic_lookups (kind, mautic_id, name, synced_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (kind, mautic_id)
			DO UPDATE SET name = EXCLUDED.name, synced_at = EXCLUDED.synced_at
		`, string(kind), item.ID, item.Name, now)
		if err != nil {
			return count, fmt.Errorf("mautic: upsert lookup %s/%d: %w", kind, item.ID, err)
		}
		count++
	}
	return count, nil
}
