package journey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/grupoblue/lead-insights/pkg/logging"
)

// SearchRecord is one row of the append-only lookup log. Rows are written
// once per journey lookup and never mutated.
type SearchRecord struct {
	ID                string           `json:"id"`
	Email             string           `json:"email"`
	LeadName          string           `json:"leadName"`
	MauticID          int              `json:"mauticId"`
	PipedrivePersonID *int             `json:"pipedrivePersonId"`
	PipedriveDealID   *int             `json:"pipedriveDealId"`
	ConversionStatus  ConversionStatus `json:"conversionStatus"`
	DealValue         *float64         `json:"dealValue"`
	DaysInBase        int              `json:"daysInBase"`
	DaysToConversion  *int             `json:"daysToConversion"`
	SearchedBy        string           `json:"searchedBy"`
	SearchedAt        time.Time        `json:"searchedAt"`
}

type historyDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// HistoryRepo persists the search-history log in postgres.
type HistoryRepo struct {
	db     historyDB
	logger *logging.Logger
	tracer trace.Tracer
}

// NewHistoryRepo builds a history repository.
func NewHistoryRepo(db historyDB, logger *logging.Logger, tracer trace.Tracer) *HistoryRepo {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("leadinsights.internal.journey.history")
	}
	return &HistoryRepo{db: db, logger: logger, tracer: tracer}
}

const defaultHistoryLimit = 50

// Append writes one record. The id and timestamp are assigned here when the
// caller left them empty.
func (r *HistoryRepo) Append(ctx context.Context, rec SearchRecord) error {
	ctx, span := r.tracer.Start(ctx, "journey.history_append")
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SearchedAt.IsZero() {
		rec.SearchedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_journey_searches (
			id, email, lead_name, mautic_id, pipedrive_person_id, pipedrive_deal_id,
			conversion_status, deal_value, days_in_base, days_to_conversion,
			searched_by, searched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rec.ID, normalizeEmail(rec.Email), rec.LeadName, rec.MauticID,
		rec.PipedrivePersonID, rec.PipedriveDealID, string(rec.ConversionStatus),
		rec.DealValue, rec.DaysInBase, rec.DaysToConversion, rec.SearchedBy, rec.SearchedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("journey: failed to append search history: %w", err)
	}
	return nil
}

// Recent returns the user's latest lookups, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, searchedBy string, limit int) ([]SearchRecord, error) {
	ctx, span := r.tracer.Start(ctx, "journey.history_recent")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, email, lead_name, mautic_id, pipedrive_person_id, pipedrive_deal_id,
			conversion_status, deal_value, days_in_base, days_to_conversion,
			searched_by, searched_at
		FROM lead_journey_searches
		WHERE searched_by = $1
		ORDER BY searched_at DESC
		LIMIT $2
	`, searchedBy, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("journey: failed to load search history: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.LeadName, &rec.MauticID,
			&rec.PipedrivePersonID, &rec.PipedriveDealID, &status, &rec.DealValue,
			&rec.DaysInBase, &rec.DaysToConversion, &rec.SearchedBy, &rec.SearchedAt); err != nil {
			return nil, fmt.Errorf("journey: failed to scan search history row: %w", err)
		}
		rec.ConversionStatus = ConversionStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journey: failed to iterate search history: %w", err)
	}
	return records, nil
}
