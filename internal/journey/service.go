package journey

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/internal/observability/metrics"
	"github.com/grupoblue/lead-insights/internal/pipedrive"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// MauticSource fetches everything the journey needs from the
// marketing-automation platform. This source is mandatory: its failures
// propagate and a missing contact means no journey.
type MauticSource interface {
	GetLeadData(ctx context.Context, email string) (*mautic.LeadData, error)
}

// CRMSource fetches the CRM side. This source is optional enrichment: its
// failures degrade to an empty section.
type CRMSource interface {
	GetCRMData(ctx context.Context, email string) (*pipedrive.CRMData, error)
}

// Cache stores raw upstream payloads per email.
type Cache interface {
	Get(ctx context.Context, email string) (*RawInputs, error)
	Put(ctx context.Context, email string, mauticData *mautic.LeadData, pipedriveData *pipedrive.CRMData) error
}

// History appends one record per lookup.
type History interface {
	Append(ctx context.Context, rec SearchRecord) error
}

// Service orchestrates a journey lookup: cache check, upstream fetches,
// aggregate assembly, cache and history writes.
type Service struct {
	mautic  MauticSource
	crm     CRMSource
	cache   Cache
	history History
	builder *TimelineBuilder
	metrics *metrics.JourneyMetrics
	logger  *logging.Logger
	tracer  trace.Tracer
	lookups LookupProvider
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *metrics.JourneyMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the default tracer.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// NewService builds the orchestrator. crm, cache, history and lookups may be
// nil; the corresponding step is then skipped.
func NewService(
	mauticSource MauticSource,
	crmSource CRMSource,
	cache Cache,
	history History,
	lookups LookupProvider,
	logger *logging.Logger,
	opts ...ServiceOption,
) *Service {
	if mauticSource == nil {
		panic("journey: mautic source cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		mautic:  mauticSource,
		crm:     crmSource,
		cache:   cache,
		history: history,
		builder: NewTimelineBuilder(lookups, logger),
		logger:  logger,
		tracer:  otel.Tracer("leadinsights.internal.journey.service"),
		lookups: lookups,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLeadJourney reconstructs the journey for one email. Returns nil, nil
// when the marketing-automation platform has no such contact; that is an
// empty state, not an error. useCache=false forces fresh upstream fetches.
func (s *Service) GetLeadJourney(ctx context.Context, email, requestedBy string, useCache bool) (*Data, error) {
	ctx, span := s.tracer.Start(ctx, "journey.get_lead_journey")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("journey: email is required")
	}

	if useCache && s.cache != nil {
		entry, err := s.cache.Get(ctx, email)
		if err != nil {
			s.logger.Warn("journey cache read failed", "email", email, "error", err)
		}
		s.metrics.ObserveCache(entry != nil)
		if entry != nil && entry.Mautic != nil && entry.Mautic.Contact != nil {
			s.logger.Info("serving journey from cached raw inputs", "email", email)
			data := s.buildData(ctx, email, entry.Mautic, entry.Pipedrive)
			data.FromCache = true
			s.metrics.ObserveLookup("found")
			return data, nil
		}
	}

	start := time.Now()
	mauticData, err := s.mautic.GetLeadData(ctx, email)
	s.metrics.ObserveUpstream("mautic", time.Since(start))
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveLookup("error")
		return nil, fmt.Errorf("journey: fetch marketing data: %w", err)
	}
	if mauticData == nil || mauticData.Contact == nil {
		s.logger.Info("lead not found in marketing platform", "email", email)
		s.metrics.ObserveLookup("not_found")
		return nil, nil
	}

	pipedriveData := s.fetchCRMData(ctx, email)

	data := s.buildData(ctx, email, mauticData, pipedriveData)

	if s.cache != nil {
		if err := s.cache.Put(ctx, email, mauticData, pipedriveData); err != nil {
			s.logger.Warn("journey cache write failed", "email", email, "error", err)
		}
	}
	s.appendHistory(ctx, email, requestedBy, data)

	s.metrics.ObserveLookup("found")
	return data, nil
}

// GetCachedJourney rebuilds the journey from cached raw inputs only, without
// touching the upstream APIs. Returns nil, nil when the email has no live
// cache entry.
func (s *Service) GetCachedJourney(ctx context.Context, email string) (*Data, error) {
	ctx, span := s.tracer.Start(ctx, "journey.get_cached_journey")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("journey: email is required")
	}
	if s.cache == nil {
		return nil, nil
	}
	entry, err := s.cache.Get(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("journey: read cache: %w", err)
	}
	if entry == nil || entry.Mautic == nil || entry.Mautic.Contact == nil {
		return nil, nil
	}
	data := s.buildData(ctx, email, entry.Mautic, entry.Pipedrive)
	data.FromCache = true
	return data, nil
}

// fetchCRMData loads the optional CRM enrichment. Any failure is logged and
// replaced with an empty section; the journey proceeds without it.
func (s *Service) fetchCRMData(ctx context.Context, email string) *pipedrive.CRMData {
	if s.crm == nil {
		return &pipedrive.CRMData{}
	}
	start := time.Now()
	data, err := s.crm.GetCRMData(ctx, email)
	s.metrics.ObserveUpstream("pipedrive", time.Since(start))
	if err != nil {
		s.logger.Warn("CRM fetch failed, continuing without deals", "email", email, "error", err)
		return &pipedrive.CRMData{}
	}
	if data == nil {
		return &pipedrive.CRMData{}
	}
	return data
}

// buildData assembles the aggregate from raw inputs. Pure apart from the
// lookup refresh inside the timeline builder; inputs are never mutated.
func (s *Service) buildData(ctx context.Context, email string, mauticData *mautic.LeadData, pipedriveData *pipedrive.CRMData) *Data {
	if pipedriveData == nil {
		pipedriveData = &pipedrive.CRMData{}
	}
	contact := mauticData.Contact
	activities := mauticData.Activities

	lookups := mautic.Lookups{}
	if s.lookups != nil {
		loaded, err := s.lookups.Load(ctx)
		if err != nil {
			s.logger.Warn("lookup load failed, titles may use fallbacks", "error", err)
		} else {
			lookups = loaded
		}
	}

	conv := ResolveConversion(pipedriveData.Deals, contactAddedTime(contact))
	timeline := s.builder.Build(ctx, activities, mauticData.Campaigns, mauticData.Segments, lookups)

	return &Data{
		Email:    email,
		LeadName: contact.DisplayName(email),
		Mautic: MauticSection{
			Contact:    contact,
			Activities: activities,
			Campaigns:  mauticData.Campaigns,
			Segments:   mauticData.Segments,
		},
		Pipedrive: PipedriveSection{
			Person:  pipedriveData.Person,
			Deals:   pipedriveData.Deals,
			WonDeal: conv.WonDeal,
		},
		Metrics:     buildMetrics(activities, contact, conv),
		Acquisition: AnalyzeAcquisition(activities, contact),
		Timeline:    timeline,
		Behavior:    AnalyzeBehavior(activities, contact),
		Unsubscribe: unsubscribeState(contact),
		LastUpdated: time.Now().UTC(),
	}
}

func (s *Service) appendHistory(ctx context.Context, email, requestedBy string, data *Data) {
	if s.history == nil {
		return
	}
	rec := SearchRecord{
		Email:            email,
		LeadName:         data.LeadName,
		MauticID:         data.Mautic.Contact.ID,
		ConversionStatus: data.Metrics.ConversionStatus,
		DealValue:        data.Metrics.DealValue,
		DaysInBase:       data.Metrics.DaysInBase,
		DaysToConversion: data.Metrics.DaysToConversion,
		SearchedBy:       requestedBy,
	}
	if data.Pipedrive.Person != nil {
		id := data.Pipedrive.Person.ID
		rec.PipedrivePersonID = &id
	}
	if data.Pipedrive.WonDeal != nil {
		id := data.Pipedrive.WonDeal.ID
		rec.PipedriveDealID = &id
	}
	// fire and forget: a lost history row never fails the lookup
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append search history", "email", email, "error", err)
	}
}

func buildMetrics(activities []mautic.ActivityEvent, contact *mautic.Contact, conv Conversion) Metrics {
	m := Metrics{
		TotalActivities:  len(activities),
		ConversionStatus: conv.Status,
		DealValue:        conv.DealValue,
		DaysToConversion: conv.DaysToConversion,
		DaysInBase:       daysInBase(contact, time.Now().UTC()),
	}
	for _, a := range activities {
		switch a.Event {
		case "email.sent":
			m.EmailsSent++
		case "email.read":
			m.EmailsOpened++
		case "page.hit":
			m.PagesVisited++
		case "form.submitted":
			m.FormsSubmitted++
		case "asset.download":
			m.DownloadsCompleted++
		case "page.videohit":
			m.VideosWatched++
		case "point.gained":
			m.PointsGained++
		}
	}
	return m
}

func daysInBase(contact *mautic.Contact, now time.Time) int {
	added := contactAddedTime(contact)
	if added.IsZero() {
		return 0
	}
	return int(math.Ceil(now.Sub(added).Abs().Hours() / hoursPerDay))
}

func contactAddedTime(contact *mautic.Contact) time.Time {
	if contact == nil {
		return time.Time{}
	}
	return contact.DateAdded
}

// unsubscribeState derives the do-not-contact flag from the contact record.
func unsubscribeState(contact *mautic.Contact) Unsubscribe {
	if contact == nil || len(contact.DoNotContact) == 0 {
		return Unsubscribe{}
	}
	entry := contact.DoNotContact[0]
	return Unsubscribe{
		Unsubscribed: true,
		Date:         entry.DateAdded,
		Reason:       entry.Comments,
	}
}
