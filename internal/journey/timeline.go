package journey

import (
	"context"
	"fmt"
	"sort"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// LookupProvider supplies the id→name tables on demand when the caller's
// tables are cold.
type LookupProvider interface {
	Load(ctx context.Context) (mautic.Lookups, error)
}

// TimelineBuilder merges raw activities and campaign/segment memberships into
// one chronological timeline with day aggregates.
type TimelineBuilder struct {
	provider LookupProvider
	logger   *logging.Logger
}

// NewTimelineBuilder builds a TimelineBuilder. provider may be nil; the
// builder then skips the on-demand lookup refresh step.
func NewTimelineBuilder(provider LookupProvider, logger *logging.Logger) *TimelineBuilder {
	if logger == nil {
		logger = logging.Default()
	}
	return &TimelineBuilder{provider: provider, logger: logger}
}

// Build assembles the timeline. Name resolution follows three ordered steps:
// the lookups passed in, then an on-demand load from the provider, then a
// local table built from the campaigns/segments already in hand. A missing
// name never fails the build.
func (b *TimelineBuilder) Build(
	ctx context.Context,
	activities []mautic.ActivityEvent,
	campaigns []mautic.Campaign,
	segments []mautic.Segment,
	lookups mautic.Lookups,
) Timeline {
	lookups = b.resolveLookups(ctx, campaigns, segments, lookups)

	events := make([]TimelineEvent, 0, len(activities)+len(campaigns)+len(segments))
	for _, activity := range activities {
		events = append(events, Normalize(activity, lookups))
	}
	for _, c := range campaigns {
		events = append(events, TimelineEvent{
			ID:    fmt.Sprintf("campaign-%d", c.ID),
			Date:  c.DateAdded,
			Type:  EventCampaignJoin,
			Title: resolveTitle(lookups.Campaigns, c.ID, c.Name, "Campanha", "Campanha"),
			Metadata: map[string]any{
				"campaignId": c.ID,
			},
		})
	}
	for _, s := range segments {
		events = append(events, TimelineEvent{
			ID:    fmt.Sprintf("segment-%d", s.ID),
			Date:  s.DateAdded,
			Type:  EventSegmentJoin,
			Title: resolveTitle(lookups.Segments, s.ID, s.Name, "Segmento", "Segmento"),
			Metadata: map[string]any{
				"segmentId": s.ID,
			},
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return Timeline{
		Events:          events,
		ActivityPeaks:   activityPeaks(events),
		InactivePeriods: inactivePeriods(events),
	}
}

func (b *TimelineBuilder) resolveLookups(
	ctx context.Context,
	campaigns []mautic.Campaign,
	segments []mautic.Segment,
	lookups mautic.Lookups,
) mautic.Lookups {
	if !lookups.Empty() {
		return lookups
	}
	if b.provider != nil {
		fetched, err := b.provider.Load(ctx)
		if err != nil {
			b.logger.Warn("lookup refresh failed, using local names", "error", err)
		} else if !fetched.Empty() {
			return fetched
		}
	}
	// last resort: names from the data already loaded for this lead
	local := mautic.Lookups{
		Campaigns: map[int]string{},
		Segments:  map[int]string{},
	}
	for _, c := range campaigns {
		if c.Name != "" {
			local.Campaigns[c.ID] = c.Name
		}
	}
	for _, s := range segments {
		if s.Name != "" {
			local.Segments[s.ID] = s.Name
		}
	}
	return local
}

const (
	maxActivityPeaks = 10
	inactiveGapDays  = 7
	dayFormat        = "2006-01-02"
	hoursPerDay      = 24
)

// activityPeaks ranks calendar days by event count, keeping the busiest ten.
func activityPeaks(events []TimelineEvent) []ActivityPeak {
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Date.Format(dayFormat)]++
	}
	peaks := make([]ActivityPeak, 0, len(counts))
	for day, count := range counts {
		peaks = append(peaks, ActivityPeak{Date: day, Count: count})
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Count != peaks[j].Count {
			return peaks[i].Count > peaks[j].Count
		}
		return peaks[i].Date < peaks[j].Date
	})
	if len(peaks) > maxActivityPeaks {
		peaks = peaks[:maxActivityPeaks]
	}
	return peaks
}

// inactivePeriods reports gaps of strictly more than seven whole days between
// consecutive events. Gaps are measured in whole days, floored.
func inactivePeriods(events []TimelineEvent) []InactivePeriod {
	var periods []InactivePeriod
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		days := int(cur.Date.Sub(prev.Date).Hours() / hoursPerDay)
		if days > inactiveGapDays {
			periods = append(periods, InactivePeriod{
				Start: prev.Date,
				End:   cur.Date,
				Days:  days,
			})
		}
	}
	return periods
}
