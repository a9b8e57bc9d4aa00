package journey

import (
	"math"
	"sort"
	"time"

	"github.com/grupoblue/lead-insights/internal/mautic"
)

// Engagement score weights. Product-tuned constants; do not re-derive.
const (
	weightOpenRate  = 30.0
	weightFormCount = 20.0
	weightDownloads = 15.0
	weightPageHits  = 0.5
)

// Visit-frequency ratio thresholds, also product-tuned.
const (
	dailyRatio  = 0.7
	weeklyRatio = 0.3
)

const maxTopEntries = 5

// AnalyzeBehavior computes the behavioral aggregates for the lead.
// AvgSessionDuration is always nil: the activity feed has no session-duration
// signal and nothing here may fake one from proxies.
func AnalyzeBehavior(activities []mautic.ActivityEvent, contact *mautic.Contact) Behavior {
	return analyzeBehaviorAt(activities, contact, time.Now().UTC())
}

func analyzeBehaviorAt(activities []mautic.ActivityEvent, contact *mautic.Contact, now time.Time) Behavior {
	return Behavior{
		VisitFrequency:   visitFrequency(activities, contact, now),
		TopPages:         topPages(activities),
		TopContent:       topContent(activities),
		EngagementScore:  engagementScore(activities),
		LeadScoreHistory: leadScoreHistory(activities),
	}
}

// visitFrequency classifies how often the lead visits: the share of days
// since creation with at least one page hit.
func visitFrequency(activities []mautic.ActivityEvent, contact *mautic.Contact, now time.Time) VisitFrequency {
	days := map[string]struct{}{}
	for _, a := range activities {
		if a.Event == "page.hit" {
			days[a.Timestamp.Format(dayFormat)] = struct{}{}
		}
	}
	uniqueDays := len(days)

	totalDays := 0
	if contact != nil && !contact.DateAdded.IsZero() {
		totalDays = int(now.Sub(contact.DateAdded).Hours() / hoursPerDay)
	}
	if totalDays > 0 {
		ratio := float64(uniqueDays) / float64(totalDays)
		if ratio > dailyRatio {
			return FrequencyDaily
		}
		if ratio > weeklyRatio {
			return FrequencyWeekly
		}
	}
	if uniqueDays > 0 {
		return FrequencySporadic
	}
	return FrequencyInactive
}

func topPages(activities []mautic.ActivityEvent) []PageCount {
	counts := map[string]int{}
	for _, a := range activities {
		if a.Event != "page.hit" {
			continue
		}
		if url := pageHitURL(detailMap(a.Details, "hit")); url != "" {
			counts[url]++
		}
	}
	return rankCounts(counts)
}

func topContent(activities []mautic.ActivityEvent) []PageCount {
	counts := map[string]int{}
	for _, a := range activities {
		var title string
		switch a.Event {
		case "asset.download":
			title = firstNonEmpty(
				detailString(detailMap(a.Details, "asset"), "title", "name"),
				detailString(a.Details, "asset_name"),
			)
		case "page.videohit":
			title = detailString(a.Details, "video_title", "title", "url")
		default:
			continue
		}
		if title != "" {
			counts[title]++
		}
	}
	return rankCounts(counts)
}

func rankCounts(counts map[string]int) []PageCount {
	ranked := make([]PageCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, PageCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > maxTopEntries {
		ranked = ranked[:maxTopEntries]
	}
	return ranked
}

// engagementScore is the 0-100 weighted heuristic. The max(sends,1) guard
// keeps the open rate defined for leads that never received an email.
func engagementScore(activities []mautic.ActivityEvent) int {
	var sends, opens, forms, downloads, pageHits int
	for _, a := range activities {
		switch a.Event {
		case "email.sent":
			sends++
		case "email.read":
			opens++
		case "form.submitted":
			forms++
		case "asset.download":
			downloads++
		case "page.hit":
			pageHits++
		}
	}
	openRate := float64(opens) / math.Max(float64(sends), 1)
	score := math.Round(openRate*weightOpenRate +
		float64(forms)*weightFormCount +
		float64(downloads)*weightDownloads +
		float64(pageHits)*weightPageHits)
	return int(math.Min(100, score))
}

// leadScoreHistory accumulates point.gained deltas into a running total, one
// sample per event in chronological order.
func leadScoreHistory(activities []mautic.ActivityEvent) []ScorePoint {
	var gains []mautic.ActivityEvent
	for _, a := range activities {
		if a.Event == "point.gained" {
			gains = append(gains, a)
		}
	}
	sort.SliceStable(gains, func(i, j int) bool {
		return gains[i].Timestamp.Before(gains[j].Timestamp)
	})

	history := make([]ScorePoint, 0, len(gains))
	total := 0
	for _, a := range gains {
		total += pointDelta(a)
		history = append(history, ScorePoint{Date: a.Timestamp, Score: total})
	}
	return history
}
