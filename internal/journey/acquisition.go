package journey

import (
	"sort"

	"github.com/grupoblue/lead-insights/internal/mautic"
)

// AnalyzeAcquisition derives first- and last-touch attribution from the raw
// activity list. Attribution detail (UTM, landing page, referrer, device) is
// only read from the earliest page-hit event; when the lead has no page hits
// those fields stay nil even though FirstTouch.Date is still set from the
// earliest event of any kind. Never errors: absent structure yields nil
// fields.
func AnalyzeAcquisition(activities []mautic.ActivityEvent, contact *mautic.Contact) Acquisition {
	var acq Acquisition
	if len(activities) == 0 {
		return acq
	}

	sorted := make([]mautic.ActivityEvent, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first := sorted[0]
	firstDate := first.Timestamp
	acq.FirstTouch.Date = &firstDate

	for _, activity := range sorted {
		if activity.Event != "page.hit" {
			continue
		}
		hitDate := activity.Timestamp
		acq.FirstTouch.Date = &hitDate
		hit := detailMap(activity.Details, "hit")
		query := detailMap(hit, "query")
		acq.FirstTouch.UTMSource = optString(detailString(query, "utm_source"))
		acq.FirstTouch.UTMMedium = optString(detailString(query, "utm_medium"))
		acq.FirstTouch.UTMCampaign = optString(detailString(query, "utm_campaign"))
		acq.FirstTouch.UTMContent = optString(detailString(query, "utm_content"))
		acq.FirstTouch.UTMTerm = optString(detailString(query, "utm_term"))
		acq.FirstTouch.LandingPage = optString(pageHitURL(hit))
		acq.FirstTouch.Referrer = optString(detailString(hit, "source"))
		acq.FirstTouch.Device = optString(detailString(hit, "device"))
		break
	}

	last := sorted[len(sorted)-1]
	lastDate := last.Timestamp
	acq.LastTouch.Date = &lastDate
	acq.LastTouch.Action = optString(last.Event)
	if hit := detailMap(last.Details, "hit"); hit != nil {
		acq.LastTouch.Page = optString(pageHitURL(hit))
	}
	return acq
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
