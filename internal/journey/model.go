// Package journey reconstructs a lead's journey across the marketing-automation
// platform and the CRM: a normalized event timeline, acquisition attribution,
// behavioral aggregates and conversion status, assembled into one Data value.
package journey

import (
	"time"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/internal/pipedrive"
)

// EventType is the closed set of canonical timeline event kinds.
type EventType string

const (
	EventEmailSent    EventType = "email_sent"
	EventEmailOpened  EventType = "email_opened"
	EventEmailClicked EventType = "email_clicked"
	EventPageVisit    EventType = "page_visit"
	EventFormSubmit   EventType = "form_submit"
	EventDownload     EventType = "download"
	EventVideoWatch   EventType = "video_watch"
	EventPointGained  EventType = "point_gained"
	EventCampaignJoin EventType = "campaign_join"
	EventSegmentJoin  EventType = "segment_join"
	EventUnsubscribe  EventType = "unsubscribe"
)

// TimelineEvent is one canonical entry on the reconstructed timeline. Built
// fresh on every journey build; never persisted individually.
type TimelineEvent struct {
	ID          string         `json:"id"`
	Date        time.Time      `json:"date"`
	Type        EventType      `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ActivityPeak is one of the most active calendar days on the timeline.
type ActivityPeak struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// InactivePeriod is a gap of more than seven whole days between consecutive
// timeline events.
type InactivePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Timeline is the ordered event sequence plus its derived day aggregates.
type Timeline struct {
	Events          []TimelineEvent  `json:"events"`
	ActivityPeaks   []ActivityPeak   `json:"activityPeaks"`
	InactivePeriods []InactivePeriod `json:"inactivePeriods"`
}

// Touch is one attribution touchpoint. Every field except Date may be nil:
// the attribution fields only exist when a page-hit event carried them.
type Touch struct {
	Date        *time.Time `json:"date"`
	UTMSource   *string    `json:"utmSource"`
	UTMMedium   *string    `json:"utmMedium"`
	UTMCampaign *string    `json:"utmCampaign"`
	UTMContent  *string    `json:"utmContent"`
	UTMTerm     *string    `json:"utmTerm"`
	LandingPage *string    `json:"landingPage"`
	Referrer    *string    `json:"referrer"`
	Device      *string    `json:"device"`
	Page        *string    `json:"page"`
	Action      *string    `json:"action"`
}

// Acquisition holds first- and last-touch attribution.
type Acquisition struct {
	FirstTouch Touch `json:"firstTouch"`
	LastTouch  Touch `json:"lastTouch"`
}

// VisitFrequency classifies how often the lead shows up.
type VisitFrequency string

const (
	FrequencyDaily    VisitFrequency = "daily"
	FrequencyWeekly   VisitFrequency = "weekly"
	FrequencySporadic VisitFrequency = "sporadic"
	FrequencyInactive VisitFrequency = "inactive"
)

// PageCount is a URL or content title with its visit count.
type PageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ScorePoint is one cumulative lead-score sample.
type ScorePoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// Behavior holds the behavioral aggregates. AvgSessionDuration is always nil:
// the source data carries no session-duration signal.
type Behavior struct {
	VisitFrequency     VisitFrequency `json:"visitFrequency"`
	AvgSessionDuration *float64       `json:"avgSessionDuration"`
	TopPages           []PageCount    `json:"topPages"`
	TopContent         []PageCount    `json:"topContent"`
	EngagementScore    int            `json:"engagementScore"`
	LeadScoreHistory   []ScorePoint   `json:"leadScoreHistory"`
}

// ConversionStatus is the lead's resolved position in the sales funnel.
type ConversionStatus string

const (
	StatusLead        ConversionStatus = "lead"
	StatusNegotiating ConversionStatus = "negotiating"
	StatusWon         ConversionStatus = "won"
	StatusLost        ConversionStatus = "lost"
)

// Metrics are the headline counts and conversion figures for the journey.
// ConversionStatus is derived from the deal list only.
type Metrics struct {
	TotalActivities    int              `json:"totalActivities"`
	EmailsSent         int              `json:"emailsSent"`
	EmailsOpened       int              `json:"emailsOpened"`
	PagesVisited       int              `json:"pagesVisited"`
	FormsSubmitted     int              `json:"formsSubmitted"`
	DownloadsCompleted int              `json:"downloadsCompleted"`
	VideosWatched      int              `json:"videosWatched"`
	PointsGained       int              `json:"pointsGained"`
	DaysInBase         int              `json:"daysInBase"`
	ConversionStatus   ConversionStatus `json:"conversionStatus"`
	DealValue          *float64         `json:"dealValue"`
	DaysToConversion   *int             `json:"daysToConversion"`
}

// Unsubscribe captures the do-not-contact state of the lead.
type Unsubscribe struct {
	Unsubscribed bool       `json:"unsubscribed"`
	Date         *time.Time `json:"date"`
	Reason       string     `json:"reason,omitempty"`
}

// MauticSection is the raw marketing-automation side of the aggregate.
type MauticSection struct {
	Contact    *mautic.Contact        `json:"contact"`
	Activities []mautic.ActivityEvent `json:"activities"`
	Campaigns  []mautic.Campaign      `json:"campaigns"`
	Segments   []mautic.Segment       `json:"segments"`
}

// PipedriveSection is the CRM side of the aggregate. All fields are empty
// when the lead never reached the CRM.
type PipedriveSection struct {
	Person  *pipedrive.Person `json:"person"`
	Deals   []pipedrive.Deal  `json:"deals"`
	WonDeal *pipedrive.Deal   `json:"wonDeal"`
}

// Data is the aggregate root returned by a journey lookup.
type Data struct {
	Email       string           `json:"email"`
	LeadName    string           `json:"leadName"`
	Mautic      MauticSection    `json:"mautic"`
	Pipedrive   PipedriveSection `json:"pipedrive"`
	Metrics     Metrics          `json:"metrics"`
	Acquisition Acquisition      `json:"acquisition"`
	Timeline    Timeline         `json:"timeline"`
	Behavior    Behavior         `json:"behavior"`
	Unsubscribe Unsubscribe      `json:"unsubscribe"`
	LastUpdated time.Time        `json:"lastUpdated"`
	FromCache   bool             `json:"fromCache"`
}
