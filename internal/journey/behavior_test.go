package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoblue/lead-insights/internal/mautic"
)

func contactAddedDaysAgo(now time.Time, days int) *mautic.Contact {
	return &mautic.Contact{ID: 1, DateAdded: now.AddDate(0, 0, -days)}
}

func hitOnDay(d int) mautic.ActivityEvent {
	return mautic.ActivityEvent{Event: "page.hit", Timestamp: day(d)}
}

func TestVisitFrequency(t *testing.T) {
	now := day(10)

	tests := []struct {
		name       string
		activities []mautic.ActivityEvent
		contact    *mautic.Contact
		want       VisitFrequency
	}{
		{
			name: "daily when ratio above 0.7",
			activities: []mautic.ActivityEvent{
				hitOnDay(0), hitOnDay(1), hitOnDay(2), hitOnDay(3), hitOnDay(4),
				hitOnDay(5), hitOnDay(6), hitOnDay(7),
			},
			contact: contactAddedDaysAgo(now, 10),
			want:    FrequencyDaily,
		},
		{
			name:       "weekly when ratio above 0.3",
			activities: []mautic.ActivityEvent{hitOnDay(0), hitOnDay(3), hitOnDay(6), hitOnDay(9)},
			contact:    contactAddedDaysAgo(now, 10),
			want:       FrequencyWeekly,
		},
		{
			name:       "sporadic when any page hit exists",
			activities: []mautic.ActivityEvent{hitOnDay(0)},
			contact:    contactAddedDaysAgo(now, 100),
			want:       FrequencySporadic,
		},
		{
			name:       "inactive without page hits",
			activities: []mautic.ActivityEvent{{Event: "email.sent", Timestamp: day(0)}},
			contact:    contactAddedDaysAgo(now, 100),
			want:       FrequencyInactive,
		},
		{
			name:       "zero total days guards division and stays sporadic",
			activities: []mautic.ActivityEvent{hitOnDay(10)},
			contact:    contactAddedDaysAgo(now, 0),
			want:       FrequencySporadic,
		},
		{
			name:    "nil contact with no hits is inactive",
			contact: nil,
			want:    FrequencyInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeBehaviorAt(tt.activities, tt.contact, now)
			assert.Equal(t, tt.want, got.VisitFrequency)
		})
	}
}

func TestEngagementScore(t *testing.T) {
	repeat := func(event string, n int) []mautic.ActivityEvent {
		out := make([]mautic.ActivityEvent, n)
		for i := range out {
			out[i] = mautic.ActivityEvent{Event: event, Timestamp: day(0)}
		}
		return out
	}

	t.Run("weighted sum", func(t *testing.T) {
		// open rate 0.5 → 15, one form → 20, one download → 15, ten hits → 5
		var activities []mautic.ActivityEvent
		activities = append(activities, repeat("email.sent", 4)...)
		activities = append(activities, repeat("email.read", 2)...)
		activities = append(activities, repeat("form.submitted", 1)...)
		activities = append(activities, repeat("asset.download", 1)...)
		activities = append(activities, repeat("page.hit", 10)...)

		assert.Equal(t, 55, engagementScore(activities))
	})

	t.Run("clamped at 100", func(t *testing.T) {
		var activities []mautic.ActivityEvent
		activities = append(activities, repeat("form.submitted", 50)...)
		activities = append(activities, repeat("asset.download", 50)...)

		score := engagementScore(activities)
		assert.Equal(t, 100, score)
	})

	t.Run("zero sends guarded", func(t *testing.T) {
		activities := repeat("email.read", 3) // openRate = 3/max(0,1) = 3 → 90
		assert.Equal(t, 90, engagementScore(activities))
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0, engagementScore(nil))
	})
}

func TestTopPagesAndContent(t *testing.T) {
	hit := func(url string) mautic.ActivityEvent {
		return mautic.ActivityEvent{
			Event:     "page.hit",
			Timestamp: day(0),
			Details:   map[string]any{"hit": map[string]any{"url": url}},
		}
	}
	download := func(title string) mautic.ActivityEvent {
		return mautic.ActivityEvent{
			Event:     "asset.download",
			Timestamp: day(0),
			Details:   map[string]any{"asset": map[string]any{"title": title}},
		}
	}

	activities := []mautic.ActivityEvent{
		hit("/precos"), hit("/precos"), hit("/precos"),
		hit("/blog"), hit("/blog"),
		hit("/a"), hit("/b"), hit("/c"), hit("/d"),
		download("E-book"), download("E-book"),
		{Event: "page.videohit", Timestamp: day(0), Details: map[string]any{"video_title": "Aula 1"}},
	}

	b := analyzeBehaviorAt(activities, nil, day(1))

	require.Len(t, b.TopPages, 5, "top pages capped at five")
	assert.Equal(t, PageCount{Name: "/precos", Count: 3}, b.TopPages[0])
	assert.Equal(t, PageCount{Name: "/blog", Count: 2}, b.TopPages[1])

	require.Len(t, b.TopContent, 2)
	assert.Equal(t, PageCount{Name: "E-book", Count: 2}, b.TopContent[0])
	assert.Equal(t, PageCount{Name: "Aula 1", Count: 1}, b.TopContent[1])
}

func TestLeadScoreHistory_Cumulative(t *testing.T) {
	gain := func(d, delta int) mautic.ActivityEvent {
		return mautic.ActivityEvent{
			Event:     "point.gained",
			Timestamp: day(d),
			Details:   map[string]any{"delta": float64(delta)},
		}
	}
	// delivered out of order on purpose
	activities := []mautic.ActivityEvent{gain(5, 10), gain(1, 5), gain(3, -2)}

	history := leadScoreHistory(activities)
	require.Len(t, history, 3)
	assert.Equal(t, 5, history[0].Score)
	assert.Equal(t, 3, history[1].Score)
	assert.Equal(t, 13, history[2].Score)
	assert.True(t, history[0].Date.Before(history[1].Date))
}

func TestAvgSessionDurationAlwaysNil(t *testing.T) {
	b := analyzeBehaviorAt([]mautic.ActivityEvent{hitOnDay(0)}, nil, day(1))
	assert.Nil(t, b.AvgSessionDuration)
}
