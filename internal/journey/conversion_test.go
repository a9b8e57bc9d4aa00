package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoblue/lead-insights/internal/pipedrive"
)

func pdTime(t time.Time) pipedrive.Timestamp {
	return pipedrive.Timestamp{Time: t}
}

func TestResolveConversion_Precedence(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		deals []pipedrive.Deal
		want  ConversionStatus
	}{
		{
			name: "won beats lost and open",
			deals: []pipedrive.Deal{
				{ID: 1, Status: pipedrive.DealStatusLost},
				{ID: 2, Status: pipedrive.DealStatusWon, WonTime: pdTime(added.AddDate(0, 1, 0))},
				{ID: 3, Status: pipedrive.DealStatusOpen},
			},
			want: StatusWon,
		},
		{
			name: "lost beats open",
			deals: []pipedrive.Deal{
				{ID: 1, Status: pipedrive.DealStatusOpen},
				{ID: 2, Status: pipedrive.DealStatusLost},
			},
			want: StatusLost,
		},
		{
			name:  "open alone is negotiating",
			deals: []pipedrive.Deal{{ID: 1, Status: pipedrive.DealStatusOpen}},
			want:  StatusNegotiating,
		},
		{
			name: "no deals is lead",
			want: StatusLead,
		},
		{
			name:  "unknown status is lead",
			deals: []pipedrive.Deal{{ID: 1, Status: "deleted"}},
			want:  StatusLead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConversion(tt.deals, added)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestResolveConversion_SelectsLatestWonDeal(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deals := []pipedrive.Deal{
		{ID: 1, Status: pipedrive.DealStatusWon, Value: 100, WonTime: pdTime(added.AddDate(0, 0, 10))},
		{ID: 2, Status: pipedrive.DealStatusWon, Value: 300, WonTime: pdTime(added.AddDate(0, 0, 30))},
		{ID: 3, Status: pipedrive.DealStatusWon, Value: 200, WonTime: pdTime(added.AddDate(0, 0, 20))},
	}

	conv := ResolveConversion(deals, added)
	require.NotNil(t, conv.WonDeal)
	assert.Equal(t, 2, conv.WonDeal.ID)
	require.NotNil(t, conv.DealValue)
	assert.Equal(t, 300.0, *conv.DealValue)
}

func TestResolveConversion_WonTimeFallsBackToUpdateTime(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	deals := []pipedrive.Deal{
		{ID: 1, Status: pipedrive.DealStatusWon, WonTime: pdTime(added.AddDate(0, 0, 5))},
		{ID: 2, Status: pipedrive.DealStatusWon, UpdateTime: pdTime(added.AddDate(0, 0, 15))},
	}

	conv := ResolveConversion(deals, added)
	require.NotNil(t, conv.WonDeal)
	assert.Equal(t, 2, conv.WonDeal.ID, "unset won_time orders by update_time")
}

func TestResolveConversion_DaysToConversion(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	won := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	deals := []pipedrive.Deal{
		{ID: 1, Status: pipedrive.DealStatusWon, WonTime: pdTime(won)},
	}

	conv := ResolveConversion(deals, added)
	require.NotNil(t, conv.DaysToConversion)
	assert.Equal(t, 61, *conv.DaysToConversion, "partial days round up")
}

func TestResolveConversion_SixtyDayScenario(t *testing.T) {
	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	won := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	deals := []pipedrive.Deal{
		{ID: 1, Status: pipedrive.DealStatusWon, WonTime: pdTime(won)},
	}

	conv := ResolveConversion(deals, added)
	require.NotNil(t, conv.DaysToConversion)
	assert.Equal(t, 60, *conv.DaysToConversion)
}

func TestResolveConversion_NoWonDealNoConversionDays(t *testing.T) {
	conv := ResolveConversion([]pipedrive.Deal{{Status: pipedrive.DealStatusOpen}}, time.Now())
	assert.Nil(t, conv.DaysToConversion)
	assert.Nil(t, conv.DealValue)
	assert.Nil(t, conv.WonDeal)
}
