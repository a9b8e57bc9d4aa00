package journey

import (
	"math"
	"time"

	"github.com/grupoblue/lead-insights/internal/pipedrive"
)

// Conversion is the result of cross-referencing the lead against its CRM
// deals.
type Conversion struct {
	Status           ConversionStatus
	WonDeal          *pipedrive.Deal
	DealValue        *float64
	DaysToConversion *int
}

// ResolveConversion classifies the lead's funnel position from its deal list.
// Precedence: any won deal wins, then lost, then open (negotiating), then
// plain lead. Among several won deals the one with the latest won time (or
// update time when won time is unset) supplies the value and conversion date.
// contactAdded anchors the days-to-conversion count; a zero value disables it.
func ResolveConversion(deals []pipedrive.Deal, contactAdded time.Time) Conversion {
	conv := Conversion{Status: StatusLead}

	var anyLost, anyOpen bool
	for i := range deals {
		switch deals[i].Status {
		case pipedrive.DealStatusWon:
			if conv.WonDeal == nil || wonMoment(deals[i]).After(wonMoment(*conv.WonDeal)) {
				conv.WonDeal = &deals[i]
			}
		case pipedrive.DealStatusLost:
			anyLost = true
		case pipedrive.DealStatusOpen:
			anyOpen = true
		}
	}

	switch {
	case conv.WonDeal != nil:
		conv.Status = StatusWon
		value := conv.WonDeal.Value
		conv.DealValue = &value
		if !contactAdded.IsZero() && !conv.WonDeal.WonTime.IsZero() {
			days := int(math.Ceil(conv.WonDeal.WonTime.Sub(contactAdded).Hours() / hoursPerDay))
			conv.DaysToConversion = &days
		}
	case anyLost:
		conv.Status = StatusLost
	case anyOpen:
		conv.Status = StatusNegotiating
	}
	return conv
}

// wonMoment orders won deals: won time when present, update time otherwise.
func wonMoment(deal pipedrive.Deal) time.Time {
	if !deal.WonTime.IsZero() {
		return deal.WonTime.Time
	}
	return deal.UpdateTime.Time
}
