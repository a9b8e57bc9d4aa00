package pipedrive

import (
	"bytes"
	"time"
)

// Timestamp decodes Pipedrive's "2006-01-02 15:04:05" UTC strings. The API
// also emits null and "" for unset fields; both decode to the zero value.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", string(data))
	if err != nil {
		// some endpoints return RFC 3339
		parsed, err = time.Parse(time.RFC3339, string(data))
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format("2006-01-02 15:04:05") + `"`), nil
}

// Person is the subset of the Pipedrive person record the journey needs.
type Person struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"primary_email"`
	AddTime Timestamp `json:"add_time"`
}

// Deal statuses as Pipedrive reports them.
const (
	DealStatusOpen = "open"
	DealStatusWon  = "won"
	DealStatusLost = "lost"
)

// Deal is one sales deal attached to a person.
type Deal struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Value      float64   `json:"value"`
	Currency   string    `json:"currency"`
	StageID    int       `json:"stage_id"`
	AddTime    Timestamp `json:"add_time"`
	UpdateTime Timestamp `json:"update_time"`
	WonTime    Timestamp `json:"won_time"`
	LostTime   Timestamp `json:"lost_time"`
}

// CRMData bundles everything the CRM knows about one lead.
type CRMData struct {
	Person *Person `json:"person"`
	Deals  []Deal  `json:"deals"`
}
