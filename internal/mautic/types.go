// Package mautic contains the marketing-automation API client and types.
package mautic

import "time"

// Contact is a read-only snapshot of a Mautic contact. Field groups are
// free-form maps owned by the upstream system.
type Contact struct {
	ID           int            `json:"id"`
	IsPublished  bool           `json:"isPublished"`
	DateAdded    time.Time      `json:"dateAdded"`
	DateModified *time.Time     `json:"dateModified"`
	Points       int            `json:"points"`
	LastActive   *time.Time     `json:"lastActive"`
	Fields       ContactFields  `json:"fields"`
	Tags         []any          `json:"tags"`
	UTMTags      []any          `json:"utmtags"`
	DoNotContact []DoNotContact `json:"doNotContact"`
}

// ContactFields groups the free-form field maps Mautic exposes per contact.
type ContactFields struct {
	Core         map[string]any `json:"core"`
	Social       map[string]any `json:"social"`
	Personal     map[string]any `json:"personal"`
	Professional map[string]any `json:"professional"`
	All          map[string]any `json:"all"`
}

// DoNotContact records an opt-out entry on the contact.
type DoNotContact struct {
	ID        int        `json:"id"`
	Reason    int        `json:"reason"`
	Comments  string     `json:"comments"`
	Channel   string     `json:"channel"`
	DateAdded *time.Time `json:"dateAdded"`
}

// DisplayName returns the contact's name from the field maps, falling back
// to the email address, then to fallback.
func (c *Contact) DisplayName(fallback string) string {
	if c == nil {
		return fallback
	}
	first, _ := c.Fields.All["firstname"].(string)
	last, _ := c.Fields.All["lastname"].(string)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	}
	if email, _ := c.Fields.All["email"].(string); email != "" {
		return email
	}
	return fallback
}

// Email returns the contact's primary email address, if present.
func (c *Contact) Email() string {
	if c == nil {
		return ""
	}
	email, _ := c.Fields.All["email"].(string)
	return email
}

// ActivityEvent is one raw entry from the contact activity timeline. Details
// is an opaque payload whose shape depends on Event; it may be absent.
type ActivityEvent struct {
	Event     string         `json:"event"`
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Featured  bool           `json:"featured"`
	ContactID int            `json:"contactId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ActivityPage is one page of the activity endpoint response.
type ActivityPage struct {
	Events   []ActivityEvent `json:"events"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	MaxPages int             `json:"maxPages"`
}

// Campaign is a campaign the contact is a member of. DateAdded is the
// membership date, not the campaign creation date.
type Campaign struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"dateAdded"`
}

// Segment is a segment the contact belongs to.
type Segment struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Alias     string    `json:"alias"`
	DateAdded time.Time `json:"dateAdded"`
}

// LeadData bundles everything the journey pipeline needs from Mautic for one
// contact.
type LeadData struct {
	Contact    *Contact        `json:"contact"`
	Activities []ActivityEvent `json:"activities"`
	Campaigns  []Campaign      `json:"campaigns"`
	Segments   []Segment       `json:"segments"`
}

// Lookups holds the id→name tables used to render human-readable titles for
// timeline events. Maps may be empty; callers must tolerate failed lookups.
type Lookups struct {
	Emails    map[int]string
	Pages     map[int]string
	Segments  map[int]string
	Campaigns map[int]string
	Stages    map[int]string
}

// Empty reports whether every lookup table is empty.
func (l Lookups) Empty() bool {
	return len(l.Emails) == 0 && len(l.Pages) == 0 && len(l.Segments) == 0 &&
		len(l.Campaigns) == 0 && len(l.Stages) == 0
}

func (l Lookups) table(kind LookupKind) map[int]string {
	switch kind {
	case LookupEmails:
		return l.Emails
	case LookupPages:
		return l.Pages
	case LookupSegments:
		return l.Segments
	case LookupCampaigns:
		return l.Campaigns
	case LookupStages:
		return l.Stages
	}
	return nil
}
