package mautic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grupoblue/lead-insights/pkg/logging"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
)

// Client wraps the Mautic REST API using basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	pageSize   int
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithPageSize overrides the activity pagination size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs a Mautic API client.
func NewClient(baseURL, username, password string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		pageSize:   defaultPageSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchContactByEmail finds a contact by exact email. Returns nil when no
// contact matches; that is a normal outcome, not an error.
func (c *Client) SearchContactByEmail(ctx context.Context, email string) (*Contact, error) {
	q := url.Values{}
	q.Set("search", "email:"+email)
	q.Set("limit", "1")

	var out struct {
		Contacts map[string]Contact `json:"contacts"`
	}
	if err := c.doJSON(ctx, "/api/contacts?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("search contact: %w", err)
	}
	for _, contact := range out.Contacts {
		return &contact, nil
	}
	return nil, nil
}

// GetContactActivity fetches one page of the contact's activity timeline.
func (c *Client) GetContactActivity(ctx context.Context, contactID, page int) (*ActivityPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageSize))

	var out ActivityPage
	path := fmt.Sprintf("/api/contacts/%d/activity?%s", contactID, q.Encode())
	if err := c.doJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("get contact activity: %w", err)
	}
	return &out, nil
}

// GetAllContactActivity pages through the full activity history and returns
// every event. The source does not guarantee ordering.
func (c *Client) GetAllContactActivity(ctx context.Context, contactID int) ([]ActivityEvent, error) {
	var all []ActivityEvent
	for page := 1; ; page++ {
		resp, err := c.GetContactActivity(ctx, contactID, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Events...)
		if page >= resp.MaxPages || len(resp.Events) == 0 {
			break
		}
	}
	return all, nil
}

// GetContactCampaigns lists the campaigns the contact is a member of.
func (c *Client) GetContactCampaigns(ctx context.Context, contactID int) ([]Campaign, error) {
	var out struct {
		Campaigns map[string]Campaign `json:"campaigns"`
	}
	if err := c.doJSON(ctx, fmt.Sprintf("/api/contacts/%d/campaigns", contactID), &out); err != nil {
		return nil, fmt.Errorf("get contact campaigns: %w", err)
	}
	campaigns := make([]Campaign, 0, len(out.Campaigns))
	for _, cp := range out.Campaigns {
		campaigns = append(campaigns, cp)
	}
	return campaigns, nil
}

// GetContactSegments lists the segments the contact belongs to. Mautic keys
// the response map "lists" for historical reasons.
func (c *Client) GetContactSegments(ctx context.Context, contactID int) ([]Segment, error) {
	var out struct {
		Lists map[string]Segment `json:"lists"`
	}
	if err := c.doJSON(ctx, fmt.Sprintf("/api/contacts/%d/segments", contactID), &out); err != nil {
		return nil, fmt.Errorf("get contact segments: %w", err)
	}
	segments := make([]Segment, 0, len(out.Lists))
	for _, s := range out.Lists {
		segments = append(segments, s)
	}
	return segments, nil
}

// GetLeadData fetches the contact plus its activities, campaigns and
// segments. Returns nil when the email has no matching contact. The three
// per-contact fetches run concurrently once the contact id is known.
func (c *Client) GetLeadData(ctx context.Context, email string) (*LeadData, error) {
	contact, err := c.SearchContactByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, nil
	}

	data := &LeadData{Contact: contact}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		activities, err := c.GetAllContactActivity(gctx, contact.ID)
		if err != nil {
			return err
		}
		data.Activities = activities
		return nil
	})
	g.Go(func() error {
		campaigns, err := c.GetContactCampaigns(gctx, contact.ID)
		if err != nil {
			return err
		}
		data.Campaigns = campaigns
		return nil
	})
	g.Go(func() error {
		segments, err := c.GetContactSegments(gctx, contact.ID)
		if err != nil {
			return err
		}
		data.Segments = segments
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// NamedResource is an id/name pair from one of the Mautic listing endpoints,
// used to build the lookup tables.
type NamedResource struct {
	ID   int
	Name string
}

type listedItem struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Title   string `json:"title"`
}

func (i listedItem) displayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Title != "":
		return i.Title
	default:
		return i.Subject
	}
}

// ListEmails returns id/name pairs for the account's emails.
func (c *Client) ListEmails(ctx context.Context, limit int) ([]NamedResource, error) {
	return c.listNamed(ctx, "/api/emails", "emails", limit)
}

// ListPages returns id/title pairs for the account's landing pages.
func (c *Client) ListPages(ctx context.Context, limit int) ([]NamedResource, error) {
	return c.listNamed(ctx, "/api/pages", "pages", limit)
}

// ListSegments returns id/name pairs for the account's segments.
func (c *Client) ListSegments(ctx context.Context, limit int) ([]NamedResource, error) {
	return c.listNamed(ctx, "/api/segments", "lists", limit)
}

// ListCampaigns returns id/name pairs for the account's campaigns.
func (c *Client) ListCampaigns(ctx context.Context, limit int) ([]NamedResource, error) {
	return c.listNamed(ctx, "/api/campaigns", "campaigns", limit)
}

// ListStages returns id/name pairs for the account's funnel stages.
func (c *Client) ListStages(ctx context.Context, limit int) ([]NamedResource, error) {
	return c.listNamed(ctx, "/api/stages", "stages", limit)
}

func (c *Client) listNamed(ctx context.Context, path, key string, limit int) ([]NamedResource, error) {
	if limit <= 0 {
		limit = 500
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("orderBy", "id")
	q.Set("orderByDir", "DESC")

	var raw map[string]json.RawMessage
	if err := c.doJSON(ctx, path+"?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	payload, ok := raw[key]
	if !ok {
		return nil, nil
	}

	var items map[string]listedItem
	if err := json.Unmarshal(payload, &items); err != nil {
		// Some Mautic versions return an array instead of an id-keyed map.
		var list []listedItem
		if err2 := json.Unmarshal(payload, &list); err2 != nil {
			return nil, fmt.Errorf("list %s: decode payload: %w", key, err)
		}
		out := make([]NamedResource, 0, len(list))
		for _, item := range list {
			out = append(out, NamedResource{ID: item.ID, Name: item.displayName()})
		}
		return out, nil
	}

	out := make([]NamedResource, 0, len(items))
	for _, item := range items {
		out = append(out, NamedResource{ID: item.ID, Name: item.displayName()})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("mautic API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("mautic API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
