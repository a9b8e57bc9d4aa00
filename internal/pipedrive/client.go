package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grupoblue/lead-insights/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client wraps the Pipedrive REST API (v1, api_token auth).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs a Pipedrive API client.
func NewClient(baseURL, apiToken string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPersonByEmail finds a person by exact email match. Returns nil when
// the lead has no CRM record; that is a normal outcome, not an error.
func (c *Client) SearchPersonByEmail(ctx context.Context, email string) (*Person, error) {
	q := url.Values{}
	q.Set("term", email)
	q.Set("fields", "email")
	q.Set("exact_match", "true")
	q.Set("limit", "1")

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Items []struct {
				Item Person `json:"item"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := c.doJSON(ctx, "/v1/persons/search", q, &out); err != nil {
		return nil, fmt.Errorf("search person: %w", err)
	}
	if len(out.Data.Items) == 0 {
		return nil, nil
	}
	person := out.Data.Items[0].Item
	return &person, nil
}

// GetPersonDeals returns every deal attached to the person.
func (c *Client) GetPersonDeals(ctx context.Context, personID int) ([]Deal, error) {
	var out struct {
		Success bool   `json:"success"`
		Data    []Deal `json:"data"`
	}
	path := fmt.Sprintf("/v1/persons/%d/deals", personID)
	if err := c.doJSON(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get person deals: %w", err)
	}
	return out.Data, nil
}

// GetCRMData resolves the person for an email and, when found, their deals.
// A lead that never reached the CRM yields empty CRMData, not an error.
func (c *Client) GetCRMData(ctx context.Context, email string) (*CRMData, error) {
	person, err := c.SearchPersonByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return &CRMData{}, nil
	}
	deals, err := c.GetPersonDeals(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	return &CRMData{Person: person, Deals: deals}, nil
}

func (c *Client) doJSON(ctx context.Context, path string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_token", c.apiToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
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
		c.logger.Warn("pipedrive API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("pipedrive API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
