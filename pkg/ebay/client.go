// Package ebay is a minimal Browse API client: client-credentials auth,
// item summary search, and item detail lookup.
package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/resilience"
)

const (
	defaultAuthURL   = "https://api.ebay.com/identity/v1/oauth2/token"
	defaultBrowseURL = "https://api.ebay.com/buy/browse/v1"
	oauthScope       = "https://api.ebay.com/oauth/api_scope"

	// searchAttempts bounds the listing-source transport's retry budget.
	searchAttempts = 5
)

// Client performs Browse API operations.
type Client interface {
	SearchItems(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	GetItem(ctx context.Context, itemID string) (*model.Listing, error)
}

// SearchRequest holds item summary search parameters.
type SearchRequest struct {
	Query       string
	CategoryIDs string
	Filter      string
	Limit       int
	Offset      int
	Sort        string
}

// SearchResponse is the item summary search payload.
type SearchResponse struct {
	Total         int             `json:"total"`
	ItemSummaries []model.Listing `json:"itemSummaries"`
}

// Option configures the client.
type Option func(*httpClient)

// WithAuthURL overrides the OAuth token endpoint.
func WithAuthURL(u string) Option {
	return func(c *httpClient) {
		c.authURL = u
	}
}

// WithBaseURL overrides the Browse API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.browseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	clientID      string
	clientSecret  string
	marketplaceID string
	authURL       string
	browseURL     string
	http          *http.Client

	transport *resilience.Transport

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Browse API client with a retrying transport.
func NewClient(clientID, clientSecret, marketplaceID string, opts ...Option) Client {
	c := &httpClient{
		clientID:      clientID,
		clientSecret:  clientSecret,
		marketplaceID: marketplaceID,
		authURL:       defaultAuthURL,
		browseURL:     defaultBrowseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.transport = resilience.NewTransport("ebay", c.http, resilience.RetryConfig{
		MaxAttempts:    searchAttempts,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
	})
	return c
}

// appToken returns a cached application token, refreshing when it is within
// 60 seconds of expiry.
func (c *httpClient) appToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {oauthScope},
	}

	body, err := c.transport.Send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, eris.Wrap(err, "ebay: create token request")
		}
		req.Header.Set("Authorization", "Basic "+credentials)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", authError(err)
	}

	var payload struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", eris.Wrap(err, "ebay: unmarshal token response")
	}
	if payload.AccessToken == "" {
		return "", eris.Errorf("ebay: missing access token in response: %s", string(body))
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	c.token = payload.AccessToken
	c.tokenExpiry = now.Add(time.Duration(expiresIn) * time.Second)
	return c.token, nil
}

// authError rewrites a 401 invalid_client into an actionable credential hint.
func authError(err error) error {
	var he *resilience.HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized {
		if strings.Contains(he.Body, "invalid_client") {
			return eris.Wrap(err,
				"ebay: unauthorized (invalid_client): verify the client id/secret match your "+
					"app credentials and that they are production credentials, not sandbox")
		}
		return eris.Wrap(err, "ebay: unauthorized: check client id/secret")
	}
	return eris.Wrap(err, "ebay: fetch app token")
}

func (c *httpClient) SearchItems(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", req.Query)
	if req.CategoryIDs != "" {
		params.Set("category_ids", req.CategoryIDs)
	}
	if req.Filter != "" {
		params.Set("filter", req.Filter)
	}
	params.Set("limit", strconv.Itoa(req.Limit))
	params.Set("offset", strconv.Itoa(req.Offset))
	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}

	endpoint := c.browseURL + "/item_summary/search?" + params.Encode()
	body, err := c.transport.Send(ctx, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "ebay: create search request")
		}
		c.setHeaders(httpReq, token)
		return httpReq, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ebay: search %q", req.Query)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "ebay: unmarshal search response")
	}
	return &result, nil
}

func (c *httpClient) GetItem(ctx context.Context, itemID string) (*model.Listing, error) {
	token, err := c.appToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.browseURL + "/item/" + url.PathEscape(itemID)
	body, err := c.transport.Send(ctx, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "ebay: create item request")
		}
		c.setHeaders(httpReq, token)
		return httpReq, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ebay: get item %s", itemID)
	}

	var listing model.Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, eris.Wrap(err, "ebay: unmarshal item response")
	}
	listing.Raw = body
	return &listing, nil
}

func (c *httpClient) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID)
}

// SearchFilter builds the Browse API filter string for distressed-listing
// discovery with a price ceiling.
func SearchFilter(maxPrice float64) string {
	return "conditionIds:{7000}," +
		"buyingOptions:{FIXED_PRICE|BEST_OFFER}," +
		"deliveryCountry:US," +
		"price:[.." + strconv.FormatFloat(maxPrice, 'f', -1, 64) + "]"
}
