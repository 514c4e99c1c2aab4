// Package bazaarvoice queries the Bazaarvoice product catalog API that backs
// the international Costco sites. Each region has its own passkey and locale;
// responses share one shape except for where the item code lives.
package bazaarvoice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const apiVersion = "5.4"

// Region identifies one regional catalog and its credentials.
type Region struct {
	Name           string
	Passkey        string
	Locale         string
	ItemCodeSource string // "model_numbers" or "id"; empty means "id"
}

// Response is the subset of the products API response we consume.
type Response struct {
	Results []Result `json:"Results"`
}

// Result is one product in a response. North American catalogs carry the
// item code in ModelNumbers; the rest use Id.
type Result struct {
	Name           string   `json:"Name"`
	ImageURL       string   `json:"ImageUrl"`
	ProductPageURL string   `json:"ProductPageUrl"`
	ModelNumbers   []string `json:"ModelNumbers"`
	ID             string   `json:"Id"`
}

// Client calls the products API with client-side rate limiting.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client. rps bounds outbound request rate across all regions;
// zero means a default of 5 requests per second.
func New(baseURL string, timeout time.Duration, rps float64) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Search runs a broad keyword search in one region, returning up to 50
// ranked matches.
func (c *Client) Search(ctx context.Context, region Region, terms string) (*Response, error) {
	params := url.Values{
		"passkey":      {region.Passkey},
		"locale":       {region.Locale},
		"allowMissing": {"true"},
		"apiVersion":   {apiVersion},
		"search":       {terms},
		"limit":        {"50"},
	}
	return c.get(ctx, region, params)
}

// LookupByID looks up products filtered on the identifier field.
func (c *Client) LookupByID(ctx context.Context, region Region, id string) (*Response, error) {
	params := url.Values{
		"passkey":      {region.Passkey},
		"locale":       {region.Locale},
		"allowMissing": {"true"},
		"apiVersion":   {apiVersion},
		"filter":       {"id:" + id},
		"limit":        {"50"},
	}
	return c.get(ctx, region, params)
}

func (c *Client) get(ctx context.Context, region Region, params url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "bazaarvoice: %s rate limit", region.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "bazaarvoice: %s build request", region.Name)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "bazaarvoice: %s request", region.Name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("bazaarvoice: %s returned status %d", region.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "bazaarvoice: %s read body", region.Name)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrapf(err, "bazaarvoice: %s parse response", region.Name)
	}
	return &out, nil
}
