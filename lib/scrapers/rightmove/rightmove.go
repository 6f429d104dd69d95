// Package rightmove is a client for the rightmove listing search API.
package rightmove

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flathunt-backend/lib/retryutil"
	"flathunt-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/twpayne/go-polyline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/rightmove")

const (
	baseHost   = "https://www.rightmove.co.uk"
	lookupHost = "https://los.rightmove.co.uk"

	// SearchListMaxResults is the highest index the LIST view will page to.
	SearchListMaxResults = 1000
	// SearchMapMaxResults is the most the MAP view returns; it does not
	// paginate.
	SearchMapMaxResults = 499
	// SearchByIDsMaxResults is the most ids a single by-ids call accepts.
	SearchByIDsMaxResults = 25
	// LookupMaxResults is the lookup service's default result limit.
	LookupMaxResults = 20

	userAgent = "IAmLookingToRent/0.0.0"
)

// HTTPError is any non-2xx response from the listing service. The client
// performs no retries itself; wrap calls with a retry policy via
// ClientOptions.
type HTTPError struct {
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rightmove: http error %d: %s", e.Status, e.Reason)
}

type searchResponse struct {
	Properties  []json.RawMessage `json:"properties"`
	ResultCount string            `json:"resultCount"`
	Pagination  struct {
		Next json.Number `json:"next"`
	} `json:"pagination"`
}

// totalCount decodes the thousands-separated resultCount string.
func (r searchResponse) totalCount() (int, error) {
	return strconv.Atoi(strings.ReplaceAll(r.ResultCount, ",", ""))
}

type searchRequest struct {
	params url.Values
}

type lookupRequest struct {
	query string
	limit int
}

type byIDsRequest struct {
	ids     []int64
	channel Channel
}

// Client issues search, lookup and by-ids calls. Each logical call is held
// as a function value so a retry policy can be composed around it once at
// construction; all calls are pure GETs and retry idempotently.
type Client struct {
	http      *resty.Client
	baseURL   string
	lookupURL string

	lookup func(context.Context, lookupRequest) (LookupMatches, error)
	search func(context.Context, searchRequest) (searchResponse, error)
	byIDs  func(context.Context, byIDsRequest) (searchResponse, error)
}

type ClientOptions struct {
	// Retry wraps every logical call when set.
	Retry *retryutil.Policy
	// BaseURL and LookupURL override the production hosts in tests.
	BaseURL   string
	LookupURL string
}

func NewClient(opts ClientOptions) *Client {
	httpClient := resty.New()
	httpClient.SetHeader("User-Agent", userAgent)
	httpClient.SetHeader("Accept", "*/*")
	httpClient.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(httpClient, "scrapers/rightmove/http")

	c := &Client{http: httpClient}
	c.baseURL = baseHost
	c.lookupURL = lookupHost
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.LookupURL != "" {
		c.lookupURL = opts.LookupURL
	}

	c.lookup = c.rawLookup
	c.search = c.rawSearch
	c.byIDs = c.rawByIDs
	if opts.Retry != nil {
		c.lookup = retryutil.Wrap(*opts.Retry, c.rawLookup)
		c.search = retryutil.Wrap(*opts.Retry, c.rawSearch)
		c.byIDs = retryutil.Wrap(*opts.Retry, c.rawByIDs)
	}
	return c
}

// Lookup returns the location identifiers matching a free-text query.
// limit of 0 uses the service default.
func (c *Client) Lookup(ctx context.Context, query string, limit int) (LookupMatches, error) {
	ctx, span := tracer.Start(ctx, "Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	if limit <= 0 {
		limit = LookupMaxResults
	}
	matches, err := c.lookup(ctx, lookupRequest{query: query, limit: limit})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return LookupMatches{}, err
	}
	return matches, nil
}

// Search fetches the full LIST-view result set for query, re-issuing the
// request with the cursor from each prior page until the accumulated count
// reaches min(total, SearchListMaxResults). Arrival order is preserved
// across pages.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]Property, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("location", query.LocationIdentifier))

	params := query.params()
	params.Set("viewType", "LIST")

	raw, err := c.searchAll(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	properties := make([]Property, 0, len(raw))
	for _, item := range raw {
		var p Property
		if err := json.Unmarshal(item, &p); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode property")
			return nil, fmt.Errorf("rightmove: decode property: %w", err)
		}
		properties = append(properties, p)
	}
	span.SetAttributes(attribute.Int("count", len(properties)))
	return properties, nil
}

// MapSearch issues a single MAP-view request: no pagination, capped at
// SearchMapMaxResults. Also returns the total count the service reported.
func (c *Client) MapSearch(ctx context.Context, query SearchQuery) ([]PropertyLocation, int, error) {
	ctx, span := tracer.Start(ctx, "MapSearch")
	defer span.End()

	params := query.params()
	params.Set("viewType", "MAP")

	res, err := c.search(ctx, searchRequest{params: params})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "map search failed")
		return nil, 0, err
	}
	total, err := res.totalCount()
	if err != nil {
		return nil, 0, fmt.Errorf("rightmove: decode result count: %w", err)
	}

	locations := make([]PropertyLocation, 0, len(res.Properties))
	for _, item := range res.Properties {
		var loc PropertyLocation
		if err := json.Unmarshal(item, &loc); err != nil {
			return nil, 0, fmt.Errorf("rightmove: decode property location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, total, nil
}

// SearchByIDs fetches up to SearchByIDsMaxResults listings by id.
func (c *Client) SearchByIDs(ctx context.Context, ids []int64, channel Channel) ([]Property, error) {
	ctx, span := tracer.Start(ctx, "SearchByIDs")
	defer span.End()

	if len(ids) > SearchByIDsMaxResults {
		return nil, fmt.Errorf("rightmove: at most %d ids per call, got %d", SearchByIDsMaxResults, len(ids))
	}

	res, err := c.byIDs(ctx, byIDsRequest{ids: ids, channel: channel})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search by ids failed")
		return nil, err
	}

	properties := make([]Property, 0, len(res.Properties))
	for _, item := range res.Properties {
		var p Property
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("rightmove: decode property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, nil
}

// searchAll aggregates LIST pages. The total is re-read from every
// response, matching how the service reports a moving count while paging.
func (c *Client) searchAll(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	res, err := c.search(ctx, searchRequest{params: params})
	if err != nil {
		return nil, err
	}

	all := res.Properties
	for {
		total, err := res.totalCount()
		if err != nil {
			return nil, fmt.Errorf("rightmove: decode result count: %w", err)
		}
		want := min(total, SearchListMaxResults)
		if len(all) >= want || res.Pagination.Next == "" {
			return all, nil
		}

		next := url.Values{}
		for k, v := range params {
			next[k] = v
		}
		next.Set("index", res.Pagination.Next.String())

		res, err = c.search(ctx, searchRequest{params: next})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Properties...)
	}
}

func (c *Client) rawSearch(ctx context.Context, req searchRequest) (searchResponse, error) {
	endpoint := c.baseURL + "/api/_search"
	if req.params.Get("viewType") == "MAP" {
		endpoint = c.baseURL + "/api/_mapSearch"
	}

	var out searchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(req.params).
		SetResult(&out).
		Get(endpoint)
	if err != nil {
		return searchResponse{}, err
	}
	if res.StatusCode() != http.StatusOK {
		return searchResponse{}, &HTTPError{Status: res.StatusCode(), Reason: res.Status()}
	}
	return out, nil
}

func (c *Client) rawLookup(ctx context.Context, req lookupRequest) (LookupMatches, error) {
	var out LookupMatches
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":   req.query,
			"limit":   strconv.Itoa(req.limit),
			"exclude": "",
		}).
		SetResult(&out).
		Get(c.lookupURL + "/typeahead")
	if err != nil {
		return LookupMatches{}, err
	}
	if res.StatusCode() != http.StatusOK {
		return LookupMatches{}, &HTTPError{Status: res.StatusCode(), Reason: res.Status()}
	}
	return out, nil
}

func (c *Client) rawByIDs(ctx context.Context, req byIDsRequest) (searchResponse, error) {
	ids := make([]string, len(req.ids))
	for i, id := range req.ids {
		ids[i] = strconv.FormatInt(id, 10)
	}

	var out searchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"channel":     string(req.channel),
			"propertyIds": strings.Join(ids, ","),
			"viewType":    "MAP",
		}).
		SetResult(&out).
		Get(c.baseURL + "/api/_searchByIds")
	if err != nil {
		return searchResponse{}, err
	}
	if res.StatusCode() != http.StatusOK {
		return searchResponse{}, &HTTPError{Status: res.StatusCode(), Reason: res.Status()}
	}
	return out, nil
}

// PropertyURL resolves a listing's detail page path to an absolute URL.
func PropertyURL(propertyURL string) string {
	return baseHost + propertyURL
}

// PolylineID builds a user-defined-area location identifier from a closed
// polygon of lat/lng pairs.
func PolylineID(coords [][]float64) string {
	encoded := polyline.EncodeCoords(coords)
	return "USERDEFINEDAREA^" + fmt.Sprintf(`{"polylines":%s}`, strconv.Quote(string(encoded)))
}
