// Package tfl is a client for the TfL journey planner API.
package tfl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"flathunt-backend/lib/retryutil"
	"flathunt-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/tfl")

const (
	baseHost  = "https://api.tfl.gov.uk"
	userAgent = "IAmLookingToRent/0.0.0"

	noJourneyMessage = "No journey found for your inputs."
)

// Endpoint is a journey origin or destination: either a Coordinate or a
// PlaceName the service resolves itself.
type Endpoint interface {
	endpoint() string
}

// PlaceName is a free-text location, e.g. a station name.
type PlaceName string

func (p PlaceName) endpoint() string { return string(p) }

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

func (c Coordinate) endpoint() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) +
		"," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

type journeyRequest struct {
	from     Endpoint
	to       Coordinate
	arriveBy time.Time
}

type journeyResponse struct {
	Journeys []rawJourney `json:"journeys"`
}

// Client issues journey queries. The planning timezone is threaded in
// explicitly; there is no process-wide default.
type Client struct {
	http     *resty.Client
	appKey   string
	baseURL  string
	location *time.Location
	now      func() time.Time

	journeys func(context.Context, journeyRequest) (journeyResponse, error)
}

type ClientOptions struct {
	AppKey string
	// Location is the timezone "depart now" queries are encoded in.
	Location *time.Location
	// Retry wraps the journey call when set; pair it with Retryable.
	Retry *retryutil.Policy
	// BaseURL overrides the production host in tests.
	BaseURL string
	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewClient(opts ClientOptions) *Client {
	httpClient := resty.New()
	httpClient.SetHeader("User-Agent", userAgent)
	httpClient.SetHeader("Accept", "*/*")
	httpClient.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(httpClient, "scrapers/tfl/http")

	c := &Client{
		http:     httpClient,
		appKey:   opts.AppKey,
		baseURL:  baseHost,
		location: opts.Location,
		now:      opts.Now,
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.journeys = c.rawJourneys
	if opts.Retry != nil {
		c.journeys = retryutil.Wrap(*opts.Retry, c.rawJourneys)
	}
	return c
}

// Journeys returns the candidate journeys from from to to. A zero arriveBy
// plans a "depart now" journey and orders results by arrival; otherwise
// the query is "arrive by" and results are ordered by how close each
// departure sits to the deadline, closest first. "No journey found" is an
// empty result, not an error.
func (c *Client) Journeys(ctx context.Context, from Endpoint, to Coordinate, arriveBy time.Time) ([]Journey, error) {
	ctx, span := tracer.Start(ctx, "Journeys")
	defer span.End()
	span.SetAttributes(
		attribute.String("from", from.endpoint()),
		attribute.String("to", to.endpoint()),
	)

	res, err := c.journeys(ctx, journeyRequest{from: from, to: to, arriveBy: arriveBy})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "journey query failed")
		return nil, err
	}

	journeys := make([]Journey, 0, len(res.Journeys))
	for _, raw := range res.Journeys {
		journey, err := parseJourney(raw)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode journey")
			return nil, err
		}
		journeys = append(journeys, journey)
	}

	if arriveBy.IsZero() {
		sort.SliceStable(journeys, func(i, j int) bool {
			return journeys[i].Arrival.Before(journeys[j].Arrival)
		})
	} else {
		distance := func(j Journey) time.Duration {
			d := arriveBy.Sub(j.Departure)
			if d < 0 {
				d = -d
			}
			return d
		}
		sort.SliceStable(journeys, func(i, j int) bool {
			return distance(journeys[i]) < distance(journeys[j])
		})
	}

	span.SetAttributes(attribute.Int("count", len(journeys)))
	return journeys, nil
}

func (c *Client) rawJourneys(ctx context.Context, req journeyRequest) (journeyResponse, error) {
	modes := make([]string, len(AllModes))
	for i, m := range AllModes {
		modes[i] = string(m)
	}

	params := map[string]string{
		"app_key": c.appKey,
		"mode":    strings.Join(modes, ","),
	}
	if req.arriveBy.IsZero() {
		departure := c.now().In(c.location)
		params["date"] = departure.Format("20060102")
		params["time"] = departure.Format("1504")
		params["timeIs"] = "departing"
	} else {
		arrival := req.arriveBy.UTC()
		params["date"] = arrival.Format("20060102")
		params["time"] = arrival.Format("1504")
		params["timeIs"] = "arriving"
	}

	endpoint := fmt.Sprintf(
		"%s/Journey/JourneyResults/%s/to/%s",
		c.baseURL,
		url.PathEscape(req.from.endpoint()),
		url.PathEscape(req.to.endpoint()),
	)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return journeyResponse{}, err
	}
	return decodeJourneyResponse(res)
}

func decodeJourneyResponse(res *resty.Response) (journeyResponse, error) {
	switch res.StatusCode() {
	case http.StatusOK:
		if len(res.Body()) == 0 {
			return journeyResponse{}, nil
		}
		var out journeyResponse
		if err := json.Unmarshal(res.Body(), &out); err != nil {
			return journeyResponse{}, fmt.Errorf("tfl: decode journeys: %w", err)
		}
		return out, nil

	case http.StatusTooManyRequests:
		wait := -time.Second
		if v := res.Header().Get("Retry-After"); v != "" {
			if seconds, err := strconv.Atoi(v); err == nil {
				wait = time.Duration(seconds) * time.Second
			}
		}
		return journeyResponse{}, &RateLimitError{Wait: wait}

	case http.StatusNotFound:
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(res.Body(), &body) == nil && body.Message == noJourneyMessage {
			return journeyResponse{}, nil
		}
		return journeyResponse{}, &NotFoundError{Reason: res.Status()}

	case http.StatusInternalServerError:
		return journeyResponse{}, &InternalServerError{Reason: res.Status()}

	case http.StatusBadGateway:
		return journeyResponse{}, &BadGatewayError{Reason: res.Status()}

	default:
		return journeyResponse{}, &HTTPError{Status: res.StatusCode(), Reason: res.Status()}
	}
}
