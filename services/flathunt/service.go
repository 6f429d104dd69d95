// Package flathunt composes the listing search, the commute check and the
// dedup cache into one discovery pass.
package flathunt

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"flathunt-backend/lib/scrapers/rightmove"
	"flathunt-backend/lib/scrapers/tfl"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/flathunt")

// stationPrefix marks transit-station location identifiers, which get a
// commute precheck before any listings are fetched.
const stationPrefix = "STATION^"

type ListingSource interface {
	Search(ctx context.Context, query rightmove.SearchQuery) ([]rightmove.Property, error)
}

type JourneySource interface {
	Journeys(ctx context.Context, from tfl.Endpoint, to tfl.Coordinate, arriveBy time.Time) ([]tfl.Journey, error)
}

// Presenter shows an accepted listing to the user and paces between
// consecutive listings. Display failures are logged, not fatal: showing is
// idempotent from the user's perspective.
type Presenter interface {
	Show(ctx context.Context, property rightmove.Property) error
	Pause(ctx context.Context)
}

type nopPresenter struct{}

func (nopPresenter) Show(ctx context.Context, property rightmove.Property) error { return nil }
func (nopPresenter) Pause(ctx context.Context)                                   {}

type Service struct {
	listings  ListingSource
	journeys  JourneySource
	cache     Cache
	presenter Presenter

	location      *time.Location
	arrivalHour   int
	arrivalMinute int
	now           func() time.Time
}

type ServiceOptions struct {
	Listings  ListingSource
	Journeys  JourneySource
	Cache     Cache     // nil runs without a cache
	Presenter Presenter // nil discards accepted listings

	// Location is the timezone the arrival deadline is computed in.
	Location *time.Location
	// ArrivalHour/ArrivalMinute is the clock time listings must allow
	// arriving by on the next working day. Defaults to 09:00.
	ArrivalHour   int
	ArrivalMinute int
	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		listings:      opts.Listings,
		journeys:      opts.Journeys,
		cache:         opts.Cache,
		presenter:     opts.Presenter,
		location:      opts.Location,
		arrivalHour:   opts.ArrivalHour,
		arrivalMinute: opts.ArrivalMinute,
		now:           opts.Now,
	}
	if s.cache == nil {
		s.cache = NopCache{}
	}
	if s.presenter == nil {
		s.presenter = nopPresenter{}
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.arrivalHour == 0 && s.arrivalMinute == 0 {
		s.arrivalHour = 9
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SearchRequest describes one discovery pass.
type SearchRequest struct {
	// LocationName is the human name behind LocationID, used for the
	// station commute precheck.
	LocationName      string
	LocationID        string
	MaxPrice          int
	RadiusMiles       float64
	MaxDaysSinceAdded int

	Destinations   []Destination
	MaxJourneyTime time.Duration
}

// Search runs one discovery pass and returns the accepted listings in the
// order the listing service produced them. Every evaluated listing is
// recorded to the cache whether or not it was accepted.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]rightmove.Property, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("location", req.LocationID))

	deadline := tfl.NextArrival(s.now(), s.arrivalHour, s.arrivalMinute, s.location)

	if strings.HasPrefix(req.LocationID, stationPrefix) {
		ok, err := s.CheckJourneys(ctx, tfl.PlaceName(req.LocationName), req.Destinations, deadline, req.MaxJourneyTime)
		if err != nil {
			// the precheck is advisory; an unresolvable station name or a
			// flaky journey service must not kill the whole pass
			slog.WarnContext(ctx, "commute precheck failed, proceeding",
				"location", req.LocationName,
				"err", err,
			)
		} else if !ok {
			slog.InfoContext(ctx, "unacceptable commute from search area",
				"location", req.LocationName,
			)
			return nil, nil
		}
	}

	query := rightmove.NewSearchQuery(req.LocationID)
	query.MaxPrice = req.MaxPrice
	query.RadiusMiles = req.RadiusMiles
	query.MaxDaysSinceAdded = req.MaxDaysSinceAdded
	query.Sort = rightmove.SortMostRecent

	properties, err := s.listings.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing search failed")
		return nil, err
	}
	slog.InfoContext(ctx, "search returned listings", "count", len(properties))

	fresh := make([]rightmove.Property, 0, len(properties))
	for _, property := range properties {
		seen, err := s.cache.Contains(ctx, property.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cache lookup failed")
			return nil, err
		}
		if !seen {
			fresh = append(fresh, property)
		}
	}
	slog.InfoContext(ctx, "after filtering cached listings", "count", len(fresh))

	var accepted []rightmove.Property
	for i, property := range fresh {
		if property.Price == nil {
			slog.InfoContext(ctx, "skipping listing with no price",
				"address", property.DisplayAddress,
			)
			if err := s.cache.Add(ctx, property); err != nil {
				return nil, err
			}
			continue
		}

		slog.InfoContext(ctx, "checking journeys from listing",
			"address", property.DisplayAddress,
		)
		origin := tfl.Coordinate{
			Latitude:  property.Location.Latitude,
			Longitude: property.Location.Longitude,
		}
		ok, err := s.CheckJourneys(ctx, origin, req.Destinations, deadline, req.MaxJourneyTime)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "journey check failed")
			return nil, err
		}

		// the cache records "evaluated", not "accepted"
		if err := s.cache.Add(ctx, property); err != nil {
			return nil, err
		}

		if !ok {
			slog.InfoContext(ctx, "skipping listing",
				"address", property.DisplayAddress,
				"price", property.Price.Amount,
				"frequency", property.Price.Frequency,
			)
			continue
		}

		slog.InfoContext(ctx, "showing listing",
			"address", property.DisplayAddress,
			"price", property.Price.Amount,
			"frequency", property.Price.Frequency,
		)
		accepted = append(accepted, property)
		if err := s.presenter.Show(ctx, property); err != nil {
			slog.WarnContext(ctx, "failed to show listing",
				"address", property.DisplayAddress,
				"err", err,
			)
		}
		if i != len(fresh)-1 {
			s.presenter.Pause(ctx)
		}
	}
	return accepted, nil
}
