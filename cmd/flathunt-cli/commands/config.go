package commands

import (
	"time"

	"flathunt-backend/lib/retryutil"
	"flathunt-backend/lib/scrapers/rightmove"
	"flathunt-backend/lib/scrapers/tfl"
	"flathunt-backend/lib/serviceutil"
	"flathunt-backend/lib/sqliteutil"
	"flathunt-backend/services/flathunt"
	"flathunt-backend/services/flathunt/db"
)

type DestinationConfig struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type LocationConfig struct {
	// Name is the display name behind Id, e.g. "Camden Town Station".
	Name string `json:"name"`
	// Id is a location identifier from the lookup command, e.g.
	// "REGION^87490" or "STATION^2227".
	Id string `json:"id"`
}

type ArrivalConfig struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type Config struct {
	TflAppKey string `json:"tfl_app_key"`
	// Timezone the arrival deadline is computed in, e.g. "Europe/London".
	Timezone string        `json:"timezone"`
	Arrival  ArrivalConfig `json:"arrival"`

	Locations    []LocationConfig    `json:"locations"`
	Destinations []DestinationConfig `json:"destinations"`

	MaxJourneyMinutes int     `json:"max_journey_minutes"`
	MaxPrice          int     `json:"max_price"`
	RadiusMiles       float64 `json:"radius_miles"`
	MaxDaysSinceAdded int     `json:"max_days_since_added"`

	// CacheDb of "" runs without a dedup cache.
	CacheDb string `json:"cache_db"`
}

func (c Config) location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		serviceutil.Fatal("failed to load timezone", err)
	}
	return loc
}

func (c Config) destinations() []flathunt.Destination {
	out := make([]flathunt.Destination, len(c.Destinations))
	for i, d := range c.Destinations {
		out[i] = flathunt.Destination{
			Name: d.Name,
			Coordinate: tfl.Coordinate{
				Latitude:  d.Latitude,
				Longitude: d.Longitude,
			},
		}
	}
	return out
}

func (c Config) requests() []flathunt.SearchRequest {
	requests := make([]flathunt.SearchRequest, len(c.Locations))
	for i, loc := range c.Locations {
		requests[i] = flathunt.SearchRequest{
			LocationName:      loc.Name,
			LocationID:        loc.Id,
			MaxPrice:          c.MaxPrice,
			RadiusMiles:       c.RadiusMiles,
			MaxDaysSinceAdded: c.MaxDaysSinceAdded,
			Destinations:      c.destinations(),
			MaxJourneyTime:    time.Duration(c.MaxJourneyMinutes) * time.Minute,
		}
	}
	return requests
}

func newService(cfg Config, presenter flathunt.Presenter) *flathunt.Service {
	listings := rightmove.NewClient(rightmove.ClientOptions{
		Retry: &retryutil.Policy{},
	})
	journeys := tfl.NewClient(tfl.ClientOptions{
		AppKey:   cfg.TflAppKey,
		Location: cfg.location(),
		Retry:    &retryutil.Policy{Retryable: tfl.Retryable},
	})

	var cache flathunt.Cache
	if cfg.CacheDb != "" {
		database, err := sqliteutil.OpenDB(db.Schema, cfg.CacheDb)
		if err != nil {
			serviceutil.Fatal("failed to open cache db", err)
		}
		cache = flathunt.NewPropertyCache(database)
	}

	return flathunt.NewService(flathunt.ServiceOptions{
		Listings:      listings,
		Journeys:      journeys,
		Cache:         cache,
		Presenter:     presenter,
		Location:      cfg.location(),
		ArrivalHour:   cfg.Arrival.Hour,
		ArrivalMinute: cfg.Arrival.Minute,
	})
}
