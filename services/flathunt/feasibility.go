package flathunt

import (
	"context"
	"log/slog"
	"time"

	"flathunt-backend/lib/scrapers/tfl"
)

// Destination is a named commute target. Destinations are evaluated in
// slice order; a map would not preserve the order they were configured in.
type Destination struct {
	Name       string
	Coordinate tfl.Coordinate
}

// CheckJourneys reports whether every destination is reachable from origin
// by deadline with a journey departing no more than maxJourney before it.
// The first destination with no journeys, or whose best journey leaves too
// early, fails the whole check; later destinations are not queried.
func (s *Service) CheckJourneys(
	ctx context.Context,
	origin tfl.Endpoint,
	destinations []Destination,
	deadline time.Time,
	maxJourney time.Duration,
) (bool, error) {
	ctx, span := tracer.Start(ctx, "CheckJourneys")
	defer span.End()

	for _, destination := range destinations {
		journeys, err := s.journeys.Journeys(ctx, origin, destination.Coordinate, deadline)
		if err != nil {
			span.RecordError(err)
			return false, err
		}
		slog.InfoContext(ctx, "journey options",
			"destination", destination.Name,
			"count", len(journeys),
		)
		if len(journeys) == 0 {
			slog.InfoContext(ctx, "no journeys found", "destination", destination.Name)
			return false, nil
		}

		// journeys are ordered closest-departure-to-deadline first
		best := journeys[0]
		slack := best.Slack(deadline)
		if slack > maxJourney {
			slog.InfoContext(ctx, "unacceptable journey",
				"destination", destination.Name,
				"slack", slack,
			)
			return false, nil
		}
		slog.InfoContext(ctx, "acceptable journey",
			"destination", destination.Name,
			"mode", best.Mode,
			"route", best.RouteName,
			"slack", slack,
		)
	}
	return true, nil
}
