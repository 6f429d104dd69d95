package tfl

import (
	"fmt"
	"strings"
	"time"
)

// Mode is a transport mode as encoded by the journey service.
type Mode string

const (
	ModeTube          Mode = "tube"
	ModeDLR           Mode = "dlr"
	ModeOverground    Mode = "overground"
	ModeElizabethLine Mode = "elizabeth-line"
	ModeNationalRail  Mode = "national-rail"
	ModeTram          Mode = "tram"
	ModeBus           Mode = "bus"
	ModeWalking       Mode = "walking"
)

// AllModes is the full enumerated set, sent comma-joined on every journey
// query. Rail-like modes come first; primaryMode picks the first of these
// present across a journey's legs.
var AllModes = []Mode{
	ModeTube,
	ModeDLR,
	ModeOverground,
	ModeElizabethLine,
	ModeNationalRail,
	ModeTram,
	ModeBus,
	ModeWalking,
}

// Journey is one normalized journey option.
type Journey struct {
	Duration  time.Duration
	Departure time.Time
	Arrival   time.Time
	Mode      Mode
	RouteName string
}

// Slack is the margin between the journey's departure and an arrival
// deadline. The commute evaluation compares it against the longest
// acceptable travel time.
func (j Journey) Slack(deadline time.Time) time.Duration {
	return deadline.Sub(j.Departure)
}

type rawJourney struct {
	Duration      int    `json:"duration"`
	StartDateTime string `json:"startDateTime"`
	ArrivalDateTime string `json:"arrivalDateTime"`
	Legs          []rawLeg `json:"legs"`
}

type rawLeg struct {
	Mode struct {
		ID string `json:"id"`
	} `json:"mode"`
	RouteOptions []struct {
		Name string `json:"name"`
	} `json:"routeOptions"`
}

// the service reports naive local-less timestamps; they are UTC instants
const journeyTimeLayout = "2006-01-02T15:04:05"

func parseJourney(raw rawJourney) (Journey, error) {
	departure, err := time.ParseInLocation(journeyTimeLayout, raw.StartDateTime, time.UTC)
	if err != nil {
		return Journey{}, fmt.Errorf("tfl: parse departure %q: %w", raw.StartDateTime, err)
	}
	arrival, err := time.ParseInLocation(journeyTimeLayout, raw.ArrivalDateTime, time.UTC)
	if err != nil {
		return Journey{}, fmt.Errorf("tfl: parse arrival %q: %w", raw.ArrivalDateTime, err)
	}

	return Journey{
		Duration:  time.Duration(raw.Duration) * time.Minute,
		Departure: departure,
		Arrival:   arrival,
		Mode:      primaryMode(raw.Legs),
		RouteName: routeName(raw.Legs),
	}, nil
}

func primaryMode(legs []rawLeg) Mode {
	present := map[Mode]bool{}
	for _, leg := range legs {
		present[Mode(leg.Mode.ID)] = true
	}
	for _, mode := range AllModes {
		if present[mode] {
			return mode
		}
	}
	return ModeWalking
}

func routeName(legs []rawLeg) string {
	var names []string
	for _, leg := range legs {
		if len(leg.RouteOptions) == 0 {
			continue
		}
		if name := leg.RouteOptions[0].Name; name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "walking"
	}
	return strings.Join(names, "->")
}
