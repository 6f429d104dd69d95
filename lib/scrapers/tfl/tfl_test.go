package tfl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flathunt-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/tfl"))
}

func journeyJSON(start, arrival string, duration int, legs string) string {
	return fmt.Sprintf(
		`{"duration":%d,"startDateTime":%q,"arrivalDateTime":%q,"legs":[%s]}`,
		duration, start, arrival, legs,
	)
}

func journeyServer(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/Journey/JourneyResults/"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
}

func TestJourneysArriveByOrdering(t *testing.T) {
	setup(t)

	tubeLeg := `{"mode":{"id":"tube"},"routeOptions":[{"name":"Northern"}]}`
	body := fmt.Sprintf(`{"journeys":[%s,%s,%s]}`,
		// departures at -5min, +2min and -1min relative to the deadline
		journeyJSON("2026-01-05T08:55:00", "2026-01-05T09:20:00", 25, tubeLeg),
		journeyJSON("2026-01-05T09:02:00", "2026-01-05T09:25:00", 23, tubeLeg),
		journeyJSON("2026-01-05T08:59:00", "2026-01-05T09:18:00", 19, tubeLeg),
	)
	server := journeyServer(t, http.StatusOK, body)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	deadline := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	journeys, err := client.Journeys(context.Background(), PlaceName("Camden Town"), Coordinate{51.5, -0.1}, deadline)
	require.NoError(t, err)

	require.Len(t, journeys, 3)
	require.Equal(t, time.Date(2026, 1, 5, 8, 59, 0, 0, time.UTC), journeys[0].Departure)
	require.Equal(t, time.Minute, journeys[0].Slack(deadline))
	require.Equal(t, time.Date(2026, 1, 5, 9, 2, 0, 0, time.UTC), journeys[1].Departure)
	require.Equal(t, time.Date(2026, 1, 5, 8, 55, 0, 0, time.UTC), journeys[2].Departure)
}

func TestJourneysDepartNowOrdering(t *testing.T) {
	setup(t)

	walkLeg := `{"mode":{"id":"walking"},"routeOptions":[]}`
	body := fmt.Sprintf(`{"journeys":[%s,%s]}`,
		journeyJSON("2026-01-05T10:00:00", "2026-01-05T10:40:00", 40, walkLeg),
		journeyJSON("2026-01-05T10:05:00", "2026-01-05T10:30:00", 25, walkLeg),
	)
	server := journeyServer(t, http.StatusOK, body)
	defer server.Close()

	var zero time.Time
	client := NewClient(ClientOptions{BaseURL: server.URL})
	journeys, err := client.Journeys(context.Background(), Coordinate{51.5, -0.1}, Coordinate{51.52, -0.09}, zero)
	require.NoError(t, err)

	require.Len(t, journeys, 2)
	require.Equal(t, time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC), journeys[0].Arrival)
	require.Equal(t, "walking", journeys[0].RouteName)
	require.Equal(t, ModeWalking, journeys[0].Mode)
}

func TestJourneysRequestParams(t *testing.T) {
	setup(t)

	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"journeys":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{AppKey: "secret", BaseURL: server.URL})
	deadline := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	_, err := client.Journeys(context.Background(), PlaceName("Camden Town"), Coordinate{51.5, -0.1}, deadline)
	require.NoError(t, err)

	require.Equal(t, "secret", query["app_key"][0])
	require.Equal(t, "20260105", query["date"][0])
	require.Equal(t, "0900", query["time"][0])
	require.Equal(t, "arriving", query["timeIs"][0])
	require.Contains(t, query["mode"][0], "tube")
	require.Contains(t, query["mode"][0], "walking")
}

func TestJourneysNoJourneyFound(t *testing.T) {
	setup(t)

	server := journeyServer(t, http.StatusNotFound, `{"message":"No journey found for your inputs."}`)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	journeys, err := client.Journeys(context.Background(), Coordinate{51.5, -0.1}, Coordinate{55.9, -3.2}, time.Time{})
	require.NoError(t, err)
	require.Empty(t, journeys)
}

func TestJourneysNotFound(t *testing.T) {
	setup(t)

	server := journeyServer(t, http.StatusNotFound, `{"message":"The following location is not recognised: nowhere"}`)
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	_, err := client.Journeys(context.Background(), PlaceName("nowhere"), Coordinate{51.5, -0.1}, time.Time{})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.False(t, Retryable(err))
}

func TestJourneysRateLimited(t *testing.T) {
	setup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	_, err := client.Journeys(context.Background(), Coordinate{51.5, -0.1}, Coordinate{51.52, -0.09}, time.Time{})

	var rateLimited *RateLimitError
	require.ErrorAs(t, err, &rateLimited)
	require.Equal(t, 7*time.Second, rateLimited.Wait)
	require.Equal(t, 7*time.Second, rateLimited.RetryAfter())
	require.True(t, Retryable(err))
}

func TestJourneysServerErrors(t *testing.T) {
	setup(t)

	for status, check := range map[int]func(error){
		http.StatusInternalServerError: func(err error) {
			var typed *InternalServerError
			require.ErrorAs(t, err, &typed)
			require.True(t, Retryable(err))
		},
		http.StatusBadGateway: func(err error) {
			var typed *BadGatewayError
			require.ErrorAs(t, err, &typed)
			require.True(t, Retryable(err))
		},
		http.StatusTeapot: func(err error) {
			var typed *HTTPError
			require.ErrorAs(t, err, &typed)
			require.False(t, Retryable(err))
		},
	} {
		server := journeyServer(t, status, "")
		client := NewClient(ClientOptions{BaseURL: server.URL})
		_, err := client.Journeys(context.Background(), Coordinate{51.5, -0.1}, Coordinate{51.52, -0.09}, time.Time{})
		check(err)
		server.Close()
	}
}

func TestPrimaryModePriority(t *testing.T) {
	legs := []rawLeg{}
	for _, id := range []string{"walking", "bus", "tube", "bus"} {
		var leg rawLeg
		leg.Mode.ID = id
		legs = append(legs, leg)
	}
	require.Equal(t, ModeTube, primaryMode(legs))
	require.Equal(t, ModeBus, primaryMode(legs[:2]))
	require.Equal(t, ModeWalking, primaryMode(legs[:1]))
}

func TestRouteName(t *testing.T) {
	var tube, bus, walk rawLeg
	tube.Mode.ID = "tube"
	tube.RouteOptions = []struct {
		Name string `json:"name"`
	}{{Name: "Northern"}}
	bus.Mode.ID = "bus"
	bus.RouteOptions = []struct {
		Name string `json:"name"`
	}{{Name: "29"}}
	walk.Mode.ID = "walking"

	require.Equal(t, "Northern->29", routeName([]rawLeg{tube, walk, bus}))
	require.Equal(t, "walking", routeName([]rawLeg{walk}))
}

func TestCoordinateEndpoint(t *testing.T) {
	c := Coordinate{Latitude: 51.5074, Longitude: -0.1278}
	require.Equal(t, "51.5074,-0.1278", c.endpoint())
}
