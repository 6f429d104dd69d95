package rightmove

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"flathunt-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/rightmove"))
}

// listingServer serves LIST pages out of a fixed pool of listings, honoring
// the index cursor the same way the real service does.
type listingServer struct {
	total       int
	perPage     int
	resultCount string

	requests []string
}

func (s *listingServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/_search", r.URL.Path)
		s.requests = append(s.requests, r.URL.Query().Get("index"))

		start := 0
		if index := r.URL.Query().Get("index"); index != "" {
			var err error
			start, err = strconv.Atoi(index)
			require.NoError(t, err)
		}

		var properties []string
		for id := start; id < start+s.perPage && id < s.total; id++ {
			properties = append(properties, fmt.Sprintf(`{"id":%d,"displayAddress":"addr %d"}`, id, id))
		}

		response := fmt.Sprintf(`{"properties":[%s],"resultCount":%q`, strings.Join(properties, ","), s.resultCount)
		if next := start + s.perPage; next < s.total {
			response += fmt.Sprintf(`,"pagination":{"next":%d}`, next)
		}
		response += "}"

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(response))
		require.NoError(t, err)
	}
}

func TestSearchAggregatesPages(t *testing.T) {
	setup(t)

	backend := &listingServer{total: 60, perPage: 24, resultCount: "60"}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	properties, err := client.Search(context.Background(), NewSearchQuery("REGION^87490"))
	require.NoError(t, err)

	require.Len(t, properties, 60)
	for i, p := range properties {
		require.Equal(t, int64(i), p.ID)
	}
	require.Equal(t, []string{"", "24", "48"}, backend.requests)
}

func TestSearchStopsAtListCap(t *testing.T) {
	setup(t)

	// resultCount carries a thousands separator past 999 results
	backend := &listingServer{total: 1200, perPage: 500, resultCount: "1,200"}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	properties, err := client.Search(context.Background(), NewSearchQuery("REGION^87490"))
	require.NoError(t, err)

	require.Len(t, properties, 1000)
	require.Equal(t, []string{"", "500"}, backend.requests)
}

func TestSearchHTTPError(t *testing.T) {
	setup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	_, err := client.Search(context.Background(), NewSearchQuery("REGION^87490"))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Status)
}

func TestMapSearchSingleRequest(t *testing.T) {
	setup(t)

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/api/_mapSearch", r.URL.Path)
		require.Equal(t, "MAP", r.URL.Query().Get("viewType"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"properties": [
				{"id": 1, "location": {"latitude": 51.5, "longitude": -0.1}},
				{"id": 2, "location": {"latitude": 51.6, "longitude": -0.2}}
			],
			"resultCount": "3,500",
			"pagination": {"next": 2}
		}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	locations, total, err := client.MapSearch(context.Background(), NewSearchQuery("REGION^87490"))
	require.NoError(t, err)

	// the MAP view never paginates, even when the service reports more
	require.Equal(t, 1, requests)
	require.Equal(t, 3500, total)
	require.Len(t, locations, 2)
	require.Equal(t, int64(1), locations[0].ID)
	require.InDelta(t, 51.5, locations[0].Location.Latitude, 1e-9)
}

func TestSearchByIDs(t *testing.T) {
	setup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/_searchByIds", r.URL.Path)
		require.Equal(t, "RENT", r.URL.Query().Get("channel"))
		require.Equal(t, "11,22", r.URL.Query().Get("propertyIds"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"properties": [{"id": 11}, {"id": 22}],
			"resultCount": "2"
		}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseURL: server.URL})
	properties, err := client.SearchByIDs(context.Background(), []int64{11, 22}, ChannelRent)
	require.NoError(t, err)
	require.Len(t, properties, 2)
	require.Equal(t, int64(22), properties[1].ID)
}

func TestSearchByIDsRejectsTooMany(t *testing.T) {
	client := NewClient(ClientOptions{})
	ids := make([]int64, SearchByIDsMaxResults+1)
	_, err := client.SearchByIDs(context.Background(), ids, ChannelRent)
	require.Error(t, err)
}

func TestLookup(t *testing.T) {
	setup(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/typeahead", r.URL.Path)
		require.Equal(t, "camden", r.URL.Query().Get("query"))
		require.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"matches": [
				{"id": "REGION^87490", "type": "REGION", "displayName": "Camden (London Borough)"},
				{"id": "STATION^2227", "type": "STATION", "displayName": "Camden Town Station"}
			]
		}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{LookupURL: server.URL})
	matches, err := client.Lookup(context.Background(), "camden", 0)
	require.NoError(t, err)
	require.Len(t, matches.Matches, 2)
	require.Equal(t, "STATION^2227", matches.Matches[1].ID)
}

func TestQueryParams(t *testing.T) {
	query := NewSearchQuery("REGION^87490")
	query.MaxPrice = 2000
	query.RadiusMiles = 0.5
	query.MaxDaysSinceAdded = 7
	query.Sort = SortMostRecent
	query.IncludeLetAgreed = true

	params := query.params()
	require.Equal(t, "REGION^87490", params.Get("locationIdentifier"))
	require.Equal(t, "2000", params.Get("maxPrice"))
	require.Equal(t, "0.5", params.Get("radius"))
	require.Equal(t, "6", params.Get("sortType"))
	require.Equal(t, "7", params.Get("maxDaysSinceAdded"))
	require.Equal(t, "on", params.Get("_includeLetAgreed"))
	require.Equal(t, "houseShare,retirement,student", params.Get("dontShow"))
	require.Equal(t, "flat,detached,semi-detached,terraced", params.Get("propertyTypes"))
	require.Empty(t, params.Get("minPrice"))

	// params must not alias between calls; pagination mutates its copy
	params.Set("index", "24")
	require.Empty(t, query.params().Get("index"))
}

func TestPolylineID(t *testing.T) {
	id := PolylineID([][]float64{
		{51.5, -0.1},
		{51.6, -0.1},
		{51.6, -0.2},
		{51.5, -0.1},
	})
	require.True(t, strings.HasPrefix(id, "USERDEFINEDAREA^"))

	var payload struct {
		Polylines string `json:"polylines"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(id, "USERDEFINEDAREA^")), &payload))
	require.NotEmpty(t, payload.Polylines)
}
