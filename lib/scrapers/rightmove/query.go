package rightmove

import (
	"net/url"
	"strconv"
	"strings"
)

// SortType selects the search result ordering. The integer values are the
// service's wire encoding.
type SortType int

const (
	SortLowestPrice  SortType = 1
	SortHighestPrice SortType = 2
	SortNearestFirst SortType = 4
	SortMostRecent   SortType = 6
	SortOldestListed SortType = 10
)

// MustHave is a feature the listing must include.
type MustHave string

const (
	MustHaveGarden  MustHave = "garden"
	MustHaveParking MustHave = "parking"
)

// DontShow is a listing category excluded from results.
type DontShow string

const (
	DontShowHouseShare DontShow = "houseShare"
	DontShowRetirement DontShow = "retirement"
	DontShowStudent    DontShow = "student"
)

type FurnishType string

const (
	Furnished     FurnishType = "furnished"
	PartFurnished FurnishType = "partFurnished"
	Unfurnished   FurnishType = "unfurnished"
)

type PropertyType string

const (
	PropertyFlat         PropertyType = "flat"
	PropertyLand         PropertyType = "land"
	PropertyParkHome     PropertyType = "park-home"
	PropertyPrivateHalls PropertyType = "private-halls"
	PropertyDetached     PropertyType = "detached"
	PropertySemiDetached PropertyType = "semi-detached"
	PropertyTerraced     PropertyType = "terraced"
)

type Channel string

const (
	ChannelRent Channel = "RENT"
	ChannelBuy  Channel = "BUY"
)

// SearchQuery is a value object describing search parameters. Treat it as
// immutable once built; pagination derives new parameter sets rather than
// mutating the query.
type SearchQuery struct {
	LocationIdentifier string
	MinBedrooms        int
	MaxBedrooms        int
	MinPrice           int
	MaxPrice           int
	MinBathrooms       int
	MaxBathrooms       int
	// PropertiesPerPage is capped at 25 by the service.
	PropertiesPerPage int
	// RadiusMiles of 0 only returns properties in the area itself.
	RadiusMiles      float64
	Sort             SortType
	MustHave         []MustHave
	DontShow         []DontShow
	FurnishTypes     []FurnishType
	PropertyTypes    []PropertyType
	IncludeLetAgreed bool
	// MaxDaysSinceAdded of 0 means no recency cutoff.
	MaxDaysSinceAdded int
	Channel           Channel
}

// NewSearchQuery returns a query for locationID with the service's default
// filters: any rental that is an actual self-contained home.
func NewSearchQuery(locationID string) SearchQuery {
	return SearchQuery{
		LocationIdentifier: locationID,
		MinBedrooms:        1,
		MaxBedrooms:        10,
		MinBathrooms:       1,
		MaxBathrooms:       5,
		PropertiesPerPage:  24,
		Sort:               SortNearestFirst,
		DontShow: []DontShow{
			DontShowHouseShare,
			DontShowRetirement,
			DontShowStudent,
		},
		FurnishTypes: []FurnishType{
			Furnished,
			PartFurnished,
			Unfurnished,
		},
		PropertyTypes: []PropertyType{
			PropertyFlat,
			PropertyDetached,
			PropertySemiDetached,
			PropertyTerraced,
		},
		Channel: ChannelRent,
	}
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}

// params encodes the query as request parameters. Each call returns a
// fresh url.Values, so the query itself is never mutated.
func (q SearchQuery) params() url.Values {
	params := url.Values{}
	params.Set("locationIdentifier", q.LocationIdentifier)
	params.Set("numberOfPropertiesPerPage", strconv.Itoa(q.PropertiesPerPage))
	params.Set("radius", strconv.FormatFloat(q.RadiusMiles, 'f', -1, 64))
	params.Set("sortType", strconv.Itoa(int(q.Sort)))
	params.Set("includeLetAgreed", strconv.FormatBool(q.IncludeLetAgreed))
	params.Set("channel", string(q.Channel))
	params.Set("areaSizeUnit", "sqm")
	params.Set("currencyCode", "GBP")
	params.Set("isFetching", "true")
	if q.MinPrice > 0 {
		params.Set("minPrice", strconv.Itoa(q.MinPrice))
	}
	if q.MaxPrice > 0 {
		params.Set("maxPrice", strconv.Itoa(q.MaxPrice))
	}
	if len(q.DontShow) > 0 {
		params.Set("dontShow", joinValues(q.DontShow))
	}
	if len(q.FurnishTypes) > 0 {
		params.Set("furnishTypes", joinValues(q.FurnishTypes))
	}
	if len(q.MustHave) > 0 {
		params.Set("mustHave", joinValues(q.MustHave))
	}
	if len(q.PropertyTypes) > 0 {
		params.Set("propertyTypes", joinValues(q.PropertyTypes))
	}
	if q.IncludeLetAgreed {
		params.Set("_includeLetAgreed", "on")
	}
	if q.MaxDaysSinceAdded > 0 {
		params.Set("maxDaysSinceAdded", strconv.Itoa(q.MaxDaysSinceAdded))
	}
	if q.MinBedrooms > 0 {
		params.Set("minBedrooms", strconv.Itoa(q.MinBedrooms))
	}
	if q.MaxBedrooms > 0 {
		params.Set("maxBedrooms", strconv.Itoa(q.MaxBedrooms))
	}
	if q.MinBathrooms > 0 {
		params.Set("minBathrooms", strconv.Itoa(q.MinBathrooms))
	}
	if q.MaxBathrooms > 0 {
		params.Set("maxBathrooms", strconv.Itoa(q.MaxBathrooms))
	}
	return params
}
