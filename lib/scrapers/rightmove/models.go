package rightmove

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Price is absent on some listings; such listings cannot be priced into a
// commute decision and are skipped by the discovery pass.
type Price struct {
	Amount       int    `json:"amount"`
	Frequency    string `json:"frequency"`
	CurrencyCode string `json:"currencyCode"`
}

// Property is one listing as decoded from a search response. Immutable
// after decode.
type Property struct {
	ID              int64      `json:"id"`
	DisplayAddress  string     `json:"displayAddress"`
	Summary         string     `json:"summary"`
	Bedrooms        int        `json:"bedrooms"`
	Bathrooms       int        `json:"bathrooms"`
	Price           *Price     `json:"price"`
	Location        Coordinate `json:"location"`
	PropertyURL     string     `json:"propertyUrl"`
	PropertySubType string     `json:"propertySubType"`
	FirstVisibleDate string    `json:"firstVisibleDate"`
}

// PropertyLocation is the reduced listing shape returned by the MAP view.
type PropertyLocation struct {
	ID       int64      `json:"id"`
	Location Coordinate `json:"location"`
}

type LookupMatch struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
}

type LookupMatches struct {
	Matches []LookupMatch `json:"matches"`
}
