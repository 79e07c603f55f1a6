package model

// PropertyAttributes is the structured input for one valuation request.
// Numeric fields default to zero when the caller omits them.
type PropertyAttributes struct {
	City        string  `json:"city" binding:"required"`
	Town        string  `json:"town" binding:"required"`
	Street      string  `json:"street" binding:"required"`
	HouseType   string  `json:"house_type" binding:"required"`
	HouseAge    float64 `json:"house_age"`
	TotalFloors int     `json:"total_floors"`
	FloorNumber int     `json:"floor_number"`
	FloorArea   float64 `json:"floor_area"`
	LandArea    float64 `json:"land_area"`
	RoomCount   int     `json:"room_count"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult is the outcome of one address resolution. Exact is false when
// the address was only resolved via a coarser fallback query; UsedQuery names
// the query that actually matched so the caller can surface it.
type GeocodeResult struct {
	Longitude float64
	Latitude  float64
	Exact     bool
	UsedQuery string
}

// ComparableTransaction is a read-only projection of one historical sale.
// Nullable columns stay pointers; DistanceKm is computed at ranking time.
type ComparableTransaction struct {
	Address    string   `json:"address" db:"address"`
	Price      *int     `json:"price" db:"total_price"`
	HouseType  *string  `json:"type" db:"house_type"`
	HouseAge   *float64 `json:"age" db:"house_age"`
	FloorArea  *float64 `json:"area" db:"floor_area"`
	Latitude   *float64 `json:"lat" db:"latitude"`
	Longitude  *float64 `json:"lng" db:"longitude"`
	DistanceKm float64  `json:"distance_km"`
}

// ValuationResult is the outcome of one valuation. Either Price is set and
// Error is empty, or the other way around — never both.
type ValuationResult struct {
	Price        *float64                `json:"price,omitempty"`
	UnitPrice    *float64                `json:"unit_price,omitempty"`
	NearbyHouses []ComparableTransaction `json:"nearby_houses"`
	TargetCoords *Coordinates            `json:"target_coords,omitempty"`
	Warning      string                  `json:"warning,omitempty"`
	Error        string                  `json:"error,omitempty"`
}

// ComparableCriteria is the filter input for the comparable query.
type ComparableCriteria struct {
	City        string
	HouseType   string
	RoomCount   int
	HouseAge    float64
	TotalFloors int
	FloorNumber int
	FloorArea   float64
	LandArea    float64
}

// ToleranceBands holds the comparable-search tolerances. The values were tuned
// empirically, so they are configuration rather than constants.
type ToleranceBands struct {
	HouseAge         float64
	TotalFloors      int
	FloorNumber      int
	FloorArea        float64
	LandArea         float64
	RelaxedHouseAge  float64
	MinStrictMatches int
}

// ValuationLog is one audit row written after a successful valuation.
// Features carries the numeric feature snapshot for offline analysis.
type ValuationLog struct {
	City           string
	Town           string
	HouseType      string
	PredictedPrice float64
	Features       []float32
	ResponseTimeMs int64
}
