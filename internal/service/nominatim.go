package service

import (
	"context"
	"strconv"
	"time"

	"smartval/internal/config"
	"smartval/internal/model"
	"smartval/internal/utils"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NominatimGeocoder resolves addresses against the OSM Nominatim API using a
// three-tier fallback:
//
//  1. city+town+street (floor suffix stripped) — exact match
//  2. city+town+road (house number stripped) — accepted only when the result
//     still mentions the requested city
//  3. city+town — last resort, always accepted
//
// Tiers 2 and 3 mark the result as approximate. A failed HTTP call is treated
// like a miss for that tier; there are no retries beyond the cascade.
type NominatimGeocoder struct {
	client  *resty.Client
	country string
	logger  *zap.Logger
}

// NewNominatimGeocoder creates a geocoder client. The per-call timeout is
// short on purpose: three sequential slow tiers would otherwise stall the
// whole valuation.
func NewNominatimGeocoder(cfg *config.GeocoderConfig, logger *zap.Logger) *NominatimGeocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeocodeTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &NominatimGeocoder{
		client:  client,
		country: cfg.Country,
		logger:  logger,
	}
}

// nominatimPlace is one entry of the Nominatim /search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type resolvedPlace struct {
	lat, lon float64
	display  string
}

// Resolve implements Geocoder.
func (g *NominatimGeocoder) Resolve(ctx context.Context, city, town, street string) (*model.GeocodeResult, error) {
	streetNoFloor := utils.StripFloorSuffix(street)
	roadOnly := utils.StripHouseNumber(streetNoFloor)

	// Tier 1: full address.
	fullQuery := city + town + streetNoFloor
	if p := g.lookup(ctx, fullQuery); p != nil {
		return &model.GeocodeResult{
			Longitude: p.lon,
			Latitude:  p.lat,
			Exact:     true,
			UsedQuery: fullQuery,
		}, nil
	}

	// Tier 2: road name only. Nominatim often matches the road when the exact
	// house number is missing, but it may also jump to a same-named road in
	// another city, so the result must still mention the requested city.
	if roadOnly != "" && roadOnly != streetNoFloor {
		roadQuery := city + town + roadOnly
		if p := g.lookup(ctx, roadQuery); p != nil && utils.ContainsCity(p.display, city) {
			return &model.GeocodeResult{
				Longitude: p.lon,
				Latitude:  p.lat,
				Exact:     false,
				UsedQuery: roadQuery,
			}, nil
		}
	}

	// Tier 3: district centroid.
	districtQuery := city + town
	if p := g.lookup(ctx, districtQuery); p != nil {
		return &model.GeocodeResult{
			Longitude: p.lon,
			Latitude:  p.lat,
			Exact:     false,
			UsedQuery: districtQuery,
		}, nil
	}

	g.logger.Warn("geocoding exhausted all tiers",
		zap.String("city", city),
		zap.String("town", town),
		zap.String("street", street),
	)
	return nil, ErrAddressNotFound
}

// lookup performs a single Nominatim query and returns nil on any miss or
// transport error, letting the caller fall through to the next tier.
func (g *NominatimGeocoder) lookup(ctx context.Context, query string) *resolvedPlace {
	if query == "" {
		return nil
	}

	var places []nominatimPlace
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query + ", " + g.country,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&places).
		Get("/search")
	if err != nil {
		g.logger.Debug("geocode tier failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	if resp.IsError() || len(places) == 0 {
		return nil
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		g.logger.Debug("geocode returned unparsable coordinates",
			zap.String("query", query),
			zap.String("lat", places[0].Lat),
			zap.String("lon", places[0].Lon),
		)
		return nil
	}

	return &resolvedPlace{lat: lat, lon: lon, display: places[0].DisplayName}
}

// interface guard
var _ Geocoder = (*NominatimGeocoder)(nil)

const defaultGeocodeTimeout = 3 * time.Second
