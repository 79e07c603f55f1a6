package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"smartval/internal/model"

	"go.uber.org/zap"
)

// User-facing messages. Internal error detail goes to the log, never to the
// caller.
const (
	msgModelDown  = "系統維護中，暫時無法提供估價服務。"
	msgUnexpected = "系統發生未預期的錯誤，請稍後再試。"
)

// ComparableStore is the backing-store surface the valuation engine needs.
type ComparableStore interface {
	// FindComparables runs the strict query and, when it yields too few rows,
	// replaces the result with the relaxed query.
	FindComparables(ctx context.Context, criteria model.ComparableCriteria, bands model.ToleranceBands) ([]model.ComparableTransaction, error)
	// LogValuation records an audit row; failures are the store's problem.
	LogValuation(ctx context.Context, entry *model.ValuationLog) error
}

// ValuationService orchestrates the full pipeline: geocode, feature build,
// model inference, comparable retrieval, distance ranking.
type ValuationService struct {
	store     ComparableStore
	geocoder  Geocoder
	predictor *Predictor
	ranker    *Ranker
	bands     model.ToleranceBands
	logger    *zap.Logger
}

// NewValuationService wires the valuation pipeline.
func NewValuationService(
	store ComparableStore,
	geocoder Geocoder,
	predictor *Predictor,
	ranker *Ranker,
	bands model.ToleranceBands,
	logger *zap.Logger,
) *ValuationService {
	return &ValuationService{
		store:     store,
		geocoder:  geocoder,
		predictor: predictor,
		ranker:    ranker,
		bands:     bands,
		logger:    logger,
	}
}

// Predict runs one valuation. It never returns a Go error: every failure mode
// maps to a ValuationResult with Error set, so the transport layer stays dumb.
// Price and Error are mutually exclusive.
func (s *ValuationService) Predict(ctx context.Context, attrs *model.PropertyAttributes) (result *model.ValuationResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("valuation panicked",
				zap.Any("panic", r),
				zap.String("city", attrs.City),
				zap.String("town", attrs.Town),
				zap.Stack("stack"),
			)
			result = &model.ValuationResult{
				NearbyHouses: []model.ComparableTransaction{},
				Error:        msgUnexpected,
			}
		}
	}()

	// Geocoding is essential: without coordinates neither the model input nor
	// the map makes sense.
	loc, err := s.geocoder.Resolve(ctx, attrs.City, attrs.Town, attrs.Street)
	if err != nil {
		if !errors.Is(err, ErrAddressNotFound) {
			s.logger.Warn("geocoding failed", zap.Error(err))
		}
		return &model.ValuationResult{
			NearbyHouses: []model.ComparableTransaction{},
			Error:        fmt.Sprintf("無法定位地址「%s%s%s」，請確認輸入是否正確。", attrs.City, attrs.Town, attrs.Street),
		}
	}

	features := BuildFeatures(attrs, loc.Longitude, loc.Latitude)

	logPrice, err := s.predictor.Predict(features)
	if err != nil {
		// Already logged at load time; keep the per-request noise low.
		return &model.ValuationResult{
			NearbyHouses: []model.ComparableTransaction{},
			Error:        msgModelDown,
		}
	}

	price := round2(math.Expm1(logPrice))

	var unitPrice *float64
	if attrs.FloorArea > 0 {
		up := round2(price / attrs.FloorArea)
		unitPrice = &up
	}

	// Comparables are best-effort: a valuation without map markers beats no
	// valuation.
	criteria := model.ComparableCriteria{
		City:        attrs.City,
		HouseType:   attrs.HouseType,
		RoomCount:   attrs.RoomCount,
		HouseAge:    attrs.HouseAge,
		TotalFloors: attrs.TotalFloors,
		FloorNumber: attrs.FloorNumber,
		FloorArea:   attrs.FloorArea,
		LandArea:    attrs.LandArea,
	}
	candidates, err := s.store.FindComparables(ctx, criteria, s.bands)
	if err != nil {
		s.logger.Warn("comparable query failed, continuing without comps", zap.Error(err))
		candidates = nil
	}

	target := model.Coordinates{Lat: loc.Latitude, Lng: loc.Longitude}
	nearby := s.ranker.Rank(target, candidates)

	var warning string
	if !loc.Exact {
		warning = fmt.Sprintf("查無完整門牌，已改以「%s」附近的位置估算，結果僅供參考。", loc.UsedQuery)
	}

	tookMs := time.Since(start).Milliseconds()
	s.logger.Info("valuation completed",
		zap.String("city", attrs.City),
		zap.String("town", attrs.Town),
		zap.Float64("price", price),
		zap.Bool("exact_geocode", loc.Exact),
		zap.Int("comparables", len(nearby)),
		zap.Int64("took_ms", tookMs),
	)

	// Fire-and-forget audit log; the request does not wait on it.
	go func() {
		entry := &model.ValuationLog{
			City:           attrs.City,
			Town:           attrs.Town,
			HouseType:      attrs.HouseType,
			PredictedPrice: price,
			Features:       features.NumericVector(),
			ResponseTimeMs: tookMs,
		}
		if err := s.store.LogValuation(context.Background(), entry); err != nil {
			s.logger.Warn("failed to log valuation", zap.Error(err))
		}
	}()

	return &model.ValuationResult{
		Price:        &price,
		UnitPrice:    unitPrice,
		NearbyHouses: nearby,
		TargetCoords: &target,
		Warning:      warning,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
