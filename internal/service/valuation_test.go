package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"smartval/internal/model"

	"go.uber.org/zap"
)

type fakeGeocoder struct {
	result *model.GeocodeResult
	err    error
}

func (g *fakeGeocoder) Resolve(_ context.Context, _, _, _ string) (*model.GeocodeResult, error) {
	return g.result, g.err
}

type fakeComparableStore struct {
	mu         sync.Mutex
	candidates []model.ComparableTransaction
	findErr    error
	logged     []*model.ValuationLog
}

func (s *fakeComparableStore) FindComparables(_ context.Context, _ model.ComparableCriteria, _ model.ToleranceBands) ([]model.ComparableTransaction, error) {
	return s.candidates, s.findErr
}

func (s *fakeComparableStore) LogValuation(_ context.Context, entry *model.ValuationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logged = append(s.logged, entry)
	return nil
}

func (s *fakeComparableStore) loggedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logged)
}

func testBands() model.ToleranceBands {
	return model.ToleranceBands{
		HouseAge:         5,
		TotalFloors:      5,
		FloorNumber:      5,
		FloorArea:        10,
		LandArea:         5,
		RelaxedHouseAge:  10,
		MinStrictMatches: 5,
	}
}

func testAttrs() *model.PropertyAttributes {
	return &model.PropertyAttributes{
		City:        "臺北市",
		Town:        "大安區",
		Street:      "和平東路100號",
		HouseType:   "大樓（有電梯）",
		HouseAge:    15,
		TotalFloors: 12,
		FloorNumber: 5,
		FloorArea:   30,
		LandArea:    10,
		RoomCount:   3,
	}
}

func newTestService(t *testing.T, store ComparableStore, geocoder Geocoder, predictor *Predictor) *ValuationService {
	t.Helper()
	return NewValuationService(store, geocoder, predictor, NewRanker(10), testBands(), zap.NewNop())
}

func TestPredictSuccess(t *testing.T) {
	store := &fakeComparableStore{
		candidates: []model.ComparableTransaction{
			{Address: "甲", Latitude: fptr(25.04), Longitude: fptr(121.55)},
			{Address: "乙", Latitude: fptr(25.027), Longitude: fptr(121.544)},
		},
	}
	geocoder := &fakeGeocoder{result: &model.GeocodeResult{
		Longitude: 121.543, Latitude: 25.026, Exact: true, UsedQuery: "臺北市大安區和平東路100號",
	}}
	predictor := NewPredictor(writeArtifact(t, testArtifact()), zap.NewNop())

	svc := newTestService(t, store, geocoder, predictor)
	result := svc.Predict(context.Background(), testAttrs())

	if result.Error != "" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
	if result.Price == nil || *result.Price <= 0 {
		t.Fatalf("expected a positive price, got %v", result.Price)
	}
	if result.UnitPrice == nil {
		t.Fatal("expected a unit price for a positive floor area")
	}
	wantUnit := math.Round(*result.Price / 30 * 100) / 100
	if *result.UnitPrice != wantUnit {
		t.Errorf("unit price = %v, want %v", *result.UnitPrice, wantUnit)
	}
	if result.Warning != "" {
		t.Errorf("exact geocode should carry no warning, got %q", result.Warning)
	}
	if result.TargetCoords == nil || result.TargetCoords.Lat != 25.026 {
		t.Errorf("target coords = %v", result.TargetCoords)
	}
	if len(result.NearbyHouses) != 2 {
		t.Fatalf("expected 2 comparables, got %d", len(result.NearbyHouses))
	}
	if result.NearbyHouses[0].Address != "乙" {
		t.Errorf("comparables not sorted by distance: first is %q", result.NearbyHouses[0].Address)
	}

	// Audit log is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for store.loggedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.loggedCount() != 1 {
		t.Fatal("expected one valuation log entry")
	}
	store.mu.Lock()
	entry := store.logged[0]
	store.mu.Unlock()
	if entry.City != "臺北市" || entry.PredictedPrice != *result.Price {
		t.Errorf("log entry = %+v", entry)
	}
	if len(entry.Features) != 7 {
		t.Errorf("expected 7 numeric features in log, got %d", len(entry.Features))
	}
}

func TestPredictApproximateGeocodeWarns(t *testing.T) {
	store := &fakeComparableStore{}
	geocoder := &fakeGeocoder{result: &model.GeocodeResult{
		Longitude: 121.543, Latitude: 25.026, Exact: false, UsedQuery: "臺北市大安區和平東路",
	}}
	predictor := NewPredictor(writeArtifact(t, testArtifact()), zap.NewNop())

	svc := newTestService(t, store, geocoder, predictor)
	result := svc.Predict(context.Background(), testAttrs())

	if result.Error != "" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
	if result.Warning == "" {
		t.Fatal("approximate geocode must carry a warning")
	}
}

func TestPredictAddressNotFound(t *testing.T) {
	store := &fakeComparableStore{}
	geocoder := &fakeGeocoder{err: ErrAddressNotFound}
	predictor := NewPredictor(writeArtifact(t, testArtifact()), zap.NewNop())

	svc := newTestService(t, store, geocoder, predictor)
	result := svc.Predict(context.Background(), testAttrs())

	if result.Error == "" {
		t.Fatal("expected an error message")
	}
	if result.Price != nil {
		t.Error("price must be nil when the address cannot be located")
	}
	if result.NearbyHouses == nil || len(result.NearbyHouses) != 0 {
		t.Errorf("nearby houses should be an empty slice, got %v", result.NearbyHouses)
	}
	if store.loggedCount() != 0 {
		t.Error("failed valuations must not be logged")
	}
}

func TestPredictModelUnavailable(t *testing.T) {
	store := &fakeComparableStore{}
	geocoder := &fakeGeocoder{result: &model.GeocodeResult{Longitude: 121.5, Latitude: 25.0, Exact: true}}
	predictor := NewPredictor(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	svc := newTestService(t, store, geocoder, predictor)

	// Every request reports the outage, not just the first.
	for i := 0; i < 3; i++ {
		result := svc.Predict(context.Background(), testAttrs())
		if result.Error != msgModelDown {
			t.Fatalf("call %d: error = %q, want %q", i, result.Error, msgModelDown)
		}
		if result.Price != nil {
			t.Error("price must be nil when the model is down")
		}
	}
}

func TestPredictComparableFailureIsNotFatal(t *testing.T) {
	store := &fakeComparableStore{findErr: errors.New("db down")}
	geocoder := &fakeGeocoder{result: &model.GeocodeResult{Longitude: 121.5, Latitude: 25.0, Exact: true}}
	predictor := NewPredictor(writeArtifact(t, testArtifact()), zap.NewNop())

	svc := newTestService(t, store, geocoder, predictor)
	result := svc.Predict(context.Background(), testAttrs())

	if result.Error != "" {
		t.Fatalf("comparable failure must not fail the valuation, got %q", result.Error)
	}
	if result.Price == nil {
		t.Fatal("expected a price despite the comparable failure")
	}
	if len(result.NearbyHouses) != 0 {
		t.Errorf("expected no comparables, got %d", len(result.NearbyHouses))
	}
}

func TestPredictZeroFloorAreaSkipsUnitPrice(t *testing.T) {
	store := &fakeComparableStore{}
	geocoder := &fakeGeocoder{result: &model.GeocodeResult{Longitude: 121.5, Latitude: 25.0, Exact: true}}
	predictor := NewPredictor(writeArtifact(t, testArtifact()), zap.NewNop())

	attrs := testAttrs()
	attrs.FloorArea = 0

	svc := newTestService(t, store, geocoder, predictor)
	result := svc.Predict(context.Background(), attrs)

	if result.Error != "" {
		t.Fatalf("unexpected error message: %q", result.Error)
	}
	if result.UnitPrice != nil {
		t.Error("unit price must be omitted when floor area is zero")
	}
}
