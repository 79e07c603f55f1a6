package service

import (
	"testing"

	"smartval/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestRankSortsByDistance(t *testing.T) {
	target := model.Coordinates{Lat: 25.03, Lng: 121.53}
	candidates := []model.ComparableTransaction{
		{Address: "far", Latitude: fptr(25.20), Longitude: fptr(121.70)},
		{Address: "near", Latitude: fptr(25.031), Longitude: fptr(121.531)},
		{Address: "mid", Latitude: fptr(25.08), Longitude: fptr(121.58)},
	}

	ranked := NewRanker(10).Rank(target, candidates)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	order := []string{"near", "mid", "far"}
	for i, want := range order {
		if ranked[i].Address != want {
			t.Errorf("position %d: got %q, want %q", i, ranked[i].Address, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].DistanceKm < ranked[i-1].DistanceKm {
			t.Errorf("result %d closer than result %d", i, i-1)
		}
	}
}

func TestRankDropsMissingCoordinates(t *testing.T) {
	target := model.Coordinates{Lat: 25.03, Lng: 121.53}
	candidates := []model.ComparableTransaction{
		{Address: "no-coords"},
		{Address: "lat-only", Latitude: fptr(25.0)},
		{Address: "ok", Latitude: fptr(25.0), Longitude: fptr(121.5)},
	}

	ranked := NewRanker(10).Rank(target, candidates)

	if len(ranked) != 1 || ranked[0].Address != "ok" {
		t.Fatalf("expected only the candidate with both coordinates, got %v", ranked)
	}
}

func TestRankTruncatesToLimit(t *testing.T) {
	target := model.Coordinates{Lat: 25.0, Lng: 121.5}
	var candidates []model.ComparableTransaction
	for i := 0; i < 15; i++ {
		lat := 25.0 + float64(i)*0.01
		candidates = append(candidates, model.ComparableTransaction{
			Latitude:  &lat,
			Longitude: fptr(121.5),
		})
	}

	ranked := NewRanker(10).Rank(target, candidates)

	if len(ranked) != 10 {
		t.Fatalf("expected 10 results, got %d", len(ranked))
	}
}

func TestRankRoundsDistances(t *testing.T) {
	target := model.Coordinates{Lat: 25.03, Lng: 121.53}
	candidates := []model.ComparableTransaction{
		{Latitude: fptr(25.08), Longitude: fptr(121.58)},
	}

	ranked := NewRanker(10).Rank(target, candidates)

	got := ranked[0].DistanceKm
	rounded := float64(int(got*100+0.5)) / 100
	if got != rounded {
		t.Errorf("distance %v not rounded to two decimals", got)
	}
	if got <= 0 {
		t.Errorf("distance should be positive, got %v", got)
	}
}

func TestRankZeroLimitDefaults(t *testing.T) {
	r := NewRanker(0)
	if r.limit != 10 {
		t.Errorf("zero limit should default to 10, got %d", r.limit)
	}
}
