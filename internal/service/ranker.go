package service

import (
	"math"
	"sort"

	"smartval/internal/model"
	"smartval/internal/utils"
)

// Ranker orders comparable transactions by geodesic distance from the target.
type Ranker struct {
	limit int
}

// NewRanker creates a ranker that returns at most limit results.
func NewRanker(limit int) *Ranker {
	if limit <= 0 {
		limit = 10
	}
	return &Ranker{limit: limit}
}

// Rank computes the great-circle distance from target to every candidate,
// sorts ascending, and truncates. Candidates without coordinates are dropped
// before ranking. The sort is stable so ties keep retrieval order.
func (r *Ranker) Rank(target model.Coordinates, candidates []model.ComparableTransaction) []model.ComparableTransaction {
	ranked := make([]model.ComparableTransaction, 0, len(candidates))
	for _, c := range candidates {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		dist := utils.HaversineKm(target.Lat, target.Lng, *c.Latitude, *c.Longitude)
		c.DistanceKm = math.Round(dist*100) / 100
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}
	return ranked
}
