package repository

import (
	"context"
	"fmt"

	"smartval/internal/model"

	pgvector "github.com/pgvector/pgvector-go"
)

// LogValuation writes one audit row. The numeric feature snapshot goes into a
// vector column so nearest-neighbour queries over past requests stay cheap.
func (r *PostgresRepository) LogValuation(ctx context.Context, entry *model.ValuationLog) error {
	query := `
		INSERT INTO valuation_logs (city, town, house_type, predicted_price, features, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.City,
		entry.Town,
		entry.HouseType,
		entry.PredictedPrice,
		pgvector.NewVector(entry.Features),
		entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("insert valuation log: %w", err)
	}
	return nil
}
