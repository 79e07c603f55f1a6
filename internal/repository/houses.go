package repository

import (
	"context"
	"fmt"

	"smartval/internal/model"

	"github.com/lib/pq"
)

const comparableColumns = `address, total_price, house_type, house_age, floor_area, latitude, longitude`

// FindComparables returns candidate transactions for the comparable map.
//
// The strict phase matches on seven dimensions; strict matching over a sparse
// transaction table often returns too few points to draw a useful map, so when
// it yields fewer than bands.MinStrictMatches rows, a relaxed query (same city
// and house type, wider age band) fully replaces the strict result set. The
// two phases are never merged.
func (r *PostgresRepository) FindComparables(ctx context.Context, c model.ComparableCriteria, bands model.ToleranceBands) ([]model.ComparableTransaction, error) {
	strictQuery := fmt.Sprintf(`
		SELECT %s
		FROM houses
		WHERE city = $1
		  AND house_type = $2
		  AND room_count = $3
		  AND house_age BETWEEN $4 AND $5
		  AND total_floors BETWEEN $6 AND $7
		  AND floor_number BETWEEN $8 AND $9
		  AND floor_area BETWEEN $10 AND $11
		  AND land_area BETWEEN $12 AND $13
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
	`, comparableColumns)

	var strict []model.ComparableTransaction
	err := r.db.SelectContext(ctx, &strict, strictQuery,
		c.City,
		c.HouseType,
		c.RoomCount,
		maxFloat(0, c.HouseAge-bands.HouseAge), c.HouseAge+bands.HouseAge,
		maxInt(1, c.TotalFloors-bands.TotalFloors), c.TotalFloors+bands.TotalFloors,
		maxInt(1, c.FloorNumber-bands.FloorNumber), c.FloorNumber+bands.FloorNumber,
		maxFloat(0, c.FloorArea-bands.FloorArea), c.FloorArea+bands.FloorArea,
		maxFloat(0, c.LandArea-bands.LandArea), c.LandArea+bands.LandArea,
	)
	if err != nil {
		return nil, fmt.Errorf("strict comparable query: %w", err)
	}

	if len(strict) >= bands.MinStrictMatches {
		return strict, nil
	}

	relaxedQuery := fmt.Sprintf(`
		SELECT %s
		FROM houses
		WHERE city = $1
		  AND house_type = $2
		  AND house_age BETWEEN $3 AND $4
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
	`, comparableColumns)

	var relaxed []model.ComparableTransaction
	err = r.db.SelectContext(ctx, &relaxed, relaxedQuery,
		c.City,
		c.HouseType,
		maxFloat(0, c.HouseAge-bands.RelaxedHouseAge), c.HouseAge+bands.RelaxedHouseAge,
	)
	if err != nil {
		return nil, fmt.Errorf("relaxed comparable query: %w", err)
	}
	return relaxed, nil
}

// UpsertAgents inserts or refreshes agents, keyed by name.
func (r *PostgresRepository) UpsertAgents(ctx context.Context, agents []model.Agent) error {
	if len(agents) == 0 {
		return nil
	}
	query := `
		INSERT INTO agents (name, phone, email, company, branch, city, town)
		VALUES (:name, :phone, :email, :company, :branch, :city, :town)
		ON CONFLICT (name) DO UPDATE SET
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			company = EXCLUDED.company,
			branch = EXCLUDED.branch,
			city = EXCLUDED.city,
			town = EXCLUDED.town
	`
	if _, err := r.db.NamedExecContext(ctx, query, agents); err != nil {
		return fmt.Errorf("upsert agents: %w", err)
	}
	return nil
}

// UpsertBuyers inserts or refreshes buyers, keyed by name.
func (r *PostgresRepository) UpsertBuyers(ctx context.Context, buyers []model.Buyer) error {
	if len(buyers) == 0 {
		return nil
	}
	query := `
		INSERT INTO buyers (name, phone, email)
		VALUES (:name, :phone, :email)
		ON CONFLICT (name) DO UPDATE SET
			phone = EXCLUDED.phone,
			email = EXCLUDED.email
	`
	if _, err := r.db.NamedExecContext(ctx, query, buyers); err != nil {
		return fmt.Errorf("upsert buyers: %w", err)
	}
	return nil
}

// AgentIDsByName resolves agent names to ids.
func (r *PostgresRepository) AgentIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	return r.idsByName(ctx, "agents", names)
}

// BuyerIDsByName resolves buyer names to ids.
func (r *PostgresRepository) BuyerIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	return r.idsByName(ctx, "buyers", names)
}

func (r *PostgresRepository) idsByName(ctx context.Context, table string, names []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(names))
	if len(names) == 0 {
		return ids, nil
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE name = ANY($1)`, table)
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("resolve %s names: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// UpsertHouses inserts or refreshes houses, keyed by address, inside one
// transaction per batch.
func (r *PostgresRepository) UpsertHouses(ctx context.Context, houses []model.House) error {
	if len(houses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin house upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO houses (
			address, city, town, house_type, floor_number, total_floors,
			room_count, total_price, unit_price, floor_area, land_area,
			house_age, longitude, latitude, sold_time, agent_id, buyer_id
		) VALUES (
			:address, :city, :town, :house_type, :floor_number, :total_floors,
			:room_count, :total_price, :unit_price, :floor_area, :land_area,
			:house_age, :longitude, :latitude, :sold_time, :agent_id, :buyer_id
		)
		ON CONFLICT (address) DO UPDATE SET
			city = EXCLUDED.city,
			town = EXCLUDED.town,
			house_type = EXCLUDED.house_type,
			floor_number = EXCLUDED.floor_number,
			total_floors = EXCLUDED.total_floors,
			room_count = EXCLUDED.room_count,
			total_price = EXCLUDED.total_price,
			unit_price = EXCLUDED.unit_price,
			floor_area = EXCLUDED.floor_area,
			land_area = EXCLUDED.land_area,
			house_age = EXCLUDED.house_age,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			sold_time = EXCLUDED.sold_time,
			agent_id = EXCLUDED.agent_id,
			buyer_id = EXCLUDED.buyer_id,
			updated_at = NOW()
	`
	if _, err := tx.NamedExecContext(ctx, query, houses); err != nil {
		return fmt.Errorf("upsert houses: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit house upsert: %w", err)
	}
	return nil
}

func maxFloat(floor, v float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

func maxInt(floor, v int) int {
	if v < floor {
		return floor
	}
	return v
}
