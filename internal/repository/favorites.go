package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartval/internal/model"
)

// ErrFavoriteNotFound means the favorite does not exist or belongs to another
// user.
var ErrFavoriteNotFound = errors.New("favorite not found")

type favoriteRow struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Attributes json.RawMessage `db:"attributes"`
	Result     json.RawMessage `db:"result"`
	CreatedAt  time.Time       `db:"created_at"`
}

// CreateFavorite stores a snapshot of one valuation. Attributes and result are
// frozen as JSON; re-running the valuation later may give a different answer
// and the saved copy must not drift with it.
func (r *PostgresRepository) CreateFavorite(ctx context.Context, fav *model.FavoriteSnapshot) error {
	attrs, err := json.Marshal(fav.Attributes)
	if err != nil {
		return fmt.Errorf("marshal favorite attributes: %w", err)
	}
	result, err := json.Marshal(fav.Result)
	if err != nil {
		return fmt.Errorf("marshal favorite result: %w", err)
	}

	query := `
		INSERT INTO favorites (user_id, attributes, result)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query, fav.UserID, attrs, result)
	if err := row.Scan(&fav.ID, &fav.CreatedAt); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// ListFavorites returns a user's saved valuations, newest first.
func (r *PostgresRepository) ListFavorites(ctx context.Context, userID int64) ([]model.FavoriteSnapshot, error) {
	query := `
		SELECT id, user_id, attributes, result, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var rows []favoriteRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	favorites := make([]model.FavoriteSnapshot, 0, len(rows))
	for _, row := range rows {
		fav := model.FavoriteSnapshot{
			ID:        row.ID,
			UserID:    row.UserID,
			CreatedAt: row.CreatedAt,
		}
		if err := json.Unmarshal(row.Attributes, &fav.Attributes); err != nil {
			return nil, fmt.Errorf("decode favorite %d attributes: %w", row.ID, err)
		}
		if err := json.Unmarshal(row.Result, &fav.Result); err != nil {
			return nil, fmt.Errorf("decode favorite %d result: %w", row.ID, err)
		}
		favorites = append(favorites, fav)
	}
	return favorites, nil
}

// DeleteFavorite removes one favorite. The user id is part of the predicate so
// nobody can delete another user's snapshot by guessing ids.
func (r *PostgresRepository) DeleteFavorite(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if affected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
