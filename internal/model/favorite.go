package model

import "time"

// FavoriteSnapshot is a frozen copy of one valuation a user chose to keep.
// It is created once, listed, and deleted — never recomputed or mutated.
type FavoriteSnapshot struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"user_id"`
	Attributes PropertyAttributes `json:"attributes"`
	Result     ValuationResult    `json:"result"`
	CreatedAt  time.Time          `json:"created_at"`
}
