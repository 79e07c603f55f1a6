package model

// Agent is a real-estate agent row, upserted by name during Excel import.
type Agent struct {
	ID      int64   `db:"id"`
	Name    string  `db:"name"`
	Phone   *string `db:"phone"`
	Email   *string `db:"email"`
	Company *string `db:"company"`
	Branch  *string `db:"branch"`
	City    *string `db:"city"`
	Town    *string `db:"town"`
}

// Buyer is a buyer row, upserted by name during Excel import.
type Buyer struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"`
	Phone *string `db:"phone"`
	Email *string `db:"email"`
}

// House is a historical transaction row. The comparable query reads a
// projection of it; the Excel importer writes it, keyed by address.
type House struct {
	ID          int64    `db:"id"`
	Address     string   `db:"address"`
	City        *string  `db:"city"`
	Town        *string  `db:"town"`
	HouseType   *string  `db:"house_type"`
	FloorNumber *int     `db:"floor_number"`
	TotalFloors *int     `db:"total_floors"`
	RoomCount   *int     `db:"room_count"`
	TotalPrice  *int     `db:"total_price"`
	UnitPrice   *float64 `db:"unit_price"`
	FloorArea   *float64 `db:"floor_area"`
	LandArea    *float64 `db:"land_area"`
	HouseAge    *float64 `db:"house_age"`
	Longitude   *float64 `db:"longitude"`
	Latitude    *float64 `db:"latitude"`
	SoldTime    *string  `db:"sold_time"`
	AgentID     *int64   `db:"agent_id"`
	BuyerID     *int64   `db:"buyer_id"`
}
