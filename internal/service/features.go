package service

import (
	"strconv"

	"smartval/internal/model"
)

// Feature column names. These must match the offline training frame
// byte-for-byte — a silent mismatch produces wrong predictions with no error,
// so the schema lives here in exactly one place and is pinned by golden tests.
const (
	ColCity        = "縣市"
	ColTown        = "行政區"
	ColHouseType   = "建物類型"
	ColFloorNumber = "所在層數"
	ColTotalFloors = "地上總層數"
	ColLandArea    = "地坪"
	ColFloorArea   = "建坪"
	ColHouseAge    = "屋齡（年）"
	ColRoomCount   = "房間數"
	ColLongitude   = "經度"
	ColLatitude    = "緯度"
	ColFloorRatio  = "樓層比"
)

// FeatureColumns is the exact column order the model was fit on. The derived
// 樓層比 column comes last, as it did in the training frame.
var FeatureColumns = []string{
	ColCity,
	ColTown,
	ColHouseType,
	ColFloorNumber,
	ColTotalFloors,
	ColLandArea,
	ColFloorArea,
	ColHouseAge,
	ColRoomCount,
	ColLongitude,
	ColLatitude,
	ColFloorRatio,
}

// FeatureValue is one cell of the feature row. Categorical cells carry Str,
// numeric cells carry Num.
type FeatureValue struct {
	Str       string
	Num       float64
	IsNumeric bool
}

// FeatureRow is a single-row feature table in training column order.
type FeatureRow struct {
	Columns []string
	Values  []FeatureValue
}

// Value returns the cell for a named column.
func (r FeatureRow) Value(col string) (FeatureValue, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i], true
		}
	}
	return FeatureValue{}, false
}

// NumericVector returns the numeric cells in column order, used as the audit
// snapshot stored alongside each prediction.
func (r FeatureRow) NumericVector() []float32 {
	vec := make([]float32, 0, len(r.Values))
	for _, v := range r.Values {
		if v.IsNumeric {
			vec = append(vec, float32(v.Num))
		}
	}
	return vec
}

// FloorRatio is the normalized vertical position of the unit: floor divided by
// total floors, clamped to at most 1.0. A non-positive total yields 0 rather
// than a division by zero.
func FloorRatio(floorNumber, totalFloors int) float64 {
	if totalFloors <= 0 {
		return 0
	}
	ratio := float64(floorNumber) / float64(totalFloors)
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// BuildFeatures reconstructs the feature row the trained model expects from
// raw attributes plus resolved coordinates. Floor counts become categorical
// strings because the training pipeline cast them to strings before encoding.
func BuildFeatures(attrs *model.PropertyAttributes, longitude, latitude float64) FeatureRow {
	return FeatureRow{
		Columns: FeatureColumns,
		Values: []FeatureValue{
			{Str: attrs.City},
			{Str: attrs.Town},
			{Str: attrs.HouseType},
			{Str: strconv.Itoa(attrs.FloorNumber)},
			{Str: strconv.Itoa(attrs.TotalFloors)},
			{Num: attrs.LandArea, IsNumeric: true},
			{Num: attrs.FloorArea, IsNumeric: true},
			{Num: attrs.HouseAge, IsNumeric: true},
			{Num: float64(attrs.RoomCount), IsNumeric: true},
			{Num: longitude, IsNumeric: true},
			{Num: latitude, IsNumeric: true},
			{Num: FloorRatio(attrs.FloorNumber, attrs.TotalFloors), IsNumeric: true},
		},
	}
}
