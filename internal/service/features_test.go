package service

import (
	"testing"

	"smartval/internal/model"
)

func TestFloorRatio(t *testing.T) {
	tests := []struct {
		name        string
		floorNumber int
		totalFloors int
		want        float64
	}{
		{
			name:        "Mid-building unit",
			floorNumber: 5,
			totalFloors: 12,
			want:        5.0 / 12.0,
		},
		{
			name:        "Top floor",
			floorNumber: 12,
			totalFloors: 12,
			want:        1.0,
		},
		{
			name:        "Floor above declared total clamps to 1",
			floorNumber: 15,
			totalFloors: 12,
			want:        1.0,
		},
		{
			name:        "Zero total floors",
			floorNumber: 5,
			totalFloors: 0,
			want:        0,
		},
		{
			name:        "Negative total floors",
			floorNumber: 5,
			totalFloors: -3,
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FloorRatio(tt.floorNumber, tt.totalFloors); got != tt.want {
				t.Errorf("FloorRatio(%d, %d) = %v, want %v", tt.floorNumber, tt.totalFloors, got, tt.want)
			}
		})
	}
}

func TestBuildFeatures(t *testing.T) {
	attrs := &model.PropertyAttributes{
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

	row := BuildFeatures(attrs, 121.53, 25.03)

	if len(row.Columns) != len(FeatureColumns) {
		t.Fatalf("expected %d columns, got %d", len(FeatureColumns), len(row.Columns))
	}
	if len(row.Values) != len(row.Columns) {
		t.Fatalf("values/columns length mismatch: %d vs %d", len(row.Values), len(row.Columns))
	}
	for i, col := range FeatureColumns {
		if row.Columns[i] != col {
			t.Errorf("column %d: got %q, want %q", i, row.Columns[i], col)
		}
	}

	// Floor counts travel as categorical strings, not numbers.
	checkStr := func(col, want string) {
		t.Helper()
		v, ok := row.Value(col)
		if !ok {
			t.Fatalf("missing column %q", col)
		}
		if v.IsNumeric {
			t.Errorf("column %q should be categorical", col)
		}
		if v.Str != want {
			t.Errorf("column %q = %q, want %q", col, v.Str, want)
		}
	}
	checkStr(ColCity, "臺北市")
	checkStr(ColTown, "大安區")
	checkStr(ColHouseType, "大樓（有電梯）")
	checkStr(ColFloorNumber, "5")
	checkStr(ColTotalFloors, "12")

	checkNum := func(col string, want float64) {
		t.Helper()
		v, ok := row.Value(col)
		if !ok {
			t.Fatalf("missing column %q", col)
		}
		if !v.IsNumeric {
			t.Errorf("column %q should be numeric", col)
		}
		if v.Num != want {
			t.Errorf("column %q = %v, want %v", col, v.Num, want)
		}
	}
	checkNum(ColLandArea, 10)
	checkNum(ColFloorArea, 30)
	checkNum(ColHouseAge, 15)
	checkNum(ColRoomCount, 3)
	checkNum(ColLongitude, 121.53)
	checkNum(ColLatitude, 25.03)
	checkNum(ColFloorRatio, 5.0/12.0)

	// The derived ratio column comes last.
	if row.Columns[len(row.Columns)-1] != ColFloorRatio {
		t.Errorf("last column = %q, want %q", row.Columns[len(row.Columns)-1], ColFloorRatio)
	}
}

func TestNumericVector(t *testing.T) {
	attrs := &model.PropertyAttributes{
		City:        "臺北市",
		Town:        "大安區",
		HouseType:   "公寓",
		HouseAge:    20,
		TotalFloors: 4,
		FloorNumber: 2,
		FloorArea:   25,
		LandArea:    8,
		RoomCount:   2,
	}

	vec := BuildFeatures(attrs, 121.5, 25.0).NumericVector()

	want := []float32{8, 25, 20, 2, 121.5, 25.0, 0.5}
	if len(vec) != len(want) {
		t.Fatalf("expected %d numeric features, got %d", len(want), len(vec))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("numeric feature %d = %v, want %v", i, vec[i], want[i])
		}
	}
}
