package repository

import (
	"context"
	"testing"

	"smartval/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresRepository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func comparableRows(addresses ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"address", "total_price", "house_type", "house_age", "floor_area", "latitude", "longitude"})
	for i, addr := range addresses {
		price := 1000 + i
		rows.AddRow(addr, price, "公寓", 12.0, 28.0, 25.03, 121.53)
	}
	return rows
}

func testCriteria() model.ComparableCriteria {
	return model.ComparableCriteria{
		City:        "臺北市",
		HouseType:   "公寓",
		RoomCount:   3,
		HouseAge:    12,
		TotalFloors: 5,
		FloorNumber: 3,
		FloorArea:   28,
		LandArea:    8,
	}
}

func defaultBands() model.ToleranceBands {
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

func TestFindComparablesStrictOnly(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM houses").
		WithArgs(
			"臺北市", "公寓", 3,
			7.0, 17.0, // age band
			1, 10, // total floors, floored at 1
			1, 8, // floor number, floored at 1
			18.0, 38.0, // floor area
			3.0, 13.0, // land area
		).
		WillReturnRows(comparableRows("甲", "乙", "丙", "丁", "戊"))

	got, err := repo.FindComparables(context.Background(), testCriteria(), defaultBands())
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, "甲", got[0].Address)

	// Five strict matches means the relaxed query never runs.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindComparablesFallsBackToRelaxed(t *testing.T) {
	repo, mock := newMockRepo(t)
	criteria := testCriteria()
	bands := defaultBands()

	mock.ExpectQuery("FROM houses").
		WillReturnRows(comparableRows("甲", "乙"))
	mock.ExpectQuery("FROM houses").
		WithArgs("臺北市", "公寓", 2.0, 22.0).
		WillReturnRows(comparableRows("丙", "丁", "戊"))

	got, err := repo.FindComparables(context.Background(), criteria, bands)
	require.NoError(t, err)

	// The relaxed set replaces the strict one, never merges with it.
	require.Len(t, got, 3)
	assert.Equal(t, "丙", got[0].Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindComparablesBandsFlooredAtZero(t *testing.T) {
	repo, mock := newMockRepo(t)

	criteria := testCriteria()
	criteria.HouseAge = 2
	criteria.LandArea = 1

	mock.ExpectQuery("FROM houses").
		WithArgs(
			"臺北市", "公寓", 3,
			0.0, 7.0, // age lower bound floored at 0
			1, 10,
			1, 8,
			18.0, 38.0,
			0.0, 6.0, // land area lower bound floored at 0
		).
		WillReturnRows(comparableRows("甲", "乙", "丙", "丁", "戊"))

	_, err := repo.FindComparables(context.Background(), criteria, defaultBands())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertHousesEmptyBatchIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	require.NoError(t, repo.UpsertHouses(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentIDsByName(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name FROM agents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "王小明").
			AddRow(int64(2), "李小華"))

	got, err := repo.AgentIDsByName(context.Background(), []string{"王小明", "李小華", "查無此人"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"王小明": 1, "李小華": 2}, got)
}

func TestAgentIDsByNameEmptyInput(t *testing.T) {
	repo, mock := newMockRepo(t)

	got, err := repo.AgentIDsByName(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
