package services_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/testutil"
)

// testDB wraps the shared fixtures with a terser per-test interface.
type testDB struct {
	t  *testing.T
	db *sql.DB
}

func (d *testDB) insertLearner(name string, ability float64) int64 {
	return testutil.InsertLearner(d.t, d.db, name, ability)
}

func (d *testDB) insertItem(learnerID int64, item models.ReviewItem) int64 {
	return testutil.InsertItem(d.t, d.db, learnerID, item)
}

func (d *testDB) insertPlan(learnerID int64, status models.PlanStatus) int64 {
	return testutil.InsertPlan(d.t, d.db, learnerID, status)
}

func (d *testDB) queryRow(query string, args ...any) *testRow {
	return &testRow{t: d.t, row: d.db.QueryRow(query, args...)}
}

type testRow struct {
	t   *testing.T
	row *sql.Row
}

func (r *testRow) mustScan(dest ...any) {
	r.t.Helper()
	require.NoError(r.t, r.row.Scan(dest...))
}
