package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

// q quotes a SQL fragment for sqlmock's regexp matcher.
func q(sql string) string { return regexp.QuoteMeta(sql) }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var reservationCols = []string{
	"id", "start_date", "end_date", "notes", "total_cents", "created_at",
	"pet_id", "pet_name", "allergies", "observations", "pet_owner_id",
}
