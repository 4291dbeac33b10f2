package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	db, mock := newMock(t)
	created := time.Now().UTC()
	from := date("2024-06-11")

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM boarding_days WHERE day >= ?")).
		WithArgs(from).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(q("WHERE r.end_date > ?")).
		WithArgs(from).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, date("2024-06-10"), date("2024-06-13"), "", 0, created, 10, "Luna", "", "", 5).
			AddRow(1, date("2024-06-10"), date("2024-06-13"), "", 0, created, 11, nil, nil, nil, nil).
			AddRow(2, date("2024-06-12"), date("2024-06-13"), "", 0, created, 20, "Rex", "", "", 6))
	mock.ExpectExec(q("INSERT INTO boarding_days (day, pets) VALUES (?, ?)")).
		WithArgs(date("2024-06-11"), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO boarding_days (day, pets) VALUES (?, ?)")).
		WithArgs(date("2024-06-12"), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewBoardingDayRepo(db).Reconcile(context.Background(), from)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsAndPurge(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBoardingDayRepo(db)

	mock.ExpectQuery(q("SELECT day, pets FROM boarding_days")).
		WithArgs(date("2024-06-01"), date("2024-07-01")).
		WillReturnRows(sqlmock.NewRows([]string{"day", "pets"}).AddRow(date("2024-06-11"), 4))
	mock.ExpectExec(q("DELETE FROM boarding_days WHERE day < ?")).
		WithArgs(date("2024-06-01")).
		WillReturnResult(sqlmock.NewResult(0, 9))

	ledger, err := repo.Counts(context.Background(), date("2024-06-01"), date("2024-07-01"))
	require.NoError(t, err)
	assert.Equal(t, 4, ledger.Count(date("2024-06-11")))

	n, err := repo.PurgeBefore(context.Background(), date("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
