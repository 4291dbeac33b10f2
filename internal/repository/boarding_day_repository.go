package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
)

// BoardingDayRepo maintains the boarding_days counters outside of the
// reservation write path.
type BoardingDayRepo struct {
	db *sqlx.DB
}

func NewBoardingDayRepo(db *sqlx.DB) *BoardingDayRepo { return &BoardingDayRepo{db: db} }

// Counts returns the stored counters for days in [from, until).
func (r *BoardingDayRepo) Counts(ctx context.Context, from, until time.Time) (booking.Ledger, error) {
	var rows []struct {
		Day  time.Time `db:"day"`
		Pets int       `db:"pets"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT day, pets FROM boarding_days WHERE day >= ? AND day < ? ORDER BY day",
		booking.Day(from), booking.Day(until)); err != nil {
		return nil, err
	}
	ledger := make(booking.Ledger, len(rows))
	for _, row := range rows {
		ledger[booking.Day(row.Day)] = row.Pets
	}
	return ledger, nil
}

// Reconcile rebuilds the counters for from and later days out of the
// association rows.  It returns the number of counter rows written.
func (r *BoardingDayRepo) Reconcile(ctx context.Context, from time.Time) (int, error) {
	from = booking.Day(from)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM boarding_days WHERE day >= ?", from); err != nil {
		return 0, err
	}
	stays, err := listReservations(ctx, tx, "r.end_date > ?", from)
	if err != nil {
		return 0, err
	}
	ledger := booking.BuildLedger(stays)
	days := make(booking.DateSet, len(ledger))
	for day := range ledger {
		if !day.Before(from) {
			days.Add(day)
		}
	}
	written := 0
	for _, day := range days.Sorted() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO boarding_days (day, pets) VALUES (?, ?)", day, ledger[day]); err != nil {
			return 0, err
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return written, nil
}

// PurgeBefore drops counter rows for days before day.  Past days are never
// booked again.
func (r *BoardingDayRepo) PurgeBefore(ctx context.Context, day time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM boarding_days WHERE day < ?", booking.Day(day))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
