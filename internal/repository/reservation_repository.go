package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// ReservationRepo stores reservations, their pet associations and the
// per-day occupancy counters in boarding_days.  Every write that changes
// the pets boarded on a day updates the counters in the same transaction.
// All dates are stored as DATE and read back at UTC midnight.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationRow is one line of the reservations ⟕ reservation_pets ⟕ pets
// join.  Pet columns are NULL for a reservation without association rows;
// name and owner are NULL for a pet that has since been deleted.
type reservationRow struct {
	ID           uint64         `db:"id"`
	StartDate    time.Time      `db:"start_date"`
	EndDate      time.Time      `db:"end_date"`
	Notes        string         `db:"notes"`
	TotalCents   int64          `db:"total_cents"`
	CreatedAt    time.Time      `db:"created_at"`
	PetID        sql.NullInt64  `db:"pet_id"`
	PetName      sql.NullString `db:"pet_name"`
	Allergies    sql.NullString `db:"allergies"`
	Observations sql.NullString `db:"observations"`
	PetOwnerID   sql.NullInt64  `db:"pet_owner_id"`
}

const reservationSelect = `SELECT r.id, r.start_date, r.end_date, r.notes, r.total_cents, r.created_at,
       rp.pet_id, p.name AS pet_name, p.allergies, p.observations, p.owner_id AS pet_owner_id
FROM reservations r
LEFT JOIN reservation_pets rp ON rp.reservation_id = r.id
LEFT JOIN pets p ON p.id = rp.pet_id`

// listReservations loads reservations matching where and folds the joined
// pet rows into each one.  Order is by start date then id.
func listReservations(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) ([]model.Reservation, error) {
	query := reservationSelect
	if where != "" {
		query += "\nWHERE " + where
	}
	query += "\nORDER BY r.start_date, r.id, rp.pet_id"

	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0)
	index := make(map[uint64]int)
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(out)
			index[row.ID] = i
			out = append(out, model.Reservation{
				ID:         row.ID,
				StartDate:  booking.Day(row.StartDate),
				EndDate:    booking.Day(row.EndDate),
				Notes:      row.Notes,
				TotalCents: row.TotalCents,
				CreatedAt:  row.CreatedAt,
				Pets:       []model.ReservationPet{},
			})
		}
		if !row.PetID.Valid {
			continue
		}
		pet := model.ReservationPet{
			ReservationID: row.ID,
			PetID:         uint64(row.PetID.Int64),
			Name:          row.PetName.String,
			Allergies:     row.Allergies.String,
			Observations:  row.Observations.String,
			OwnerID:       uint64(row.PetOwnerID.Int64),
		}
		res := &out[i]
		res.Pets = append(res.Pets, pet)
		if res.OwnerID == 0 {
			res.OwnerID = pet.OwnerID
		}
	}
	return out, nil
}

// ReservationsEndingAfter returns every reservation whose checkout is after
// day, i.e. every stay that still occupies day or a later date.
func (r *ReservationRepo) ReservationsEndingAfter(ctx context.Context, day time.Time) ([]model.Reservation, error) {
	return listReservations(ctx, r.db, "r.end_date > ?", booking.Day(day))
}

// ListByOwner returns the reservations that board at least one pet of
// ownerID.
func (r *ReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Reservation, error) {
	return listReservations(ctx, r.db,
		"r.id IN (SELECT rp2.reservation_id FROM reservation_pets rp2 JOIN pets p2 ON p2.id = rp2.pet_id WHERE p2.owner_id = ?)",
		ownerID)
}

// ListAll returns every reservation.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return listReservations(ctx, r.db, "")
}

// GetByID returns a single reservation with its pets.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	list, err := listReservations(ctx, r.db, "r.id = ?", id)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(list) == 0 {
		return model.Reservation{}, ErrNotFound
	}
	return list[0], nil
}

// CreateReservation persists res for ownerID as one transaction: the
// reservation row, one reservation_pets row per pet and an increment of
// the boarding_days counter for every boarding day.  The owner's user row
// is locked first so submissions by the same user are serialised, then the
// selected pets so none of them is deleted before the commit.  The
// transaction is rolled back with *booking.ValidationError when a pet is
// gone or changed owner, and with *booking.CapacityExceededError when the
// owner already boards pets on one of the days or when a counter ends up
// above maxPetsPerDay.
func (r *ReservationRepo) CreateReservation(ctx context.Context, ownerID uint64, res *model.Reservation, maxPetsPerDay int) error {
	days := booking.Days(res.StartDate, res.EndDate)
	if len(days) == 0 || len(res.Pets) == 0 {
		return ErrConflict
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.GetContext(ctx, &locked, "SELECT id FROM users WHERE id=? FOR UPDATE", ownerID); err != nil {
		return notFound(err)
	}

	petIDs := make([]uint64, 0, len(res.Pets))
	for _, p := range res.Pets {
		petIDs = append(petIDs, p.PetID)
	}
	petQ, petLockArgs, err := sqlx.In("SELECT id FROM pets WHERE owner_id=? AND id IN (?) FOR UPDATE", ownerID, petIDs)
	if err != nil {
		return err
	}
	var lockedPets []uint64
	if err := tx.SelectContext(ctx, &lockedPets, tx.Rebind(petQ), petLockArgs...); err != nil {
		return err
	}
	if len(lockedPets) < len(petIDs) {
		return &booking.ValidationError{Field: "pet_ids", Reason: "a selected pet no longer belongs to you"}
	}

	var own []struct {
		ID        uint64    `db:"id"`
		StartDate time.Time `db:"start_date"`
		EndDate   time.Time `db:"end_date"`
	}
	const ownQ = `SELECT DISTINCT r.id, r.start_date, r.end_date
FROM reservations r
JOIN reservation_pets rp ON rp.reservation_id = r.id
JOIN pets p ON p.id = rp.pet_id
WHERE p.owner_id = ? AND r.start_date < ? AND r.end_date > ?`
	if err := tx.SelectContext(ctx, &own, ownQ, ownerID, res.EndDate, res.StartDate); err != nil {
		return err
	}
	if len(own) > 0 {
		clash := make(booking.DateSet)
		for _, o := range own {
			for _, d := range booking.Days(o.StartDate, o.EndDate) {
				if !d.Before(res.StartDate) && d.Before(res.EndDate) {
					clash.Add(d)
				}
			}
		}
		return &booking.CapacityExceededError{Days: clash.Sorted()}
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (start_date, end_date, notes, total_cents) VALUES (?, ?, ?, ?)",
		res.StartDate, res.EndDate, res.Notes, res.TotalCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	assocQ := "INSERT INTO reservation_pets (reservation_id, pet_id) VALUES "
	assocArgs := make([]interface{}, 0, len(res.Pets)*2)
	for i, p := range res.Pets {
		if i > 0 {
			assocQ += ","
		}
		assocQ += "(?, ?)"
		assocArgs = append(assocArgs, id, p.PetID)
	}
	if _, err := tx.ExecContext(ctx, assocQ, assocArgs...); err != nil {
		return err
	}

	if err := incrementDaysTx(ctx, tx, days, len(res.Pets)); err != nil {
		return err
	}
	var over []time.Time
	if err := tx.SelectContext(ctx, &over,
		"SELECT day FROM boarding_days WHERE day >= ? AND day < ? AND pets > ? ORDER BY day",
		res.StartDate, res.EndDate, maxPetsPerDay); err != nil {
		return err
	}
	if len(over) > 0 {
		for i := range over {
			over[i] = booking.Day(over[i])
		}
		return &booking.CapacityExceededError{Days: over}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	res.ID = uint64(id)
	res.OwnerID = ownerID
	res.CreatedAt = time.Now().UTC()
	for i := range res.Pets {
		res.Pets[i].ReservationID = res.ID
	}
	return nil
}

// DeleteForOwner removes a reservation attributed to userID and releases
// its day counters.  It returns the deleted reservation.
func (r *ReservationRepo) DeleteForOwner(ctx context.Context, id, userID uint64) (model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if !res.OwnedBy(userID) {
		return model.Reservation{}, ErrForbidden
	}
	return res, r.delete(ctx, res)
}

// Delete removes any reservation and releases its day counters.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	return res, r.delete(ctx, res)
}

func (r *ReservationRepo) delete(ctx context.Context, res model.Reservation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ok, err := deleteReservationTx(ctx, tx, res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PurgeOrphans deletes reservations that have no association rows left.
// They board nobody and are invisible to every user.
func (r *ReservationRepo) PurgeOrphans(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE r FROM reservations r
LEFT JOIN reservation_pets rp ON rp.reservation_id = r.id
WHERE rp.reservation_id IS NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// deleteReservationTx deletes res and, when the row was still there,
// gives its pets back to the counters of its boarding days.  Association
// rows go by cascade.  pets is UNSIGNED, so a counter that drifted below
// the stay's pet count is set to zero instead of being subtracted from.
func deleteReservationTx(ctx context.Context, tx *sqlx.Tx, res model.Reservation) (bool, error) {
	result, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", res.ID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if count := res.PetCount(); count > 0 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE boarding_days SET pets = IF(pets > ?, pets - ?, 0) WHERE day >= ? AND day < ?",
			count, count, res.StartDate, res.EndDate); err != nil {
			return false, err
		}
	}
	return true, nil
}

// incrementDaysTx adds pets to the counter of every day, creating rows as
// needed.
func incrementDaysTx(ctx context.Context, tx *sqlx.Tx, days []time.Time, pets int) error {
	if len(days) == 0 {
		return nil
	}
	values := make([]string, 0, len(days))
	args := make([]interface{}, 0, len(days)*2)
	for _, d := range days {
		values = append(values, "(?, ?)")
		args = append(args, d, pets)
	}
	q := "INSERT INTO boarding_days (day, pets) VALUES " + strings.Join(values, ",") +
		" ON DUPLICATE KEY UPDATE pets = pets + VALUES(pets)"
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
