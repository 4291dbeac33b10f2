package model

import "time"

// Pet mirrors a row of the `pets` table.  Every pet has exactly one owner;
// deleting a pet never touches the reservations it was boarded under.
type Pet struct {
	ID           uint64    `db:"id" json:"id"`
	OwnerID      uint64    `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	BirthDate    time.Time `db:"birth_date" json:"birth_date"`
	Allergies    string    `db:"allergies" json:"allergies"`
	Observations string    `db:"observations" json:"observations"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
