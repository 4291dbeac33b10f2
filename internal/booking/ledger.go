package booking

import (
	"time"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// Ledger maps a calendar date to the number of pets boarded that day.
// Dates no reservation touches are absent and count as zero.
type Ledger map[time.Time]int

// BuildLedger expands every reservation's [start, end) range into boarding
// days and adds the reservation's pet count to each of them.  A stay from
// D to D+1 occupies exactly D.
func BuildLedger(stays []model.Reservation) Ledger {
	ledger := make(Ledger)
	for _, r := range stays {
		n := r.PetCount()
		if n == 0 {
			continue
		}
		eachDay(r.StartDate, r.EndDate, func(d time.Time) {
			ledger[d] += n
		})
	}
	return ledger
}

// Count returns the pets boarded on the given date.
func (l Ledger) Count(t time.Time) int { return l[Day(t)] }
