package booking

import (
	"time"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// FullDates returns the dates on which the facility already boards
// maxPetsPerDay pets or more.  They are blocked for every user.
func FullDates(stays []model.Reservation, maxPetsPerDay int) DateSet {
	full := make(DateSet)
	for d, n := range BuildLedger(stays) {
		if n >= maxPetsPerDay {
			full.Add(d)
		}
	}
	return full
}

// BlockedDates returns the dates userID cannot book: facility-full dates
// plus every boarding day of the user's own reservations.  Own stays use
// the same [start, end) expansion as the ledger, so the checkout day of an
// existing stay is immediately available for a new check-in.
func BlockedDates(stays []model.Reservation, userID uint64, maxPetsPerDay int) DateSet {
	blocked := FullDates(stays, maxPetsPerDay)
	for _, r := range stays {
		if !r.OwnedBy(userID) {
			continue
		}
		eachDay(r.StartDate, r.EndDate, blocked.Add)
	}
	return blocked
}

// BlockedIn returns the blocked dates inside [start, end), in order.
func BlockedIn(blocked DateSet, start, end time.Time) []time.Time {
	var hit []time.Time
	eachDay(start, end, func(d time.Time) {
		if blocked.Has(d) {
			hit = append(hit, d)
		}
	})
	return hit
}

// MaxCheckout is the latest checkout date selectable for a stay starting on
// start: the first blocked date after start (the checkout day itself is not
// boarded) or limit, whichever comes first.
func MaxCheckout(blocked DateSet, start, limit time.Time) time.Time {
	start, limit = Day(start), Day(limit)
	best := limit
	for d := range blocked {
		if d.After(start) && d.Before(best) {
			best = d
		}
	}
	return best
}
