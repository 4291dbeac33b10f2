package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

func TestBlockedDates_FacilityFullBlocksEveryone(t *testing.T) {
	var stays []model.Reservation
	for i := uint64(1); i <= 7; i++ {
		stays = append(stays, stay(i, "2024-07-10", "2024-07-11", i, 1))
	}

	for _, user := range []uint64{1, 4, 99} {
		blocked := BlockedDates(stays, user, 7)
		assert.True(t, blocked.Has(d("2024-07-10")), "user %d", user)
		assert.False(t, blocked.Has(d("2024-07-11")), "user %d", user)
	}
}

func TestBlockedDates_OwnStayBlockedBelowCap(t *testing.T) {
	stays := []model.Reservation{stay(1, "2024-08-01", "2024-08-05", 5, 1)}

	blocked := BlockedDates(stays, 5, 7)
	assert.Equal(t, []string{"2024-08-01", "2024-08-02", "2024-08-03", "2024-08-04"}, FormatDates(blocked.Sorted()))

	assert.Empty(t, BlockedDates(stays, 6, 7))
}

func TestBlockedDates_CheckoutDayRebookable(t *testing.T) {
	stays := []model.Reservation{stay(1, "2024-08-01", "2024-08-05", 5, 7)}

	blocked := BlockedDates(stays, 5, 7)
	assert.True(t, blocked.Has(d("2024-08-04")))
	assert.False(t, blocked.Has(d("2024-08-05")))
	assert.Empty(t, BlockedIn(blocked, d("2024-08-05"), d("2024-08-07")))
	assert.Equal(t, []string{"2024-08-04"}, FormatDates(BlockedIn(blocked, d("2024-08-04"), d("2024-08-06"))))
}

func TestBlockedDates_OwnershipThroughAnyPet(t *testing.T) {
	r := stay(1, "2024-08-01", "2024-08-03", 0, 0)
	r.Pets = []model.ReservationPet{{PetID: 10, OwnerID: 3}, {PetID: 11, OwnerID: 8}}

	assert.True(t, BlockedDates([]model.Reservation{r}, 8, 7).Has(d("2024-08-01")))
	assert.False(t, BlockedDates([]model.Reservation{r}, 9, 7).Has(d("2024-08-01")))
}

func TestBlockedDates_MonotonicInCap(t *testing.T) {
	stays := []model.Reservation{
		stay(1, "2024-06-01", "2024-06-04", 1, 3),
		stay(2, "2024-06-02", "2024-06-06", 2, 2),
		stay(3, "2024-06-03", "2024-06-04", 3, 2),
	}
	for user := uint64(0); user <= 3; user++ {
		prev := BlockedDates(stays, user, 10)
		for max := 9; max >= 1; max-- {
			cur := BlockedDates(stays, user, max)
			for day := range prev {
				assert.True(t, cur.Has(day), "user %d max %d lost %s", user, max, day.Format(DateLayout))
			}
			prev = cur
		}
	}
}

func TestBlockedDates_Idempotent(t *testing.T) {
	stays := []model.Reservation{
		stay(1, "2024-06-01", "2024-06-04", 1, 4),
		stay(2, "2024-06-02", "2024-06-03", 2, 3),
	}
	first := BlockedDates(stays, 1, 7)
	second := BlockedDates(stays, 1, 7)
	assert.Equal(t, first, second)
	assert.Equal(t, 4, stays[0].PetCount())
}

func TestMaxCheckout(t *testing.T) {
	blocked := DateSet{}
	blocked.Add(d("2024-06-10"))
	blocked.Add(d("2024-06-20"))
	limit := d("2024-07-01")

	assert.Equal(t, d("2024-06-10"), MaxCheckout(blocked, d("2024-06-05"), limit))
	assert.Equal(t, d("2024-06-20"), MaxCheckout(blocked, d("2024-06-10"), limit))
	assert.Equal(t, limit, MaxCheckout(blocked, d("2024-06-21"), limit))
}
