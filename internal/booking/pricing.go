package booking

import "time"

// Nights is the whole number of days between start and end, truncated
// toward zero.  It is negative when end precedes start.
func Nights(start, end time.Time) int {
	return int(Day(end).Sub(Day(start)) / (24 * time.Hour))
}

// Price is nights × nightlyRate × petCount.  Ranges that do not move
// forward and non-positive pet counts price at zero.
func Price(start, end time.Time, petCount int, nightlyRate int64) int64 {
	nights := Nights(start, end)
	if nights <= 0 || petCount <= 0 {
		return 0
	}
	return int64(nights) * nightlyRate * int64(petCount)
}
