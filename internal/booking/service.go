package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// Config carries the facility constants the engine works with.
type Config struct {
	MaxPetsPerDay    int   // boarding places per calendar date
	NightlyRateCents int64 // price per pet per night
	HorizonMonths    int   // how far ahead a checkout may be booked
}

// DefaultConfig returns 7 pets per day, 18.00 per night and a two month
// booking window.
func DefaultConfig() Config {
	return Config{MaxPetsPerDay: 7, NightlyRateCents: 1800, HorizonMonths: 2}
}

// Clock supplies the current time so that "today" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Store is the persistence the engine needs.  CreateReservation must write
// the reservation, its pet rows and the per-day counters as one unit and
// fail with *CapacityExceededError when a concurrent writer filled a day
// or the owner already boards on one of the days, and with
// *ValidationError when a selected pet is no longer the owner's.
type Store interface {
	PetsOwnedBy(ctx context.Context, userID uint64) ([]model.Pet, error)
	ReservationsEndingAfter(ctx context.Context, day time.Time) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, ownerID uint64, r *model.Reservation, maxPetsPerDay int) error
}

// Publisher is notified after a reservation is committed.
type Publisher interface {
	ReservationCreated(ctx context.Context, r model.Reservation) error
}

// Service is the availability and pricing engine bound to its store.
type Service struct {
	store Store
	pub   Publisher
	clock Clock
	cfg   Config
}

// NewService wires the engine.  pub may be nil; clock defaults to RealClock.
func NewService(store Store, pub Publisher, clock Clock, cfg Config) *Service {
	if store == nil {
		panic("nil store passed to NewService")
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Service{store: store, pub: pub, clock: clock, cfg: cfg}
}

// Config returns the constants the service was built with.
func (s *Service) Config() Config { return s.cfg }

// Window returns the first and last selectable dates: today and today plus
// the booking horizon, clamped to the end of the target month.
func (s *Service) Window() (from, until time.Time) {
	from = Day(s.clock.Now())
	return from, AddMonths(from, s.cfg.HorizonMonths)
}

// Calendar is what a date picker needs to render.
type Calendar struct {
	Blocked          []time.Time
	From             time.Time
	Until            time.Time
	MaxPetsPerDay    int
	NightlyRateCents int64
}

// Availability returns the dates blocked for userID.  A zero userID gets
// only the facility-full dates.
func (s *Service) Availability(ctx context.Context, userID uint64) (Calendar, error) {
	from, until := s.Window()
	stays, err := s.store.ReservationsEndingAfter(ctx, from)
	if err != nil {
		return Calendar{}, &StorageError{Op: "load reservations", Err: err}
	}
	var blocked DateSet
	if userID == 0 {
		blocked = FullDates(stays, s.cfg.MaxPetsPerDay)
	} else {
		blocked = BlockedDates(stays, userID, s.cfg.MaxPetsPerDay)
	}
	days := make([]time.Time, 0, len(blocked))
	for _, d := range blocked.Sorted() {
		if !d.Before(from) && !d.After(until) {
			days = append(days, d)
		}
	}
	return Calendar{
		Blocked:          days,
		From:             from,
		Until:            until,
		MaxPetsPerDay:    s.cfg.MaxPetsPerDay,
		NightlyRateCents: s.cfg.NightlyRateCents,
	}, nil
}

// Quote is a price preview for a selection.
type Quote struct {
	Nights           int
	PetCount         int
	NightlyRateCents int64
	TotalCents       int64
}

// Quote prices a stay without touching storage.
func (s *Service) Quote(start, end time.Time, petCount int) (Quote, error) {
	if err := s.checkRange(start, end); err != nil {
		return Quote{}, err
	}
	if petCount <= 0 {
		return Quote{}, invalid("pet_ids", "select at least one pet")
	}
	return Quote{
		Nights:           Nights(start, end),
		PetCount:         petCount,
		NightlyRateCents: s.cfg.NightlyRateCents,
		TotalCents:       Price(start, end, petCount, s.cfg.NightlyRateCents),
	}, nil
}

// SubmitRequest is a reservation as sent by a customer.  QuotedCents, when
// set, is the price the client displayed and must match the server price.
type SubmitRequest struct {
	UserID      uint64
	StartDate   time.Time
	EndDate     time.Time
	PetIDs      []uint64
	Notes       string
	QuotedCents *int64
}

// Submit validates a reservation against current availability, prices it
// and persists it atomically.  The availability check here is a fast
// rejection path; the store re-checks under lock before committing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (model.Reservation, error) {
	if req.UserID == 0 {
		return model.Reservation{}, invalid("user_id", "unknown user")
	}
	petIDs := dedupe(req.PetIDs)
	if len(petIDs) == 0 {
		return model.Reservation{}, invalid("pet_ids", "select at least one pet")
	}
	if err := s.checkRange(req.StartDate, req.EndDate); err != nil {
		return model.Reservation{}, err
	}
	start, end := Day(req.StartDate), Day(req.EndDate)

	owned, err := s.store.PetsOwnedBy(ctx, req.UserID)
	if err != nil {
		return model.Reservation{}, &StorageError{Op: "load pets", Err: err}
	}
	byID := make(map[uint64]model.Pet, len(owned))
	for _, p := range owned {
		byID[p.ID] = p
	}
	pets := make([]model.ReservationPet, 0, len(petIDs))
	for _, id := range petIDs {
		p, ok := byID[id]
		if !ok {
			return model.Reservation{}, invalid("pet_ids", "pet %d does not belong to you", id)
		}
		pets = append(pets, model.ReservationPet{PetID: p.ID, Name: p.Name, OwnerID: p.OwnerID})
	}

	stays, err := s.store.ReservationsEndingAfter(ctx, start)
	if err != nil {
		return model.Reservation{}, &StorageError{Op: "load reservations", Err: err}
	}
	blocked := BlockedDates(stays, req.UserID, s.cfg.MaxPetsPerDay)
	if hit := BlockedIn(blocked, start, end); len(hit) > 0 {
		return model.Reservation{}, &CapacityExceededError{Days: hit}
	}

	total := Price(start, end, len(pets), s.cfg.NightlyRateCents)
	if req.QuotedCents != nil && *req.QuotedCents != total {
		return model.Reservation{}, invalid("quoted_cents", "price changed to %d", total)
	}

	res := model.Reservation{
		StartDate:  start,
		EndDate:    end,
		Notes:      strings.TrimSpace(req.Notes),
		TotalCents: total,
		OwnerID:    req.UserID,
		Pets:       pets,
	}
	if err := s.store.CreateReservation(ctx, req.UserID, &res, s.cfg.MaxPetsPerDay); err != nil {
		var capErr *CapacityExceededError
		if errors.As(err, &capErr) {
			return model.Reservation{}, capErr
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			return model.Reservation{}, verr
		}
		return model.Reservation{}, &StorageError{Op: "create reservation", Err: err}
	}

	if s.pub != nil {
		if err := s.pub.ReservationCreated(ctx, res); err != nil {
			log.Printf("booking: publish reservation %d failed: %v", res.ID, err)
		}
	}
	return res, nil
}

func (s *Service) checkRange(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start_date", "required")
	}
	if end.IsZero() {
		return invalid("end_date", "required")
	}
	start, end = Day(start), Day(end)
	if !start.Before(end) {
		return invalid("end_date", "must be after start_date")
	}
	from, until := s.Window()
	if start.Before(from) {
		return invalid("start_date", "must not be in the past")
	}
	if end.After(until) {
		return invalid("end_date", "must be on or before %s", until.Format(DateLayout))
	}
	return nil
}

func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MaxCheckout caps the checkout for a stay starting on start at the first
// blocked date after it or the end of the booking window.
func (s *Service) MaxCheckout(blocked DateSet, start time.Time) time.Time {
	_, until := s.Window()
	return MaxCheckout(blocked, start, until)
}
