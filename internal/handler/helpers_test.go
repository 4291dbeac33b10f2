package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/config"
	"github.com/iliyamo/pet-boarding-reservation/internal/middleware"
	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	"github.com/iliyamo/pet-boarding-reservation/internal/repository"
	"github.com/iliyamo/pet-boarding-reservation/internal/utils"
)

const secret = "handler-test-secret"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func date(s string) time.Time {
	d, err := booking.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ----- users and tokens -----

type memUsers struct {
	mu      sync.Mutex
	next    uint64
	users   map[uint64]model.User
	pets    map[uint64][]model.Pet
	deleted []model.Reservation // returned by Delete
}

func newMemUsers() *memUsers {
	return &memUsers{next: 100, users: map[uint64]model.User{}, pets: map[uint64][]model.Pet{}}
}

func (m *memUsers) add(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memUsers) Create(_ context.Context, u repository.NewUser, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.users {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(u.Password, cost)
	if err != nil {
		return 0, err
	}
	m.next++
	m.users[m.next] = model.User{ID: m.next, Name: u.Name, Surname: u.Surname, Email: email,
		PasswordHash: hash, Address: u.Address, Role: u.Role}
	return m.next, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Profile(ctx context.Context, id uint64) (model.Profile, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	pets := m.pets[id]
	if pets == nil {
		pets = []model.Pet{}
	}
	return model.Profile{User: u, Pets: pets}, nil
}

func (m *memUsers) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	ids := make([]uint64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		p, _ := m.Profile(ctx, id)
		out = append(out, p)
	}
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.users, id)
	return m.deleted, nil
}

type memTokens struct {
	mu      sync.Mutex
	owners  map[string]uint64
	revoked map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{owners: map[string]uint64{}, revoked: map[string]bool{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[hash] = userID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.owners[hash]
	if !ok || m.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return uid, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[hash] = true
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, uid := range m.owners {
		if uid == userID {
			m.revoked[h] = true
		}
	}
	return nil
}

// ----- pets -----

type memPets struct {
	mu   sync.Mutex
	next uint64
	pets map[uint64]model.Pet
}

func newMemPets(pets ...model.Pet) *memPets {
	m := &memPets{next: 500, pets: map[uint64]model.Pet{}}
	for _, p := range pets {
		m.pets[p.ID] = p
	}
	return m
}

func (m *memPets) ListByOwner(_ context.Context, ownerID uint64) ([]model.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Pet{}
	for _, p := range m.pets {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPets) Get(_ context.Context, id uint64) (model.Pet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pets[id]
	if !ok {
		return model.Pet{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPets) Create(_ context.Context, p *model.Pet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = m.next
	m.pets[p.ID] = *p
	return nil
}

func (m *memPets) Update(_ context.Context, p *model.Pet, callerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pets[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.OwnerID != callerID {
		return repository.ErrForbidden
	}
	m.pets[p.ID] = *p
	return nil
}

func (m *memPets) Delete(_ context.Context, id, callerID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pets[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.OwnerID != callerID {
		return repository.ErrForbidden
	}
	delete(m.pets, id)
	return nil
}

// ----- reservations -----

// memReservations backs both booking.Service and the reservation handlers.
type memReservations struct {
	mu    sync.Mutex
	next  uint64
	pets  *memPets
	stays []model.Reservation
}

func (m *memReservations) PetsOwnedBy(ctx context.Context, userID uint64) ([]model.Pet, error) {
	return m.pets.ListByOwner(ctx, userID)
}

func (m *memReservations) ReservationsEndingAfter(_ context.Context, day time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.stays {
		if r.EndDate.After(day) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) CreateReservation(_ context.Context, ownerID uint64, r *model.Reservation, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	r.ID = m.next
	r.OwnerID = ownerID
	m.stays = append(m.stays, *r)
	return nil
}

func (m *memReservations) ListByOwner(_ context.Context, ownerID uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.stays {
		if r.OwnedBy(ownerID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) ListAll(_ context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reservation{}, m.stays...), nil
}

func (m *memReservations) take(id uint64, allowed func(model.Reservation) bool) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.stays {
		if r.ID != id {
			continue
		}
		if !allowed(r) {
			return model.Reservation{}, repository.ErrForbidden
		}
		m.stays = append(m.stays[:i], m.stays[i+1:]...)
		return r, nil
	}
	return model.Reservation{}, repository.ErrNotFound
}

func (m *memReservations) DeleteForOwner(_ context.Context, id, userID uint64) (model.Reservation, error) {
	return m.take(id, func(r model.Reservation) bool { return r.OwnedBy(userID) })
}

func (m *memReservations) Delete(_ context.Context, id uint64) (model.Reservation, error) {
	return m.take(id, func(model.Reservation) bool { return true })
}

type recEvents struct {
	mu      sync.Mutex
	deleted []uint64
}

func (r *recEvents) ReservationDeleted(_ context.Context, res model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, res.ID)
	return nil
}

type fakeDays struct {
	ledger      booking.Ledger
	from, until time.Time
}

func (f *fakeDays) Counts(_ context.Context, from, until time.Time) (booking.Ledger, error) {
	f.from, f.until = from, until
	return f.ledger, nil
}

// ----- server -----

// testEnv is an echo server wired like the real one over in-memory stores.
// Today is 2024-06-01, two pets fit per day and user 8 already boards two
// pets from 2024-06-10 to 2024-06-12, so the 10th and 11th are full.
type testEnv struct {
	e             *echo.Echo
	users         *memUsers
	tokens        *memTokens
	pets          *memPets
	res           *memReservations
	events        *recEvents
	days          *fakeDays
	invalidations int
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:  newMemUsers(),
		tokens: newMemTokens(),
		pets: newMemPets(
			model.Pet{ID: 70, OwnerID: 7, Name: "Luna", Allergies: "chicken"},
			model.Pet{ID: 71, OwnerID: 7, Name: "Tom"},
			model.Pet{ID: 80, OwnerID: 8, Name: "Rex"},
			model.Pet{ID: 81, OwnerID: 8, Name: "Kira"},
		),
		events: &recEvents{},
	}
	env.users.add(model.User{ID: 1, Name: "Ada", Email: "admin@example.com", Role: model.RoleAdmin})
	env.users.add(model.User{ID: 7, Name: "Ana", Surname: "Pérez", Email: "ana@example.com", Address: "Calle 1"})
	env.users.add(model.User{ID: 8, Name: "Luis", Email: "luis@example.com"})
	env.res = &memReservations{next: 1, pets: env.pets, stays: []model.Reservation{{
		ID: 1, StartDate: date("2024-06-10"), EndDate: date("2024-06-12"), TotalCents: 7200, OwnerID: 8,
		Pets: []model.ReservationPet{{ReservationID: 1, PetID: 80, OwnerID: 8}, {ReservationID: 1, PetID: 81, OwnerID: 8}},
	}}}

	clock := fixedClock{time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := booking.NewService(env.res, nil, clock,
		booking.Config{MaxPetsPerDay: 2, NightlyRateCents: 1800, HorizonMonths: 2})
	invalidate := func(context.Context) error {
		env.invalidations++
		return nil
	}
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}

	auth := NewAuthHandler(cfg, env.users, env.tokens)
	pets := NewPetHandler(env.pets)
	resH := NewReservationHandler(svc, env.res, env.events, invalidate)
	env.days = &fakeDays{ledger: booking.Ledger{date("2024-06-10"): 2, date("2024-06-11"): 2}}
	admin := NewAdminHandler(env.users, env.res, env.days, env.events, invalidate)
	admin.Clock = clock

	e := echo.New()
	jwt := middleware.JWTAuth(secret)
	e.POST("/v1/auth/register", auth.Register)
	e.POST("/v1/auth/login", auth.Login)
	e.POST("/v1/auth/refresh", auth.Refresh)
	e.POST("/v1/auth/refresh-access", auth.RefreshAccess)
	e.POST("/v1/auth/logout", auth.Logout)
	e.GET("/v1/me", auth.Me, jwt)
	e.PUT("/v1/me", auth.UpdateMe, jwt)
	e.GET("/v1/me/admin", auth.IsAdmin, jwt)

	e.GET("/v1/pets", pets.List, jwt)
	e.POST("/v1/pets", pets.Create, jwt)
	e.PUT("/v1/pets/:id", pets.Update, jwt)
	e.DELETE("/v1/pets/:id", pets.Delete, jwt)

	e.GET("/v1/calendar", resH.PublicCalendar)
	e.GET("/v1/calendar/me", resH.MyCalendar, jwt)
	e.POST("/v1/reservations/quote", resH.Quote)
	e.POST("/v1/reservations", resH.Submit, jwt)
	e.GET("/v1/reservations", resH.ListMine, jwt)
	e.DELETE("/v1/reservations/:id", resH.DeleteMine, jwt)

	ag := e.Group("/v1/admin", jwt, middleware.RequireAdmin())
	ag.GET("/users", admin.ListUsers)
	ag.DELETE("/users/:id", admin.DeleteUser)
	ag.GET("/reservations", admin.ListReservations)
	ag.DELETE("/reservations/:id", admin.DeleteReservation)
	ag.GET("/occupancy", admin.Occupancy)

	env.e = e
	return env
}

func bearer(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func (env *testEnv) do(t *testing.T, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
