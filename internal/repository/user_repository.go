package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
	"github.com/iliyamo/pet-boarding-reservation/internal/utils"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser is the registration payload.  Password is plain text and is
// hashed before it reaches the database.
type NewUser struct {
	Name     string
	Surname  string
	Email    string
	Password string
	Address  string
	Role     model.Role
}

const userColumns = "id,name,surname,email,password_hash,address,role,created_at,updated_at"

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u NewUser, cost int) (uint64, error) {
	email := normalizeEmail(u.Email)
	hash, err := utils.HashPassword(u.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, surname, email, password_hash, address, role) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(u.Name), strings.TrimSpace(u.Surname), email, hash, strings.TrimSpace(u.Address), u.Role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return u, notFound(err)
}

// UpdateProfile changes the editable personal data of a user.  Email and
// role are not editable here.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, surname=?, address=?, updated_at=NOW() WHERE id=?",
		strings.TrimSpace(u.Name), strings.TrimSpace(u.Surname), strings.TrimSpace(u.Address), u.ID)
	return err
}

// Profile returns the user together with their pets.
func (r *UserRepo) Profile(ctx context.Context, id uint64) (model.Profile, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	pets := []model.Pet{}
	if err := r.DB.SelectContext(ctx, &pets,
		"SELECT "+petColumns+" FROM pets WHERE owner_id=? ORDER BY id", id); err != nil {
		return model.Profile{}, err
	}
	return model.Profile{User: u, Pets: pets}, nil
}

// ListProfiles returns every user with their pets, ordered by id.
func (r *UserRepo) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	var users []model.User
	if err := r.DB.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, err
	}
	var pets []model.Pet
	if err := r.DB.SelectContext(ctx, &pets,
		"SELECT "+petColumns+" FROM pets ORDER BY owner_id, id"); err != nil {
		return nil, err
	}
	byOwner := make(map[uint64][]model.Pet, len(users))
	for _, p := range pets {
		byOwner[p.OwnerID] = append(byOwner[p.OwnerID], p)
	}
	out := make([]model.Profile, 0, len(users))
	for _, u := range users {
		ps := byOwner[u.ID]
		if ps == nil {
			ps = []model.Pet{}
		}
		out = append(out, model.Profile{User: u, Pets: ps})
	}
	return out, nil
}

// Delete removes a user.  Reservations attributed to the user through
// their pets are deleted first with their day counters released, then the
// user row goes and pets and refresh tokens follow by cascade.  The
// deleted reservations are returned so callers can announce them.
func (r *UserRepo) Delete(ctx context.Context, id uint64) ([]model.Reservation, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.GetContext(ctx, &locked, "SELECT id FROM users WHERE id=? FOR UPDATE", id); err != nil {
		return nil, notFound(err)
	}
	owned, err := listReservations(ctx, tx,
		"r.id IN (SELECT rp2.reservation_id FROM reservation_pets rp2 JOIN pets p2 ON p2.id = rp2.pet_id WHERE p2.owner_id = ?)", id)
	if err != nil {
		return nil, err
	}
	deleted := make([]model.Reservation, 0, len(owned))
	for _, res := range owned {
		ok, err := deleteReservationTx(ctx, tx, res)
		if err != nil {
			return nil, err
		}
		if ok {
			deleted = append(deleted, res)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return deleted, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
