package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/pet-boarding-reservation/internal/model"
)

// PetRepo provides CRUD for pets.  Writes are restricted to the owner;
// the check is done here so handlers only have to map ErrForbidden.
type PetRepo struct{ DB *sqlx.DB }

func NewPetRepo(db *sqlx.DB) *PetRepo { return &PetRepo{DB: db} }

const petColumns = "id,owner_id,name,birth_date,allergies,observations,created_at,updated_at"

// ListByOwner returns the pets registered by ownerID.
func (r *PetRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Pet, error) {
	pets := []model.Pet{}
	err := r.DB.SelectContext(ctx, &pets,
		"SELECT "+petColumns+" FROM pets WHERE owner_id=? ORDER BY id", ownerID)
	return pets, err
}

// Get fetches a single pet.
func (r *PetRepo) Get(ctx context.Context, id uint64) (model.Pet, error) {
	var p model.Pet
	err := r.DB.GetContext(ctx, &p, "SELECT "+petColumns+" FROM pets WHERE id=?", id)
	return p, notFound(err)
}

// Create inserts p and fills its ID and timestamps.
func (r *PetRepo) Create(ctx context.Context, p *model.Pet) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO pets (owner_id, name, birth_date, allergies, observations) VALUES (?,?,?,?,?)",
		p.OwnerID, strings.TrimSpace(p.Name), p.BirthDate, p.Allergies, p.Observations)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.ID = uint64(id)
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// Update writes the editable fields of p.  callerID must own the pet.
func (r *PetRepo) Update(ctx context.Context, p *model.Pet, callerID uint64) error {
	current, err := r.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.OwnerID != callerID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE pets SET name=?, birth_date=?, allergies=?, observations=?, updated_at=NOW() WHERE id=?",
		strings.TrimSpace(p.Name), p.BirthDate, p.Allergies, p.Observations, p.ID)
	if err != nil {
		return err
	}
	p.OwnerID = current.OwnerID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes a pet owned by callerID.  Reservation rows naming the pet
// are kept, so past and future stays still count towards capacity.
func (r *PetRepo) Delete(ctx context.Context, id, callerID uint64) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.OwnerID != callerID {
		return ErrForbidden
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM pets WHERE id=? AND owner_id=?", id, callerID)
	return err
}
