package model

import "time"

// Role is the integer flag stored in users.role.  There is no richer
// permission model: a user is either an ordinary customer or an
// administrator.
type Role uint8

const (
	RoleCustomer Role = 0
	RoleAdmin    Role = 1
)

// Claim returns the role name carried in access tokens and checked by the
// role middleware.
func (r Role) Claim() string {
	if r == RoleAdmin {
		return "ADMIN"
	}
	return "CUSTOMER"
}

// User represents an application user record as stored in the
// `users` table.  The password is only ever held as a bcrypt hash.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – given name.
//	Surname      – family name(s).
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	Address      – free-text postal address.
//	Role         – RoleCustomer or RoleAdmin.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Address      string    `db:"address" json:"address"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user carries the administrator flag.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     `db:"id"`
	UserID    uint64     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Profile is a user together with the pets registered under them.
type Profile struct {
	User
	Pets []Pet `json:"pets"`
}
