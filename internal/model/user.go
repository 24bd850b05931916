package model

import "time"

// Account roles stored in the JWT "role" claim.  RECEPTION accounts
// drive the front-desk check-in terminal; MEMBER accounts act on
// their own enrollments and waitlist entries.
const (
	RoleAdmin     = "ADMIN"
	RoleReception = "RECEPTION"
	RoleMember    = "MEMBER"
)

// User represents an application account as stored in the `users`
// table.  Accounts are how staff and members authenticate against the
// API; they are distinct from Member records, which model the person
// walking through the door.  The json tags are omitted because these
// structs are used internally by the repository layer; handlers
// define separate response types.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN, RECEPTION or MEMBER.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to an account; only the SHA-256 hash of the
// raw token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
