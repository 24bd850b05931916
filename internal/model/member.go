package model

import "time"

// Member represents a gym member record as stored in the `members`
// table.  Members are referenced by the admission engine on every
// check-in attempt and by the waitlist coordinator when joining a
// session queue.  Financial and subscription state lives in the
// related Subscription and Payment rows, never on the member itself.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – member's display name.
//  Email     – unique contact email.
//  Phone     – optional phone number.
//  JoinedAt  – when the member signed up at the facility.
//  CreatedAt – row creation timestamp.
//  UpdatedAt – last update timestamp.
type Member struct {
	ID        uint64    // members.id
	FullName  string    // members.full_name
	Email     string    // members.email
	Phone     *string   // members.phone (nullable)
	JoinedAt  time.Time // members.joined_at
	CreatedAt time.Time // members.created_at
	UpdatedAt time.Time // members.updated_at
}
