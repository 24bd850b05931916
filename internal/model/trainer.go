package model

import "time"

// Trainer represents a staff trainer as stored in the `trainers`
// table.  Trainers may be attached to class sessions but carry no
// decision logic of their own.
//
// Fields:
//  ID        – primary key identifier.
//  FullName  – trainer's display name.
//  Specialty – discipline taught (e.g. "yoga", "crossfit").
//  IsActive  – whether the trainer currently leads sessions.
//  CreatedAt – row creation timestamp.
//  UpdatedAt – last update timestamp.
type Trainer struct {
	ID        uint64    // trainers.id
	FullName  string    // trainers.full_name
	Specialty string    // trainers.specialty
	IsActive  bool      // trainers.is_active
	CreatedAt time.Time // trainers.created_at
	UpdatedAt time.Time // trainers.updated_at
}
