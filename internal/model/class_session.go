package model

import "time"

// Class session statuses.  CLOSED sessions accept no new enrollments
// or waitlist joins.
const (
	SessionOpen   = "OPEN"
	SessionClosed = "CLOSED"
)

// Enrollment statuses.
const (
	EnrollmentRegistered = "REGISTERED"
	EnrollmentCanceled   = "CANCELED"
)

// ClassSession is a capacity-constrained class.  EnrolledCount is
// maintained transactionally alongside enrollments and never exceeds
// Capacity; a slot freed by a cancellation is held open for the
// waitlist promotion cycle until it is confirmed or the queue drains.
//
// Fields:
//  ID            – primary key identifier.
//  TrainerID     – trainer leading the session (NULL if unassigned).
//  Name          – class name.
//  Capacity      – maximum confirmed enrollments.
//  EnrolledCount – current number of REGISTERED enrollments.
//  StartsAt      – when the class begins.
//  Status        – OPEN or CLOSED.
//  CreatedAt     – row creation timestamp.
//  UpdatedAt     – last update timestamp.
type ClassSession struct {
	ID            uint64    // class_sessions.id
	TrainerID     *uint64   // class_sessions.trainer_id (nullable)
	Name          string    // class_sessions.name
	Capacity      int       // class_sessions.capacity
	EnrolledCount int       // class_sessions.enrolled_count
	StartsAt      time.Time // class_sessions.starts_at
	Status        string    // class_sessions.status
	CreatedAt     time.Time // class_sessions.created_at
	UpdatedAt     time.Time // class_sessions.updated_at
}

// Full reports whether the session has no free slots left.
func (s *ClassSession) Full() bool { return s.EnrolledCount >= s.Capacity }

// Enrollment links a member to a class session.  A canceled
// enrollment keeps its row for history; only REGISTERED rows count
// against capacity.
//
// Fields:
//  ID           – primary key identifier.
//  SessionID    – session enrolled into.
//  MemberID     – enrolled member.
//  Status       – REGISTERED or CANCELED.
//  CancelReason – optional reason recorded on cancellation.
//  CanceledAt   – when the enrollment was canceled (NULL while active).
//  CreatedAt    – row creation timestamp.
type Enrollment struct {
	ID           uint64     // enrollments.id
	SessionID    uint64     // enrollments.session_id
	MemberID     uint64     // enrollments.member_id
	Status       string     // enrollments.status
	CancelReason *string    // enrollments.cancel_reason (nullable)
	CanceledAt   *time.Time // enrollments.canceled_at (nullable)
	CreatedAt    time.Time  // enrollments.created_at
}
