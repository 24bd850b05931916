// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let higher layers such as the
// admission engine, the waitlist coordinator and HTTP handlers
// distinguish between failure scenarios with errors.Is.  The split
// matters operationally: not-found errors are caller input problems,
// the conflict family are business-rule rejections, and anything else
// is a persistence failure whose transaction has been rolled back.
package repository

import "errors"

// Not-found sentinels.  Handlers translate these into HTTP 404.
var (
	ErrMemberNotFound       = errors.New("member not found")
	ErrTrainerNotFound      = errors.New("trainer not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSessionNotFound      = errors.New("class session not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrEntryNotFound        = errors.New("waitlist entry not found")
	ErrWorkoutPlanNotFound  = errors.New("workout plan not found")
	ErrExerciseNotFound     = errors.New("workout exercise not found")
)

// Business-rule conflicts.  Handlers translate these into HTTP 409
// (410 for the expired deadline).  None of them are retried.
var (
	ErrAlreadyEnrolled    = errors.New("member already enrolled in session")
	ErrAlreadyWaitlisted  = errors.New("member already on waitlist for session")
	ErrSessionClosed      = errors.New("session registration is closed")
	ErrSessionNotFull     = errors.New("session still has free slots")
	ErrNotPromoted        = errors.New("waitlist entry is not pending confirmation")
	ErrNotWaiting         = errors.New("waitlist entry is not waiting")
	ErrDeadlineExpired    = errors.New("confirmation deadline has expired")
	ErrNoActiveEnrollment = errors.New("no active enrollment for member in session")
)

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent state, such as removing a session that still
// has registered enrollments.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
