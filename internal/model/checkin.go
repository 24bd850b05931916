package model

import "time"

// Check-in results.  Every admission attempt writes exactly one
// checkin row, approved or denied; the table doubles as the audit
// trail and as the source for the daily/weekly usage counters.
const (
	CheckinApproved = "APPROVED"
	CheckinDenied   = "DENIED"
)

// Checkin is an immutable record of a single admission attempt.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member who attempted to enter.
//  Result    – APPROVED or DENIED.
//  Reason    – denial reason (NULL when approved).
//  Rule      – name of the rule that produced the verdict (NULL when approved).
//  CreatedAt – when the attempt happened.
type Checkin struct {
	ID        uint64    // checkins.id
	MemberID  uint64    // checkins.member_id
	Result    string    // checkins.result
	Reason    *string   // checkins.reason (nullable)
	Rule      *string   // checkins.rule (nullable)
	CreatedAt time.Time // checkins.created_at
}
