package model

import "time"

// Waitlist entry states.  ASSIGNED means the entry has been promoted
// and holds a reserved slot pending member confirmation; it is the
// only non-terminal state besides WAITING.  An expired entry is never
// resurrected — the member must join the queue again.
const (
	WaitlistWaiting   = "WAITING"
	WaitlistAssigned  = "ASSIGNED"
	WaitlistConfirmed = "CONFIRMED"
	WaitlistExpired   = "EXPIRED"
	WaitlistWithdrawn = "WITHDRAWN"
)

// Waitlist priority tiers.  VIP entries are promoted before standard
// ones; inside a tier the earliest join wins.
const (
	TierVIP      = "VIP"
	TierStandard = "STANDARD"
)

// WaitlistEntry is a row in the `waitlist_entries` table.  At most
// one entry per (session, member) pair may be WAITING or ASSIGNED at
// a time, and at most one entry per session may be ASSIGNED at a
// time; both invariants are enforced by the coordinator under the
// per-session lock.
//
// Fields:
//  ID          – primary key identifier.
//  SessionID   – session the member is queueing for.
//  MemberID    – queueing member.
//  Tier        – VIP or STANDARD, fixed at join time.
//  Status      – one of the Waitlist* constants.
//  JoinedAt    – when the member joined the queue (FIFO tie-break).
//  AssignedAt  – when the entry was promoted (NULL before).
//  Deadline    – confirmation deadline while ASSIGNED (NULL otherwise).
//  ConfirmedAt – when the member confirmed (NULL unless CONFIRMED).
//  ResolvedAt  – when the entry reached a terminal state.
type WaitlistEntry struct {
	ID          uint64     // waitlist_entries.id
	SessionID   uint64     // waitlist_entries.session_id
	MemberID    uint64     // waitlist_entries.member_id
	Tier        string     // waitlist_entries.tier
	Status      string     // waitlist_entries.status
	JoinedAt    time.Time  // waitlist_entries.joined_at
	AssignedAt  *time.Time // waitlist_entries.assigned_at (nullable)
	Deadline    *time.Time // waitlist_entries.deadline (nullable)
	ConfirmedAt *time.Time // waitlist_entries.confirmed_at (nullable)
	ResolvedAt  *time.Time // waitlist_entries.resolved_at (nullable)
}
