// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both queues are declared durable so messages survive
// broker restarts.
const (
	CheckinQueueName  = "checkin.recorded"
	PromotedQueueName = "waitlist.promoted"
)

// CheckinRecordedEvent is published after every committed check-in
// verdict, approved or denied.  It carries enough for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type CheckinRecordedEvent struct {
	CheckinID uint64 `json:"checkin_id"`
	MemberID  uint64 `json:"member_id"`
	Result    string `json:"result"`
	Reason    string `json:"reason,omitempty"`
	Rule      string `json:"rule,omitempty"`
	At        string `json:"at"`
}

// WaitlistPromotedEvent is published when the coordinator promotes a
// waiting member into a reserved slot.  Downstream consumers use it
// to notify the member that a confirmation deadline is running.
type WaitlistPromotedEvent struct {
	EntryID   uint64 `json:"entry_id"`
	SessionID uint64 `json:"session_id"`
	MemberID  uint64 `json:"member_id"`
	Tier      string `json:"tier"`
	Deadline  string `json:"deadline"`
	At        string `json:"at"`
}
