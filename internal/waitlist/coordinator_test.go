package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-operations/internal/config"
	"github.com/iliyamo/gym-operations/internal/lock"
	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/queue"
	"github.com/iliyamo/gym-operations/internal/repository"
)

var (
	sessionCols = []string{"id", "trainer_id", "name", "capacity", "enrolled_count", "starts_at", "status", "created_at", "updated_at"}
	entryCols   = []string{"id", "session_id", "member_id", "tier", "status", "joined_at", "assigned_at", "deadline", "confirmed_at", "resolved_at"}
)

func testWaitlistConfig() config.WaitlistConfig {
	return config.WaitlistConfig{ConfirmWindow: 24 * time.Hour, SweepInterval: time.Minute}
}

func newTestCoordinator(t *testing.T) (*Coordinator, sqlmock.Sqlmock, *[]queue.WaitlistPromotedEvent) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	coord := NewCoordinator(
		db,
		repository.NewSessionRepo(db),
		repository.NewEnrollmentRepo(db),
		repository.NewWaitlistRepo(db),
		repository.NewSubscriptionRepo(db),
		lock.NewKeyed(),
		testWaitlistConfig(),
	)
	var published []queue.WaitlistPromotedEvent
	coord.SetPublisher(func(_ context.Context, ev queue.WaitlistPromotedEvent) {
		published = append(published, ev)
	})
	return coord, mock, &published
}

func sessionRow(now time.Time, id uint64, capacity, enrolled int, status string) *sqlmock.Rows {
	return sqlmock.NewRows(sessionCols).
		AddRow(id, nil, "HIIT", capacity, enrolled, now.Add(48*time.Hour), status, now, now)
}

func waitingRow(now time.Time, id, sessionID, memberID uint64, tier string) *sqlmock.Rows {
	return sqlmock.NewRows(entryCols).
		AddRow(id, sessionID, memberID, tier, model.WaitlistWaiting, now.Add(-time.Hour), nil, nil, nil, nil)
}

func assignedRow(now time.Time, id, sessionID, memberID uint64, deadline time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(entryCols).
		AddRow(id, sessionID, memberID, model.TierStandard, model.WaitlistAssigned,
			now.Add(-2*time.Hour), now.Add(-time.Hour), deadline, nil, nil)
}

func TestEnrollTakesOpenSlot(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 4, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM enrollments").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec("UPDATE class_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := coord.Enroll(context.Background(), 5, 42, now)
	require.NoError(t, err)
	assert.True(t, res.Enrolled)
	assert.Nil(t, res.Entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollFullSessionJoinsWaitlist(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 10, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM enrollments").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"})) // no promotion in flight
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"})) // not already queued
	mock.ExpectQuery("SELECT p.plan_type").
		WillReturnRows(sqlmock.NewRows([]string{"plan_type"}).AddRow(model.PlanVIP))
	mock.ExpectExec("INSERT INTO waitlist_entries").WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectCommit()

	res, err := coord.Enroll(context.Background(), 5, 42, now)
	require.NoError(t, err)
	assert.False(t, res.Enrolled)
	require.NotNil(t, res.Entry)
	assert.Equal(t, uint64(77), res.Entry.ID)
	assert.Equal(t, model.TierVIP, res.Entry.Tier)
	assert.Equal(t, 1, res.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollClosedSessionRejected(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 4, model.SessionClosed))
	mock.ExpectRollback()

	_, err := coord.Enroll(context.Background(), 5, 42, now)
	assert.ErrorIs(t, err, repository.ErrSessionClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollReservedSlotQueuesBehindPromotion(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	// one free slot on paper, but a promotion is in flight for it
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM enrollments").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1)) // ASSIGNED entry holds the slot
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("SELECT p.plan_type").
		WillReturnRows(sqlmock.NewRows([]string{"plan_type"}).AddRow(model.PlanMonthly))
	mock.ExpectExec("INSERT INTO waitlist_entries").WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectCommit()

	res, err := coord.Enroll(context.Background(), 5, 42, now)
	require.NoError(t, err)
	assert.False(t, res.Enrolled)
	assert.Equal(t, model.TierStandard, res.Entry.Tier)
	assert.Equal(t, 3, res.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelEnrollmentPromotesHead(t *testing.T) {
	coord, mock, published := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE class_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(waitingRow(now, 77, 5, 42, model.TierVIP))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := coord.CancelEnrollment(context.Background(), 5, 9, nil, now)
	require.NoError(t, err)
	require.Len(t, *published, 1)
	ev := (*published)[0]
	assert.Equal(t, uint64(77), ev.EntryID)
	assert.Equal(t, uint64(42), ev.MemberID)
	assert.Equal(t, now.Add(24*time.Hour).UTC().Format(time.RFC3339), ev.Deadline)
	assert.Equal(t, now.Format(time.RFC3339), ev.At)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelEnrollmentEmptyQueueLeavesSlotOpen(t *testing.T) {
	coord, mock, published := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE class_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(sqlmock.NewRows(entryCols))
	mock.ExpectCommit()

	err := coord.CancelEnrollment(context.Background(), 5, 9, nil, now)
	require.NoError(t, err)
	assert.Empty(t, *published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelWithoutEnrollmentIsConflict(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := coord.CancelEnrollment(context.Background(), 5, 9, nil, now)
	assert.ErrorIs(t, err, repository.ErrNoActiveEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmBeforeDeadline(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()
	deadline := now.Add(time.Hour)

	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(102, 1))
	mock.ExpectExec("UPDATE class_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	// capacity is back to full, so no further promotion happens
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 10, model.SessionOpen))
	mock.ExpectCommit()

	err := coord.Confirm(context.Background(), 77, 42, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmAfterDeadlineExpiresAndPromotesNext(t *testing.T) {
	coord, mock, published := newTestCoordinator(t)
	now := time.Now().UTC()
	deadline := now.Add(-time.Minute)

	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1)) // expire
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(waitingRow(now, 88, 5, 51, model.TierStandard))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1)) // promote
	mock.ExpectCommit()

	err := coord.Confirm(context.Background(), 77, 42, now)
	assert.ErrorIs(t, err, repository.ErrDeadlineExpired)
	require.Len(t, *published, 1)
	assert.Equal(t, uint64(88), (*published)[0].EntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmAtExactDeadlineExpires(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, now))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, now))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1)) // expire
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(sqlmock.NewRows(entryCols))
	mock.ExpectCommit()

	// now == deadline counts as late: the sweep and the confirm path
	// must agree on the boundary.
	err := coord.Confirm(context.Background(), 77, 42, now)
	assert.ErrorIs(t, err, repository.ErrDeadlineExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmByWrongMemberNotFound(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, now.Add(time.Hour)))

	err := coord.Confirm(context.Background(), 77, 43, now)
	assert.ErrorIs(t, err, repository.ErrEntryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRaceLoserGetsConflict(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()
	deadline := now.Add(time.Hour)

	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(assignedRow(now, 77, 5, 42, deadline))
	// the sweep expired the entry between the read and the CAS
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := coord.Confirm(context.Background(), 77, 42, now)
	assert.ErrorIs(t, err, repository.ErrNotPromoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawAlreadyResolvedIsConflict(t *testing.T) {
	coord, mock, _ := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM waitlist_entries").
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow(77, 5, 42, model.TierStandard, model.WaitlistWithdrawn,
				now.Add(-2*time.Hour), nil, nil, nil, now.Add(-time.Hour)))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := coord.Withdraw(context.Background(), 77, 42, now)
	assert.ErrorIs(t, err, repository.ErrNotWaiting)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireOverdueSkipsRaceLosers(t *testing.T) {
	coord, mock, published := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM waitlist_entries").
		WillReturnRows(assignedRow(now, 77, 5, 42, now.Add(-time.Minute)))
	mock.ExpectBegin()
	// a concurrent confirmation already resolved the entry
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	n, err := coord.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, *published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireOverdueExpiresAndPromotes(t *testing.T) {
	coord, mock, published := newTestCoordinator(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM waitlist_entries").
		WillReturnRows(assignedRow(now, 77, 5, 42, now.Add(-time.Minute)))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1)) // expire
	mock.ExpectQuery("FROM class_sessions").WillReturnRows(sessionRow(now, 5, 10, 9, model.SessionOpen))
	mock.ExpectQuery("SELECT 1 FROM waitlist_entries").WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectQuery("FROM waitlist_entries").WillReturnRows(waitingRow(now, 88, 5, 51, model.TierVIP))
	mock.ExpectExec("UPDATE waitlist_entries SET status").WillReturnResult(sqlmock.NewResult(0, 1)) // promote
	mock.ExpectCommit()

	n, err := coord.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, *published, 1)
	assert.Equal(t, uint64(88), (*published)[0].EntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
