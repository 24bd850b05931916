package admission

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gym-operations/internal/lock"
	"github.com/iliyamo/gym-operations/internal/model"
	"github.com/iliyamo/gym-operations/internal/queue"
	"github.com/iliyamo/gym-operations/internal/repository"
)

var subCols = []string{
	"id", "member_id", "plan_id", "status", "starts_at", "expires_at",
	"frozen_until", "remaining_entries", "created_at", "updated_at", "plan_type",
}

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine := NewEngine(
		db,
		repository.NewMemberRepo(db),
		repository.NewSubscriptionRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewCheckinRepo(db),
		lock.NewKeyed(),
		testAdmissionConfig(),
	)
	return engine, mock
}

func expectSnapshot(mock sqlmock.Sqlmock, now time.Time, expiresAt time.Time, remaining interface{}, debt int64, failures, daily, weekly int) {
	mock.ExpectQuery("FROM subscriptions s").
		WillReturnRows(sqlmock.NewRows(subCols).
			AddRow(11, 7, 3, model.SubscriptionActive, now.Add(-24*time.Hour), expiresAt,
				nil, remaining, now.Add(-24*time.Hour), now.Add(-24*time.Hour), model.PlanMonthly))
	mock.ExpectQuery("COALESCE\\(SUM\\(p.amount_cents\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"debt"}).AddRow(debt))
	mock.ExpectQuery("FROM payments").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(failures))
	mock.ExpectQuery("FROM checkins").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(daily))
	mock.ExpectQuery("FROM checkins").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(weekly))
}

func TestEvaluateApprovedDecrementsEntries(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	expectSnapshot(mock, now, now.Add(30*24*time.Hour), 3, 0, 0, 0, 4)
	mock.ExpectExec("UPDATE subscriptions SET remaining_entries").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkins").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	var published []queue.CheckinRecordedEvent
	engine.SetPublisher(func(_ context.Context, ev queue.CheckinRecordedEvent) {
		published = append(published, ev)
	})

	rec, err := engine.Evaluate(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinApproved, rec.Result)
	assert.Equal(t, uint64(42), rec.ID)
	assert.Nil(t, rec.Reason)
	require.Len(t, published, 1)
	assert.Equal(t, model.CheckinApproved, published[0].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateUnlimitedPlanSkipsDecrement(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	expectSnapshot(mock, now, now.Add(30*24*time.Hour), nil, 0, 0, 0, 0)
	// no UPDATE subscriptions expectation: nil remaining_entries is unlimited
	mock.ExpectExec("INSERT INTO checkins").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectCommit()

	rec, err := engine.Evaluate(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinApproved, rec.Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateDeniedExpiredStillAudited(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	expectSnapshot(mock, now, now.Add(-time.Hour), 3, 9000, 1, 0, 0)
	mock.ExpectExec("INSERT INTO checkins").
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectCommit()

	rec, err := engine.Evaluate(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinDenied, rec.Result)
	require.NotNil(t, rec.Reason)
	// expiry outranks the debt and failed payment also present
	assert.Equal(t, ReasonSubscriptionExpired, *rec.Reason)
	require.NotNil(t, rec.Rule)
	assert.Equal(t, "subscription_valid", *rec.Rule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateDeniedDailyLimit(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	expectSnapshot(mock, now, now.Add(30*24*time.Hour), nil, 0, 0, 3, 10)
	mock.ExpectExec("INSERT INTO checkins").
		WillReturnResult(sqlmock.NewResult(45, 1))
	mock.ExpectCommit()

	rec, err := engine.Evaluate(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinDenied, rec.Result)
	require.NotNil(t, rec.Reason)
	assert.Equal(t, ReasonDailyLimitExceeded, *rec.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateNoSubscriptionDenied(t *testing.T) {
	engine, mock := newTestEngine(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("FROM subscriptions s").
		WillReturnRows(sqlmock.NewRows(subCols)) // no row
	mock.ExpectExec("INSERT INTO checkins").
		WillReturnResult(sqlmock.NewResult(46, 1))
	mock.ExpectCommit()

	rec, err := engine.Evaluate(context.Background(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinDenied, rec.Result)
	require.NotNil(t, rec.Reason)
	assert.Equal(t, ReasonSubscriptionExpired, *rec.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluateUnknownMemberWritesNothing(t *testing.T) {
	engine, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"1"})) // no row
	mock.ExpectRollback()

	rec, err := engine.Evaluate(context.Background(), 999, time.Now().UTC())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
