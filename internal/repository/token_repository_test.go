package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

func tokenRow(userID uint64, expiresAt time.Time, revokedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
		AddRow(userID, expiresAt, revokedAt)
}

func TestValidateRefreshAcceptsLiveToken(t *testing.T) {
	repo, mock := newTokenRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM refresh_tokens").
		WillReturnRows(tokenRow(42, now.Add(time.Hour), nil))

	uid, err := repo.ValidateRefresh(context.Background(), "hash", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
}

func TestValidateRefreshRejectsRevoked(t *testing.T) {
	repo, mock := newTokenRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM refresh_tokens").
		WillReturnRows(tokenRow(42, now.Add(time.Hour), now.Add(-time.Minute)))

	_, err := repo.ValidateRefresh(context.Background(), "hash", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestValidateRefreshExpiryBoundaryIsInclusive(t *testing.T) {
	repo, mock := newTokenRepo(t)
	now := time.Now().UTC()

	// a token expiring exactly now is already dead
	mock.ExpectQuery("FROM refresh_tokens").
		WillReturnRows(tokenRow(42, now, nil))

	_, err := repo.ValidateRefresh(context.Background(), "hash", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPurgeDeadForUser(t *testing.T) {
	repo, mock := newTokenRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.PurgeDeadForUser(context.Background(), 42, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
