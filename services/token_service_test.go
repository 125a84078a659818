package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditAccumulates(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)
	seedUser(t, db, "alice")

	require.NoError(t, svc.Credit(context.Background(), "alice", 300, "onboarding_completed"))
	require.NoError(t, svc.Credit(context.Background(), "alice", 250, "referral_l1:bob"))

	balance, earned := balanceOf(t, db, "alice")
	assert.Equal(t, int64(550), balance)
	assert.Equal(t, int64(550), earned)
}

func TestCreditZeroIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)
	seedUser(t, db, "alice")

	require.NoError(t, svc.Credit(context.Background(), "alice", 0, "noop"))

	balance, earned := balanceOf(t, db, "alice")
	assert.Zero(t, balance)
	assert.Zero(t, earned)
}

func TestCreditNegativeRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)
	seedUser(t, db, "alice")

	err := svc.Credit(context.Background(), "alice", -10, "bad")
	require.ErrorIs(t, err, ErrInvalidAmount)

	balance, earned := balanceOf(t, db, "alice")
	assert.Zero(t, balance)
	assert.Zero(t, earned)
}

func TestCreditUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)

	err := svc.Credit(context.Background(), "ghost", 100, "nope")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetBalance(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)
	seedUser(t, db, "alice")

	require.NoError(t, svc.Credit(context.Background(), "alice", 42, "test"))

	balance, err := svc.GetBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance)

	_, err = svc.GetBalance(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}
