package session

import (
	"context"
	"testing"
	"time"

	"soulseer/models"
	"soulseer/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSessionDeclinedHoldCreatesNothing(t *testing.T) {
	gw := &fakeGateway{authorizeErr: payment.ErrInsufficientFunds}
	mgr, repo, _, registry := newTestManager(gw)

	sess, err := mgr.RequestSession(context.Background(), "client_1", "reader_1", models.SessionTypeChat, 399)
	require.ErrorIs(t, err, payment.ErrInsufficientFunds)
	assert.Nil(t, sess)
	assert.Equal(t, 0, registry.Len(), "no session may exist without an authorized hold")

	stored, err := repo.GetByID(context.Background(), "any")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestStartSessionTransitions(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, _, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypePhone, 499)
	require.NoError(t, err)
	require.Equal(t, models.SessionPending, sess.Status)

	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	// Starting an already Active session is a no-op.
	require.NoError(t, mgr.StartSession(ctx, sess.ID))

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, got.Status)

	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))
	// A terminal session cannot be restarted.
	assert.ErrorIs(t, mgr.StartSession(ctx, sess.ID), ErrInvalidTransition)
}

func TestStartUnknownSession(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, _, _ := newTestManager(gw)
	assert.ErrorIs(t, mgr.StartSession(context.Background(), "nope"), ErrSessionNotFound)
}

func TestEndSessionIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.Advance(65 * time.Second)

	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))
	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonReaderEnded))
	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))

	assert.Len(t, gw.captured(), 1, "double end must not double charge")

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonClientEnded, got.EndReason, "first end wins")
}

func TestEndSessionSettlesExactCost(t *testing.T) {
	gw := &fakeGateway{}
	mgr, repo, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.Advance(125 * time.Second)

	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))

	assert.Equal(t, []int64{831}, gw.captured())
	assert.Equal(t, []int64{3990 - 831}, gw.released(), "unused hold returned in full")

	rec, ok := repo.Settlement(sess.ID)
	require.True(t, ok)
	assert.Equal(t, int64(831), rec.Captured)
	assert.Equal(t, int64(3990-831), rec.Released)
	assert.False(t, rec.Failed)
}

func TestCancelBeforeStartReleasesFullHold(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, _, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeVideo, 699)
	require.NoError(t, err)

	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientCancelled))

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, got.Status)
	assert.Zero(t, got.AccruedCost)

	assert.Empty(t, gw.captured(), "nothing accrued, nothing captured")
	assert.Equal(t, []int64{6990}, gw.released())
}

func TestPendingSessionTimesOutAndReleasesHold(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)

	// Nobody starts the session; the timeout cancels it and frees the hold.
	clock.Advance(5 * time.Minute)

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, got.Status)
	assert.Equal(t, ReasonPendingExpired, got.EndReason)
	assert.Empty(t, gw.captured())
	assert.Equal(t, []int64{3990}, gw.released(), "the full hold comes back")
}

func TestPendingTimeoutIgnoresStartedSession(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.BlockUntilTickers(1)

	clock.Advance(5 * time.Minute)

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, got.Status, "an active session outlives the pending timeout")
	assert.Empty(t, gw.released())
}

func TestCaptureRetriesThenSucceeds(t *testing.T) {
	gw := &fakeGateway{failCaptures: 2}
	mgr, repo, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.Advance(60 * time.Second)

	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))

	assert.Equal(t, []int64{399}, gw.captured())
	rec, ok := repo.Settlement(sess.ID)
	require.True(t, ok)
	assert.Equal(t, 3, rec.RetryCount)
}

func TestCaptureExhaustionMarksFailed(t *testing.T) {
	gw := &fakeGateway{captureErr: payment.ErrCaptureFailed}
	mgr, repo, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.Advance(60 * time.Second)

	err = mgr.EndSession(ctx, sess.ID, ReasonClientEnded)
	require.ErrorIs(t, err, payment.ErrCaptureFailed)

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, got.Status)
	assert.Equal(t, int64(399), got.AccruedCost, "accrued cost retained for reconciliation")

	rec, ok := repo.Settlement(sess.ID)
	require.True(t, ok)
	assert.True(t, rec.Failed)
	assert.NotEmpty(t, rec.Error)
}
