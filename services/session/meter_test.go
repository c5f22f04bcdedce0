package session

import (
	"context"
	"testing"
	"time"

	"soulseer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProratedCost(t *testing.T) {
	cases := []struct {
		name    string
		elapsed int64
		rate    int64
		want    int64
	}{
		{"zero elapsed", 0, 399, 0},
		{"zero rate", 60, 0, 0},
		{"exact minute", 60, 399, 399},
		{"half minute rounds half-up", 30, 399, 200}, // 199.5 -> 200
		{"two minutes five seconds", 125, 399, 831},  // 831.25 -> 831
		{"ten minutes", 600, 399, 3990},
		{"one second", 1, 699, 12}, // 11.65 -> 12
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProratedCost(tc.elapsed, tc.rate))
		})
	}
}

func TestMeterAccruesFromWallClock(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.BlockUntilTickers(1)

	clock.Advance(125 * time.Second)

	require.Eventually(t, func() bool {
		got, err := mgr.GetSession(ctx, sess.ID)
		return err == nil && got.AccruedCost == 831
	}, time.Second, 5*time.Millisecond, "cost should track elapsed wall-clock time")

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, got.Status)
}

func TestMeterClampsAtFundingCapAndEndsSession(t *testing.T) {
	gw := &fakeGateway{}
	mgr, repo, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeChat, 399)
	require.NoError(t, err)
	require.Equal(t, int64(3990), sess.FundingCap)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))
	clock.BlockUntilTickers(1)

	// Run well past the point where the projected cost exceeds the cap.
	clock.Advance(610 * time.Second)

	require.Eventually(t, func() bool {
		got, err := mgr.GetSession(ctx, sess.ID)
		return err == nil && got.Terminal()
	}, time.Second, 5*time.Millisecond, "exhausted session should end itself")

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, got.Status)
	assert.Equal(t, ReasonFundingExhausted, got.EndReason)
	assert.Equal(t, int64(3990), got.AccruedCost, "cost never exceeds the funding cap")

	assert.Equal(t, []int64{3990}, gw.captured(), "full cap captured")
	assert.Empty(t, gw.released(), "nothing left to release")

	rec, ok := repo.Settlement(sess.ID)
	require.True(t, ok)
	assert.Equal(t, int64(3990), rec.Captured)
}

func TestMeterStopsOnEnd(t *testing.T) {
	gw := &fakeGateway{}
	mgr, _, clock, _ := newTestManager(gw)
	ctx := context.Background()

	sess, err := mgr.RequestSession(ctx, "client_1", "reader_1", models.SessionTypeVideo, 699)
	require.NoError(t, err)
	require.NoError(t, mgr.StartSession(ctx, sess.ID))

	clock.Advance(60 * time.Second)
	require.NoError(t, mgr.EndSession(ctx, sess.ID, ReasonClientEnded))

	got, err := mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	final := got.AccruedCost
	assert.Equal(t, int64(699), final)

	// Time marching on must not change a terminal session's cost.
	clock.Advance(5 * time.Minute)
	got, err = mgr.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, final, got.AccruedCost)
}
