package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"soulseer/models"
	"soulseer/services/payment"
	"soulseer/services/rates"
	"soulseer/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubSessions satisfies session.LifecycleService for dispatcher tests.
type stubSessions struct {
	mu      sync.Mutex
	err     error
	created int
}

func (s *stubSessions) RequestSession(ctx context.Context, clientID, readerID, sessionType string, rate int64) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created++
	return &models.Session{
		ID:            fmt.Sprintf("sess_%d", s.created),
		ClientID:      clientID,
		ReaderID:      readerID,
		SessionType:   sessionType,
		RatePerMinute: rate,
		Status:        models.SessionPending,
	}, nil
}

func (s *stubSessions) StartSession(ctx context.Context, sessionID string) error       { return nil }
func (s *stubSessions) EndSession(ctx context.Context, sessionID, reason string) error { return nil }
func (s *stubSessions) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return nil, nil
}
func (s *stubSessions) Subscribe(sessionID string) (<-chan models.BillingUpdate, func(), error) {
	return nil, nil, nil
}

func newTestDispatcher(t *testing.T, sessions *stubSessions) (*DefaultDispatcher, *utils.FakeClock) {
	t.Helper()
	clock := utils.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	catalog, err := rates.NewCatalog(nil)
	require.NoError(t, err)
	d := NewDispatcher(sessions, catalog, nil, nil, clock, utils.UUIDGenerator(), zap.NewNop(), 2*time.Minute)
	return d, clock
}

func TestSendRequestRejectsUnknownType(t *testing.T) {
	d, _ := newTestDispatcher(t, &stubSessions{})
	_, err := d.SendReadingRequest(context.Background(), "client_1", "reader_1", "palm", "asap", "")
	assert.Error(t, err)
}

func TestAcceptRequestExactlyOnce(t *testing.T) {
	sessions := &stubSessions{}
	d, _ := newTestDispatcher(t, sessions)
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "asap", "hi")
	require.NoError(t, err)
	require.Equal(t, models.RequestOpen, req.Status)

	sess, err := d.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "client_1", sess.ClientID)
	assert.Equal(t, int64(399), sess.RatePerMinute)

	_, err = d.AcceptRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)
	assert.Equal(t, 1, sessions.created, "a request creates at most one session")

	got, err := d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, got.Status)
	assert.Equal(t, sess.ID, got.SessionID)
}

func TestExpiredRequestNeverAccepted(t *testing.T) {
	sessions := &stubSessions{}
	d, clock := newTestDispatcher(t, sessions)
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)

	_, err = d.AcceptRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)
	assert.Zero(t, sessions.created)

	got, err := d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExpired, got.Status)
}

func TestExpiryIsLazyOnRead(t *testing.T) {
	d, clock := newTestDispatcher(t, &stubSessions{})
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypePhone, "", "")
	require.NoError(t, err)

	// One second before the deadline the request is still open.
	clock.Advance(2*time.Minute - time.Second)
	got, err := d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestOpen, got.Status)

	clock.Advance(time.Second)
	got, err = d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExpired, got.Status)
}

func TestDeclineRequest(t *testing.T) {
	d, _ := newTestDispatcher(t, &stubSessions{})
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)

	require.NoError(t, d.DeclineRequest(ctx, req.ID))
	assert.ErrorIs(t, d.DeclineRequest(ctx, req.ID), ErrRequestClosed)

	_, err = d.AcceptRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)
}

func TestAcceptFailureLeavesRequestOpen(t *testing.T) {
	sessions := &stubSessions{err: payment.ErrInsufficientFunds}
	d, _ := newTestDispatcher(t, sessions)
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)

	_, err = d.AcceptRequest(ctx, req.ID)
	require.ErrorIs(t, err, payment.ErrInsufficientFunds)

	got, err := d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestOpen, got.Status, "failed acceptance may be retried until expiry")

	// Once the hold goes through, acceptance succeeds.
	sessions.mu.Lock()
	sessions.err = nil
	sessions.mu.Unlock()
	sess, err := d.AcceptRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
}

func TestExpireIfDueSweepsOverdueRequests(t *testing.T) {
	d, clock := newTestDispatcher(t, &stubSessions{})
	ctx := context.Background()

	req, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)

	// Sweeping before the deadline changes nothing.
	require.NoError(t, d.ExpireIfDue(ctx, req.ID))
	got, err := d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestOpen, got.Status)

	clock.Advance(2 * time.Minute)
	require.NoError(t, d.ExpireIfDue(ctx, req.ID))
	got, err = d.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExpired, got.Status)

	// A sweep for a long-gone request is not an error.
	require.NoError(t, d.ExpireIfDue(ctx, "vanished"))
}

func TestTerminalRequestsEvictedFromTable(t *testing.T) {
	sessions := &stubSessions{}
	d, clock := newTestDispatcher(t, sessions)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 50; i++ {
		req, err := d.SendReadingRequest(ctx, fmt.Sprintf("client_%d", i), "reader_1", models.SessionTypeChat, "", "")
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}
	require.Equal(t, 50, d.Len())

	// Let everything expire and run the sweep over each request.
	clock.Advance(24 * time.Hour)
	for _, id := range ids {
		require.NoError(t, d.ExpireIfDue(ctx, id))
	}
	require.Equal(t, 50, d.Len(), "terminal requests linger one retention window")

	// Eviction timers fire one TTL after the terminal transition.
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, d.Len(), "terminal requests must leave the table")
}

func TestAcceptedAndDeclinedRequestsEvicted(t *testing.T) {
	sessions := &stubSessions{}
	d, clock := newTestDispatcher(t, sessions)
	ctx := context.Background()

	accepted, err := d.SendReadingRequest(ctx, "client_1", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)
	declined, err := d.SendReadingRequest(ctx, "client_2", "reader_1", models.SessionTypeChat, "", "")
	require.NoError(t, err)

	_, err = d.AcceptRequest(ctx, accepted.ID)
	require.NoError(t, err)
	require.NoError(t, d.DeclineRequest(ctx, declined.ID))
	require.Equal(t, 2, d.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, d.Len())
}
