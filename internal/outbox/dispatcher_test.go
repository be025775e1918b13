package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skrasekmichael/teamup/internal/integration"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Insert(ctx context.Context, tx *sqlx.Tx, rec Record) error {
	return m.Called(ctx, tx, rec).Error(0)
}

func (m *mockStore) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	args := m.Called(ctx, limit)
	recs, _ := args.Get(0).([]Record)
	return recs, args.Error(1)
}

func (m *mockStore) MarkProcessed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) MarkFailed(ctx context.Context, id string, cause string, nextAttempt time.Time) error {
	return m.Called(ctx, id, cause, nextAttempt).Error(0)
}

func (m *mockStore) MarkTerminal(ctx context.Context, id string, cause string) error {
	return m.Called(ctx, id, cause).Error(0)
}

func (m *mockStore) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev integration.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func emailRecord(t *testing.T, id string, failCount int) Record {
	t.Helper()
	data, err := json.Marshal(integration.EmailCreated{To: "a@b.c", Subject: "s", Body: "b"})
	require.NoError(t, err)
	now := time.Now().UTC()
	return Record{
		ID:               id,
		CreatedAt:        now,
		Type:             integration.TypeEmailCreated,
		Data:             data,
		FailCount:        failCount,
		NextProcessingAt: &now,
	}
}

func TestDispatcher_RunBatch_Success(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)
	rec := emailRecord(t, "R1", 0)

	store.On("FetchPending", mock.Anything, 50).Return([]Record{rec}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("integration.EmailCreated")).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, "R1").Return(nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(context.Background())

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDispatcher_RunBatch_EmptyBatch(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)

	store.On("FetchPending", mock.Anything, 50).Return([]Record(nil), nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(context.Background())

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDispatcher_RunBatch_UnknownTypeIsTerminal(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)

	rec := emailRecord(t, "R1", 0)
	rec.Type = "ghost.event"

	store.On("FetchPending", mock.Anything, 50).Return([]Record{rec}, nil).Once()
	store.On("MarkTerminal", mock.Anything, "R1", mock.Anything).Return(nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(context.Background())

	store.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDispatcher_RunBatch_UndecodablePayloadIsTerminal(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)

	rec := emailRecord(t, "R1", 0)
	rec.Data = []byte("{not json")

	store.On("FetchPending", mock.Anything, 50).Return([]Record{rec}, nil).Once()
	store.On("MarkTerminal", mock.Anything, "R1", mock.Anything).Return(nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(context.Background())

	store.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDispatcher_RunBatch_PublishFailureBacksOff(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)
	rec := emailRecord(t, "R1", 2)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.On("FetchPending", mock.Anything, 50).Return([]Record{rec}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	// fail_count 2 with a 30s base means the next attempt is 30s << 2 away
	store.On("MarkFailed", mock.Anything, "R1", "broker down", base.Add(120*time.Second)).Return(nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.now = func() time.Time { return base }
	d.RunBatch(context.Background())

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestDispatcher_RunBatch_PoisonRowDoesNotBlockOthers(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)

	poison := emailRecord(t, "BAD", 0)
	poison.Type = "ghost.event"
	healthy := emailRecord(t, "OK", 0)

	store.On("FetchPending", mock.Anything, 50).Return([]Record{poison, healthy}, nil).Once()
	store.On("MarkTerminal", mock.Anything, "BAD", mock.Anything).Return(nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, "OK").Return(nil).Once()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(context.Background())

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestDispatcher_RunBatch_CancelledContextLeavesRows(t *testing.T) {
	store := new(mockStore)
	publisher := new(mockPublisher)

	store.On("FetchPending", mock.Anything, 50).
		Return([]Record{emailRecord(t, "R1", 0)}, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(store, publisher, integration.DefaultRegistry(), Config{}, zap.NewNop())
	d.RunBatch(ctx)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Backoff(t *testing.T) {
	d := NewDispatcher(new(mockStore), new(mockPublisher), integration.DefaultRegistry(),
		Config{BackoffBase: 30 * time.Second, BackoffMaxDoubls: 6}, zap.NewNop())

	assert.Equal(t, 30*time.Second, d.backoff(0))
	assert.Equal(t, 60*time.Second, d.backoff(1))
	assert.Equal(t, 8*time.Minute, d.backoff(4))
	// cap: from 6 doublings onward the delay stays flat
	assert.Equal(t, 32*time.Minute, d.backoff(6))
	assert.Equal(t, 32*time.Minute, d.backoff(50))
}
