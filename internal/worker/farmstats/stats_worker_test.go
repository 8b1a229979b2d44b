package farmstats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/worker"
	"github.com/talhao-editor/internal/worker/farmstats"
)

const group = "farm-stats-workers"

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) Pending(ctx context.Context, stream, group string) (int64, error) {
	args := m.Called(ctx, stream, group)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockStatsRefresher is a mock of StatsRefresher
type MockStatsRefresher struct {
	mock.Mock
}

func (m *MockStatsRefresher) RefreshOwnerStats(ctx context.Context) (*domain.OwnerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerStats), args.Error(1)
}

func savedMessage(t *testing.T, id string, farmID int64) domain.StreamMessage {
	t.Helper()

	data, err := json.Marshal(domain.FarmSavedEvent{
		EventID: uuid.New(),
		FarmID:  farmID,
		Owner:   "Maria",
		AreaHa:  120,
		Parcels: 4,
		SavedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func startWorker(t *testing.T, w *farmstats.Worker) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	return cancel, done
}

func TestWorker_Name(t *testing.T) {
	w := farmstats.NewWorker(&MockStreamRepository{}, &MockStatsRefresher{}, group, 3, zap.NewNop())

	assert.Equal(t, "farm-stats", w.Name())
	assert.Equal(t, domain.StreamFarmSaved, w.Stream())
	assert.Equal(t, group, w.ConsumerGroup())
}

func TestWorker_RefreshesAndAcks(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	stats := &MockStatsRefresher{}
	w := farmstats.NewWorker(streamRepo, stats, group, 3, zap.NewNop())

	msgs := make(chan domain.StreamMessage, 2)
	msgs <- savedMessage(t, "1-0", 7)
	msgs <- domain.StreamMessage{ID: "2-0", Data: "not json"}

	acked := make(chan string, 2)
	streamRepo.On("CreateConsumerGroup", mock.Anything, domain.StreamFarmSaved, group).Return(nil)
	streamRepo.On("Pending", mock.Anything, domain.StreamFarmSaved, group).Return(int64(0), nil)
	streamRepo.On("ConsumeStream", mock.Anything, domain.StreamFarmSaved, group, mock.Anything).
		Return((<-chan domain.StreamMessage)(msgs), nil)
	streamRepo.On("AckMessage", mock.Anything, domain.StreamFarmSaved, group, mock.Anything).
		Run(func(args mock.Arguments) { acked <- args.String(3) }).
		Return(nil)
	stats.On("RefreshOwnerStats", mock.Anything).Return(&domain.OwnerStats{FarmCount: 1, TotalHa: 120}, nil).Once()

	cancel, done := startWorker(t, w)
	defer cancel()

	for _, want := range []string{"1-0", "2-0"} {
		select {
		case id := <-acked:
			assert.Equal(t, want, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %s was not acked", want)
		}
	}

	require.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	stats.AssertExpectations(t)
}

func TestWorker_RetriesThenLeavesPending(t *testing.T) {
	defer farmstats.SetRetryDelay(time.Millisecond)()

	streamRepo := &MockStreamRepository{}
	stats := &MockStatsRefresher{}
	w := farmstats.NewWorker(streamRepo, stats, group, 2, zap.NewNop())

	msgs := make(chan domain.StreamMessage, 1)
	msgs <- savedMessage(t, "3-0", 9)

	called := make(chan struct{}, 2)
	streamRepo.On("CreateConsumerGroup", mock.Anything, domain.StreamFarmSaved, group).Return(nil)
	streamRepo.On("Pending", mock.Anything, domain.StreamFarmSaved, group).Return(int64(0), nil)
	streamRepo.On("ConsumeStream", mock.Anything, domain.StreamFarmSaved, group, mock.Anything).
		Return((<-chan domain.StreamMessage)(msgs), nil)
	stats.On("RefreshOwnerStats", mock.Anything).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(nil, errors.New("db down"))

	cancel, done := startWorker(t, w)

	for i := 0; i < 2; i++ {
		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("refresh was not retried")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	streamRepo.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_ConsumerGroupFailure(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	w := farmstats.NewWorker(streamRepo, &MockStatsRefresher{}, group, 1, zap.NewNop())

	streamRepo.On("CreateConsumerGroup", mock.Anything, domain.StreamFarmSaved, group).Return(errors.New("redis down"))

	err := w.Start(context.Background())
	assert.Error(t, err)
}

func TestWorkerManager_StartStop(t *testing.T) {
	streamRepo := &MockStreamRepository{}
	msgs := make(chan domain.StreamMessage)
	streamRepo.On("CreateConsumerGroup", mock.Anything, domain.StreamFarmSaved, group).Return(nil)
	streamRepo.On("Pending", mock.Anything, domain.StreamFarmSaved, group).Return(int64(0), nil)
	streamRepo.On("ConsumeStream", mock.Anything, domain.StreamFarmSaved, group, mock.Anything).
		Return((<-chan domain.StreamMessage)(msgs), nil)

	m := worker.NewWorkerManager(zap.NewNop())
	m.SetShutdownTimeout(2 * time.Second)
	m.Register(farmstats.NewWorker(streamRepo, &MockStatsRefresher{}, group, 1, zap.NewNop()))
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Start(context.Background()))
	assert.NoError(t, m.Stop())
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}
