package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/datasynth/entity"
	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/publish"
	"github.com/c360/datasynth/transport"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		entity   entity.Entity
		topic    string
		routable bool
	}{
		{&entity.Transaction{}, TopicTransactions, true},
		{&entity.CardTransaction{}, TopicCardTransactions, true},
		{&entity.Trade{}, TopicTrades, true},
		{&entity.Installment{}, TopicInstallments, true},
		{&entity.Customer{}, "", false},
		{&entity.Account{}, "", false},
	}

	for _, test := range tests {
		topic, ok := Route(test.entity)
		assert.Equal(t, test.routable, ok, "%s", test.entity.EntityType())
		assert.Equal(t, test.topic, topic)
	}
}

func TestTopics(t *testing.T) {
	assert.Len(t, Topics(), 4)
}

// testPipeline wires every event topic to its own in-memory transport.
func testPipeline(t *testing.T, options ...CoordinatorOption) (*Coordinator, map[string]*transport.Memory) {
	t.Helper()

	transports := make(map[string]*transport.Memory)
	channels := make(map[string]*publish.Channel)
	for _, topic := range Topics() {
		tr := transport.NewMemory()
		transports[topic] = tr
		channels[topic] = publish.NewChannel(topic, tr)
	}

	c, err := NewCoordinator(channels, options...)
	require.NoError(t, err)
	return c, transports
}

func TestCoordinator_SubmitBeforeStart(t *testing.T) {
	c, _ := testPipeline(t)

	err := c.Submit(&entity.Transaction{TransactionID: "txn-1", AccountID: "acc-1"})
	assert.ErrorIs(t, err, cerrors.ErrNotStarted)
}

func TestCoordinator_RejectsUnroutableEntity(t *testing.T) {
	c, _ := testPipeline(t)
	require.NoError(t, c.Start(context.Background()))
	defer c.Shutdown(context.Background())

	err := c.Submit(&entity.Customer{CustomerID: "cust-1"})
	assert.True(t, cerrors.IsInvalid(err))
}

func TestCoordinator_RoutesToTopicTransport(t *testing.T) {
	c, transports := testPipeline(t)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Submit(&entity.Transaction{TransactionID: "txn-1", AccountID: "acc-1"}))
	require.NoError(t, c.Submit(&entity.Trade{TradeID: "trade-1", AccountID: "acc-2"}))

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Submitted)
	assert.Equal(t, int64(2), summary.Acked)

	assert.Len(t, transports[TopicTransactions].Delivered(), 1)
	assert.Len(t, transports[TopicTrades].Delivered(), 1)
	assert.Empty(t, transports[TopicInstallments].Delivered())
}

func TestCoordinator_ShutdownAccounting(t *testing.T) {
	c, _ := testPipeline(t, WithQueueCapacity(2048), WithTransferBatch(256))
	require.NoError(t, c.Start(context.Background()))

	const perTopic = 2500
	for i := 0; i < perTopic; i++ {
		require.NoError(t, c.Submit(&entity.Transaction{
			TransactionID: fmt.Sprintf("txn-%d", i),
			AccountID:     fmt.Sprintf("acc-%d", i%50),
		}))
		require.NoError(t, c.Submit(&entity.CardTransaction{
			TransactionID: fmt.Sprintf("ctx-%d", i),
			CardID:        fmt.Sprintf("card-%d", i%50),
		}))
		require.NoError(t, c.Submit(&entity.Trade{
			TradeID:   fmt.Sprintf("trade-%d", i),
			AccountID: fmt.Sprintf("acc-%d", i%50),
		}))
		require.NoError(t, c.Submit(&entity.Installment{
			InstallmentID: fmt.Sprintf("inst-%d", i),
			LoanID:        fmt.Sprintf("loan-%d", i%50),
		}))
	}

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4*perTopic), summary.Submitted)
	assert.Equal(t, summary.Submitted, summary.Acked+summary.Failed)
	assert.Equal(t, int64(0), summary.Failed)

	for _, ts := range summary.Topics {
		assert.Equal(t, int64(perTopic), ts.Submitted, ts.Topic)
		assert.Equal(t, ts.Submitted, ts.Acked+ts.Failed, ts.Topic)
	}
}

func TestCoordinator_StagedTasksSurviveShutdown(t *testing.T) {
	c, transports := testPipeline(t, WithTransferBatch(64))
	require.NoError(t, c.Start(context.Background()))

	// Fewer submissions than one transfer batch stay staged until shutdown
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Submit(&entity.Transaction{
			TransactionID: fmt.Sprintf("txn-%d", i),
			AccountID:     "acc-1",
		}))
	}

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Submitted)
	assert.Equal(t, int64(3), summary.Acked)
	assert.Len(t, transports[TopicTransactions].Delivered(), 3)
}

func TestCoordinator_TransferBatchBoundary(t *testing.T) {
	c, transports := testPipeline(t, WithTransferBatch(4))
	require.NoError(t, c.Start(context.Background()))

	for i := 0; i < 9; i++ {
		require.NoError(t, c.Submit(&entity.Transaction{
			TransactionID: fmt.Sprintf("txn-%d", i),
			AccountID:     "acc-1",
		}))
	}

	// Two full batches cross to the sender right away; the ninth stays staged
	tr := transports[TopicTransactions]
	require.Eventually(t, func() bool { return tr.Outstanding() == 8 },
		time.Second, 5*time.Millisecond)

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), summary.Submitted)
	assert.Equal(t, int64(9), summary.Acked)
	assert.Len(t, tr.Delivered(), 9)
}

func TestCoordinator_ParallelSenders(t *testing.T) {
	c, transports := testPipeline(t, WithSenders(4), WithTransferBatch(16))
	require.NoError(t, c.Start(context.Background()))

	const total = 500
	for i := 0; i < total; i++ {
		require.NoError(t, c.Submit(&entity.Transaction{
			TransactionID: fmt.Sprintf("txn-%d", i),
			AccountID:     fmt.Sprintf("acc-%d", i%20),
		}))
	}

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(total), summary.Submitted)
	assert.Equal(t, summary.Submitted, summary.Acked+summary.Failed)
	assert.Equal(t, int64(0), summary.Failed)
	assert.Len(t, transports[TopicTransactions].Delivered(), total)
}

func TestCoordinator_DeliveryFailuresInSummary(t *testing.T) {
	c, transports := testPipeline(t)
	require.NoError(t, c.Start(context.Background()))

	transports[TopicTransactions].FailNext(errors.New("no responders"))
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Submit(&entity.Transaction{
			TransactionID: fmt.Sprintf("txn-%d", i),
			AccountID:     "acc-1",
		}))
	}

	summary, err := c.Shutdown(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), summary.Submitted)
	assert.Equal(t, int64(4), summary.Acked)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, summary.Submitted, summary.Acked+summary.Failed)
}

func TestCoordinator_ShutdownIdempotent(t *testing.T) {
	c, _ := testPipeline(t)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Submit(&entity.Transaction{TransactionID: "txn-1", AccountID: "acc-1"}))

	first, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	second, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Intake stays closed after shutdown
	err = c.Submit(&entity.Transaction{TransactionID: "txn-2", AccountID: "acc-1"})
	assert.ErrorIs(t, err, cerrors.ErrShuttingDown)
}

func TestNewCoordinator_RequiresChannels(t *testing.T) {
	_, err := NewCoordinator(nil)
	assert.True(t, cerrors.IsInvalid(err))
}

func TestCoordinator_DoubleStart(t *testing.T) {
	c, _ := testPipeline(t)
	require.NoError(t, c.Start(context.Background()))
	defer c.Shutdown(context.Background())

	assert.ErrorIs(t, c.Start(context.Background()), cerrors.ErrAlreadyStarted)
}
