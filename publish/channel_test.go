package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/datasynth/entity"
	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/transport"
)

func testTask(t *testing.T, topic string) Task {
	t.Helper()
	task, err := NewTask(topic, &entity.Transaction{
		TransactionID:   "txn-1",
		AccountID:       "acc-1",
		TransactionType: "PIX",
		AmountCents:     100_00,
	})
	require.NoError(t, err)
	return task
}

func TestNewTask_KeyAndPayload(t *testing.T) {
	task := testTask(t, "banking.transactions")

	assert.Equal(t, "banking.transactions", task.Topic)
	assert.Equal(t, []byte("acc-1"), task.Key)
	assert.Contains(t, string(task.Payload), `"transaction_id":"txn-1"`)
}

func TestChannel_SendAndAck(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr)

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	}
	tr.Poll(0)

	stats := ch.Stats()
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(3), stats.Acked)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestChannel_DrainRetryOnBackpressure(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr, WithRetryCeiling(5))

	// Three full-buffer rejections force exactly three drain cycles
	tr.RejectNext(3)
	require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	assert.Equal(t, int64(1), ch.Stats().Sent)
	assert.Equal(t, 3, tr.PollCalls())
}

func TestChannel_RetryCeilingExhausted(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr, WithRetryCeiling(3))

	tr.RejectNext(10)
	err := ch.Send(testTask(t, "banking.transactions"))

	var pubErr *PublishFailedError
	require.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "banking.transactions", pubErr.Topic)
	assert.Equal(t, 4, pubErr.Attempts)
	assert.ErrorIs(t, err, cerrors.ErrBufferFull)
	assert.Equal(t, int64(0), ch.Stats().Sent)
}

func TestChannel_DeliveryFailuresCounted(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.trades", tr)
	tr.FailNext(errors.New("no responders"), nil)

	require.NoError(t, ch.Send(testTask(t, "banking.trades")))
	require.NoError(t, ch.Send(testTask(t, "banking.trades")))
	tr.Poll(0)

	stats := ch.Stats()
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Acked)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestChannel_PeriodicPoll(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr, WithPollInterval(10))

	for i := 0; i < 25; i++ {
		require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	}

	// Two poll cycles at 10 and 20 sends leave only the tail outstanding
	assert.Equal(t, 5, tr.Outstanding())
	assert.Equal(t, int64(20), ch.Stats().Acked)
}

func TestChannel_CloudEventsHeaders(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr)

	require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	tr.Poll(0)

	delivered := tr.Delivered()
	require.Len(t, delivered, 1)

	headers := delivered[0].Headers
	assert.Equal(t, "1.0", headers["ce_specversion"])
	assert.Equal(t, "com.financial.transaction.created.v1", headers["ce_type"])
	assert.Equal(t, "/financial/banking/transactions", headers["ce_source"])
	assert.Equal(t, "application/json", headers["content-type"])
	assert.Equal(t, "acc-1", headers["ce_subject"])
	assert.Len(t, headers["ce_id"], 32)
	assert.NotEmpty(t, headers["ce_time"])
}

func TestChannel_CloudEventsDisabled(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr, WithCloudEvents(false))

	require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	tr.Poll(0)

	delivered := tr.Delivered()
	require.Len(t, delivered, 1)
	assert.Empty(t, delivered[0].Headers)
}

func TestChannel_Flush(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr)

	require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	require.NoError(t, ch.Flush(context.Background()))

	stats := ch.Stats()
	assert.Equal(t, stats.Sent, stats.Acked)
}

func TestChannel_FlushTimeoutOptions(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr,
		WithFlushTimeouts(5*time.Second, 12*time.Second),
		WithFlushScale(2))

	assert.Equal(t, 5*time.Second, ch.FlushTimeout())

	// Ten sends at scale two add five seconds to the base
	for i := 0; i < 10; i++ {
		require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	}
	assert.Equal(t, 10*time.Second, ch.FlushTimeout())

	// Twenty sends want fifteen seconds but hit the configured cap
	for i := 0; i < 10; i++ {
		require.NoError(t, ch.Send(testTask(t, "banking.transactions")))
	}
	assert.Equal(t, 12*time.Second, ch.FlushTimeout())
}

func TestChannel_FlushTimeoutDefaults(t *testing.T) {
	tr := transport.NewMemory()
	ch := NewChannel("banking.transactions", tr)

	assert.Equal(t, FlushTimeout(0), ch.FlushTimeout())
	assert.Equal(t, DefaultFlushBase, ch.FlushTimeout())
}

func TestFlushTimeout_Scaling(t *testing.T) {
	assert.Equal(t, 30*time.Second, FlushTimeout(0))
	assert.Equal(t, 30*time.Second, FlushTimeout(9999))
	assert.Equal(t, 40*time.Second, FlushTimeout(100_000))
	assert.Equal(t, 300*time.Second, FlushTimeout(3_000_000))
	assert.Equal(t, 300*time.Second, FlushTimeout(100_000_000))

	// Monotonic in sent count
	prev := time.Duration(0)
	for _, sent := range []int64{0, 50_000, 500_000, 5_000_000} {
		timeout := FlushTimeout(sent)
		assert.GreaterOrEqual(t, timeout, prev)
		prev = timeout
	}
}
