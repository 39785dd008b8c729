package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/c360/datasynth/errors"
)

// The package-level compile checks keep every transport on the interface.
var (
	_ Transport = (*Memory)(nil)
	_ Transport = (*JetStream)(nil)
	_ Transport = (*Core)(nil)
)

func TestMemory_PublishAndPoll(t *testing.T) {
	tr := NewMemory()

	var mu sync.Mutex
	var acked int
	tr.SetDeliveryCallback(func(_ string, _ []byte, err error) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, err)
		acked++
	})

	require.NoError(t, tr.Publish("banking.transactions", []byte("acc-1"), []byte("{}"), nil))
	require.NoError(t, tr.Publish("banking.transactions", []byte("acc-2"), []byte("{}"), nil))
	assert.Equal(t, 2, tr.Outstanding())

	assert.Equal(t, 2, tr.Poll(0))
	assert.Equal(t, 0, tr.Outstanding())
	assert.Equal(t, 2, acked)
	assert.Len(t, tr.Delivered(), 2)
}

func TestMemory_RejectNext(t *testing.T) {
	tr := NewMemory()
	tr.RejectNext(2)

	err := tr.Publish("banking.trades", nil, []byte("{}"), nil)
	assert.ErrorIs(t, err, cerrors.ErrBufferFull)
	err = tr.Publish("banking.trades", nil, []byte("{}"), nil)
	assert.ErrorIs(t, err, cerrors.ErrBufferFull)

	require.NoError(t, tr.Publish("banking.trades", nil, []byte("{}"), nil))
}

func TestMemory_BoundedWindow(t *testing.T) {
	tr := NewMemory()
	tr.SetMaxPending(1)

	require.NoError(t, tr.Publish("banking.installments", nil, []byte("{}"), nil))
	assert.ErrorIs(t, tr.Publish("banking.installments", nil, []byte("{}"), nil), cerrors.ErrBufferFull)

	tr.Poll(0)
	require.NoError(t, tr.Publish("banking.installments", nil, []byte("{}"), nil))
}

func TestMemory_ScriptedFailures(t *testing.T) {
	tr := NewMemory()
	brokerErr := errors.New("no responders")
	tr.FailNext(brokerErr, nil)

	var outcomes []error
	tr.SetDeliveryCallback(func(_ string, _ []byte, err error) {
		outcomes = append(outcomes, err)
	})

	require.NoError(t, tr.Publish("banking.transactions", nil, []byte("a"), nil))
	require.NoError(t, tr.Publish("banking.transactions", nil, []byte("b"), nil))
	tr.Poll(0)

	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, outcomes[0], brokerErr)
	assert.NoError(t, outcomes[1])

	// Only the successful delivery lands
	assert.Len(t, tr.Delivered(), 1)
}

func TestMemory_CloseDrains(t *testing.T) {
	tr := NewMemory()
	require.NoError(t, tr.Publish("banking.trades", nil, []byte("{}"), nil))

	assert.True(t, tr.Close(time.Second))
	assert.Equal(t, 0, tr.Outstanding())
}

func TestMemory_HeadersPreserved(t *testing.T) {
	tr := NewMemory()
	headers := map[string]string{
		"ce_specversion": "1.0",
		"ce_type":        "com.financial.transaction.created.v1",
	}

	require.NoError(t, tr.Publish("banking.transactions", []byte("acc-1"), []byte("{}"), headers))
	tr.Poll(0)

	delivered := tr.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, "1.0", delivered[0].Headers["ce_specversion"])
	assert.Equal(t, []byte("acc-1"), delivered[0].Key)
}

func TestNewJetStream_NilClient(t *testing.T) {
	_, err := NewJetStream(nil)
	assert.True(t, cerrors.IsInvalid(err))
}

func TestNewCore_NilClient(t *testing.T) {
	_, err := NewCore(nil)
	assert.True(t, cerrors.IsInvalid(err))
}

func TestNatsHeader(t *testing.T) {
	assert.Nil(t, natsHeader(nil))

	h := natsHeader(map[string]string{"ce_id": "abc"})
	assert.Equal(t, "abc", h.Get("ce_id"))
}
