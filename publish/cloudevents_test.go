package publish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderBuilder_KnownTopics(t *testing.T) {
	b := NewHeaderBuilder()

	tests := []struct {
		topic     string
		eventType string
		source    string
	}{
		{"banking.transactions", "com.financial.transaction.created.v1", "/financial/banking/transactions"},
		{"banking.card-transactions", "com.financial.card_transaction.created.v1", "/financial/banking/cards"},
		{"banking.trades", "com.financial.trade.executed.v1", "/financial/banking/investments"},
		{"banking.installments", "com.financial.installment.created.v1", "/financial/banking/loans"},
	}

	for _, test := range tests {
		headers := b.Build(test.topic, []byte("key-1"))
		assert.Equal(t, test.eventType, headers["ce_type"], test.topic)
		assert.Equal(t, test.source, headers["ce_source"], test.topic)
	}
}

func TestHeaderBuilder_DerivedTopic(t *testing.T) {
	b := NewHeaderBuilder()

	headers := b.Build("banking.fx-quotes", nil)
	assert.Equal(t, "com.financial.fx_quotes.created.v1", headers["ce_type"])
	assert.Equal(t, "/financial/banking/fx_quotes", headers["ce_source"])
	assert.NotContains(t, headers, "ce_subject")
}

func TestHeaderBuilder_UniqueIDs(t *testing.T) {
	b := NewHeaderBuilder()

	seen := make(map[string]bool)
	for i := 0; i < uuidPoolSize+100; i++ {
		id := b.Build("banking.transactions", nil)["ce_id"]
		require.Len(t, id, 32)
		require.False(t, seen[id], "duplicate event id %s", id)
		seen[id] = true
	}
}

func TestHeaderBuilder_TimestampFormat(t *testing.T) {
	b := NewHeaderBuilder()

	ts := b.Build("banking.transactions", nil)["ce_time"]
	parsed, err := time.Parse("2006-01-02T15:04:05.000Z", ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestHeaderBuilder_TimestampRefreshes(t *testing.T) {
	b := NewHeaderBuilder()

	first := b.Build("banking.transactions", nil)["ce_time"]
	time.Sleep(5 * time.Millisecond)
	second := b.Build("banking.transactions", nil)["ce_time"]
	assert.NotEqual(t, first, second)
}
