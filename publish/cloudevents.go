package publish

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CloudEvents binary content mode attribute values.
const (
	ceSpecVersion = "1.0"
	ceContentType = "application/json"
)

// staticAttrs holds the per-topic attributes that never change between
// messages.
type staticAttrs struct {
	eventType string
	source    string
}

// knownTopics maps each event topic to its CloudEvents type and source URI.
var knownTopics = map[string]staticAttrs{
	"banking.transactions": {
		eventType: "com.financial.transaction.created.v1",
		source:    "/financial/banking/transactions",
	},
	"banking.card-transactions": {
		eventType: "com.financial.card_transaction.created.v1",
		source:    "/financial/banking/cards",
	},
	"banking.trades": {
		eventType: "com.financial.trade.executed.v1",
		source:    "/financial/banking/investments",
	},
	"banking.installments": {
		eventType: "com.financial.installment.created.v1",
		source:    "/financial/banking/loans",
	},
}

// deriveAttrs builds attributes for topics outside the known set, following
// the com.financial.<entity>.created.v1 convention.
func deriveAttrs(topic string) staticAttrs {
	name := topic
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		name = topic[idx+1:]
	}
	name = strings.ReplaceAll(name, "-", "_")
	return staticAttrs{
		eventType: "com.financial." + name + ".created.v1",
		source:    "/financial/banking/" + name,
	}
}

const uuidPoolSize = 4096

// HeaderBuilder produces CloudEvents headers for binary content mode. The
// per-message attributes are kept cheap: event IDs come from a batched UUID
// pool and the timestamp string is reused for up to a millisecond.
type HeaderBuilder struct {
	mu sync.Mutex

	attrCache map[string]staticAttrs

	pool    []string
	poolIdx int

	timestamp   string
	timestampAt time.Time
}

// NewHeaderBuilder creates a builder with a primed UUID pool.
func NewHeaderBuilder() *HeaderBuilder {
	b := &HeaderBuilder{
		attrCache: make(map[string]staticAttrs),
	}
	b.refillPool()
	return b
}

// refillPool batch-generates event IDs. Caller holds the lock except during
// construction.
func (b *HeaderBuilder) refillPool() {
	pool := make([]string, uuidPoolSize)
	for i := range pool {
		u := uuid.New()
		pool[i] = strings.ReplaceAll(u.String(), "-", "")
	}
	b.pool = pool
	b.poolIdx = 0
}

func (b *HeaderBuilder) nextID() string {
	if b.poolIdx >= len(b.pool) {
		b.refillPool()
	}
	id := b.pool[b.poolIdx]
	b.poolIdx++
	return id
}

// ceTimestamp returns the cached RFC 3339 millisecond timestamp, refreshing
// it when more than a millisecond old.
func (b *HeaderBuilder) ceTimestamp(now time.Time) string {
	if now.Sub(b.timestampAt) > time.Millisecond {
		b.timestamp = now.UTC().Format("2006-01-02T15:04:05.000Z")
		b.timestampAt = now
	}
	return b.timestamp
}

func (b *HeaderBuilder) attrs(topic string) staticAttrs {
	if a, ok := b.attrCache[topic]; ok {
		return a
	}
	a, ok := knownTopics[topic]
	if !ok {
		a = deriveAttrs(topic)
	}
	b.attrCache[topic] = a
	return a
}

// Build returns the CloudEvents headers for one message. key becomes the
// ce_subject attribute when present.
func (b *HeaderBuilder) Build(topic string, key []byte) map[string]string {
	b.mu.Lock()
	a := b.attrs(topic)
	id := b.nextID()
	ts := b.ceTimestamp(time.Now())
	b.mu.Unlock()

	headers := map[string]string{
		"ce_specversion": ceSpecVersion,
		"ce_type":        a.eventType,
		"ce_source":      a.source,
		"content-type":   ceContentType,
		"ce_id":          id,
		"ce_time":        ts,
	}
	if len(key) > 0 {
		headers["ce_subject"] = string(key)
	}
	return headers
}
