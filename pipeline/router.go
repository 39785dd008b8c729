// Package pipeline fans generated event records out to per-topic publish
// channels through bounded transfer queues, and owns orderly shutdown of the
// whole delivery path.
package pipeline

import "github.com/c360/datasynth/entity"

// Event topics.
const (
	TopicTransactions     = "banking.transactions"
	TopicCardTransactions = "banking.card-transactions"
	TopicTrades           = "banking.trades"
	TopicInstallments     = "banking.installments"
)

// eventTopics maps each publishable entity type to its topic. Master data
// stays in the store and is never routed.
var eventTopics = map[entity.Type]string{
	entity.TypeTransaction:     TopicTransactions,
	entity.TypeCardTransaction: TopicCardTransactions,
	entity.TypeTrade:           TopicTrades,
	entity.TypeInstallment:     TopicInstallments,
}

// Topics returns every event topic the pipeline publishes to.
func Topics() []string {
	return []string{
		TopicTransactions,
		TopicCardTransactions,
		TopicTrades,
		TopicInstallments,
	}
}

// Route returns the topic for an entity, or false when the entity type is
// not published.
func Route(e entity.Entity) (string, bool) {
	topic, ok := eventTopics[e.EntityType()]
	return topic, ok
}
