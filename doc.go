// Package datasynth generates synthetic financial data for a simulated
// retail bank and streams it onto NATS JetStream as CloudEvents-wrapped
// JSON messages.
//
// # Architecture
//
// A run has two phases. First a referentially consistent master data set is
// built and registered in an in-memory entity store:
//
//	Customer ─┬─ Account (checking / savings / investment)
//	          ├─ CreditCard
//	          └─ Loan ──── Property (housing finance)
//	Stock (market listing set)
//
// Then event records referencing that base are generated in parallel and
// fanned out to per-topic publish channels:
//
//	┌───────────┐    ┌────────────┐    ┌─────────────┐    ┌───────────┐
//	│ generate  │───►│  pipeline  │───►│   publish   │───►│ transport │
//	│ (workers) │    │ (queues +  │    │ (CloudEvents│    │ (JetStream│
//	│           │    │  senders)  │    │  + retries) │    │  window)  │
//	└───────────┘    └────────────┘    └─────────────┘    └───────────┘
//
// Every event carries a partition key (account, card or loan identifier) so
// downstream consumers see per-parent ordering, and CloudEvents binary-mode
// headers describing the payload.
//
// # Packages
//
// Domain:
//   - entity: financial record types, foreign key contract, JSON codec
//   - store: referential registry with dangling-reference and subtype checks
//   - generate: seeded synthetic data generators and the scenario runner
//
// Delivery:
//   - pipeline: topic routing, transfer queues, coordinated shutdown
//   - publish: per-topic channels, CloudEvents headers, drain-and-retry
//   - transport: JetStream, core NATS and in-memory transports
//   - natsclient: connection management with circuit breaker and health checks
//
// Infrastructure:
//   - config: run configuration and delivery presets
//   - errors: error classification and wrapping conventions
//   - metric: Prometheus registry, core pipeline metrics, HTTP handler
//   - pkg/queue, pkg/ratelimit, pkg/retry, pkg/worker: concurrency utilities
//
// # Usage
//
//	# Stream the reliable preset against a local broker
//	./bin/datasynth --nats-url=nats://localhost:4222
//
//	# Deterministic bulk backfill
//	./bin/datasynth --preset=bulk --seed=42 --events=500000
//
//	# Generate without a broker
//	./bin/datasynth --dry-run
package datasynth
