package generate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/c360/datasynth/config"
	"github.com/c360/datasynth/entity"
	cerrors "github.com/c360/datasynth/errors"
	"github.com/c360/datasynth/pipeline"
	"github.com/c360/datasynth/pkg/ratelimit"
	"github.com/c360/datasynth/pkg/worker"
	"github.com/c360/datasynth/store"
)

// Scenario runs a full customer-360 generation pass: master data into the
// store, then event records fanned out to the pipeline by a worker pool.
type Scenario struct {
	cfg     config.GenerateConfig
	store   *store.Store
	coord   *pipeline.Coordinator
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// ScenarioOption configures a Scenario.
type ScenarioOption func(*Scenario)

// WithScenarioLogger sets the scenario logger.
func WithScenarioLogger(logger *slog.Logger) ScenarioOption {
	return func(s *Scenario) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScenario wires a generation run over an entity store and a started
// pipeline coordinator. A positive rate in the config paces event submission
// through a token bucket.
func NewScenario(cfg config.GenerateConfig, st *store.Store, coord *pipeline.Coordinator, options ...ScenarioOption) (*Scenario, error) {
	if st == nil || coord == nil {
		return nil, cerrors.WrapInvalid(cerrors.ErrMissingConfig,
			"generate", "NewScenario", "store and coordinator required")
	}

	s := &Scenario{
		cfg:    cfg,
		store:  st,
		coord:  coord,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(s)
	}

	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RatePerSecond)
		}
		limiter, err := ratelimit.New(cfg.RatePerSecond, burst)
		if err != nil {
			return nil, cerrors.Wrap(err, "generate", "NewScenario", "rate limiter")
		}
		s.limiter = limiter
	}
	return s, nil
}

// Report summarizes one generation run.
type Report struct {
	Master          map[entity.Type]int `json:"master"`
	EventsSubmitted int64               `json:"events_submitted"`
	EventsFailed    int64               `json:"events_failed"`
	MasterDuration  time.Duration       `json:"master_duration"`
	EventsDuration  time.Duration       `json:"events_duration"`
}

// Run executes the scenario: master data single-path, events in parallel.
func (s *Scenario) Run(ctx context.Context) (Report, error) {
	var report Report

	started := time.Now()
	if err := s.seedMaster(); err != nil {
		return report, err
	}
	report.Master = make(map[entity.Type]int)
	for t, n := range s.store.Counts() {
		report.Master[t] = n
	}
	report.MasterDuration = time.Since(started)

	s.logger.Info("master data registered",
		"customers", report.Master[entity.TypeCustomer],
		"accounts", report.Master[entity.TypeAccount],
		"cards", report.Master[entity.TypeCreditCard],
		"loans", report.Master[entity.TypeLoan],
		"duration", report.MasterDuration)

	started = time.Now()
	submitted, failed, err := s.runEvents(ctx)
	report.EventsSubmitted = submitted
	report.EventsFailed = failed
	report.EventsDuration = time.Since(started)
	if err != nil {
		return report, err
	}

	s.logger.Info("event generation complete",
		"submitted", submitted,
		"failed", failed,
		"duration", report.EventsDuration)
	return report, nil
}

// seedMaster registers the referential base: stocks, then customers with
// their accounts, cards, loans and backing properties. Registration stays
// single-path so every foreign key target exists before it is referenced.
func (s *Scenario) seedMaster() error {
	g := New(s.cfg.Seed)

	for _, stock := range g.Stocks() {
		if err := s.store.Register(stock); err != nil {
			return cerrors.Wrap(err, "generate", "seedMaster", "stock registration")
		}
	}

	for i := 0; i < s.cfg.Customers; i++ {
		customer := g.Customer()
		batch := []entity.Entity{customer}

		for _, accountType := range g.AccountTypes() {
			batch = append(batch, g.Account(customer.CustomerID, accountType))
		}

		if g.rng.IntN(2) == 0 {
			batch = append(batch, g.CreditCard(customer.CustomerID))
		}

		if g.rng.IntN(4) == 0 {
			loanType := g.LoanType()
			propertyID := ""
			if loanType == "HOUSING" {
				property := g.Property()
				batch = append(batch, property)
				propertyID = property.PropertyID
			}
			batch = append(batch, g.Loan(customer.CustomerID, loanType, propertyID))
		}

		if err := s.store.RegisterAll(batch...); err != nil {
			return cerrors.Wrap(err, "generate", "seedMaster", "customer batch")
		}
	}
	return nil
}

// eventJob is one unit of parallel event generation.
type eventJob struct {
	kind   entity.Type
	count  int
	stream int64
}

// runEvents fans event generation across a worker pool. Each worker derives
// its own seeded generator and samples parents from the store.
func (s *Scenario) runEvents(ctx context.Context) (int64, int64, error) {
	parents := s.snapshotParents()

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	jobs := s.planJobs(parents, workers)
	if len(jobs) == 0 {
		return 0, 0, nil
	}

	var submitted, failed atomic.Int64
	processor := func(ctx context.Context, job eventJob) error {
		n, err := s.generateEvents(ctx, job, parents)
		submitted.Add(n)
		if err != nil {
			failed.Add(int64(job.count) - n)
		}
		return err
	}

	pool := worker.NewPool(workers, len(jobs), processor)
	if err := pool.Start(ctx); err != nil {
		return 0, 0, cerrors.Wrap(err, "generate", "runEvents", "worker pool start")
	}

	for _, job := range jobs {
		if err := pool.SubmitWait(ctx, job); err != nil {
			_ = pool.Stop(30 * time.Second)
			return submitted.Load(), failed.Load(),
				cerrors.Wrap(err, "generate", "runEvents", "job submit")
		}
	}

	if err := pool.Stop(5 * time.Minute); err != nil {
		return submitted.Load(), failed.Load(),
			cerrors.Wrap(err, "generate", "runEvents", "worker pool stop")
	}
	return submitted.Load(), failed.Load(), nil
}

// parentSet is a read-only snapshot of the referential base for sampling.
type parentSet struct {
	accounts       []string
	investAccounts []string
	cards          []string
	loans          []*entity.Loan
	stocks         []*entity.Stock
}

func (s *Scenario) snapshotParents() *parentSet {
	p := &parentSet{
		accounts: s.store.IDs(entity.TypeAccount),
		cards:    s.store.IDs(entity.TypeCreditCard),
	}

	for _, e := range s.store.All(entity.TypeAccount) {
		if e.Subtype() == entity.AccountInvestment {
			p.investAccounts = append(p.investAccounts, e.EntityID())
		}
	}
	for _, e := range s.store.All(entity.TypeLoan) {
		if loan, ok := e.(*entity.Loan); ok {
			p.loans = append(p.loans, loan)
		}
	}
	for _, e := range s.store.All(entity.TypeStock) {
		if stock, ok := e.(*entity.Stock); ok {
			p.stocks = append(p.stocks, stock)
		}
	}
	return p
}

// planJobs splits the per-topic volume across workers, skipping topics with
// no eligible parents.
func (s *Scenario) planJobs(parents *parentSet, workers int) []eventJob {
	perTopic := s.cfg.EventsPerTopic
	if perTopic <= 0 {
		return nil
	}

	eligible := map[entity.Type]bool{
		entity.TypeTransaction:     len(parents.accounts) > 0,
		entity.TypeCardTransaction: len(parents.cards) > 0,
		entity.TypeTrade:           len(parents.investAccounts) > 0 && len(parents.stocks) > 0,
		entity.TypeInstallment:     len(parents.loans) > 0,
	}

	var jobs []eventJob
	stream := int64(0)
	for _, kind := range []entity.Type{
		entity.TypeTransaction,
		entity.TypeCardTransaction,
		entity.TypeTrade,
		entity.TypeInstallment,
	} {
		if !eligible[kind] {
			s.logger.Warn("skipping topic with no eligible parents", "kind", string(kind))
			continue
		}

		share := perTopic / workers
		remainder := perTopic % workers
		for w := 0; w < workers; w++ {
			count := share
			if w < remainder {
				count++
			}
			if count == 0 {
				continue
			}
			stream++
			jobs = append(jobs, eventJob{kind: kind, count: count, stream: stream})
		}
	}
	return jobs
}

// generateEvents produces and submits one job's worth of events. Returns how
// many were accepted by the pipeline. Installment jobs replay full
// amortization schedules parcel by parcel, picking a fresh loan each time a
// schedule runs out.
func (s *Scenario) generateEvents(ctx context.Context, job eventJob, parents *parentSet) (int64, error) {
	g := NewStream(s.cfg.Seed, job.stream)

	var submitted int64
	var schedule []*entity.Installment
	for i := 0; i < job.count; i++ {
		if s.limiter != nil {
			if err := s.limiter.Acquire(ctx, 1); err != nil {
				return submitted, cerrors.Wrap(err, "generate", "generateEvents", "rate acquire")
			}
		}

		var e entity.Entity
		switch job.kind {
		case entity.TypeTransaction:
			e = g.Transaction(g.pick(parents.accounts))
		case entity.TypeCardTransaction:
			e = g.CardTransaction(g.pick(parents.cards))
		case entity.TypeTrade:
			account := g.pick(parents.investAccounts)
			stock := parents.stocks[g.rng.IntN(len(parents.stocks))]
			e = g.Trade(account, stock)
		case entity.TypeInstallment:
			if len(schedule) == 0 {
				loan := parents.loans[g.rng.IntN(len(parents.loans))]
				schedule = g.Installments(loan)
			}
			if len(schedule) == 0 {
				continue
			}
			e = schedule[0]
			schedule = schedule[1:]
		default:
			continue
		}

		if err := s.coord.Submit(e); err != nil {
			return submitted, cerrors.Wrap(err, "generate", "generateEvents",
				"submit "+string(job.kind))
		}
		submitted++
	}
	return submitted, nil
}
