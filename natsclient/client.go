// Package natsclient manages the NATS broker connection for the pipeline.
// A single Client carries the core connection, the JetStream context, a
// circuit breaker around connection attempts, and a health monitor that
// feeds status callbacks.
package natsclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/datasynth/errors"
)

// ConnectionStatus is the client's view of the broker connection.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusCircuitOpen
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusCircuitOpen:
		return "circuit_open"
	}
	return "unknown"
}

var (
	ErrNotConnected      = stderrors.New("not connected to NATS")
	ErrCircuitOpen       = stderrors.New("circuit breaker is open")
	ErrConnectionTimeout = stderrors.New("connection timeout")
)

// breaker tracks consecutive connection failures. When the failure count in
// the current round reaches the threshold the circuit opens and the backoff
// doubles, capped at maxBackoff. A successful connection resets everything.
type breaker struct {
	mu          sync.Mutex
	threshold   int32
	maxBackoff  time.Duration
	failures    int32
	round       int32
	backoff     time.Duration
	lastFailure time.Time
}

// fail records one failure. It returns the backoff to wait before the next
// circuit test and whether this failure tripped the threshold.
func (b *breaker) fail() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.round++
	b.lastFailure = time.Now()

	if b.round < b.threshold {
		return 0, false
	}
	b.round = 0

	wait := b.backoff
	b.backoff = min(b.backoff*2, b.maxBackoff)
	return wait, true
}

func (b *breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.round = 0
	b.backoff = time.Second
	b.lastFailure = time.Time{}
}

func (b *breaker) snapshot() (int32, time.Duration, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures, b.backoff, b.lastFailure
}

// Status is a point-in-time view of the connection for reporting.
type Status struct {
	Status          ConnectionStatus
	FailureCount    int32
	LastFailureTime time.Time
	RTT             time.Duration
}

// Client wraps a NATS connection with circuit breaking, health monitoring
// and JetStream stream tracking. All methods are safe for concurrent use.
type Client struct {
	url    string
	status atomic.Value // ConnectionStatus
	brk    breaker
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn
	js   jetstream.JetStream

	maxReconnects int
	reconnectWait time.Duration
	pingInterval  time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration

	// Credentials are wiped on Close.
	username string
	password string
	token    string

	clientName string

	jsMetrics       *streamMetrics
	metricsCancel   context.CancelFunc
	metricsInterval time.Duration

	onDisconnect   func(error)
	onReconnect    func()
	onHealthChange func(bool)

	healthInterval time.Duration
	healthDone     chan struct{}

	closeMu sync.Mutex
	closed  atomic.Bool
}

// NewClient builds a client for the given broker URL. The connection is not
// opened until Connect is called.
func NewClient(url string, options ...ClientOption) (*Client, error) {
	c := &Client{
		url:             url,
		logger:          slog.Default(),
		maxReconnects:   -1,
		reconnectWait:   2 * time.Second,
		pingInterval:    30 * time.Second,
		healthInterval:  10 * time.Second,
		timeout:         5 * time.Second,
		drainTimeout:    30 * time.Second,
		metricsInterval: 30 * time.Second,
		brk: breaker{
			threshold:  5,
			maxBackoff: time.Minute,
			backoff:    time.Second,
		},
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "NewClient", "applying option")
		}
	}

	c.status.Store(StatusDisconnected)
	return c, nil
}

// URL returns the configured broker URL.
func (c *Client) URL() string { return c.url }

// Status returns the current connection status.
func (c *Client) Status() ConnectionStatus {
	return c.status.Load().(ConnectionStatus)
}

// IsHealthy reports whether the connection is established and passing
// health checks.
func (c *Client) IsHealthy() bool { return c.Status() == StatusConnected }

// Failures returns the total connection failures since the last reset.
func (c *Client) Failures() int32 {
	n, _, _ := c.brk.snapshot()
	return n
}

// Backoff returns the backoff the breaker will apply on its next trip.
func (c *Client) Backoff() time.Duration {
	_, d, _ := c.brk.snapshot()
	return d
}

func (c *Client) setStatus(s ConnectionStatus) { c.status.Store(s) }

// recordFailure feeds the breaker and opens the circuit when it trips.
// An open circuit schedules its own half-open test after the backoff.
func (c *Client) recordFailure() {
	wait, tripped := c.brk.fail()
	if !tripped {
		return
	}

	if c.Status() != StatusCircuitOpen {
		c.setStatus(StatusCircuitOpen)
		c.logger.Warn("NATS circuit breaker opened",
			"url", c.url, "failures", c.Failures(), "backoff", wait)
		time.AfterFunc(wait, c.testCircuit)
		return
	}
	c.logger.Warn("NATS circuit breaker still open", "url", c.url, "backoff", wait)
}

// resetCircuit clears breaker state after a successful connection.
func (c *Client) resetCircuit() {
	c.brk.reset()
	if c.Status() == StatusCircuitOpen {
		c.setStatus(StatusDisconnected)
	}
}

// testCircuit moves an open circuit to half-open so the next Connect may try.
func (c *Client) testCircuit() {
	if c.Status() == StatusCircuitOpen {
		c.setStatus(StatusDisconnected)
	}
}

// GetStatus returns a snapshot for status reporting.
func (c *Client) GetStatus() *Status {
	failures, _, lastFailure := c.brk.snapshot()
	st := &Status{
		Status:          c.Status(),
		FailureCount:    failures,
		LastFailureTime: lastFailure,
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil && conn.IsConnected() {
		if rtt, err := conn.RTT(); err == nil {
			st.RTT = rtt
		}
	}
	return st
}

// ConnectionOptions returns the nats.Options the client connects with.
func (c *Client) ConnectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.PingInterval(c.pingInterval),
		nats.Timeout(c.timeout),
		nats.DrainTimeout(c.drainTimeout),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ClosedHandler(c.handleClosed),
		nats.ErrorHandler(c.handleAsyncError),
	}
	if c.username != "" && c.password != "" {
		opts = append(opts, nats.UserInfo(c.username, c.password))
	}
	if c.token != "" {
		opts = append(opts, nats.Token(c.token))
	}
	if c.clientName != "" {
		opts = append(opts, nats.Name(c.clientName))
	}
	return opts
}

// Connect opens the broker connection and initializes the JetStream context.
// A failure counts against the breaker; when the circuit is open the call is
// rejected immediately with ErrCircuitOpen.
func (c *Client) Connect(ctx context.Context) error {
	if c.Status() == StatusCircuitOpen {
		return ErrCircuitOpen
	}

	c.setStatus(StatusConnecting)
	c.logger.Debug("Connecting to NATS", "url", c.url)

	done := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(c.url, c.ConnectionOptions()...)
		if err != nil {
			done <- err
			return
		}
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			done <- err
			return
		}
		c.mu.Lock()
		c.conn = conn
		c.js = js
		c.mu.Unlock()
		done <- nil
	}()

	var connectErr error
	select {
	case connectErr = <-done:
	case <-ctx.Done():
		connectErr = ctx.Err()
	}
	if connectErr != nil {
		c.recordFailure()
		if c.Status() == StatusCircuitOpen {
			return ErrCircuitOpen
		}
		c.setStatus(StatusDisconnected)
		return errors.WrapTransient(connectErr, "Client", "Connect", "establishing connection")
	}

	c.setStatus(StatusConnected)
	c.resetCircuit()
	c.logger.Info("Connected to NATS", "url", c.url)

	if c.healthInterval > 0 {
		c.startHealthMonitor()
	}
	if c.jsMetrics != nil && c.metricsInterval > 0 {
		c.metricsCancel = c.jsMetrics.startPoller(context.Background(), c.metricsInterval)
	}
	if c.onHealthChange != nil {
		c.onHealthChange(true)
	}
	return nil
}

// WaitForConnection blocks until the connection is healthy or ctx is done.
func (c *Client) WaitForConnection(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.IsHealthy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrConnectionTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close drains outstanding messages and releases the connection. It is
// idempotent; the drain respects both the configured drain timeout and any
// earlier ctx deadline.
func (c *Client) Close(ctx context.Context) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.stopHealthMonitor()
	if c.metricsCancel != nil {
		c.metricsCancel()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var drainErr error
	if c.conn != nil {
		drainErr = c.drainLocked(ctx)
		c.conn.Close()
		c.conn = nil
		c.js = nil
	}

	c.username = ""
	c.password = ""
	c.token = ""
	c.setStatus(StatusDisconnected)

	if drainErr != nil {
		return errors.Wrap(drainErr, "Client", "Close", "draining connection")
	}
	return nil
}

func (c *Client) drainLocked(ctx context.Context) error {
	timeout := c.drainTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.conn.Drain() }()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		c.logger.Warn("NATS drain timed out, force closing", "timeout", timeout)
		return fmt.Errorf("drain timeout after %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RTT returns the round-trip time to the broker.
func (c *Client) RTT() (time.Duration, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return 0, ErrNotConnected
	}
	return conn.RTT()
}

// Publish sends a payload on a core subject without broker acknowledgment.
func (c *Client) Publish(_ context.Context, subject string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	return conn.Publish(subject, data)
}

// PublishMsg sends a prepared message, headers included, on core NATS.
func (c *Client) PublishMsg(_ context.Context, msg *nats.Msg) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	return conn.PublishMsg(msg)
}

// JetStream returns the JetStream context established by Connect.
func (c *Client) JetStream() (jetstream.JetStream, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.js == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "JetStream", "accessing JetStream context")
	}
	return c.js, nil
}

// CreateStream creates or updates a stream and tracks it for metrics.
func (c *Client) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	return c.streamOp(ctx, cfg.Name, "create_stream", func(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
		return js.CreateOrUpdateStream(ctx, cfg)
	})
}

// GetStream looks up an existing stream and tracks it for metrics.
func (c *Client) GetStream(ctx context.Context, name string) (jetstream.Stream, error) {
	return c.streamOp(ctx, name, "get_stream", func(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
		return js.Stream(ctx, name)
	})
}

func (c *Client) streamOp(
	ctx context.Context,
	name, op string,
	fn func(context.Context, jetstream.JetStream) (jetstream.Stream, error),
) (jetstream.Stream, error) {
	switch c.Status() {
	case StatusCircuitOpen:
		return nil, ErrCircuitOpen
	case StatusConnected:
	default:
		return nil, ErrNotConnected
	}

	js, err := c.JetStream()
	if err != nil {
		c.recordFailure()
		return nil, err
	}

	stream, err := fn(ctx, js)
	if err != nil {
		c.recordFailure()
		c.jsMetrics.recordError(op)
		return nil, err
	}

	c.resetCircuit()
	c.jsMetrics.trackStream(name, stream)
	return stream, nil
}

func (c *Client) handleDisconnect(_ *nats.Conn, err error) {
	c.setStatus(StatusReconnecting)
	if c.onDisconnect != nil {
		go c.onDisconnect(err)
	}
	if c.onHealthChange != nil {
		go c.onHealthChange(false)
	}
}

func (c *Client) handleReconnect(_ *nats.Conn) {
	c.setStatus(StatusConnected)
	c.resetCircuit()
	if c.onReconnect != nil {
		go c.onReconnect()
	}
	if c.onHealthChange != nil {
		go c.onHealthChange(true)
	}
}

func (c *Client) handleClosed(_ *nats.Conn) {
	c.setStatus(StatusDisconnected)
	if c.onHealthChange != nil {
		go c.onHealthChange(false)
	}
}

// handleAsyncError logs async errors without feeding the breaker; they may
// be subscription errors unrelated to connection health.
func (c *Client) handleAsyncError(_ *nats.Conn, _ *nats.Subscription, err error) {
	c.logger.Error("NATS async error", "error", err)
}

// startHealthMonitor polls the connection and RTT, reconciling the status
// and firing the health-change callback on transitions.
func (c *Client) startHealthMonitor() {
	c.stopHealthMonitor()

	c.mu.Lock()
	done := make(chan struct{})
	c.healthDone = done
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.healthInterval)
		defer ticker.Stop()
		lastHealthy := c.IsHealthy()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}

			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil {
				continue
			}

			healthy := conn.IsConnected()
			if healthy {
				if _, err := conn.RTT(); err != nil {
					healthy = false
				}
			}

			if healthy && c.Status() != StatusConnected {
				c.setStatus(StatusConnected)
			} else if !healthy && c.Status() == StatusConnected {
				c.setStatus(StatusReconnecting)
			}

			if healthy != lastHealthy && c.onHealthChange != nil {
				c.onHealthChange(healthy)
			}
			lastHealthy = healthy
		}
	}()
}

func (c *Client) stopHealthMonitor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.healthDone != nil {
		close(c.healthDone)
		c.healthDone = nil
	}
}
