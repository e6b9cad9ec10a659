package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{15, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := ExponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("ExponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed sentinel", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.failureMu.Lock()
	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	client.failureMu.Unlock()
	if client.isCircuitOpen() {
		t.Fatal("circuit should allow a trial call after the open timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", client.state)
	}

	// a failing trial call reopens immediately
	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("failed trial call should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}
}

func TestClient_PublishShortCircuits(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishTransactionChanged(ctx, "abc", core.ActionCreated); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	atomic.StoreInt32(&client.state, StateOpen)
	client.failureMu.Lock()
	client.lastFailure = time.Now()
	client.failureMu.Unlock()
	if err := client.PublishTransactionChanged(context.Background(), "abc", core.ActionCreated); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

type fakeAck struct {
	acked, requeued, dropped int
}

func (f *fakeAck) Ack(bool) error { f.acked++; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	if requeue {
		f.requeued++
	} else {
		f.dropped++
	}
	return nil
}

func TestSettle(t *testing.T) {
	ok := func(context.Context, *TransactionEvent) error { return nil }
	failing := func(context.Context, *TransactionEvent) error { return errors.New("sheets down") }
	valid := []byte(`{"id":"abc","action":"deleted","timestamp":"2024-03-15T10:00:00Z"}`)

	tests := []struct {
		name    string
		body    []byte
		handler EventHandler
		want    fakeAck
	}{
		{"handled", valid, ok, fakeAck{acked: 1}},
		{"handler error requeues", valid, failing, fakeAck{requeued: 1}},
		{"malformed json dropped", []byte(`{"id":`), ok, fakeAck{dropped: 1}},
		{"unknown action dropped", []byte(`{"id":"abc","action":"archived"}`), ok, fakeAck{dropped: 1}},
		{"missing id dropped", []byte(`{"action":"created"}`), ok, fakeAck{dropped: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got fakeAck
			settle(context.Background(), tt.body, &got, tt.handler)
			if got != tt.want {
				t.Errorf("settle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewTransactionEvent(t *testing.T) {
	msg := NewTransactionEvent("abc", core.ActionUpdated)
	if msg.ID != "abc" || msg.Action != core.ActionUpdated {
		t.Fatalf("unexpected event %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("timestamp should be recent")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed %+v, want %+v", parsed, msg)
	}
}

type fakeConn struct {
	closed atomic.Bool
	closes atomic.Int32
}

func (c *fakeConn) IsClosed() bool { return c.closed.Load() }

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.closed.Store(true)
	return nil
}

type fakeChannel struct {
	closed    atomic.Bool
	published atomic.Int32
}

func (c *fakeChannel) IsClosed() bool { return c.closed.Load() }

func (c *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, _ amqp091.Publishing) error {
	if c.closed.Load() {
		return amqp091.ErrClosed
	}
	c.published.Add(1)
	return nil
}

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return make(chan amqp091.Delivery), nil
}

func (c *fakeChannel) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeBroker hands out a fresh connection per dial.
type fakeBroker struct {
	mu       sync.Mutex
	conns    []*fakeConn
	channels []*fakeChannel
	failNext error
}

func (b *fakeBroker) dial(url, exchange, queue string) (connection, channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failNext; err != nil {
		b.failNext = nil
		return nil, nil, err
	}
	// widen the window a racing caller would need to slip through
	time.Sleep(5 * time.Millisecond)
	conn, ch := &fakeConn{}, &fakeChannel{}
	b.conns = append(b.conns, conn)
	b.channels = append(b.channels, ch)
	return conn, ch, nil
}

func (b *fakeBroker) dials() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func TestClient_ConcurrentPublishReconnectsOnce(t *testing.T) {
	broker := &fakeBroker{}
	client, err := newClient("amqp://test", "test_exchange", "test_queue", broker.dial)
	if err != nil {
		t.Fatalf("newClient() error = %v", err)
	}
	defer client.Close()

	// broker drops the connection
	broker.conns[0].closed.Store(true)

	const publishers = 32
	var wg sync.WaitGroup
	errs := make(chan error, publishers)
	start := make(chan struct{})
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs <- client.PublishTransactionChanged(context.Background(), fmt.Sprintf("tx-%d", i), core.ActionCreated)
		}(i)
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("publish error = %v", err)
		}
	}
	if n := broker.dials(); n != 2 {
		t.Fatalf("dials = %d, want 2 (initial + one reconnect)", n)
	}
	if n := broker.conns[0].closes.Load(); n != 1 {
		t.Errorf("stale connection closed %d times, want 1", n)
	}
	if broker.conns[1].IsClosed() {
		t.Error("fresh connection should stay open")
	}
	if n := broker.channels[1].published.Load(); n != publishers {
		t.Errorf("published = %d, want %d", n, publishers)
	}
}

func TestClient_ReconnectFailureReturnsError(t *testing.T) {
	broker := &fakeBroker{}
	client, err := newClient("amqp://test", "test_exchange", "test_queue", broker.dial)
	if err != nil {
		t.Fatalf("newClient() error = %v", err)
	}
	defer client.Close()

	broker.channels[0].closed.Store(true)
	broker.mu.Lock()
	broker.failNext = errors.New("dial tcp: connection refused")
	broker.mu.Unlock()

	if err := client.PublishTransactionChanged(context.Background(), "abc", core.ActionDeleted); err == nil {
		t.Fatal("expected an error when the reconnect fails")
	}
	// next publish redials and succeeds
	if err := client.PublishTransactionChanged(context.Background(), "abc", core.ActionDeleted); err != nil {
		t.Fatalf("publish after recovery error = %v", err)
	}
	if n := broker.dials(); n != 2 {
		t.Errorf("dials = %d, want 2", n)
	}
}

func TestNewClient_NilChannelIsAnError(t *testing.T) {
	conn := &fakeConn{}
	dial := func(string, string, string) (connection, channel, error) { return conn, nil, nil }
	if _, err := newClient("amqp://test", "e", "q", dial); err == nil {
		t.Fatal("expected an error for a dial without a channel")
	}
	if conn.closes.Load() != 1 {
		t.Error("orphaned connection should be closed")
	}
}
