package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecord struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcker struct {
	mu   sync.Mutex
	recs []ackRecord
}

func (f *fakeAcker) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, ackRecord{tag: tag, acked: true})
	return nil
}

func (f *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, ackRecord{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcker) byTag() map[uint64]ackRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64]ackRecord, len(f.recs))
	for _, r := range f.recs {
		out[r.tag] = r
	}
	return out
}

type fakeRetrier struct {
	mu       sync.Mutex
	attempts map[uint64]int
	err      error
}

func (f *fakeRetrier) Retry(_ context.Context, d amqp.Delivery, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.attempts == nil {
		f.attempts = map[uint64]int{}
	}
	f.attempts[d.DeliveryTag] = attempt
	return nil
}

func delivery(acker amqp.Acknowledger, tag uint64, body string, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(body), Headers: headers}
}

func runPool(t *testing.T, p *Pool, ds ...amqp.Delivery) {
	t.Helper()
	msgs := make(chan amqp.Delivery, len(ds))
	for _, d := range ds {
		msgs <- d
	}
	close(msgs)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), msgs)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain")
	}
}

func TestPool_AckNackRetry(t *testing.T) {
	acker := &fakeAcker{}
	retrier := &fakeRetrier{}
	p := &Pool{
		Concurrency: 3,
		MaxAttempts: 3,
		Retrier:     retrier,
		Log:         zerolog.Nop(),
		Handle: func(_ context.Context, body []byte) error {
			switch string(body) {
			case "ok":
				return nil
			case "bad":
				return fmt.Errorf("%w: not json", ErrMalformed)
			default:
				return errors.New("database is locked")
			}
		},
	}

	runPool(t, p,
		delivery(acker, 1, "ok", nil),
		delivery(acker, 2, "bad", nil),
		delivery(acker, 3, "flaky", nil),
		delivery(acker, 4, "flaky", amqp.Table{AttemptHeader: int32(2)}),
	)

	recs := acker.byTag()
	require.Len(t, recs, 4)
	assert.True(t, recs[1].acked)
	assert.False(t, recs[2].acked, "malformed goes to the DLQ")
	assert.False(t, recs[2].requeue)
	assert.True(t, recs[3].acked, "original acked once parked in the retry queue")
	assert.Equal(t, 1, retrier.attempts[3])
	assert.False(t, recs[4].acked, "out of attempts")
	assert.NotContains(t, retrier.attempts, uint64(4))
}

func TestPool_RetryPublishFailureDeadLetters(t *testing.T) {
	acker := &fakeAcker{}
	p := &Pool{
		Concurrency: 1,
		MaxAttempts: 5,
		Retrier:     &fakeRetrier{err: errors.New("channel closed")},
		Log:         zerolog.Nop(),
		Handle:      func(context.Context, []byte) error { return errors.New("boom") },
	}
	runPool(t, p, delivery(acker, 7, "x", nil))

	rec := acker.byTag()[7]
	assert.False(t, rec.acked)
	assert.False(t, rec.requeue)
}

func TestPool_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan amqp.Delivery)
	done := make(chan struct{})
	p := &Pool{Concurrency: 2, Log: zerolog.Nop(), Handle: func(context.Context, []byte) error { return nil }}
	go func() {
		p.Run(ctx, msgs)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool ignored cancellation")
	}
}

func TestAttempt(t *testing.T) {
	assert.Equal(t, 0, Attempt(amqp.Delivery{}))
	assert.Equal(t, 2, Attempt(amqp.Delivery{Headers: amqp.Table{AttemptHeader: int64(2)}}))
	assert.Equal(t, 0, Attempt(amqp.Delivery{Headers: amqp.Table{AttemptHeader: "2"}}))
}

func TestQueueSpecs(t *testing.T) {
	specs := queueSpecs("relay_events")
	require.Len(t, specs, 3)
	assert.Equal(t, "relay_events.dlq", specs[0].name)
	assert.Equal(t, "relay_events", specs[1].args["x-dead-letter-routing-key"])
	assert.Equal(t, "relay_events.dlq", specs[2].args["x-dead-letter-routing-key"])
}
