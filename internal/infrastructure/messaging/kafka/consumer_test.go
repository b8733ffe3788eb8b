package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

type fakeReader struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	commits []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commits)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func outcomeMessage(t *testing.T, outcome underpay.AuditOutcome) kafka.Message {
	t.Helper()
	value, err := json.Marshal(outcome)
	require.NoError(t, err)
	return kafka.Message{Topic: TopicAuditOutcomes, Key: []byte(outcome.Carrier), Value: value}
}

func testConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers:         []string{"localhost:9092"},
		DeadLetterTopic: TopicDeadLetterAuditOutcome,
		MaxRetries:      3,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
	}
}

func runConsumer(t *testing.T, c *Consumer, reader *fakeReader, wantCommits int) {
	t.Helper()
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return reader.committed() >= wantCommits
	}, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())
}

func TestConsumerProcessesOutcome(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		outcomeMessage(t, underpay.AuditOutcome{
			Carrier: "State Farm", ItemName: "Drip edge", ClaimPrice: 80, MarketPrice: 100,
		}),
	}}

	var handled atomic.Int64
	handler := func(_ context.Context, outcome *underpay.AuditOutcome) error {
		handled.Add(1)
		assert.Equal(t, "State Farm", outcome.Carrier)
		assert.InDelta(t, -20, outcome.Variance(), 1e-9)
		return nil
	}
	c := newConsumerWithReader(testConfig(), reader, nil, handler, logging.NewNopLogger())

	runConsumer(t, c, reader, 1)

	assert.Equal(t, int64(1), handled.Load())
	assert.Equal(t, int64(1), c.Metrics().Processed.Load())
	assert.Equal(t, int64(0), c.Metrics().Failed.Load())
}

func TestConsumerDeadLettersUndecodableMessage(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		{Topic: TopicAuditOutcomes, Key: []byte("k"), Value: []byte("{not json")},
	}}
	writer := &fakeWriter{}
	dlq := newProducerWithWriter(writer, logging.NewNopLogger())

	var handled atomic.Int64
	handler := func(context.Context, *underpay.AuditOutcome) error {
		handled.Add(1)
		return nil
	}
	c := newConsumerWithReader(testConfig(), reader, dlq, handler, logging.NewNopLogger())

	runConsumer(t, c, reader, 1)

	assert.Zero(t, handled.Load(), "handler must not run for undecodable messages")
	written := writer.written()
	require.Len(t, written, 1)
	assert.Equal(t, TopicDeadLetterAuditOutcome, written[0].Topic)
	assert.Equal(t, []byte("{not json"), written[0].Value)
	assert.Equal(t, int64(1), c.Metrics().DeadLettered.Load())
	assert.Equal(t, int64(1), c.Metrics().Failed.Load())
}

func TestConsumerDoesNotRetryInvalidInput(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		outcomeMessage(t, underpay.AuditOutcome{Carrier: "Acme", ItemName: "Drip edge", MarketPrice: 0}),
	}}
	writer := &fakeWriter{}
	dlq := newProducerWithWriter(writer, logging.NewNopLogger())

	var attempts atomic.Int64
	handler := func(context.Context, *underpay.AuditOutcome) error {
		attempts.Add(1)
		return errors.New(errors.ErrCodeInvalidAuditInput, "market price must be positive")
	}
	c := newConsumerWithReader(testConfig(), reader, dlq, handler, logging.NewNopLogger())

	runConsumer(t, c, reader, 1)

	assert.Equal(t, int64(1), attempts.Load(), "validation failures are permanent")
	assert.Len(t, writer.written(), 1)
	assert.Equal(t, int64(1), c.Metrics().DeadLettered.Load())
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		outcomeMessage(t, underpay.AuditOutcome{
			Carrier: "Acme", ItemName: "Drip edge", ClaimPrice: 80, MarketPrice: 100,
		}),
	}}

	var attempts atomic.Int64
	handler := func(context.Context, *underpay.AuditOutcome) error {
		if attempts.Add(1) < 3 {
			return errors.New(errors.ErrCodeDatabaseError, "transient")
		}
		return nil
	}
	c := newConsumerWithReader(testConfig(), reader, nil, handler, logging.NewNopLogger())

	runConsumer(t, c, reader, 1)

	assert.Equal(t, int64(3), attempts.Load())
	assert.Equal(t, int64(1), c.Metrics().Processed.Load())
}

func TestConsumerExhaustedRetriesDeadLetter(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		outcomeMessage(t, underpay.AuditOutcome{
			Carrier: "Acme", ItemName: "Drip edge", ClaimPrice: 80, MarketPrice: 100,
		}),
	}}
	writer := &fakeWriter{}
	dlq := newProducerWithWriter(writer, logging.NewNopLogger())

	var attempts atomic.Int64
	handler := func(context.Context, *underpay.AuditOutcome) error {
		attempts.Add(1)
		return errors.New(errors.ErrCodeDatabaseError, "still down")
	}
	c := newConsumerWithReader(testConfig(), reader, dlq, handler, logging.NewNopLogger())

	runConsumer(t, c, reader, 1)

	// Initial attempt plus MaxRetries.
	assert.Equal(t, int64(4), attempts.Load())
	assert.Len(t, writer.written(), 1)
	assert.Equal(t, int64(1), c.Metrics().Failed.Load())
}

func TestConsumerStartTwiceFails(t *testing.T) {
	reader := &fakeReader{}
	c := newConsumerWithReader(testConfig(), reader, nil,
		func(context.Context, *underpay.AuditOutcome) error { return nil },
		logging.NewNopLogger())

	require.NoError(t, c.Start(context.Background()))
	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	require.NoError(t, c.Stop())
}
