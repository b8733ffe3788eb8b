package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/intelligence/underpay"
	"github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// ConsumerConfig holds settings for the audit-outcome consumer.
type ConsumerConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	Topic           string        `mapstructure:"topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	MinBytes        int           `mapstructure:"min_bytes"`
	MaxBytes        int           `mapstructure:"max_bytes"`
	MaxWait         time.Duration `mapstructure:"max_wait"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
	InitialBackoff  time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
}

func (cfg *ConsumerConfig) applyDefaults() {
	if cfg.GroupID == "" {
		cfg.GroupID = "maxclaim-trend-updater"
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicAuditOutcomes
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 * 1024 * 1024
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
}

// OutcomeHandler processes one decoded audit outcome.
type OutcomeHandler func(ctx context.Context, outcome *underpay.AuditOutcome) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerMetrics tracks delivery counters.
type ConsumerMetrics struct {
	Consumed     atomic.Int64
	Processed    atomic.Int64
	Failed       atomic.Int64
	DeadLettered atomic.Int64
}

// Consumer drains audit outcomes from Kafka into the handler.  Transient
// handler failures are retried with exponential backoff; undecodable
// messages and outcomes rejected as invalid go straight to the dead-letter
// topic so one poison message cannot stall the partition.
type Consumer struct {
	reader  ReaderInterface
	dlq     *Producer
	handler OutcomeHandler
	config  ConsumerConfig
	logger  logging.Logger
	metrics *ConsumerMetrics

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer builds a consumer reading cfg.Topic on cfg.Brokers.
func NewConsumer(cfg ConsumerConfig, handler OutcomeHandler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidInput("at least one kafka broker is required")
	}
	if handler == nil {
		return nil, errors.InvalidInput("outcome handler is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg.applyDefaults()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})

	var dlq *Producer
	if cfg.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers}, log)
		if err != nil {
			return nil, err
		}
		dlq = p
	}

	return &Consumer{
		reader:  reader,
		dlq:     dlq,
		handler: handler,
		config:  cfg,
		logger:  log.Named("consumer"),
		metrics: &ConsumerMetrics{},
	}, nil
}

// newConsumerWithReader wires explicit reader and dead-letter producer, for
// tests.
func newConsumerWithReader(cfg ConsumerConfig, reader ReaderInterface, dlq *Producer, handler OutcomeHandler, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg.applyDefaults()
	return &Consumer{
		reader:  reader,
		dlq:     dlq,
		handler: handler,
		config:  cfg,
		logger:  log,
		metrics: &ConsumerMetrics{},
	}
}

// Metrics exposes the delivery counters.
func (c *Consumer) Metrics() *ConsumerMetrics {
	return c.metrics
}

// Start launches the consume loop; it returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started",
		logging.String("topic", c.config.Topic),
		logging.String("group", c.config.GroupID))
	return nil
}

// Stop cancels the loop and waits for it to drain.
func (c *Consumer) Stop() error {
	if !c.running.Swap(false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	if c.dlq != nil {
		if dlqErr := c.dlq.Close(); err == nil {
			err = dlqErr
		}
	}
	c.logger.Info("kafka consumer stopped")
	return err
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch message failed", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}
		c.metrics.Consumed.Add(1)

		c.handleMessage(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Err(err),
				logging.Int64("offset", m.Offset))
		}
	}
}

// handleMessage decodes and processes one message.  By the time it returns
// the message is either processed or dead-lettered, so the caller always
// commits.
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) {
	var outcome underpay.AuditOutcome
	if err := json.Unmarshal(m.Value, &outcome); err != nil {
		c.metrics.Failed.Add(1)
		c.logger.Warn("undecodable audit outcome",
			logging.Err(err),
			logging.Int64("offset", m.Offset))
		c.deadLetter(ctx, m, errors.Wrap(err, errors.ErrCodeAuditSignalDecode, "invalid audit outcome payload"))
		return
	}

	err := c.processWithRetry(ctx, &outcome)
	if err == nil {
		c.metrics.Processed.Add(1)
		return
	}

	c.metrics.Failed.Add(1)
	c.logger.Error("audit outcome processing failed",
		logging.Err(err),
		logging.String("carrier", outcome.Carrier),
		logging.String("item", outcome.ItemName))
	c.deadLetter(ctx, m, err)
}

// processWithRetry invokes the handler, retrying transient failures with
// exponential backoff.  Validation rejections are permanent and never
// retried.
func (c *Consumer) processWithRetry(ctx context.Context, outcome *underpay.AuditOutcome) error {
	operation := func() error {
		err := c.handler(ctx, outcome)
		if err == nil {
			return nil
		}
		if errors.IsCode(err, errors.ErrCodeInvalidAuditInput) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialBackoff
	policy.MaxInterval = c.config.MaxBackoff

	return backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, c.config.MaxRetries), ctx))
}

func (c *Consumer) deadLetter(ctx context.Context, m kafka.Message, cause error) {
	if c.dlq == nil || c.config.DeadLetterTopic == "" {
		return
	}

	headers := map[string]string{
		"origin-topic": m.Topic,
		"error":        cause.Error(),
	}
	if err := c.dlq.Publish(ctx, c.config.DeadLetterTopic, m.Key, m.Value, headers); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err),
			logging.Int64("offset", m.Offset))
		return
	}
	c.metrics.DeadLettered.Add(1)
}
