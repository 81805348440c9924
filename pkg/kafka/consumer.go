package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler consumes raw payloads from a single topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerConfig holds consumer settings resolved from ConsumerOptions.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	AutoOffsetReset string
	WorkerCount     int
	BufferSize      int
	RetryMax        int
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	DLQTopic        string
	MinBytes        int
	MaxBytes        int
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*ConsumerConfig)

// WithConsumerBrokers sets the broker addresses.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

// WithConsumerGroupID sets the consumer group.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

// WithConsumerAutoOffsetReset selects where a new group starts reading,
// "earliest" or "latest".
func WithConsumerAutoOffsetReset(mode string) ConsumerOption {
	return func(c *ConsumerConfig) { c.AutoOffsetReset = mode }
}

// WithConsumerWorkers sets the handler goroutine count.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) { c.WorkerCount = count }
}

// WithConsumerRetry bounds handler retries and the backoff window.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ routes exhausted messages to a dead-letter topic.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

// WithConsumerFetch sets fetch min/max bytes per read.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal queue capacity.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// inbound carries one fetched record from a read loop to the worker pool.
type inbound struct {
	topic  string
	record kafka.Message
}

// Consumer fans records from per-topic readers into a shared worker pool.
// Records for the same partition are handled one at a time so offsets land
// in order.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	queue    chan inbound
	dlq      *kafka.Writer
	hook     ConsumerHook

	serialMu sync.Mutex
	serial   map[string]map[int]*sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewConsumer builds a Consumer. At least one broker is required; every
// other setting has a usable default.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:         "default",
		AutoOffsetReset: "earliest",
		WorkerCount:     1,
		BufferSize:      10,
		RetryMax:        3,
		BackoffMin:      50 * time.Millisecond,
		BackoffMax:      2 * time.Second,
		MinBytes:        10e3,
		MaxBytes:        10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		queue:    make(chan inbound, cfg.BufferSize),
		serial:   make(map[string]map[int]*sync.Mutex),
		hook:     NoopHook{},
		stop:     make(chan struct{}),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	consumerMetricsOnce.Do(registerConsumerMetrics)
	return c, nil
}

// WithConsumerHook installs a lifecycle hook. A nil hook is ignored.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler binds a handler to its topic. The first registration for
// a topic wins.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, dup := c.handlers[topic]; dup {
		log.Printf("kafka consumer: duplicate handler for topic %s ignored", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start opens a reader per registered topic and launches the worker pool.
func (c *Consumer) Start() error {
	start := kafka.FirstOffset
	if c.cfg.AutoOffsetReset == "latest" {
		start = kafka.LastOffset
	}

	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: start,
		})
		log.Printf("kafka consumer: subscribed topic=%s group=%s", topic, c.cfg.GroupID)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.workLoop()
	}
	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.readLoop(topic, reader)
	}

	log.Printf("kafka consumer: started topics=%d workers=%d", len(c.readers), c.cfg.WorkerCount)
	return nil
}

// Stop shuts down readers and workers, waiting until ctx expires.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		log.Println("kafka consumer: stopping")
		close(c.stop)
		close(c.queue)
		stopErr = c.awaitShutdown(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("kafka consumer: close reader topic=%s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("kafka consumer: close dlq writer: %v", err)
			}
		}
		if stopErr == nil {
			log.Println("kafka consumer: stopped")
		}
	})
	return stopErr
}

func (c *Consumer) awaitShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("consumer shutdown: %w", ctx.Err())
	}
}

// readLoop fetches records and enqueues them for the worker pool.
func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		record, err := reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				log.Printf("kafka consumer: read topic=%s: %v", topic, err)
			}
			continue
		}
		if !c.enqueue(inbound{topic: topic, record: record}) {
			return
		}
	}
}

// enqueue pushes a record onto the worker queue, spinning with backoff
// instead of dropping when the queue is saturated. Returns false on stop.
func (c *Consumer) enqueue(in inbound) bool {
	for {
		select {
		case c.queue <- in:
			consumerQueueDepth.WithLabelValues(in.topic).Set(float64(len(c.queue)))
			consumerQueueFullness.WithLabelValues(in.topic).Set(c.fullness())
			return true
		case <-c.stop:
			return false
		default:
			full := c.fullness()
			consumerQueueFullness.WithLabelValues(in.topic).Set(full)
			if full > 0.8 {
				time.Sleep(10 * time.Millisecond)
			} else {
				runtime.Gosched()
			}
		}
	}
}

func (c *Consumer) fullness() float64 {
	return float64(len(c.queue)) / float64(cap(c.queue))
}

func (c *Consumer) workLoop() {
	defer c.wg.Done()
	for in := range c.queue {
		handler, ok := c.handlers[in.topic]
		if !ok {
			continue
		}
		c.process(handler, in)
	}
}

// process runs one record through the handler with retries, then commits.
// A panic in the handler is contained to this record.
func (c *Consumer) process(handler MessageHandler, in inbound) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("kafka consumer: handler panic topic=%s: %v", in.topic, r)
		}
		consumerHandleLatency.WithLabelValues(in.topic).Observe(time.Since(start).Seconds())
	}()

	// One in-flight record per partition keeps commit order intact.
	lock := c.partitionLock(in.topic, in.record.Partition)
	lock.Lock()
	defer lock.Unlock()

	err, attempts := c.handleWithRetry(handler, in)
	if err != nil {
		c.hook.OnError(context.Background(), in.topic, in.record, in.record.Value, err)
		log.Printf("kafka consumer: giving up topic=%s attempts=%d: %v", in.topic, attempts, err)
		c.deadLetter(in)
	}

	// Commit on success, or after dead-lettering so a poison record cannot
	// wedge the partition.
	if err == nil || c.dlq != nil {
		if reader := c.readers[in.topic]; reader != nil {
			_ = c.commit(reader, in.record, 3)
		}
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, in inbound) (error, int) {
	var err error
	for attempt := 1; ; attempt++ {
		ctx, record, payload, hookErr := c.hook.BeforeHandle(context.Background(), in.topic, in.record, in.record.Value)
		if hookErr != nil {
			return hookErr, attempt
		}

		err = handler.Handle(ctx, payload)
		c.hook.AfterHandle(ctx, in.topic, record, payload, err)
		if err == nil {
			return nil, attempt
		}
		if attempt > c.cfg.RetryMax {
			return err, attempt
		}

		c.hook.OnError(ctx, in.topic, record, payload, err)
		select {
		case <-time.After(jitterBackoff(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return err, attempt
		}
	}
}

func (c *Consumer) deadLetter(in inbound) {
	if c.dlq == nil {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Value:   in.record.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(in.topic)}},
	})
	if err != nil {
		log.Printf("kafka consumer: dlq write topic=%s: %v", c.cfg.DLQTopic, err)
	}
}

// commit stores the record offset with bounded retries.
func (c *Consumer) commit(reader *kafka.Reader, record kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, record)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(jitterBackoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	log.Printf("kafka consumer: commit failed after %d attempts: %v", max, err)
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.serialMu.Lock()
	defer c.serialMu.Unlock()
	byPart, ok := c.serial[topic]
	if !ok {
		byPart = make(map[int]*sync.Mutex)
		c.serial[topic] = byPart
	}
	lock, ok := byPart[partition]
	if !ok {
		lock = &sync.Mutex{}
		byPart[partition] = lock
	}
	return lock
}

// jitterBackoff doubles from min toward max, then removes up to half as
// jitter so retries from parallel workers spread out.
func jitterBackoff(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := min * time.Duration(1<<uint(attempt-1))
	if d > max || d < min {
		d = max
	}
	return d - time.Duration(rand.Int63n(int64(d)/2))
}

var (
	consumerMetricsOnce   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Name: "stockpulse_kafka_consumer_queue_depth", Help: "Records waiting in the consumer queue"},
		[]string{"topic"},
	)
	consumerQueueFullness = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Name: "stockpulse_kafka_consumer_queue_fullness", Help: "Queue utilization ratio"},
		[]string{"topic"},
	)
	consumerHandleLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Name: "stockpulse_kafka_consumer_handle_seconds", Help: "Per-record handling time"},
		[]string{"topic"},
	)
}
