package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is one producer record. Value may be []byte, string, or any
// JSON-encodable value.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer publishes records through a shared kafka-go writer.
type Producer struct {
	writer      *kafka.Writer
	compression string
}

// NewProducer builds a Producer. Brokers are required; everything else
// defaults to durable settings (acks from all replicas, gzip, 3 attempts).
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1048576,
		BatchTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}

	producerMetricsOnce.Do(registerProducerMetrics)
	return &Producer{
		compression: cfg.Compression,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  parseCompression(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.BatchTimeout,
			Async:        cfg.Async,
		},
	}, nil
}

// Publish sends one record to topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch sends records to topic in a single write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	records := make([]kafka.Message, 0, len(messages))
	var payloadBytes int64
	for _, m := range messages {
		value, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		records = append(records, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: value,
			Time:  time.Now(),
		})
		payloadBytes += int64(len(value))
	}

	err := p.writer.WriteMessages(ctx, records...)
	p.observe(topic, payloadBytes, len(records), time.Since(start), err)
	return err
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return raw, nil
	}
}

func parseCompression(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

func (p *Producer) observe(topic string, bytes int64, count int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		producerErrors.WithLabelValues(topic).Inc()
	}
	producerMessages.WithLabelValues(topic, p.compression, result).Add(float64(count))
	producerBytes.WithLabelValues(topic, p.compression).Add(float64(bytes))
	producerLatency.WithLabelValues(topic).Observe(elapsed.Seconds())
}

var (
	producerMetricsOnce sync.Once
	producerMessages    *prometheus.CounterVec
	producerErrors      *prometheus.CounterVec
	producerBytes       *prometheus.CounterVec
	producerLatency     *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "stockpulse_kafka_producer_messages_total", Help: "Records published to Kafka"},
		[]string{"topic", "compression", "result"},
	)
	producerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "stockpulse_kafka_producer_errors_total", Help: "Producer write errors"},
		[]string{"topic"},
	)
	producerBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "stockpulse_kafka_producer_bytes_total", Help: "Payload bytes published"},
		[]string{"topic", "compression"},
	)
	producerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Name: "stockpulse_kafka_producer_publish_seconds", Help: "Publish latency", Buckets: prometheus.DefBuckets},
		[]string{"topic"},
	)
}
