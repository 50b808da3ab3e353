package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/metrics"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	EventRunCompleted = "migration.completed"
	EventRecordFailed = "migration.record_failed"
)

type Config struct {
	Brokers []string
	Topic   string
}

// Writer is the part of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes migration run events.
type Producer struct {
	writer Writer
	topic  string
	logger ectologger.Logger
}

func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(writer, cfg.Topic, logger)
}

func NewProducerWithWriter(writer Writer, topic string, logger ectologger.Logger) *Producer {
	return &Producer{writer: writer, topic: topic, logger: logger}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// RunCompletedEvent carries the summary of a finished run.
type RunCompletedEvent struct {
	Type      string             `json:"type"`
	RunID     string             `json:"run_id"`
	Summary   *models.RunSummary `json:"summary"`
	Timestamp time.Time          `json:"timestamp"`
	TraceID   string             `json:"trace_id,omitempty"`
}

// RecordFailedEvent describes one record the run could not migrate.
type RecordFailedEvent struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Entity    string    `json:"entity"`
	Key       string    `json:"key"`
	Reason    string    `json:"reason"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *Producer) PublishRunCompleted(ctx context.Context, summary *models.RunSummary) error {
	evt := RunCompletedEvent{
		Type:      EventRunCompleted,
		RunID:     summary.RunID,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
		TraceID:   tracing.GetTraceID(ctx),
	}
	return p.publish(ctx, EventRunCompleted, summary.RunID, evt)
}

// PublishRecordFailures sends one event per failed record in a single batch.
func (p *Producer) PublishRecordFailures(ctx context.Context, runID string, failures []models.RecordError) error {
	if len(failures) == 0 {
		return nil
	}
	now := time.Now().UTC()
	msgs := make([]kafka.Message, 0, len(failures))
	for _, f := range failures {
		data, err := json.Marshal(RecordFailedEvent{
			Type:      EventRecordFailed,
			RunID:     runID,
			Entity:    string(f.Entity),
			Key:       f.Key,
			Reason:    f.Reason,
			Error:     f.Error,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal record failure event: %w", err)
		}
		msgs = append(msgs, p.message(ctx, EventRecordFailed, string(f.Entity)+":"+f.Key, data))
	}
	return p.write(ctx, EventRecordFailed, msgs...)
}

func (p *Producer) publish(ctx context.Context, eventType, key string, evt any) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return p.write(ctx, eventType, p.message(ctx, eventType, key, data))
}

func (p *Producer) message(ctx context.Context, eventType, key string, data []byte) kafka.Message {
	headers := []kafka.Header{
		{Key: "type", Value: []byte(eventType)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}
	if tracestate := tracing.GetTraceState(ctx); tracestate != "" {
		headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(tracestate)})
	}
	return kafka.Message{Key: []byte(key), Value: data, Headers: headers}
}

func (p *Producer) write(ctx context.Context, eventType string, msgs ...kafka.Message) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Publish")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("event.type", eventType),
		attribute.Int("messaging.batch.message_count", len(msgs)),
	)

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish message")
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish %s to Kafka topic %s", eventType, p.topic)
		return err
	}

	span.SetStatus(codes.Ok, "message published")
	metrics.RecordKafkaPublish(p.topic, "success")
	p.logger.WithContext(ctx).Debugf("Published %d %s message(s) to Kafka topic %s", len(msgs), eventType, p.topic)
	return nil
}
