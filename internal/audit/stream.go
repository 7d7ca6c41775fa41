package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// StreamPublisher ships audit events to a Kafka topic as JSON records, keyed
// by record id so one record's history stays ordered within a partition.
// Produce is asynchronous; delivery failures are logged rather than returned
// because the note trail already holds the authoritative copy.
type StreamPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// StreamOption configures the StreamPublisher.
type StreamOption func(*StreamPublisher)

// WithStreamLogger sets the logger for delivery failures.
func WithStreamLogger(logger *slog.Logger) StreamOption {
	return func(p *StreamPublisher) {
		p.logger = logger
	}
}

// NewStreamPublisher connects to the brokers and ensures the topic exists,
// surfacing an unreachable cluster at startup instead of on first emit.
func NewStreamPublisher(ctx context.Context, brokers []string, topic string, opts ...StreamOption) (*StreamPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	p := &StreamPublisher{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

// ensureTopic creates the audit topic with the cluster defaults for
// partitions and replication. An existing topic is not an error.
func (p *StreamPublisher) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, -1, -1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %q: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Emit hands the event to the producer and returns once it is buffered.
func (p *StreamPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RecordID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed",
				"action", event.Action,
				"record_id", event.RecordID,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (p *StreamPublisher) Close(ctx context.Context) error {
	defer p.client.Close()
	return p.client.Flush(ctx)
}
