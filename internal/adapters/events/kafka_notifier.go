package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

// KafkaNotifier publishes record summaries to a Kafka topic, keyed by event
// ID.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
}

func NewKafkaNotifier(brokers []string, topic string, opts ...kgo.Opt) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka notifier: topic is required")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaNotifier{client: client, topic: topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, s domain.AuditSummary) error {
	record, err := kafkaRecord(n.topic, s)
	if err != nil {
		return err
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record %d: %w", s.ID, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	n.client.Close()
	return nil
}

func kafkaRecord(topic string, s domain.AuditSummary) (*kgo.Record, error) {
	value, err := json.Marshal(newRecordCreated(s))
	if err != nil {
		return nil, fmt.Errorf("marshal record summary: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(s.EventID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(eventTypeRecordCreated)},
		},
	}, nil
}
