package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher mirrors persisted audit entries onto a Kafka topic for
// downstream consumers (compliance exports, alerting). Messages are keyed
// by nominee id so one nominee's trail stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// auditMessage is the wire shape published to Kafka.
type auditMessage struct {
	ID          string    `json:"id"`
	NomineeID   string    `json:"nominee_id"`
	OwnerID     string    `json:"owner_id"`
	Action      string    `json:"action"`
	Detail      string    `json:"detail,omitempty"`
	SubjectRef  string    `json:"subject_ref,omitempty"`
	SourceIP    string    `json:"source_ip"`
	UserAgent   string    `json:"user_agent"`
	DeviceClass string    `json:"device_class"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	topics, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, topic); err != nil {
		return fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(auditMessage{
		ID:          e.ID.String(),
		NomineeID:   e.NomineeID.String(),
		OwnerID:     e.OwnerID.String(),
		Action:      string(e.Action),
		Detail:      e.Detail,
		SubjectRef:  e.SubjectRef,
		SourceIP:    e.SourceIP,
		UserAgent:   e.UserAgent,
		DeviceClass: string(e.DeviceClass),
		Status:      string(e.Status),
		Timestamp:   e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.NomineeID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit message: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
