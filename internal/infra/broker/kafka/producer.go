package kafka

import (
	"context"
	"fmt"
	"sort"

	"github.com/IBM/sarama"
)

// Producer publishes outbox records synchronously so the relay only marks a
// record sent once every in-sync replica has it.
type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	// idempotent producers require a single in-flight request per broker
	cfg.Net.MaxOpenRequests = 1
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: p}, nil
}

// Publish keys the message by aggregate id so events of one rent or viewing
// land on one partition in order.
func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: recordHeaders(headers),
	}
	if _, _, err := p.sync.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.sync == nil {
		return nil
	}
	err := p.sync.Close()
	p.sync = nil
	return err
}

func recordHeaders(headers map[string]string) []sarama.RecordHeader {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]sarama.RecordHeader, 0, len(keys))
	for _, k := range keys {
		out = append(out, sarama.RecordHeader{Key: []byte(k), Value: []byte(headers[k])})
	}
	return out
}
