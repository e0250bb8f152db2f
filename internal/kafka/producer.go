package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"gw-transfer-service/internal/models"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Producer interface {
	SendTransferOutcome(ctx context.Context, event models.TransferOutcomeEvent) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second
	config.Producer.Partitioner = sarama.NewHashPartitioner
	return config
}

func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) (Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return NewKafkaProducerWithClient(producer, topic, log), nil
}

func NewKafkaProducerWithClient(producer sarama.SyncProducer, topic string, log *slog.Logger) Producer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// NewOutcomeMessage builds the record for a terminal outcome. Records are keyed
// by source account so outcomes for one account land on the same partition.
func NewOutcomeMessage(topic string, event models.TransferOutcomeEvent) (*sarama.ProducerMessage, error) {
	eventData, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(event.SourceID),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: event.Timestamp,
		Headers: []sarama.RecordHeader{
			{Key: []byte("transfer_id"), Value: []byte(event.TransferID)},
			{Key: []byte("state"), Value: []byte(event.State)},
			{Key: []byte("content-type"), Value: []byte("application/json")},
		},
	}, nil
}

func (p *KafkaProducer) SendTransferOutcome(ctx context.Context, event models.TransferOutcomeEvent) error {
	msg, err := NewOutcomeMessage(p.topic, event)
	if err != nil {
		return err
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	resultCh := make(chan result, 1)

	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			p.log.Error("kafka send failed",
				slog.String("transfer_id", event.TransferID.String()),
				slog.String("error", res.err.Error()))
			return res.err
		}
		p.log.Debug("kafka send success",
			slog.String("transfer_id", event.TransferID.String()),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		p.log.Warn("kafka send cancelled",
			slog.String("transfer_id", event.TransferID.String()))
		return ctx.Err()
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	p.log.Info("закрытие kafka producer")
	return p.producer.Close()
}

type NoOpProducer struct {
	log *slog.Logger
}

func NewNoOpProducer(log *slog.Logger) Producer {
	return &NoOpProducer{log: log}
}

func (p *NoOpProducer) SendTransferOutcome(ctx context.Context, event models.TransferOutcomeEvent) error {
	p.log.Debug("kafka отключен, событие не отправлено",
		slog.String("transfer_id", event.TransferID.String()))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
