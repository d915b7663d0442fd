package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/iho/txengine/internal/adapter/dto"
	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// RunIDHeader carries the run that produced a snapshot message.
const RunIDHeader = "run_id"

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends one message per account, keyed by client id so all
// snapshots of a client land on the same partition.
// It implements usecase.SnapshotWriter.
type Publisher struct {
	writer  MessageWriter
	retrier usecase.Retrier
	runID   string
}

// NewWriter builds a kafka writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// NewPublisher creates a Publisher. retrier may be nil.
func NewPublisher(writer MessageWriter, retrier usecase.Retrier, runID string) *Publisher {
	return &Publisher{
		writer:  writer,
		retrier: retrier,
		runID:   runID,
	}
}

// Name identifies the sink.
func (p *Publisher) Name() string {
	return "kafka"
}

// Write publishes the whole snapshot as a single batch.
func (p *Publisher) Write(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(accounts))
	for _, acc := range accounts {
		snap := dto.AccountFromDomain(acc)
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal client %d: %w", snap.Client, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(snap.Client), 10)),
			Value: data,
			Headers: []kafka.Header{
				{Key: RunIDHeader, Value: []byte(p.runID)},
			},
		})
	}

	send := func() error {
		return p.writer.WriteMessages(ctx, msgs...)
	}
	if p.retrier == nil {
		return send()
	}
	return p.retrier.Retry(ctx, send)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
