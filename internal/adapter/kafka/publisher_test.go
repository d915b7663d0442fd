package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/txengine/internal/adapter/dto"
	"github.com/iho/txengine/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	calls  int
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Write(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, nil, "run-42")

	accounts := []domain.Account{
		{ClientID: 1, Available: decimal.RequireFromString("2"), Held: decimal.Zero, Total: decimal.RequireFromString("2")},
		{ClientID: 7, Available: decimal.Zero, Held: decimal.Zero, Total: decimal.Zero, Locked: true},
	}

	require.NoError(t, p.Write(context.Background(), accounts))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "1", string(w.msgs[0].Key))
	assert.Equal(t, "7", string(w.msgs[1].Key))
	assert.Equal(t, RunIDHeader, w.msgs[0].Headers[0].Key)
	assert.Equal(t, "run-42", string(w.msgs[0].Headers[0].Value))

	var snap dto.AccountSnapshot
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &snap))
	assert.Equal(t, dto.AccountSnapshot{Client: 7, Available: "0.0000", Held: "0.0000", Total: "0.0000", Locked: true}, snap)
}

func TestPublisher_WriteEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisher(w, nil, "run").Write(context.Background(), nil))
	assert.Zero(t, w.calls)
}

func TestPublisher_WriteError(t *testing.T) {
	brokerErr := errors.New("leader not available")
	w := &fakeWriter{err: brokerErr}
	p := NewPublisher(w, nil, "run")

	err := p.Write(context.Background(), []domain.Account{*domain.NewAccount(1)})
	assert.ErrorIs(t, err, brokerErr)
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, nil, "run")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.Equal(t, "kafka", p.Name())
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "snapshots")
	defer w.Close()

	assert.Equal(t, "snapshots", w.Topic)
	assert.Equal(t, "localhost:9092", w.Addr.String())
}
