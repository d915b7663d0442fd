package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/infrastructure/metrics"
	"github.com/iho/txengine/internal/usecase"
	"github.com/iho/txengine/internal/usecase/mocks"
)

// sliceSource replays a fixed list of records and errors.
type sliceSource struct {
	items []sourceItem
}

type sourceItem struct {
	tx  domain.Transaction
	err error
}

func (s *sliceSource) Next() (domain.Transaction, error) {
	if len(s.items) == 0 {
		return domain.Transaction{}, io.EOF
	}
	item := s.items[0]
	s.items = s.items[1:]
	return item.tx, item.err
}

func TestProcessor_Run(t *testing.T) {
	var logs bytes.Buffer
	m := metrics.New()
	p := usecase.NewProcessor(usecase.NewLedger(usecase.LedgerOptions{}), zerolog.New(&logs), m)

	src := &sliceSource{items: []sourceItem{
		{tx: deposit(1, 1, "10")},
		{err: fmt.Errorf("%w: line 3", domain.ErrMalformedRecord)},
		{tx: withdrawal(1, 2, "20")},
		{tx: deposit(2, 3, "1")},
		{tx: domain.Transaction{Kind: domain.Kind("bogus"), ClientID: 2, TxID: 4}},
		{tx: ref(domain.KindDispute, 2, 3)},
		{tx: ref(domain.KindChargeback, 2, 3)},
	}}

	summary, err := p.Run(src)
	require.NoError(t, err)

	assert.Equal(t, usecase.Summary{
		Records:   6,
		Applied:   4,
		Rejected:  2,
		Malformed: 1,
		Accounts:  2,
		Locked:    1,
	}, summary)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.MalformedRecords))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AccountsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AccountsLocked))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transactions.WithLabelValues("withdrawal", "insufficient_funds")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transactions.WithLabelValues("unknown", "unknown_kind")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transactions.WithLabelValues("deposit", "applied")))

	assert.Contains(t, logs.String(), "skipping malformed record")
	assert.Contains(t, logs.String(), "unknown_kind")
	assert.Contains(t, logs.String(), "input processed")
}

func TestProcessor_RunStopsOnReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	readErr := errors.New("disk gone")
	src := mocks.NewMockTransactionSource(ctrl)
	gomock.InOrder(
		src.EXPECT().Next().Return(deposit(1, 1, "2"), nil),
		src.EXPECT().Next().Return(domain.Transaction{}, readErr),
	)

	p := usecase.NewProcessor(usecase.NewLedger(usecase.LedgerOptions{}), zerolog.Nop(), nil)
	summary, err := p.Run(src)

	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, summary.Accounts)

	acc, ok := p.Ledger().Account(1)
	require.True(t, ok)
	assert.Equal(t, "2", acc.Total.String())
}

func TestProcessor_RunEmptyInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockTransactionSource(ctrl)
	src.EXPECT().Next().Return(domain.Transaction{}, io.EOF)

	p := usecase.NewProcessor(usecase.NewLedger(usecase.LedgerOptions{}), zerolog.Nop(), nil)
	summary, err := p.Run(src)

	require.NoError(t, err)
	assert.Equal(t, usecase.Summary{}, summary)
	assert.Empty(t, p.Ledger().Accounts())
}

func TestProcessor_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := usecase.NewLedger(usecase.LedgerOptions{})
	ledger.Apply(deposit(2, 1, "1.5"))
	ledger.Apply(deposit(1, 2, "3"))

	want := ledger.Accounts()
	sinkErr := errors.New("redis down")

	failing := mocks.NewMockSnapshotWriter(ctrl)
	failing.EXPECT().Name().Return("redis").AnyTimes()
	failing.EXPECT().Write(gomock.Any(), want).Return(sinkErr)

	working := mocks.NewMockSnapshotWriter(ctrl)
	working.EXPECT().Name().Return("stdout").AnyTimes()
	working.EXPECT().Write(gomock.Any(), want).Return(nil)

	m := metrics.New()
	p := usecase.NewProcessor(ledger, zerolog.Nop(), m)

	err := p.Publish(context.Background(), failing, working)

	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SnapshotWriteErrors.WithLabelValues("redis")))
}

func TestProcessor_PublishNoWriters(t *testing.T) {
	p := usecase.NewProcessor(usecase.NewLedger(usecase.LedgerOptions{}), zerolog.Nop(), nil)
	assert.NoError(t, p.Publish(context.Background()))
}
