package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/infrastructure/metrics"
)

// Summary counts what happened during a run.
type Summary struct {
	Records   int
	Applied   int
	Rejected  int
	Malformed int
	Accounts  int
	Locked    int
}

// Processor drives a Ledger from a TransactionSource and hands the result to sinks.
type Processor struct {
	ledger  *Ledger
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(ledger *Ledger, logger zerolog.Logger, metrics *metrics.Metrics) *Processor {
	return &Processor{
		ledger:  ledger,
		logger:  logger,
		metrics: metrics,
	}
}

// Ledger returns the ledger being driven.
func (p *Processor) Ledger() *Ledger {
	return p.ledger
}

// Run applies every record from src in order. Malformed records and rejected
// operations are logged and skipped. A non-record error from src stops the
// loop and is returned together with the summary gathered so far.
func (p *Processor) Run(src TransactionSource) (Summary, error) {
	start := time.Now()
	var summary Summary
	var runErr error

	for {
		tx, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, domain.ErrMalformedRecord) {
				summary.Malformed++
				p.logger.Warn().Err(err).Msg("skipping malformed record")
				if p.metrics != nil {
					p.metrics.MalformedRecords.Inc()
				}
				continue
			}
			runErr = fmt.Errorf("read input: %w", err)
			break
		}

		summary.Records++
		p.record(p.ledger.Apply(tx), &summary)
	}

	for _, acc := range p.ledger.Accounts() {
		summary.Accounts++
		if acc.Locked {
			summary.Locked++
		}
	}

	if p.metrics != nil {
		p.metrics.AccountsLocked.Set(float64(summary.Locked))
		p.metrics.RunDuration.Set(time.Since(start).Seconds())
	}

	p.logger.Info().
		Int("records", summary.Records).
		Int("applied", summary.Applied).
		Int("rejected", summary.Rejected).
		Int("malformed", summary.Malformed).
		Int("accounts", summary.Accounts).
		Int("locked", summary.Locked).
		Dur("elapsed", time.Since(start)).
		Msg("input processed")

	return summary, runErr
}

func (p *Processor) record(out Outcome, summary *Summary) {
	label := OutcomeLabel(out.Err)

	if p.metrics != nil {
		kind := string(out.Transaction.Kind)
		if !out.Transaction.Kind.IsKnown() {
			kind = "unknown"
		}
		p.metrics.Transactions.WithLabelValues(kind, label).Inc()
		if out.AccountCreated {
			p.metrics.AccountsCreated.Inc()
		}
	}

	if out.Applied() {
		summary.Applied++
		return
	}
	summary.Rejected++

	evt := p.logger.Debug()
	if errors.Is(out.Err, domain.ErrUnknownKind) || errors.Is(out.Err, domain.ErrAccountLocked) {
		evt = p.logger.Warn()
	}
	evt.Err(out.Err).
		Str("kind", string(out.Transaction.Kind)).
		Uint16("client", out.Transaction.ClientID).
		Uint32("tx", out.Transaction.TxID).
		Str("reason", label).
		Msg("transaction rejected")
}

// Publish writes the ledger's accounts to every writer. A failing writer does
// not stop the others; all failures are returned joined.
func (p *Processor) Publish(ctx context.Context, writers ...SnapshotWriter) error {
	accounts := p.ledger.Accounts()
	var errs []error

	for _, w := range writers {
		if err := w.Write(ctx, accounts); err != nil {
			p.logger.Error().Err(err).Str("sink", w.Name()).Msg("snapshot write failed")
			if p.metrics != nil {
				p.metrics.SnapshotWriteErrors.WithLabelValues(w.Name()).Inc()
			}
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		p.logger.Debug().Str("sink", w.Name()).Int("accounts", len(accounts)).Msg("snapshot written")
	}

	return errors.Join(errs...)
}
