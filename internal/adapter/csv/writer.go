package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/iho/txengine/internal/adapter/dto"
	"github.com/iho/txengine/internal/domain"
)

// Header is the output column order.
var Header = []string{"client", "available", "held", "total", "locked"}

// Writer renders account snapshots as CSV.
// It implements usecase.SnapshotWriter.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer emitting to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Name identifies the sink.
func (w *Writer) Name() string {
	return "csv"
}

// Write emits the header and one row per account. A failing row is reported
// in the returned error and the remaining rows are still written.
func (w *Writer) Write(_ context.Context, accounts []domain.Account) error {
	cw := stdcsv.NewWriter(w.out)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var errs []error
	for _, acc := range accounts {
		snap := dto.AccountFromDomain(acc)
		row := []string{
			strconv.FormatUint(uint64(snap.Client), 10),
			snap.Available,
			snap.Held,
			snap.Total,
			strconv.FormatBool(snap.Locked),
		}
		if err := cw.Write(row); err != nil {
			errs = append(errs, fmt.Errorf("write client %d: %w", snap.Client, err))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}

	return errors.Join(errs...)
}
