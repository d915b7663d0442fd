package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/iho/txengine/internal/adapter/dto"
	"github.com/iho/txengine/internal/domain"
)

// Writer renders account snapshots as an indented JSON array.
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
	return "json"
}

// Write encodes all accounts as a single document.
func (w *Writer) Write(_ context.Context, accounts []domain.Account) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(dto.AccountsFromDomain(accounts)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
