package usecase

import (
	"context"

	"github.com/iho/txengine/internal/domain"
)

// TransactionSource yields input records in order.
// Next returns io.EOF once the stream is exhausted. Errors wrapping
// domain.ErrMalformedRecord affect a single record only; any other error
// ends the stream.
type TransactionSource interface {
	Next() (domain.Transaction, error)
}

// SnapshotWriter renders the final account set to some destination.
type SnapshotWriter interface {
	Name() string
	Write(ctx context.Context, accounts []domain.Account) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier runs an operation until it succeeds or gives up.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
