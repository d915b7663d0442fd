package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the transaction type as it appears in the input stream.
// Unrecognized values are kept verbatim so the ledger can report them.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// ParseKind normalizes a raw type column.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnown reports whether k is one of the five supported kinds.
func (k Kind) IsKnown() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return true
	}
	return false
}

// References reports whether k points at a previously stored transaction.
func (k Kind) References() bool {
	return k == KindDispute || k == KindResolve || k == KindChargeback
}

// Transaction is a single input record.
type Transaction struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Amount   *decimal.Decimal
	Disputed bool
}

// AmountOrZero returns the amount, treating an absent one as zero.
func (t *Transaction) AmountOrZero() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return *t.Amount
}
