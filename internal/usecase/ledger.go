package usecase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

// LedgerOptions controls input validation that the ledger does not apply by default.
type LedgerOptions struct {
	// RejectNegativeAmounts fails deposits and withdrawals with a negative amount.
	// When false a negative deposit reduces the balance.
	RejectNegativeAmounts bool
	// RejectMissingAmount fails deposits and withdrawals without an amount.
	// When false the amount is taken as zero.
	RejectMissingAmount bool
}

// Outcome is the result of applying one record.
type Outcome struct {
	Transaction    domain.Transaction
	AccountCreated bool
	Err            error
}

// Applied reports whether the record changed ledger state.
func (o Outcome) Applied() bool {
	return o.Err == nil
}

// Ledger owns every account and every disputable transaction seen so far.
// It is not safe for concurrent use; records must be applied in input order.
type Ledger struct {
	accounts     map[uint16]*domain.Account
	transactions map[uint32]*domain.Transaction
	opts         LedgerOptions
}

// NewLedger creates an empty ledger.
func NewLedger(opts LedgerOptions) *Ledger {
	return &Ledger{
		accounts:     make(map[uint16]*domain.Account),
		transactions: make(map[uint32]*domain.Transaction),
		opts:         opts,
	}
}

// Apply routes tx to its client's account, creating the account if needed.
func (l *Ledger) Apply(tx domain.Transaction) Outcome {
	out := Outcome{Transaction: tx}

	account, ok := l.accounts[tx.ClientID]
	if !ok {
		account = domain.NewAccount(tx.ClientID)
		l.accounts[tx.ClientID] = account
		out.AccountCreated = true
	}

	switch tx.Kind {
	case domain.KindDeposit:
		out.Err = l.applyFunds(tx, account.Deposit)
	case domain.KindWithdrawal:
		out.Err = l.applyFunds(tx, account.Withdraw)
	case domain.KindDispute:
		out.Err = l.applyReference(tx, false, account.Dispute, true)
	case domain.KindResolve:
		out.Err = l.applyReference(tx, true, account.Resolve, false)
	case domain.KindChargeback:
		out.Err = l.applyReference(tx, true, account.Chargeback, false)
	default:
		out.Err = fmt.Errorf("%w: %q", domain.ErrUnknownKind, string(tx.Kind))
	}

	return out
}

func (l *Ledger) applyFunds(tx domain.Transaction, op func(decimal.Decimal) error) error {
	if tx.Amount == nil && l.opts.RejectMissingAmount {
		return fmt.Errorf("%w: tx %d", domain.ErrMissingAmount, tx.TxID)
	}

	// Rounded before use so the stored amount matches what the balances moved.
	amount := tx.AmountOrZero().Round(domain.BalancePlaces)
	if amount.IsNegative() && l.opts.RejectNegativeAmounts {
		return fmt.Errorf("%w: tx %d amount %s", domain.ErrNegativeAmount, tx.TxID, amount)
	}

	if err := op(amount); err != nil {
		return err
	}

	l.transactions[tx.TxID] = &domain.Transaction{
		Kind:     tx.Kind,
		ClientID: tx.ClientID,
		TxID:     tx.TxID,
		Amount:   &amount,
	}
	return nil
}

// applyReference runs op against the stored transaction tx points at.
// wantDisputed is the flag the stored record must carry for op to run and
// setDisputed is the flag it carries afterwards.
func (l *Ledger) applyReference(tx domain.Transaction, wantDisputed bool, op func(*domain.Transaction) error, setDisputed bool) error {
	stored, ok := l.transactions[tx.TxID]
	if !ok {
		return fmt.Errorf("%w: tx %d", domain.ErrTransactionNotFound, tx.TxID)
	}

	if stored.Disputed != wantDisputed {
		if stored.Disputed {
			return fmt.Errorf("%w: tx %d", domain.ErrAlreadyDisputed, tx.TxID)
		}
		return fmt.Errorf("%w: tx %d", domain.ErrNotDisputed, tx.TxID)
	}

	if err := op(stored); err != nil {
		return err
	}

	stored.Disputed = setDisputed
	return nil
}

// Account returns a copy of the account for clientID.
func (l *Ledger) Account(clientID uint16) (domain.Account, bool) {
	acc, ok := l.accounts[clientID]
	if !ok {
		return domain.Account{}, false
	}
	return *acc, true
}

// Transaction returns a copy of the stored deposit or withdrawal with txID.
func (l *Ledger) Transaction(txID uint32) (domain.Transaction, bool) {
	tx, ok := l.transactions[txID]
	if !ok {
		return domain.Transaction{}, false
	}
	return *tx, true
}

// Accounts returns a copy of every account ordered by client id.
func (l *Ledger) Accounts() []domain.Account {
	accounts := make([]domain.Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, *acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ClientID < accounts[j].ClientID
	})
	return accounts
}

// OutcomeLabel maps an apply result to a short reason used in logs and metrics.
func OutcomeLabel(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, domain.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "tx_not_found"
	case errors.Is(err, domain.ErrAlreadyDisputed):
		return "already_disputed"
	case errors.Is(err, domain.ErrNotDisputed):
		return "not_disputed"
	case errors.Is(err, domain.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, domain.ErrNegativeAmount):
		return "negative_amount"
	case errors.Is(err, domain.ErrMissingAmount):
		return "missing_amount"
	default:
		return "error"
	}
}
