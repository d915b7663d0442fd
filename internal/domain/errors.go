package domain

import "errors"

var (
	// Account errors
	ErrAccountLocked     = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrMissingAmount     = errors.New("amount is required")

	// Transaction reference errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyDisputed     = errors.New("transaction is already disputed")
	ErrNotDisputed         = errors.New("transaction is not disputed")
	ErrUnknownKind         = errors.New("unsupported transaction type")

	// Input errors
	ErrMalformedRecord = errors.New("malformed transaction record")
)
