package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

// Input column names.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Reader streams transactions from CSV input with a header row.
// It implements usecase.TransactionSource.
type Reader struct {
	r       *stdcsv.Reader
	columns map[string]int
	empty   bool
}

// NewReader reads the header from r. Columns are matched by name so their
// order is free and the amount column may be absent.
func NewReader(r io.Reader) (*Reader, error) {
	cr := stdcsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Reader{r: cr, empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	return &Reader{r: cr, columns: columns}, nil
}

// Next returns the next transaction, io.EOF at the end of input, or an error
// wrapping domain.ErrMalformedRecord for a record that cannot be parsed.
func (r *Reader) Next() (domain.Transaction, error) {
	if r.empty {
		return domain.Transaction{}, io.EOF
	}

	record, err := r.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Transaction{}, io.EOF
		}
		var parseErr *stdcsv.ParseError
		if errors.As(err, &parseErr) {
			return domain.Transaction{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, parseErr)
		}
		return domain.Transaction{}, err
	}

	line, _ := r.r.FieldPos(0)

	tx, err := r.parse(record)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedRecord, line, err)
	}
	return tx, nil
}

func (r *Reader) parse(record []string) (domain.Transaction, error) {
	var tx domain.Transaction

	tx.Kind = domain.ParseKind(r.field(record, ColumnType))

	client, err := strconv.ParseUint(r.field(record, ColumnClient), 10, 16)
	if err != nil {
		return tx, fmt.Errorf("invalid client id %q", r.field(record, ColumnClient))
	}
	tx.ClientID = uint16(client)

	id, err := strconv.ParseUint(r.field(record, ColumnTx), 10, 32)
	if err != nil {
		return tx, fmt.Errorf("invalid tx id %q", r.field(record, ColumnTx))
	}
	tx.TxID = uint32(id)

	if raw := r.field(record, ColumnAmount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return tx, fmt.Errorf("invalid amount %q", raw)
		}
		tx.Amount = &amount
	}

	return tx, nil
}

func (r *Reader) field(record []string, name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
