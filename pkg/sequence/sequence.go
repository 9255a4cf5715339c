// Package sequence issues the human-readable record ids used across the
// office ("CL-001", "INV-003", ...). Each kind keeps its own monotonic
// counter in the sequences table; counters are independent of collection
// size, so an id is never re-minted after the record it named was removed.
package sequence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Kind enumerates the record types that receive sequence ids.
type Kind string

const (
	KindClient     Kind = "client"
	KindCase       Kind = "case"
	KindInvoice    Kind = "invoice"
	KindReceipt    Kind = "receipt"
	KindExpense    Kind = "expense"
	KindCommission Kind = "commission"
)

var prefixes = map[Kind]string{
	KindClient:     "CL",
	KindCase:       "CASE",
	KindInvoice:    "INV",
	KindReceipt:    "REC",
	KindExpense:    "EXP",
	KindCommission: "COM",
}

// ErrUnrecognizedKind reports a kind outside the fixed enumeration. This is a
// programming error on the caller's side, not a business failure.
var ErrUnrecognizedKind = errors.New("sequence: unrecognized kind")

// Row is one persistent per-kind counter.
type Row struct {
	Kind       string `gorm:"primaryKey"`
	Prefix     string `gorm:"not null"`
	LastIssued int64  `gorm:"not null"`
}

// TableName keeps the table named sequences.
func (Row) TableName() string { return "sequences" }

// Prefix returns the fixed prefix for a kind.
func Prefix(k Kind) (string, error) {
	p, ok := prefixes[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedKind, k)
	}
	return p, nil
}

// Next issues the next id for kind. It must be called inside the same
// transaction that inserts the record, so the counter bump and the insert
// commit (or roll back) together. The increment is a single UPDATE: it takes
// the row lock on Postgres, and SQLite serializes writers, so two concurrent
// calls for the same kind never observe the same counter value.
func Next(tx *gorm.DB, k Kind) (string, error) {
	prefix, err := Prefix(k)
	if err != nil {
		return "", err
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Row{Kind: string(k), Prefix: prefix, LastIssued: 0}).Error; err != nil {
		return "", err
	}

	if err := tx.Model(&Row{}).Where("kind = ?", string(k)).
		UpdateColumn("last_issued", gorm.Expr("last_issued + 1")).Error; err != nil {
		return "", err
	}

	var row Row
	if err := tx.First(&row, "kind = ?", string(k)).Error; err != nil {
		return "", err
	}
	return Format(prefix, row.LastIssued), nil
}

// Format renders an issued id. Numbers are zero-padded to three digits to
// match the printed document format (INV-001); wider sequences keep growing
// without truncation (INV-1000).
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
