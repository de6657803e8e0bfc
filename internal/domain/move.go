package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Move is one bookkeeping event derived from a document. It exists only in
// memory until submitted to the persistence port, never partially stored.
type Move struct {
	ID          string
	BookID      string
	JournalID   string
	JournalCode string
	Document    string // store-relative path of the originating document
	Date        time.Time
	Reference   *string // optional
	Label       string
}

// FullReference returns the journal-qualified reference, e.g. "FIN/2025001".
func (m *Move) FullReference() string {
	ref := ""
	if m.Reference != nil {
		ref = *m.Reference
	}
	return m.JournalCode + "/" + ref
}

func (m *Move) String() string {
	return m.Date.Format("2006-01-02") + " - " + m.FullReference()
}

// Line is one signed amount posted to one account within a move.
// Account is nil when the document named an account that could not be
// resolved; persistence must reject such lines, they are never dropped
// silently.
type Line struct {
	ID      string
	MoveID  string
	Account *Account
	Amount  decimal.Decimal
}

// IsDebit reports whether the line increases the debit side. Computed from
// the account polarity and the amount sign; false when the account is nil
// or has no polarity.
func (l *Line) IsDebit() bool {
	if l.Account == nil {
		return false
	}
	switch l.Account.Polarity {
	case PolarityDebit:
		return l.Amount.IsPositive()
	case PolarityCredit:
		return l.Amount.IsNegative()
	default:
		return false
	}
}

// IsCredit reports whether the line increases the credit side.
func (l *Line) IsCredit() bool {
	if l.Account == nil {
		return false
	}
	switch l.Account.Polarity {
	case PolarityDebit:
		return l.Amount.IsNegative()
	case PolarityCredit:
		return l.Amount.IsPositive()
	default:
		return false
	}
}

// Balance sums signed line amounts, counting debit-polarity postings
// positive and credit-polarity postings negative. A balanced move sums to
// exactly zero.
func Balance(lines []*Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		switch {
		case l.IsDebit():
			total = total.Add(l.Amount.Abs())
		case l.IsCredit():
			total = total.Sub(l.Amount.Abs())
		}
	}
	return total
}

// RawValue is one ordered key/token pair extracted from a document name or
// supplied as an override. A token is either an exact decimal or an opaque
// string.
type RawValue struct {
	Key     string
	Amount  decimal.Decimal
	Text    string
	Numeric bool
}

// NewAmountValue builds a numeric raw value.
func NewAmountValue(key string, amount decimal.Decimal) RawValue {
	return RawValue{Key: key, Amount: amount, Numeric: true}
}

// NewTextValue builds an opaque string raw value.
func NewTextValue(key, text string) RawValue {
	return RawValue{Key: key, Text: text}
}
