package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExportLine is one persisted line flattened for tabular export.
type ExportLine struct {
	Date      time.Time
	Journal   string
	Account   string
	Reference string
	Label     string
	Amount    decimal.Decimal
	IsDebit   bool
	IsCredit  bool
	Document  string
}
