package domain

import "strings"

// Polarity is an account's natural increase side. Line amounts are signed
// relative to it: a positive amount increases the account on its natural
// side, a negative amount increases the opposite side.
type Polarity int

const (
	PolarityNone Polarity = iota
	PolarityDebit
	PolarityCredit
)

func (p Polarity) String() string {
	switch p {
	case PolarityDebit:
		return "debit"
	case PolarityCredit:
		return "credit"
	default:
		return "none"
	}
}

// AccountType classifies a ledger account. The high nibble encodes the
// debit/credit class: 0x10 marks debit-natured types, 0x20 credit-natured.
type AccountType int

const (
	TypeOther        AccountType = 0x00
	TypeView         AccountType = 0x01
	TypeDepreciation AccountType = 0x02
	TypeTax          AccountType = 0x03
	TypeOffBalance   AccountType = 0x04

	TypeAsset      AccountType = 0x10
	TypeExpense    AccountType = 0x11
	TypeReceivable AccountType = 0x12
	TypeLiquidity  AccountType = 0x13
	TypeStock      AccountType = 0x14

	TypeLiability AccountType = 0x20
	TypeEquity    AccountType = 0x21
	TypeRevenue   AccountType = 0x22
	TypePayable   AccountType = 0x23
)

// Polarity returns the natural increase side for the account type.
func (t AccountType) Polarity() Polarity {
	switch {
	case t&0x10 != 0:
		return PolarityDebit
	case t&0x20 != 0:
		return PolarityCredit
	default:
		return PolarityNone
	}
}

// AccountTypeFromString maps a type name to an AccountType. Unknown names
// map to TypeOther; "cash" is an alias for liquidity.
func AccountTypeFromString(value string) AccountType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cash", "liquidity":
		return TypeLiquidity
	case "view":
		return TypeView
	case "depreciation":
		return TypeDepreciation
	case "tax":
		return TypeTax
	case "off_balance":
		return TypeOffBalance
	case "asset":
		return TypeAsset
	case "expense":
		return TypeExpense
	case "receivable":
		return TypeReceivable
	case "stock_inventory", "stock":
		return TypeStock
	case "liability":
		return TypeLiability
	case "equity":
		return TypeEquity
	case "revenue":
		return TypeRevenue
	case "payable":
		return TypePayable
	default:
		return TypeOther
	}
}

// Account is a ledger account belonging to a book template.
type Account struct {
	ID         string
	TemplateID string
	Name       string
	Code       string
	Short      string
	Type       AccountType
	Polarity   Polarity
}

// NewAccount builds an account with its polarity derived from the type.
// Polarity is a plain field set once here, never recomputed implicitly.
func NewAccount(id, templateID, name, code, short string, typ AccountType) *Account {
	return &Account{
		ID:         id,
		TemplateID: templateID,
		Name:       name,
		Code:       code,
		Short:      short,
		Type:       typ,
		Polarity:   typ.Polarity(),
	}
}

// LongCode returns the account code right-padded to 6 characters with zeros.
func (a *Account) LongCode() string {
	if len(a.Code) >= 6 {
		return a.Code
	}
	return a.Code + strings.Repeat("0", 6-len(a.Code))
}

func (a *Account) String() string {
	s := a.Code + " - " + a.Name
	if a.Short != "" {
		s += " [" + a.Short + "]"
	}
	switch a.Polarity {
	case PolarityDebit:
		s += " - Debit"
	case PolarityCredit:
		s += " - Credit"
	default:
		s += " - ?"
	}
	return s
}
