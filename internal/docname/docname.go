// Package docname decodes structured document file names into typed move
// fields. Parsing is pure: no I/O, no errors, a name either matches the
// grammar or it does not.
package docname

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookscan/internal/domain"
)

// Grammar: <date:8 digits>( - <reference:7-9 digits>)? - <label>( - <values>)?
// where label is the shortest run not starting with a digit and values is a
// comma-separated list of key:value items. The values alternative is strict:
// a trailing segment that is not a well-formed key:value list stays part of
// the label ("Some label 2" keeps its 2).
var nameRe = regexp.MustCompile(
	`^(?P<date>[0-9]{8})( - (?P<reference>[0-9]{7,9}))? - ` +
		`(?P<label>[^0-9].+?)` +
		`( - (?P<values>[a-z0-9]+ *: *[a-z0-9.+-]+( *, *[a-z0-9]+ *: *[a-z0-9.+-]+)*))?$`,
)

var numberRe = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// Parsed holds the typed fields decoded from a document name stem.
type Parsed struct {
	Date      time.Time
	Reference *string
	Label     string
	Values    []domain.RawValue
}

// Parse decodes a file name stem. The second return is false when the name
// does not fit the grammar; callers skip such names silently.
func Parse(stem string) (*Parsed, bool) {
	m := nameRe.FindStringSubmatch(stem)
	if m == nil {
		return nil, false
	}

	groups := map[string]string{}
	for i, name := range nameRe.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}

	date, err := time.Parse("20060102", groups["date"])
	if err != nil {
		// Eight digits that are not a calendar date: a grammar
		// mismatch, not a runtime error.
		return nil, false
	}

	parsed := &Parsed{Date: date, Label: groups["label"]}
	if ref := groups["reference"]; ref != "" {
		parsed.Reference = &ref
	}

	if raw := groups["values"]; raw != "" {
		parsed.Values = parseValues(raw)
	}

	return parsed, true
}

// parseValues splits a values segment the grammar already validated.
func parseValues(raw string) []domain.RawValue {
	items := strings.Split(raw, ",")
	values := make([]domain.RawValue, 0, len(items))

	for _, item := range items {
		key, token, _ := strings.Cut(item, ":")
		values = append(values, Coerce(strings.TrimSpace(key), strings.TrimSpace(token)))
	}

	return values
}

// Coerce classifies a token as an exact decimal amount or an opaque string.
// Monetary values are always base-10 decimals, never binary floats.
func Coerce(key, token string) domain.RawValue {
	if numberRe.MatchString(token) {
		if amount, err := decimal.NewFromString(token); err == nil {
			return domain.NewAmountValue(key, amount)
		}
	}
	return domain.NewTextValue(key, token)
}
