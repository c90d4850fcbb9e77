package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountGrammar is the single accepted grammar for invoice amounts:
// either plain digits or comma-grouped thousands, with an optional decimal
// fraction. Signs, currency symbols and other separator conventions are
// rejected here; currency markers are handled as pattern tokens.
var amountGrammar = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)

// ParseAmount converts an invoice numeric token to a decimal. It is the only
// place raw invoice numbers become numeric values; the extractor calls it
// and nothing else does.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !amountGrammar.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("amount %q does not match the invoice number grammar", s)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
