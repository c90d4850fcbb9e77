package tariff

import (
	"github.com/shopspring/decimal"

	"github.com/millworks/tariffmill/internal/models"
)

// CurrencyPrecision is the scale duty amounts are reported at.
const CurrencyPrecision = 2

// RoundCurrency rounds a monetary amount half-to-even at the given scale.
// Every currency figure that leaves this package goes through here so that
// rounding behaves identically everywhere.
func RoundCurrency(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.RoundBank(precision)
}

// Calculator derives duty amounts from a resolved rule and a line item.
type Calculator struct {
	precision int32
}

func NewCalculator(precision int32) *Calculator {
	if precision <= 0 {
		precision = CurrencyPrecision
	}
	return &Calculator{precision: precision}
}

// Duty computes the owed amount for an item under a rule. Ad-valorem duty is
// rate times the declared total value; specific duty is rate times quantity.
// A rule carrying both yields the sum, rounded once at the end. A rule with
// neither rate owes nothing but still counts as matched.
func (c *Calculator) Duty(item models.LineItem, rule models.TariffRule) decimal.Decimal {
	total := decimal.Zero
	if rule.AdvaloremRate != nil {
		total = total.Add(item.TotalPrice.Mul(*rule.AdvaloremRate))
	}
	if rule.SpecificRate != nil {
		total = total.Add(item.Quantity.Mul(*rule.SpecificRate))
	}
	return RoundCurrency(total, c.precision)
}
