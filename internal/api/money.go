package api

import (
	"github.com/shopspring/decimal"
)

// Money is a decimal amount rendered as a JSON number with two fraction
// digits. It accepts numbers and numeric strings on input.
type Money decimal.Decimal

// Decimal returns m as a decimal.Decimal.
func (m Money) Decimal() decimal.Decimal { return decimal.Decimal(m) }

func (m Money) String() string { return decimal.Decimal(m).StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}

// Ratio is a decimal fraction such as a discount, rendered as a JSON number.
type Ratio decimal.Decimal

// Decimal returns r as a decimal.Decimal.
func (r Ratio) Decimal() decimal.Decimal { return decimal.Decimal(r) }

func (r Ratio) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(r).String()), nil
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*r = Ratio(d)
	return nil
}
