// Package money carries currency amounts as integer cents. The store keeps
// them as numeric(12,2); JSON exposes them as decimal strings.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents is the largest amount numeric(12,2) can hold.
const MaxCents Cents = 9_999_999_999_99

var ErrInvalidAmount = errors.New("invalid_amount")

var maxAmount = decimal.New(int64(MaxCents), -2)

type Cents int64

// Parse reads a plain decimal with at most two fractional digits. Exponent
// notation and a trailing point are rejected.
func Parse(raw string) (Cents, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "eE") || strings.HasSuffix(raw, ".") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.Exponent() < -2 {
		return 0, ErrInvalidAmount
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Cents, error) {
	if d.Abs().GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return Cents(d.Shift(2).IntPart()), nil
}

// Decimal returns the amount in currency units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both "12.50" and 12.5.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return ErrInvalidAmount
		}
		text = number.String()
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value writes the fixed two-place text so numeric columns keep exact cents.
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan reads numeric, integer, float and text columns. Aggregates with more
// than two fractional digits are rounded half away from zero.
func (c *Cents) Scan(src any) error {
	if src == nil {
		*c = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: cannot scan %T: %w", src, err)
	}
	parsed, err := fromDecimal(d.Round(2))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
