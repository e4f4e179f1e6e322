// Package money holds consultation fees as integer minor units with a
// currency code, and parses the free-form display strings ("₹1,200")
// that older records and clients still send.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultCurrency = "INR"

var ErrNoAmount = errors.New("money: no amount in string")

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Money is an amount in minor units (paise for INR).
type Money struct {
	Minor    int64
	Currency string
}

// FromMajor builds a Money from a whole-currency amount.
func FromMajor(major float64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Minor: int64(math.Round(major * 100)), Currency: currency}
}

func (m Money) Major() float64 {
	return float64(m.Minor) / 100
}

func (m Money) IsZero() bool {
	return m.Minor == 0
}

// String renders the display form: "₹1200", or "₹1200.50" when there are
// paise.
func (m Money) String() string {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	prefix, ok := symbols[cur]
	if !ok {
		prefix = cur + " "
	}
	sign := ""
	minor := m.Minor
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if minor%100 == 0 {
		return fmt.Sprintf("%s%s%d", sign, prefix, minor/100)
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, prefix, minor/100, minor%100)
}

// ParseDisplay extracts the first number from s, ignoring currency symbols.
// A comma is always a grouping separator and a dot always the decimal
// point, so "₹1.200" reads as 1.20, not 1200. The currency comes from the
// earliest symbol, ISO code or currency word and defaults to INR.
func ParseDisplay(s string) (Money, error) {
	s = strings.TrimSpace(s)
	cur := detectCurrency(s)

	var b strings.Builder
	started := false
	seenDot := false
scan:
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			started = true
		case r == ',' && started:
		case r == '.' && started && !seenDot:
			b.WriteRune(r)
			seenDot = true
		case started:
			break scan
		}
	}
	num := strings.TrimSuffix(b.String(), ".")
	if num == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrNoAmount, s)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromMajor(f, cur), nil
}

// marker is a currency hint in a display string. Words only count as
// whole tokens, so "Rs" matches in "Rs. 750" but not in "dollars".
type marker struct {
	currency string
	text     string
	word     bool
}

// markers are checked in this order when two start at the same position.
var markers = []marker{
	{"INR", "₹", false},
	{"USD", "$", false},
	{"EUR", "€", false},
	{"GBP", "£", false},
	{"INR", "INR", true},
	{"INR", "RS", true},
	{"INR", "RUPEE", true},
	{"INR", "RUPEES", true},
	{"USD", "USD", true},
	{"USD", "DOLLAR", true},
	{"USD", "DOLLARS", true},
	{"EUR", "EUR", true},
	{"EUR", "EURO", true},
	{"EUR", "EUROS", true},
	{"GBP", "GBP", true},
	{"GBP", "POUND", true},
	{"GBP", "POUNDS", true},
}

// detectCurrency returns the currency of the earliest marker in s.
func detectCurrency(s string) string {
	upper := strings.ToUpper(s)
	best, cur := -1, DefaultCurrency
	for _, m := range markers {
		i := indexMarker(upper, m)
		if i >= 0 && (best < 0 || i < best) {
			best, cur = i, m.currency
		}
	}
	return cur
}

func indexMarker(s string, m marker) int {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], m.text)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(m.text)
		if !m.word || (!letterBefore(s, i) && !letterAt(s, end)) {
			return i
		}
		from = end
	}
	return -1
}

func letterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r)
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

type wire struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Display  string  `json:"display"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return json.Marshal(wire{Amount: m.Major(), Currency: cur, Display: m.String()})
}

// UnmarshalJSON accepts the object form or a legacy display string. A
// string with no amount decodes to zero rather than failing the request.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseDisplay(s)
		if err != nil {
			*m = Money{Currency: DefaultCurrency}
			return nil
		}
		*m = parsed
		return nil
	}
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*m = FromMajor(f, DefaultCurrency)
		return nil
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = FromMajor(w.Amount, w.Currency)
	return nil
}
