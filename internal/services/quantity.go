// internal/services/quantity.go
package services

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Quantity is a stock count that clients may send either as a JSON number or
// as a numeric string, which is what multipart forms tend to produce.
// Unparseable input is kept rather than rejected during decoding so the
// validation error can name the offending size.
type Quantity struct {
	value int
	raw   string
	valid bool
}

func NewQuantity(n int) *Quantity {
	return &Quantity{value: n, raw: strconv.Itoa(n), valid: true}
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}

	value, err := strconv.Atoi(raw)
	*q = Quantity{value: value, raw: raw, valid: err == nil}
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.valid {
		return []byte(strconv.Itoa(q.value)), nil
	}
	return json.Marshal(q.raw)
}

// Int reports the parsed value and whether one was present and numeric.
func (q *Quantity) Int() (int, bool) {
	if q == nil || !q.valid {
		return 0, false
	}
	return q.value, true
}

// Value returns the parsed count, or zero when absent or invalid.
func (q *Quantity) Value() int {
	n, _ := q.Int()
	return n
}

// String returns the value as the client sent it.
func (q *Quantity) String() string {
	if q == nil {
		return ""
	}
	return q.raw
}
