package printsdk

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Number is a numeric field that agents may send as a JSON number or as a
// numeric string. Anything else decodes to an absent Number instead of
// failing the whole report.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a present Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = parseNumber(gjson.ParseBytes(data))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int64 truncates the value toward zero. It returns false when the number is
// absent or does not fit in an int64. float64(math.MaxInt64) rounds up to
// 2^63, so the upper bound is exclusive.
func (n Number) Int64() (int64, bool) {
	if !n.Valid || n.Value >= math.MaxInt64 || n.Value < math.MinInt64 {
		return 0, false
	}
	return int64(n.Value), true
}

// Count is Int64 for counters: negative values are treated as absent.
func (n Number) Count() (int64, bool) {
	v, ok := n.Int64()
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// Ptr returns nil for an absent number.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func parseNumber(res gjson.Result) Number {
	switch res.Type {
	case gjson.Number:
		if math.IsNaN(res.Num) || math.IsInf(res.Num, 0) {
			return Number{}
		}
		return NewNumber(res.Num)
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(res.Str), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Number{}
		}
		return NewNumber(v)
	default:
		return Number{}
	}
}

// Timestamp keeps the agent's reported time in its raw textual form. JSON
// strings are kept verbatim and JSON numbers (epoch milliseconds) keep their
// digits. Interpretation is left to the server.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	switch res.Type {
	case gjson.String:
		*t = Timestamp(res.Str)
	case gjson.Number:
		*t = Timestamp(res.Raw)
	default:
		*t = ""
	}
	return nil
}
