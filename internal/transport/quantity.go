package transport

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Quantity is a leniently decoded item count. A JSON number is truncated
// (2.5 is 2) and a string is read up to its first non-digit ("2" and "3 pcs"
// are 2 and 3). Anything else decodes to 0 and never fails the request body.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = 0

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		*q = truncateQuantity(v)
	case string:
		*q = leadingQuantity(v)
	}
	return nil
}

func truncateQuantity(v float64) Quantity {
	if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return Quantity(math.Trunc(v))
}

func leadingQuantity(s string) Quantity {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return Quantity(n)
}
