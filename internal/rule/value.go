package rule

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolve turns an operand token into a value: a field of data when the token
// names one, the inner text of a single-quoted literal, an int64, a float64,
// or finally the token itself.
func Resolve(raw string, data map[string]any) any {
	if v, ok := data[raw]; ok {
		return v
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// Truthy reports whether a value counts as true when a connective combines it.
// nil, false, zero numbers and the empty string are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	}
	if n, ok := toNumber(v); ok {
		if n.isInt {
			return n.i != 0
		}
		return n.f != 0
	}
	return true
}

type number struct {
	isInt bool
	i     int64
	f     float64
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func toNumber(v any) (number, bool) {
	switch val := v.(type) {
	case int:
		return number{isInt: true, i: int64(val)}, true
	case int8:
		return number{isInt: true, i: int64(val)}, true
	case int16:
		return number{isInt: true, i: int64(val)}, true
	case int32:
		return number{isInt: true, i: int64(val)}, true
	case int64:
		return number{isInt: true, i: val}, true
	case uint:
		return fromUint(uint64(val)), true
	case uint8:
		return number{isInt: true, i: int64(val)}, true
	case uint16:
		return number{isInt: true, i: int64(val)}, true
	case uint32:
		return number{isInt: true, i: int64(val)}, true
	case uint64:
		return fromUint(val), true
	case float32:
		return number{f: float64(val)}, true
	case float64:
		return number{f: val}, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return number{isInt: true, i: i}, true
		}
		if f, err := val.Float64(); err == nil {
			return number{f: f}, true
		}
	}
	return number{}, false
}

func fromUint(u uint64) number {
	if u > math.MaxInt64 {
		return number{f: float64(u)}
	}
	return number{isInt: true, i: int64(u)}
}

func compareNumbers(a, b number) int {
	if a.isInt && b.isInt {
		return cmp.Compare(a.i, b.i)
	}
	return cmp.Compare(a.float(), b.float())
}

func order(l, r any) (int, error) {
	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if lok && rok {
		return compareNumbers(ln, rn), nil
	}
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		return strings.Compare(ls, rs), nil
	}
	return 0, fmt.Errorf("cannot order %s and %s", describe(l), describe(r))
}

func equals(l, r any) (bool, error) {
	if l == nil || r == nil {
		if l == nil && r == nil {
			return true, nil
		}
		return false, fmt.Errorf("cannot compare %s and %s", describe(l), describe(r))
	}
	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if lok && rok {
		return compareNumbers(ln, rn) == 0, nil
	}
	switch lv := l.(type) {
	case string:
		if rv, ok := r.(string); ok {
			return lv == rv, nil
		}
	case bool:
		if rv, ok := r.(bool); ok {
			return lv == rv, nil
		}
	}
	return false, fmt.Errorf("cannot compare %s and %s", describe(l), describe(r))
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("string %q", s)
	}
	return fmt.Sprintf("%T %v", v, v)
}
