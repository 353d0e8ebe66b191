package searchql

import (
	"strconv"

	"github.com/valyala/fastjson"
)

// Bounds decodes the range payload into its inclusive lower and upper bounds.
// Integers decode to int64 so large IDs and timestamps stay exact, other
// numbers to float64, strings to string and null to nil (open bound).
// Any payload that is not an array of exactly two such values yields a
// *MalformedRangeError.
func (r Range) Bounds() (lower, upper any, err error) {
	v, err := fastjson.Parse(r.Payload)
	if err != nil {
		return nil, nil, &MalformedRangeError{Token: r.Payload, Reason: err.Error()}
	}

	items, err := v.Array()
	if err != nil {
		return nil, nil, &MalformedRangeError{Token: r.Payload, Reason: "payload is not an array"}
	}
	if len(items) != 2 {
		return nil, nil, &MalformedRangeError{
			Token:  r.Payload,
			Reason: "expected 2 bounds, got " + strconv.Itoa(len(items)),
		}
	}

	lower, err = boundValue(r.Payload, items[0])
	if err != nil {
		return nil, nil, err
	}
	upper, err = boundValue(r.Payload, items[1])
	if err != nil {
		return nil, nil, err
	}
	return lower, upper, nil
}

func boundValue(payload string, v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.GetFloat64(), nil
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNull:
		return nil, nil
	default:
		return nil, &MalformedRangeError{Token: payload, Reason: "unsupported bound type " + v.Type().String()}
	}
}
