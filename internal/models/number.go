package models

import (
	"encoding/json"
	"math"
)

// Number is a float64 that survives JSON encoding when it is infinite or NaN.
// Infinities are written as the strings "Infinity" and "-Infinity", NaN as null.
type Number float64

// Inf returns positive infinity as a Number.
func Inf() Number {
	return Number(math.Inf(1))
}

// IsInf reports whether n is infinite.
func (n Number) IsInf() bool {
	return math.IsInf(float64(n), 0)
}

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(f)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*n = Number(math.NaN())
		return nil
	case `"Infinity"`:
		*n = Number(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*n = Number(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
