package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type maskedJSON struct {
	Values []float64 `json:"values"`
	Valid  []bool    `json:"valid"`
}

// UnmarshalJSON accepts a number (scalar), an array of numbers (dense) or an
// object {"values": [...], "valid": [...]} (masked). null leaves f unset.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = Field{}
		return nil
	}
	switch data[0] {
	case '[':
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*f = Dense(values)
	case '{':
		var m maskedJSON
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		if m.Valid == nil {
			return fmt.Errorf("masked field without \"valid\"")
		}
		*f = Masked(m.Values, m.Valid)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = Scalar(v)
	}
	return nil
}

// MarshalJSON is the inverse of UnmarshalJSON.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindScalar:
		return json.Marshal(f.values[0])
	case KindDense:
		return json.Marshal(f.values)
	case KindMasked:
		return json.Marshal(maskedJSON{Values: f.values, Valid: f.valid})
	}
	return []byte("null"), nil
}
