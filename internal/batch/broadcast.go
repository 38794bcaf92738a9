package batch

import "fmt"

// Frame is the broadcast form of a batch call. Cols holds one column of
// length Len per argument, in argument order.
type Frame struct {
	Len   int
	Names []string
	Cols  [][]float64

	// Valid is the combined validity of a masked call, nil otherwise.
	Valid []bool

	// Scalar is set when every argument was a scalar.
	Scalar bool
}

// Masked reports whether the call carried validity masks.
func (fr *Frame) Masked() bool { return fr.Valid != nil }

// ValidCount returns the number of rows the kernel will see.
func (fr *Frame) ValidCount() int {
	if fr.Valid == nil {
		return fr.Len
	}
	n := 0
	for _, ok := range fr.Valid {
		if ok {
			n++
		}
	}
	return n
}

// Broadcast coerces args to a common length.
//
// Unmasked calls repeat length-1 fields up to the longest field; any other
// length is a *ShapeError. If one field is masked all of them must be masked
// and of equal length, and a row is valid only when it is valid in every
// field.
func Broadcast(args ...Arg) (*Frame, error) {
	masked := 0
	for _, a := range args {
		if !a.Field.IsSet() {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, a.Name)
		}
		if a.Field.IsMasked() {
			masked++
		}
	}
	if masked > 0 {
		if masked != len(args) {
			return nil, ErrMixedMask
		}
		return broadcastMasked(args)
	}

	fr := &Frame{Scalar: true}
	for _, a := range args {
		if a.Field.Kind() != KindScalar {
			fr.Scalar = false
		}
		if n := a.Field.Len(); n > fr.Len {
			fr.Len = n
		}
	}
	for _, a := range args {
		values := a.Field.Values()
		switch len(values) {
		case fr.Len:
			fr.Cols = append(fr.Cols, values)
		case 1:
			fr.Cols = append(fr.Cols, repeat(values[0], fr.Len))
		default:
			return nil, &ShapeError{Field: a.Name, Len: len(values), Want: fr.Len}
		}
		fr.Names = append(fr.Names, a.Name)
	}
	return fr, nil
}

func broadcastMasked(args []Arg) (*Frame, error) {
	n := args[0].Field.Len()
	fr := &Frame{Len: n, Valid: repeatBool(true, n)}
	for _, a := range args {
		values, valid := a.Field.Values(), a.Field.Valid()
		if len(values) != n || len(valid) != n {
			return nil, fmt.Errorf("%w (%s)", ErrMaskLength, a.Name)
		}
		for i, ok := range valid {
			fr.Valid[i] = fr.Valid[i] && ok
		}
		fr.Cols = append(fr.Cols, values)
		fr.Names = append(fr.Names, a.Name)
	}
	return fr, nil
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repeatBool(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}
