// Package batch broadcasts scalar, dense and masked inputs to a common
// length and evaluates a per-element kernel over the valid rows.
package batch

// Kind tags the shape of a Field.
type Kind uint8

const (
	kindUnset Kind = iota
	KindScalar
	KindDense
	KindMasked
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindDense:
		return "dense"
	case KindMasked:
		return "masked"
	}
	return "unset"
}

// Field is one named input of a batch call: a scalar, a dense sequence or a
// sequence with a parallel validity mask. The zero Field is unset.
type Field struct {
	kind   Kind
	values []float64
	valid  []bool
}

// Scalar wraps a single value.
func Scalar(v float64) Field {
	return Field{kind: KindScalar, values: []float64{v}}
}

// Dense wraps a sequence of values.
func Dense(values []float64) Field {
	return Field{kind: KindDense, values: values}
}

// Masked wraps a sequence of values where valid[i] reports whether values[i]
// is present.
func Masked(values []float64, valid []bool) Field {
	return Field{kind: KindMasked, values: values, valid: valid}
}

func (f Field) Kind() Kind { return f.kind }
func (f Field) Len() int { return len(f.values) }
func (f Field) Values() []float64 { return f.values }
func (f Field) Valid() []bool { return f.valid }
func (f Field) IsMasked() bool { return f.kind == KindMasked }
func (f Field) IsSet() bool { return f.kind != kindUnset }

// Arg binds a Field to the name used in error messages.
type Arg struct {
	Name  string
	Field Field
}

// Named is shorthand for Arg{name, f}.
func Named(name string, f Field) Arg {
	return Arg{Name: name, Field: f}
}
