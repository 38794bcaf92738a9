package batch

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(row, out []float64) error {
	out[0] = 0
	for _, v := range row {
		out[0] += v
	}
	return nil
}

func TestBroadcastScalars(t *testing.T) {
	fr, err := Broadcast(Named("a", Scalar(1)), Named("b", Scalar(2)))
	require.NoError(t, err)
	assert.Equal(t, 1, fr.Len)
	assert.True(t, fr.Scalar)
	assert.False(t, fr.Masked())
	assert.Equal(t, [][]float64{{1}, {2}}, fr.Cols)
}

func TestBroadcastRepeatsLengthOne(t *testing.T) {
	fr, err := Broadcast(
		Named("distance", Scalar(111000)),
		Named("azimuth", Dense([]float64{90})),
		Named("latitude", Dense([]float64{40, 50, 60})),
		Named("longitude", Dense([]float64{-76, -86, -96})),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, fr.Len)
	assert.False(t, fr.Scalar)
	assert.Equal(t, []float64{111000, 111000, 111000}, fr.Cols[0])
	assert.Equal(t, []float64{90, 90, 90}, fr.Cols[1])
	assert.Equal(t, []string{"distance", "azimuth", "latitude", "longitude"}, fr.Names)
}

func TestBroadcastShapeMismatch(t *testing.T) {
	_, err := Broadcast(
		Named("latitude", Dense([]float64{1, 2, 3})),
		Named("longitude", Dense([]float64{1, 2})),
	)
	require.ErrorIs(t, err, ErrShapeMismatch)

	var se *ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "longitude", se.Field)
	assert.Equal(t, 2, se.Len)
	assert.Equal(t, 3, se.Want)

	_, err = Broadcast(Named("a", Scalar(1)), Named("b", Dense(nil)))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBroadcastEmpty(t *testing.T) {
	fr, err := Broadcast(Named("a", Dense(nil)), Named("b", Dense([]float64{})))
	require.NoError(t, err)
	assert.Equal(t, 0, fr.Len)

	out, err := fr.Evaluate(context.Background(), 4, 1, sum)
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].Len())
}

func TestBroadcastMissingField(t *testing.T) {
	_, err := Broadcast(Named("a", Scalar(1)), Named("b", Field{}))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBroadcastMasks(t *testing.T) {
	tests := []struct {
		name string
		args []Arg
		err  error
	}{
		{
			name: "mixed masked and scalar",
			args: []Arg{
				Named("a", Masked([]float64{0}, []bool{true})),
				Named("b", Scalar(0)),
			},
			err: ErrMixedMask,
		},
		{
			name: "mixed masked and dense of same data",
			args: []Arg{
				Named("a", Masked([]float64{0, 1}, []bool{true, true})),
				Named("b", Dense([]float64{0, 1})),
			},
			err: ErrMixedMask,
		},
		{
			name: "unequal lengths",
			args: []Arg{
				Named("a", Masked([]float64{0, 1}, []bool{true, true})),
				Named("b", Masked([]float64{0}, []bool{true})),
			},
			err: ErrMaskLength,
		},
		{
			name: "mask shorter than values",
			args: []Arg{
				Named("a", Masked([]float64{0, 1}, []bool{true})),
				Named("b", Masked([]float64{0, 1}, []bool{true, true})),
			},
			err: ErrMaskLength,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Broadcast(tt.args...)
			require.ErrorIs(t, err, tt.err)
			assert.ErrorIs(t, err, ErrMaskConsistency)
		})
	}
}

func TestEvaluateMasked(t *testing.T) {
	fr, err := Broadcast(
		Named("a", Masked([]float64{1, 2, 3, 4}, []bool{true, false, true, true})),
		Named("b", Masked([]float64{10, 20, 30, 40}, []bool{true, true, true, false})),
	)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, fr.Valid)
	assert.Equal(t, 2, fr.ValidCount())

	var calls int64
	out, err := fr.Evaluate(context.Background(), 3, 2, func(row, res []float64) error {
		atomic.AddInt64(&calls, 1)
		res[0] = row[0] + row[1]
		res[1] = row[0] * row[1]
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)

	require.Len(t, out, 2)
	assert.True(t, out[0].IsMasked())
	v, ok := out[0].At(0)
	assert.True(t, ok)
	assert.Equal(t, 11.0, v)
	_, ok = out[0].At(1)
	assert.False(t, ok)
	v, ok = out[1].At(2)
	assert.True(t, ok)
	assert.Equal(t, 90.0, v)
	_, ok = out[1].At(3)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(out[1].Values[3]))
}

func TestEvaluateAllInvalid(t *testing.T) {
	fr, err := Broadcast(
		Named("a", Masked([]float64{1, 2}, []bool{false, false})),
		Named("b", Masked([]float64{1, 2}, []bool{true, true})),
	)
	require.NoError(t, err)

	out, err := fr.Evaluate(context.Background(), 0, 1, func(row, res []float64) error {
		t.Fatal("kernel called for an invalid row")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out[0].Len())
	assert.Equal(t, []bool{false, false}, out[0].Valid)
}

func TestEvaluateEmptyMaskedKeepsMask(t *testing.T) {
	fr, err := Broadcast(
		Named("a", Masked([]float64{}, []bool{})),
		Named("b", Masked([]float64{}, []bool{})),
	)
	require.NoError(t, err)
	require.True(t, fr.Masked())

	out, err := fr.Evaluate(context.Background(), 0, 2, func(row, res []float64) error {
		t.Fatal("kernel called on an empty batch")
		return nil
	})
	require.NoError(t, err)
	for _, s := range out {
		assert.Equal(t, 0, s.Len())
		assert.True(t, s.IsMasked())
	}
}

func TestEvaluateParallelOrder(t *testing.T) {
	n := 1000
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	fr, err := Broadcast(Named("x", Dense(xs)), Named("y", Scalar(0.5)))
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 8, 2000} {
		out, err := fr.Evaluate(context.Background(), workers, 1, sum)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.Equal(t, float64(i)+0.5, out[0].Values[i], "workers=%d index=%d", workers, i)
		}
	}
}

func TestEvaluateKernelError(t *testing.T) {
	boom := errors.New("boom")
	fr, err := Broadcast(Named("x", Dense([]float64{1, 2, 3, 4})))
	require.NoError(t, err)

	_, err = fr.Evaluate(context.Background(), 1, 1, func(row, res []float64) error {
		if row[0] == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)

	var ee *ElementError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.Index)
}

func TestEvaluateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fr, err := Broadcast(Named("x", Dense([]float64{1, 2})))
	require.NoError(t, err)
	_, err = fr.Evaluate(ctx, 1, 1, sum)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeriesScalarAndMap(t *testing.T) {
	fr, err := Broadcast(Named("x", Scalar(-90)))
	require.NoError(t, err)
	out, err := fr.Evaluate(context.Background(), 0, 1, sum)
	require.NoError(t, err)

	s := out[0].Map(NormalizeDegrees)
	assert.True(t, s.IsScalar())
	assert.Equal(t, 270.0, s.Scalar())
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-720, 0},
		{359.5, 359.5},
		{-1e-14, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeDegrees(tt.in), 1e-9, "in=%g", tt.in)
		assert.Less(t, NormalizeDegrees(tt.in), 360.0)
	}
}

func TestFieldJSON(t *testing.T) {
	var req struct {
		A Field `json:"a"`
		B Field `json:"b"`
		C Field `json:"c"`
		D Field `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 1.5, "b": [1, 2], "c": {"values": [3, 4], "valid": [true, false]}}`), &req)
	require.NoError(t, err)

	assert.Equal(t, KindScalar, req.A.Kind())
	assert.Equal(t, []float64{1.5}, req.A.Values())
	assert.Equal(t, KindDense, req.B.Kind())
	assert.Equal(t, KindMasked, req.C.Kind())
	assert.Equal(t, []bool{true, false}, req.C.Valid())
	assert.False(t, req.D.IsSet())

	err = json.Unmarshal([]byte(`{"a": {"values": [1]}}`), &req)
	assert.Error(t, err)
	err = json.Unmarshal([]byte(`{"a": "north"}`), &req)
	assert.Error(t, err)
}

func TestSeriesJSON(t *testing.T) {
	masked := Series{Values: []float64{1, math.NaN(), 3}, Valid: []bool{true, false, true}}
	data, err := json.Marshal(masked)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, null, 3]`, string(data))

	scalar := Series{Values: []float64{2.5}, scalar: true}
	data, err = json.Marshal(scalar)
	require.NoError(t, err)
	assert.JSONEq(t, `2.5`, string(data))

	nan := Series{Values: []float64{math.NaN()}, scalar: true}
	data, err = json.Marshal(nan)
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}
