package batch

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Kernel computes the outputs of one row. row holds the broadcast argument
// values in argument order; the kernel writes len(out) results into out.
type Kernel func(row, out []float64) error

// Evaluate runs kernel over every valid row and returns one Series per
// output. Rows are split into contiguous chunks, one goroutine per chunk;
// workers <= 0 means runtime.NumCPU(). Invalid rows are never passed to the
// kernel. The first kernel error, wrapped in an *ElementError, aborts the
// call.
func (fr *Frame) Evaluate(ctx context.Context, workers, outputs int, kernel Kernel) ([]Series, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cols := make([][]float64, outputs)
	for k := range cols {
		cols[k] = make([]float64, fr.Len)
		for i := range cols[k] {
			cols[k][i] = math.NaN()
		}
	}

	if n := fr.ValidCount(); n > 0 {
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		if workers > n {
			workers = n
		}
		chunkSize := (fr.Len + workers - 1) / workers

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < workers; i++ {
			start := i * chunkSize
			if start >= fr.Len {
				break
			}
			end := min(start+chunkSize, fr.Len)

			g.Go(func() error {
				return fr.evaluateChunk(gctx, start, end, cols, kernel)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]Series, outputs)
	for k := range out {
		out[k] = Series{Values: cols[k], scalar: fr.Scalar}
		if fr.Valid != nil {
			out[k].Valid = make([]bool, fr.Len)
			copy(out[k].Valid, fr.Valid)
		}
	}
	return out, nil
}

func (fr *Frame) evaluateChunk(ctx context.Context, start, end int, cols [][]float64, kernel Kernel) error {
	row := make([]float64, len(fr.Cols))
	res := make([]float64, len(cols))
	for idx := start; idx < end; idx++ {
		if fr.Valid != nil && !fr.Valid[idx] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for c := range fr.Cols {
			row[c] = fr.Cols[c][idx]
		}
		if err := kernel(row, res); err != nil {
			return &ElementError{Index: idx, Err: err}
		}
		for k := range cols {
			cols[k][idx] = res[k]
		}
	}
	return nil
}
