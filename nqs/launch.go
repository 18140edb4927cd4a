package nqs

import "context"

// Launch runs body once for every group index in [0, n) and returns the
// per-chunk partial results in chunk order.
//
// The host executor runs a single chunk on the calling goroutine. A device
// splits [0, n) into contiguous chunks spread over its workers; every chunk
// gets its own Group and its own partial from newPartial, so body may mutate
// the partial without synchronization. Combining the returned partials in
// order is the segmented reduction step; the result differs from the host
// order only by floating-point rounding.
//
// The context is checked once before launching. A launched pass always runs
// to completion.
func Launch[P any](ctx context.Context, exec Executor, n int, newPartial func() P, body func(g *Group, i int, partial P)) ([]P, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	partials := make([]P, exec.chunks(n))
	err := exec.run(n, func(chunk, start, end int) {
		g := exec.NewGroup()
		partial := newPartial()
		for i := start; i < end; i++ {
			body(g, i, partial)
		}
		partials[chunk] = partial
	})
	if err != nil {
		return nil, err
	}
	return partials, nil
}
