package nqs

import "github.com/ajroetker/go-nqs/nqs/contrib/reduce"

// Group is the execution context of one work-group. On the host it is an
// empty marker and every method loops sequentially; on the device it owns the
// shared scratch of the group and every sum is a padded tree reduction.
//
// A Group is owned by one goroutine at a time.
type Group struct {
	device     bool
	lanes      int
	shared     []complex128
	sharedReal []float64
}

// Device reports whether g belongs to the device backend.
func (g *Group) Device() bool {
	return g.device
}

// Lanes returns the number of lanes of a device group, or 1 on the host.
func (g *Group) Lanes() int {
	if !g.device {
		return 1
	}
	return g.lanes
}

// Sum returns Σ f(lane) for lane in [0, n).
func (g *Group) Sum(n int, f func(lane int) complex128) complex128 {
	if !g.device {
		var sum complex128
		for lane := 0; lane < n; lane++ {
			sum += f(lane)
		}
		return sum
	}
	return reduce.PaddedTreeSum(n, g.shared, f)
}

// SumReal is Sum for real summands.
func (g *Group) SumReal(n int, f func(lane int) float64) float64 {
	if !g.device {
		var sum float64
		for lane := 0; lane < n; lane++ {
			sum += f(lane)
		}
		return sum
	}
	return reduce.PaddedTreeSum(n, g.sharedReal, f)
}

// ForEach calls f for every index in [0, n). On the device the index space is
// walked in tiles of Lanes() indices, lane l of a tile handling index
// tile*Lanes()+l; indices past n on the last partial tile are skipped.
func (g *Group) ForEach(n int, f func(i int)) {
	if !g.device {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}
	for base := 0; base < n; base += g.lanes {
		for lane := 0; lane < g.lanes; lane++ {
			if i := base + lane; i < n {
				f(i)
			}
		}
	}
}
