package psi

import (
	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/contrib/math"
)

// State is the evaluation cache of one configuration: its spin vector, the
// angles of every hidden unit, optionally their tanh, and the log-amplitude
// without the prefactor.
//
// A State belongs to the Psi that created it and is owned by one goroutine.
type State struct {
	Spins        nqs.Spins
	LogAmplitude complex128
	Angles       []complex128
	TanhAngles   []complex128

	spinVec   []complex128
	tanhValid bool
}

// NewState returns an empty State sized for p.
func (p *Psi) NewState() *State {
	return &State{
		Angles:     make([]complex128, p.p.m),
		TanhAngles: make([]complex128, p.p.m),
		spinVec:    make([]complex128, p.p.n),
	}
}

// CopyFrom makes st a copy of src.
func (st *State) CopyFrom(src *State) {
	st.Spins = src.Spins
	st.LogAmplitude = src.LogAmplitude
	st.spinVec = append(st.spinVec[:0], src.spinVec...)
	st.Angles = append(st.Angles[:0], src.Angles...)
	st.TanhAngles = append(st.TanhAngles[:0], src.TanhAngles...)
	st.tanhValid = src.tanhValid
}

// Evaluate fills st for configuration s.
func (p *Psi) Evaluate(g *nqs.Group, st *State, s nqs.Spins) {
	st.Spins = s
	st.spinVec = s.Expand(p.p.n, st.spinVec)
	g.ForEach(p.p.m, func(j int) {
		st.Angles[j] = p.kernel.Angle(j, st.spinVec)
	})
	st.tanhValid = false
	st.LogAmplitude = p.logAmplitude(g, st)
}

// FlipState moves st to the configuration with the spin at pos flipped,
// updating every angle incrementally.
func (p *Psi) FlipState(g *nqs.Group, st *State, pos int) {
	st.Spins = st.Spins.Flip(pos)
	st.spinVec[pos] = -st.spinVec[pos]
	g.ForEach(p.p.m, func(j int) {
		st.Angles[j] = p.kernel.FlipAngle(st.Angles, j, pos, st.Spins)
	})
	st.tanhValid = false
	st.LogAmplitude = p.logAmplitude(g, st)
}

// Derivatives fills st.TanhAngles, the input of DerivativeElement.
func (p *Psi) Derivatives(g *nqs.Group, st *State) {
	if st.tanhValid {
		return
	}
	g.ForEach(p.p.m, func(j int) {
		st.TanhAngles[j] = math.Tanh(st.Angles[j])
	})
	st.tanhValid = true
}

// logAmplitude reduces the visible and hidden terms over max(N, M) lanes.
func (p *Psi) logAmplitude(g *nqs.Group, st *State) complex128 {
	n, m := p.p.n, p.p.m
	return g.Sum(max(n, m), func(lane int) complex128 {
		var term complex128
		if lane < n {
			term = p.kernel.Visible(lane, st.Spins)
		}
		if lane < m {
			term += math.LogCosh(st.Angles[lane])
		}
		return term
	})
}
