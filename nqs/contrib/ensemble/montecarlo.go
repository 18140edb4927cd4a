package ensemble

import (
	"context"
	stdmath "math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-nqs/nqs"
	"github.com/ajroetker/go-nqs/nqs/psi"
)

// MonteCarlo samples |ψ|² with single-flip Metropolis chains.
//
// Chains run concurrently. Chain c draws from its own PCG stream seeded with
// (Seed, c) and fills a contiguous block of the batch, so a given
// configuration always yields the same batch.
type MonteCarlo struct {
	// Samples is the total number of recorded configurations.
	Samples int `yaml:"samples"`

	// Chains is the number of independent chains; 0 means 1.
	Chains int `yaml:"chains"`

	// BurnIn is the number of proposals discarded at the start of a chain.
	BurnIn int `yaml:"burn_in"`

	// Thinning is the number of proposals between recorded samples; 0 means
	// one sweep, i.e. N proposals.
	Thinning int `yaml:"thinning"`

	Seed uint64 `yaml:"seed"`
}

// Validate checks the sampler settings.
func (mc MonteCarlo) Validate() error {
	if mc.Samples < 1 || mc.Chains < 0 || mc.BurnIn < 0 || mc.Thinning < 0 {
		return errors.Wrapf(nqs.ErrInvalidArgument, "monte carlo samples=%d chains=%d burn_in=%d thinning=%d",
			mc.Samples, mc.Chains, mc.BurnIn, mc.Thinning)
	}
	return nil
}

func (mc MonteCarlo) Draw(ctx context.Context, p *psi.Psi) (*nqs.Batch, error) {
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	chains := max(mc.Chains, 1)
	chains = min(chains, mc.Samples)
	thinning := mc.Thinning
	if thinning == 0 {
		thinning = p.NumSpins()
	}

	b := &nqs.Batch{Spins: make([]nqs.Spins, mc.Samples), Weights: make([]float64, mc.Samples)}
	for i := range b.Weights {
		b.Weights[i] = 1
	}

	eg, egCtx := errgroup.WithContext(ctx)
	start := 0
	for c := range chains {
		size := mc.Samples / chains
		if c < mc.Samples%chains {
			size++
		}
		out := b.Spins[start : start+size]
		start += size
		eg.Go(func() error {
			ch := newChain(p, mc.Seed, uint64(c))
			return ch.run(egCtx, mc.BurnIn, thinning, out)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// chain is the state of one Metropolis walker.
type chain struct {
	p        *psi.Psi
	rng      *rand.Rand
	g        *nqs.Group
	cur, alt *psi.State
}

func newChain(p *psi.Psi, seed, stream uint64) *chain {
	ch := &chain{
		p:   p,
		rng: rand.New(rand.NewPCG(seed, stream)),
		g:   p.Executor().NewGroup(),
		cur: p.NewState(),
		alt: p.NewState(),
	}
	p.Evaluate(ch.g, ch.cur, nqs.Spins(ch.rng.Uint64())&nqs.Mask(p.NumSpins()))
	return ch
}

// step proposes one spin flip and accepts it with probability
// min(1, |ψ(s')|²/|ψ(s)|²).
func (ch *chain) step() {
	pos := ch.rng.IntN(ch.p.NumSpins())
	ch.alt.CopyFrom(ch.cur)
	ch.p.FlipState(ch.g, ch.alt, pos)
	ratio := stdmath.Exp(2 * (real(ch.alt.LogAmplitude) - real(ch.cur.LogAmplitude)))
	if ratio >= 1 || ch.rng.Float64() < ratio {
		ch.cur, ch.alt = ch.alt, ch.cur
	}
}

func (ch *chain) run(ctx context.Context, burnIn, thinning int, out []nqs.Spins) error {
	for range burnIn {
		ch.step()
	}
	for i := range out {
		if err := ctx.Err(); err != nil {
			return err
		}
		for range thinning {
			ch.step()
		}
		out[i] = ch.cur.Spins
	}
	return nil
}
