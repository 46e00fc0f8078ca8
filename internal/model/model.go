// Package model owns the per-install evolving model: a salt, a run counter
// and a 16-dimensional preference vector theta. The engine consumes the
// model read-only; only Update, called between invocations, mutates it.
package model

import (
	"fmt"
	"math"

	"github.com/maelin/cybermancy/internal/formula"
	"github.com/maelin/cybermancy/internal/mix"
)

// ThetaLen is the fixed dimensionality of the preference vector.
const ThetaLen = 16

// Model is the per-install state fed into every divination.
type Model struct {
	Salt     uint32            `json:"salt"`
	RunCount uint32            `json:"run_count"`
	Theta    [ThetaLen]float64 `json:"theta"`
}

// New returns a fresh model. theta starts at the neutral midpoint so the
// first run applies no weight perturbation; salt distinguishes installs.
func New(salt uint32) *Model {
	m := &Model{Salt: salt}
	for i := range m.Theta {
		m.Theta[i] = 0.5
	}
	return m
}

// ThetaHash folds theta into a 32-bit value for seed derivation.
// Values are fixed to 4 decimals first so the hash survives JSON round-trips.
func (m *Model) ThetaHash() uint32 {
	h := m.Salt
	for _, v := range m.Theta {
		h = mix.Mix(h, mix.HashString(fmt.Sprintf("%.4f", v)))
	}
	return h
}

// Policy derives the synthesis policy from theta. Every output is bounded:
// degenerate theta values still yield a usable policy.
func (m *Model) Policy() formula.Policy {
	p := formula.Policy{
		ComboWeights: [4]float64{
			0.40 + 0.30*m.Theta[8],
			0.15 + 0.25*m.Theta[9],
			0.10 + 0.20*m.Theta[10],
			0.10 + 0.20*m.Theta[11],
		},
		OpWeights: [3]float64{
			0.40 + 0.20*m.Theta[13],
			0.30 + 0.20*(1-m.Theta[13]),
			0.20 + 0.20*m.Theta[14],
		},
		FuncWeights: [5]float64{
			0.25, 0.20,
			0.15 + 0.15*m.Theta[15],
			0.15 + 0.15*(1-m.Theta[15]),
			0.15,
		},
		ConstMin: 1 + int(m.Theta[5]*2),
		ConstMax: 0,
		ShuffleP: 0.15 + 0.50*m.Theta[7],
	}
	p.ConstMax = p.ConstMin + 2 + int(m.Theta[6]*3)
	return p
}

// Update evolves theta after a run from the display score and the trace root
// digest, and advances the run counter. Deterministic given (score, digest).
func (m *Model) Update(score int, digest uint32) {
	const rate = 0.06
	target := float64(score) / 100
	rng := mix.Stream(m.Salt, digest, m.RunCount)
	for i := range m.Theta {
		pull := target
		if rng.Float64() < 0.5 {
			pull = rng.Float64()
		}
		m.Theta[i] = clamp01(m.Theta[i]*(1-rate) + pull*rate)
	}
	m.RunCount++
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
