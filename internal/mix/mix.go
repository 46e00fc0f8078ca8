// Package mix provides the 32-bit hash and pseudo-random primitives that
// every deterministic computation in cybermancy is built on.
//
// None of this is cryptographic. The constants are part of the output
// contract: changing any of them changes every downstream trace hash,
// signature and score, so they are pinned here and nowhere else.
package mix

// fnvOffset and fnvPrime are the standard 32-bit FNV-1a parameters.
const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// HashString folds s byte-wise through FNV-1a. Case and whitespace are not
// normalized; callers that want normalized input normalize first.
func HashString(s string) uint32 {
	h := fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

// Mix combines two 32-bit values with an avalanche finalizer so that a
// single-bit change in either input flips about half the output bits.
func Mix(a, b uint32) uint32 {
	x := a ^ (b * 0x9E3779B1)
	x ^= x >> 16
	x *= 0x85EBCA6B
	x ^= x >> 13
	x *= 0xC2B2AE35
	x ^= x >> 16
	return x
}

// Rotl rotates x left by r bits.
func Rotl(x uint32, r uint) uint32 {
	r &= 31
	return x<<r | x>>(32-r)
}

// MixSeed folds three values into one seed. b and c are rotated by distinct
// amounts first so that argument order matters.
func MixSeed(a, b, c uint32) uint32 {
	return Mix(Mix(a, Rotl(b, 7)), Rotl(c, 13))
}

// fallbackSeed replaces a zero seed, which would pin xorshift at zero forever.
const fallbackSeed uint32 = 0x1F123BB5

// RNG is a 32-bit xorshift generator. It is deliberately tiny: the whole
// engine depends on its exact output sequence being reproducible.
type RNG struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *RNG {
	if seed == 0 {
		seed = fallbackSeed
	}
	return &RNG{state: seed}
}

// Stream returns an independent generator for (seed, tag, alt). Distinct tag
// pairs produce streams that share no state with each other or the parent.
func Stream(seed, tag, alt uint32) *RNG {
	return New(MixSeed(seed, tag, alt))
}

// Next advances the generator and returns the raw 32-bit state.
func (r *RNG) Next() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Float64 returns a value in [0, 1). The 0.999999999 scale keeps the
// all-ones state strictly below 1.
func (r *RNG) Float64() float64 {
	return float64(r.Next()) / float64(0xFFFFFFFF) * 0.999999999
}

// IntN returns a value in [0, n). n must be positive.
func (r *RNG) IntN(n int) int {
	return int(r.Float64() * float64(n))
}

// Range returns a value in [lo, hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
