package hexgame

// Random yields uniformly distributed floats in [0, 1).
// *golang.org/x/exp/rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// SplitMix32 is a tiny seedable generator whose sequence is stable across
// platforms, used for reproducible tree growth.
type SplitMix32 struct {
	state uint32
}

func NewSplitMix32(seed uint32) *SplitMix32 {
	return &SplitMix32{state: seed}
}

func (s *SplitMix32) Uint32() uint32 {
	s.state += 0x9e3779b9
	t := s.state ^ s.state>>16
	t *= 0x21f0aaad
	t ^= t >> 15
	t *= 0x735a2d97
	t ^= t >> 15
	return t
}

func (s *SplitMix32) Float64() float64 {
	return float64(s.Uint32()) / 4294967296
}

// pick returns a uniformly chosen index in [0, n).
func pick(rng Random, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
