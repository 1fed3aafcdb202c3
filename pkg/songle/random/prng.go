// Package random provides the deterministic generator behind daily selection.
//
// A string key is hashed with cyrb128 into four 32-bit words, which seed an
// sfc32 generator. Both operate on uint32 arithmetic only, so a key yields
// the same stream on every platform and across restarts.
package random

import "unicode/utf16"

// State is the sfc32 generator state. The zero value is valid but useless;
// obtain one from Seed.
type State struct {
	a, b, c, d uint32
}

// Cyrb128 hashes key into 128 bits. Characters are consumed as UTF-16 code
// units so that non-ASCII song ids hash the same as in the browser frontend.
func Cyrb128(key string) [4]uint32 {
	var h1, h2, h3, h4 uint32 = 1779033703, 3144134277, 1013904242, 2773480762
	for _, unit := range utf16.Encode([]rune(key)) {
		k := uint32(unit)
		h1 = h2 ^ ((h1 ^ k) * 597399067)
		h2 = h3 ^ ((h2 ^ k) * 2869860233)
		h3 = h4 ^ ((h3 ^ k) * 951274213)
		h4 = h1 ^ ((h4 ^ k) * 2716044179)
	}
	h1 = (h3 ^ (h1 >> 18)) * 597399067
	h2 = (h4 ^ (h2 >> 22)) * 2869860233
	h3 = (h1 ^ (h3 >> 17)) * 951274213
	h4 = (h2 ^ (h4 >> 19)) * 2716044179
	h1 ^= h2 ^ h3 ^ h4
	h2 ^= h1
	h3 ^= h1
	h4 ^= h1
	return [4]uint32{h1, h2, h3, h4}
}

// Seed returns the generator state for key.
func Seed(key string) State {
	h := Cyrb128(key)
	return State{a: h[0], b: h[1], c: h[2], d: h[3]}
}

// Next advances s by one step and returns a float in [0, 1) with the new state.
func Next(s State) (float64, State) {
	t := s.a + s.b + s.d
	s.d++
	s.a = s.b ^ (s.b >> 9)
	s.b = s.c + (s.c << 3)
	s.c = (s.c << 21) | (s.c >> 11)
	s.c += t
	return float64(t) / 4294967296.0, s
}

// Float64 advances the generator in place.
func (s *State) Float64() float64 {
	v, next := Next(*s)
	*s = next
	return v
}

// Intn returns floor(Float64() * n). n must be positive.
func (s *State) Intn(n int) int {
	return int(s.Float64() * float64(n))
}
