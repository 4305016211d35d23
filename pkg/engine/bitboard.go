package engine

import "math/bits"

const (
	// maskWords is the number of 64-bit words in one color plane.
	maskWords = 6

	// MaxBoardDim is the largest supported board width or height. Six
	// words give 384 cells per plane, so every board up to 19x19 (361
	// cells) fits; this is the documented ceiling of the representation.
	MaxBoardDim = 19
)

// Mask is one bit plane of a board: bit i is cell i, row by row from the
// origin. A full plane covers MaxBoardDim*MaxBoardDim cells; boards always
// occupy the low bits and the geometry masks keep shifts on the board.
type Mask [maskWords]uint64

// Set sets bit i.
func (m *Mask) Set(i int) { m[i>>6] |= 1 << (uint(i) & 63) }

// Clear clears bit i.
func (m *Mask) Clear(i int) { m[i>>6] &^= 1 << (uint(i) & 63) }

// IsSet reports whether bit i is set.
func (m Mask) IsSet(i int) bool { return m[i>>6]&(1<<(uint(i)&63)) != 0 }

// Empty reports whether no bit is set.
func (m Mask) Empty() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

// Any reports whether at least one bit is set.
func (m Mask) Any() bool { return !m.Empty() }

// PopCount returns the number of set bits.
func (m Mask) PopCount() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// PopLSB clears the lowest set bit and returns its index, or -1 if the
// mask is empty.
func (m *Mask) PopLSB() int {
	for i, w := range m {
		if w != 0 {
			m[i] = w & (w - 1)
			return i<<6 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// And returns m & o.
func (m Mask) And(o Mask) Mask {
	var r Mask
	for i := range m {
		r[i] = m[i] & o[i]
	}
	return r
}

// Or returns m | o.
func (m Mask) Or(o Mask) Mask {
	var r Mask
	for i := range m {
		r[i] = m[i] | o[i]
	}
	return r
}

// AndNot returns m &^ o.
func (m Mask) AndNot(o Mask) Mask {
	var r Mask
	for i := range m {
		r[i] = m[i] &^ o[i]
	}
	return r
}

// Xor returns m ^ o.
func (m Mask) Xor(o Mask) Mask {
	var r Mask
	for i := range m {
		r[i] = m[i] ^ o[i]
	}
	return r
}

// Intersects reports whether m and o share a set bit, without building
// the intersection.
func (m Mask) Intersects(o Mask) bool {
	for i := range m {
		if m[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

// Cells returns the indices of all set bits in ascending order.
func (m Mask) Cells() []int {
	cells := make([]int, 0, m.PopCount())
	for i := m.PopLSB(); i >= 0; i = m.PopLSB() {
		cells = append(cells, i)
	}
	return cells
}

// shiftLeft returns m << k across word boundaries, for 0 <= k < 64.
func (m Mask) shiftLeft(k uint) Mask {
	var r Mask
	for i := maskWords - 1; i > 0; i-- {
		r[i] = m[i]<<k | m[i-1]>>(64-k)
	}
	r[0] = m[0] << k
	return r
}

// shiftRight returns m >> k across word boundaries, for 0 <= k < 64.
func (m Mask) shiftRight(k uint) Mask {
	var r Mask
	for i := 0; i < maskWords-1; i++ {
		r[i] = m[i]>>k | m[i+1]<<(64-k)
	}
	r[maskWords-1] = m[maskWords-1] >> k
	return r
}
