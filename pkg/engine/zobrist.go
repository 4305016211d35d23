package engine

import "sync"

// Zobrist fingerprints: one 64-bit key per cell per color, XORed together
// over the occupied cells of a position. Keys come from a fixed-seed
// splitmix64 stream, so fingerprints are stable across processes and safe
// to persist next to game records.

const zobristSeed = 0x9D39247E33776D41

// zobristTable holds the keys for one board size.
type zobristTable struct {
	black []uint64
	white []uint64
}

var zobristStore = struct {
	sync.Mutex
	tables map[[2]int]*zobristTable
}{tables: make(map[[2]int]*zobristTable)}

// tableFor returns the shared key table for a board size, building it on
// first use.
func tableFor(width, height int) *zobristTable {
	zobristStore.Lock()
	defer zobristStore.Unlock()

	key := [2]int{width, height}
	if t, ok := zobristStore.tables[key]; ok {
		return t
	}
	t := newZobristTable(width*height, uint64(width)<<32|uint64(height))
	zobristStore.tables[key] = t
	return t
}

func newZobristTable(cells int, salt uint64) *zobristTable {
	state := zobristSeed ^ salt
	t := &zobristTable{
		black: make([]uint64, cells),
		white: make([]uint64, cells),
	}
	for i := range t.black {
		t.black[i] = splitmix64(&state)
	}
	for i := range t.white {
		t.white[i] = splitmix64(&state)
	}
	return t
}

// splitmix64 advances state and returns the next value of the sequence.
func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
