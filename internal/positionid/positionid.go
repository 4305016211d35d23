// Package positionid implements compact text identifiers for board
// positions.
//
// An ID is the URL-safe base64 form of a small binary layout: one byte
// each for width and height, then the Black and White stone planes
// bit-packed least-significant-bit first. Equal positions share an ID,
// and the dimensions travel inside the ID, so a board can be rebuilt
// from the string alone.
package positionid

import (
	"encoding/base64"
	"errors"

	"github.com/yourusername/goengine/pkg/engine"
)

// ErrInvalidPositionID is returned when a position ID does not decode to
// a board.
var ErrInvalidPositionID = errors.New("invalid position ID")

var encoding = base64.RawURLEncoding

// planeBytes returns the packed size of one stone plane.
func planeBytes(cells int) int { return (cells + 7) / 8 }

// IDLength returns the ID string length for a board size.
func IDLength(width, height int) int {
	return encoding.EncodedLen(2 + 2*planeBytes(width*height))
}

// PositionID encodes the stone content of a board. The side to move is
// not part of the ID; callers that need it carry it separately.
func PositionID(b *engine.Board) string {
	cells := b.Cells()
	n := planeBytes(cells)
	raw := make([]byte, 2+2*n)
	raw[0] = byte(b.Width())
	raw[1] = byte(b.Height())

	packPlane(raw[2:2+n], b.BlackMask(), cells)
	packPlane(raw[2+n:], b.WhiteMask(), cells)
	return encoding.EncodeToString(raw)
}

func packPlane(dst []byte, m engine.Mask, cells int) {
	for i := 0; i < cells; i++ {
		if m.IsSet(i) {
			dst[i/8] |= 1 << (i % 8)
		}
	}
}

// BoardFromPositionID decodes a position ID back into a board. Every
// failure mode reports ErrInvalidPositionID: undecodable text,
// impossible dimensions, a length that does not match the embedded
// dimensions, overlapping planes, or stray bits past the last cell.
func BoardFromPositionID(id string) (*engine.Board, error) {
	raw, err := encoding.DecodeString(id)
	if err != nil || len(raw) < 2 {
		return nil, ErrInvalidPositionID
	}
	width, height := int(raw[0]), int(raw[1])
	if width < 1 || width > engine.MaxBoardDim || height < 1 || height > engine.MaxBoardDim {
		return nil, ErrInvalidPositionID
	}
	cells := width * height
	n := planeBytes(cells)
	if len(raw) != 2+2*n {
		return nil, ErrInvalidPositionID
	}
	black := raw[2 : 2+n]
	white := raw[2+n:]

	b, err := engine.NewBoard(width, height)
	if err != nil {
		return nil, ErrInvalidPositionID
	}
	for i := 0; i < n*8; i++ {
		bset := black[i/8]&(1<<(i%8)) != 0
		wset := white[i/8]&(1<<(i%8)) != 0
		if i >= cells {
			// Padding bits in the final byte must stay clear.
			if bset || wset {
				return nil, ErrInvalidPositionID
			}
			continue
		}
		switch {
		case bset && wset:
			return nil, ErrInvalidPositionID
		case bset:
			b.Set(i%width, i/width, engine.Black)
		case wset:
			b.Set(i%width, i/width, engine.White)
		}
	}
	return b, nil
}

// CheckPositionID reports whether id decodes to a valid board.
func CheckPositionID(id string) bool {
	_, err := BoardFromPositionID(id)
	return err == nil
}
