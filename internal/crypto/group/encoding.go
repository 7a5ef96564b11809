package group

import (
	"math/big"

	"github.com/smallyu/go-sm2/pkg/sm2"
)

// Encoding prefixes, as in ANSI X9.62 / GB/T 32918.1.
const (
	prefixIdentity     = 0x00
	prefixCompressed   = 0x02
	prefixUncompressed = 0x04
)

// Marshal encodes p as 0x04 || X || Y with fixed-width coordinates, or a
// single 0x00 byte for the identity.
func (c *Curve) Marshal(p Point) []byte {
	if p.IsIdentity() {
		return []byte{prefixIdentity}
	}
	byteLen := c.fp.Bytes()

	ret := make([]byte, 1+2*byteLen)
	ret[0] = prefixUncompressed
	p.X.FillBytes(ret[1 : 1+byteLen])
	p.Y.FillBytes(ret[1+byteLen:])
	return ret
}

// MarshalCompressed encodes p as 0x02|parity(Y) || X.
func (c *Curve) MarshalCompressed(p Point) []byte {
	if p.IsIdentity() {
		return []byte{prefixIdentity}
	}
	byteLen := c.fp.Bytes()

	ret := make([]byte, 1+byteLen)
	ret[0] = prefixCompressed | byte(p.Y.Bit(0))
	p.X.FillBytes(ret[1:])
	return ret
}

// Unmarshal decodes a point in any of the forms produced by Marshal and
// MarshalCompressed, or a raw X || Y pair. Prefixed forms take precedence
// when the lengths coincide. The result is always checked against the
// curve equation.
func (c *Curve) Unmarshal(data []byte) (Point, error) {
	byteLen := c.fp.Bytes()

	var x, y *big.Int
	switch {
	case len(data) == 1 && data[0] == prefixIdentity:
		return Identity(), nil

	case len(data) == 1+2*byteLen && data[0] == prefixUncompressed:
		x = new(big.Int).SetBytes(data[1 : 1+byteLen])
		y = new(big.Int).SetBytes(data[1+byteLen:])

	case len(data) == 1+byteLen && data[0]&^1 == prefixCompressed:
		x = new(big.Int).SetBytes(data[1:])
		if !c.fp.IsElement(x) {
			return Point{}, sm2.MakeError(sm2.ErrInvalidPoint, "group: x coordinate out of range")
		}
		var ok bool
		y, ok = c.fp.Sqrt(c.polynomial(x))
		if !ok {
			return Point{}, sm2.MakeError(sm2.ErrInvalidPoint, "group: x is not on the curve")
		}
		if y.Bit(0) != uint(data[0]&1) {
			if y.Sign() == 0 {
				return Point{}, sm2.MakeError(sm2.ErrInvalidPoint, "group: odd parity requested for y = 0")
			}
			y = c.fp.Neg(y)
		}

	case len(data) == 2*byteLen:
		x = new(big.Int).SetBytes(data[:byteLen])
		y = new(big.Int).SetBytes(data[byteLen:])

	default:
		return Point{}, sm2.MakeError(sm2.ErrInvalidEncoding, "group: unrecognized point encoding")
	}

	p := Point{X: x, Y: y}
	if !c.IsOnCurve(p) {
		return Point{}, sm2.MakeError(sm2.ErrInvalidPoint, "group: point is not on the curve")
	}
	return p, nil
}
