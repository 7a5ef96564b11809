package guard

import (
	crand "crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// DefaultBlindBits is the width of the random multiple of n added to a
// blinded scalar.
const DefaultBlindBits = 64

// Blinder multiplies by k + r*n for a fresh random r, which yields the same
// point as k while changing the bits the ladder walks on every call.
type Blinder struct {
	c      *group.Curve
	bits   int
	rand   io.Reader
	ladder *scalarmult.Ladder
}

// NewBlinder returns a blinder with bits of randomness drawn from rand
// (crypto/rand when nil). bits <= 0 selects DefaultBlindBits.
func NewBlinder(c *group.Curve, bits int, rand io.Reader) *Blinder {
	if bits <= 0 {
		bits = DefaultBlindBits
	}
	if rand == nil {
		rand = crand.Reader
	}
	// k + r*n < n * 2^bits
	width := c.Params().N.BitLen() + bits
	return &Blinder{c: c, bits: bits, rand: rand, ladder: scalarmult.NewLadder(c, width)}
}

func (b *Blinder) Strategy() scalarmult.Strategy {
	return scalarmult.ConstantTime
}

// Width returns the fixed ladder length used for blinded scalars.
func (b *Blinder) Width() int {
	return b.ladder.Bits()
}

func (b *Blinder) Multiply(k *big.Int, p group.Point) (group.Point, error) {
	n := b.c.Params().N
	if k == nil || k.Sign() < 0 || k.Cmp(n) >= 0 {
		return group.Point{}, sm2.MakeError(sm2.ErrOutOfRange, "guard: blinded scalar must be in [0, n)")
	}

	r, err := crand.Int(b.rand, new(big.Int).Lsh(big.NewInt(1), uint(b.bits)))
	if err != nil {
		return group.Point{}, errors.Wrap(err, "guard: blinding factor")
	}
	blinded := new(big.Int).Mul(r, n)
	blinded.Add(blinded, k)
	defer ct.WipeInt(r)
	defer ct.WipeInt(blinded)

	return b.ladder.Multiply(blinded, p)
}
