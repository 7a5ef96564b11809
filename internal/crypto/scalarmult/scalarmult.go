package scalarmult

import (
	"fmt"
	"math/big"

	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// Strategy names a scalar multiplication algorithm. Call sites pick one
// explicitly; secret scalars must never go through VariableTime.
type Strategy int

const (
	// VariableTime is double-and-add on affine points. Public scalars only.
	VariableTime Strategy = iota
	// ConstantTime is a Montgomery ladder over a fixed number of bits.
	ConstantTime
	// Windowed uses a precomputed table of multiples of a fixed point.
	Windowed
)

func (s Strategy) String() string {
	switch s {
	case VariableTime:
		return "variable-time"
	case ConstantTime:
		return "constant-time"
	case Windowed:
		return "windowed"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Multiplier computes k*P.
type Multiplier interface {
	Multiply(k *big.Int, p group.Point) (group.Point, error)
	Strategy() Strategy
}

// New returns the multiplier for strategy s on curve c. Fixed-width
// strategies cover scalars up to the bit length of n.
func New(s Strategy, c *group.Curve) (Multiplier, error) {
	switch s {
	case VariableTime:
		return &doubleAndAdd{c: c}, nil
	case ConstantTime:
		return NewLadder(c, 0), nil
	case Windowed:
		return NewWindowed(c), nil
	}
	return nil, sm2.MakeError(sm2.ErrInvalidParams, fmt.Sprintf("scalarmult: unknown strategy %d", int(s)))
}

func checkScalar(k *big.Int, bits int) error {
	if k == nil || k.Sign() < 0 {
		return sm2.MakeError(sm2.ErrOutOfRange, "scalarmult: negative scalar")
	}
	if bits > 0 && k.BitLen() > bits {
		return sm2.MakeError(sm2.ErrOutOfRange,
			fmt.Sprintf("scalarmult: scalar wider than %d bits", bits))
	}
	return nil
}

// scalarBytes writes k big-endian into a buffer sized for bits. The caller
// wipes it.
func scalarBytes(k *big.Int, bits int) []byte {
	return k.FillBytes(make([]byte, (bits+7)/8))
}

// bitAt returns bit i (0 = least significant) of a big-endian buffer.
func bitAt(buf []byte, i int) byte {
	byteIdx := len(buf) - 1 - i/8
	if byteIdx < 0 {
		return 0
	}
	return (buf[byteIdx] >> (uint(i) % 8)) & 1
}

type doubleAndAdd struct {
	c *group.Curve
}

func (m *doubleAndAdd) Strategy() Strategy { return VariableTime }

func (m *doubleAndAdd) Multiply(k *big.Int, p group.Point) (group.Point, error) {
	if err := checkScalar(k, 0); err != nil {
		return group.Point{}, err
	}
	if k.Sign() == 0 || p.IsIdentity() {
		return group.Identity(), nil
	}

	acc := group.Identity()
	for i := k.BitLen() - 1; i >= 0; i-- {
		acc = m.c.Add(acc, acc)
		if k.Bit(i) == 1 {
			acc = m.c.Add(acc, p)
		}
	}
	return acc, nil
}

// Ladder is the Montgomery ladder. It always runs Bits iterations, each a
// complete addition and a doubling framed by conditional swaps.
type Ladder struct {
	c    *group.Curve
	bits int
}

// NewLadder returns a ladder over bits iterations. bits <= 0 selects the
// bit length of n; blinded scalars need a wider ladder.
func NewLadder(c *group.Curve, bits int) *Ladder {
	if bits <= 0 {
		bits = c.Params().N.BitLen()
	}
	return &Ladder{c: c, bits: bits}
}

func (l *Ladder) Strategy() Strategy { return ConstantTime }

// Bits returns the fixed iteration count.
func (l *Ladder) Bits() int { return l.bits }

func (l *Ladder) Multiply(k *big.Int, p group.Point) (group.Point, error) {
	if err := checkScalar(k, l.bits); err != nil {
		return group.Point{}, err
	}
	if p.IsIdentity() {
		return group.Identity(), nil
	}

	buf := scalarBytes(k, l.bits)
	defer ct.Wipe(buf)

	r0 := l.c.JacobianIdentity()
	r1 := l.c.ToJacobian(p)
	for i := l.bits - 1; i >= 0; i-- {
		b := safeChoice(bitAt(buf, i))
		group.CondSwap(b, r0, r1)
		r1 = l.c.AddJacobian(r0, r1)
		r0 = l.c.DoubleJacobian(r0)
		group.CondSwap(b, r0, r1)
	}
	return l.c.ToAffine(r0)
}
