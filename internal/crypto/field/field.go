package field

import (
	"math/big"
	"strings"

	"github.com/cronokirby/safenum"
	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// Field is arithmetic modulo an odd m. The same type serves the base field
// (m = p) and the scalar ring (m = n). A Field is immutable and safe for
// concurrent use.
type Field struct {
	m    *big.Int
	mod  *safenum.Modulus
	bits int
}

// New returns the field of integers modulo m. m must be odd and at least 3
// so that the constant-time inverse is defined.
func New(m *big.Int) (*Field, error) {
	if m == nil || m.Cmp(big.NewInt(3)) < 0 || m.Bit(0) == 0 {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "field: modulus must be odd and at least 3")
	}
	mc := new(big.Int).Set(m)
	return &Field{
		m:    mc,
		mod:  safenum.ModulusFromNat(new(safenum.Nat).SetBig(mc, mc.BitLen())),
		bits: mc.BitLen(),
	}, nil
}

// Order returns a copy of the modulus.
func (f *Field) Order() *big.Int {
	return new(big.Int).Set(f.m)
}

// Bits returns the bit length of the modulus.
func (f *Field) Bits() int {
	return f.bits
}

// Bytes returns the width of a fixed-size element encoding.
func (f *Field) Bytes() int {
	return (f.bits + 7) / 8
}

// Reduce returns a mod m in [0, m), negative a included.
func (f *Field) Reduce(a *big.Int) *big.Int {
	return new(big.Int).Mod(a, f.m)
}

func (f *Field) Add(a, b *big.Int) *big.Int {
	r := new(big.Int).Add(a, b)
	return r.Mod(r, f.m)
}

func (f *Field) Sub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, f.m)
}

func (f *Field) Mul(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, f.m)
}

func (f *Field) Square(a *big.Int) *big.Int {
	return f.Mul(a, a)
}

func (f *Field) Neg(a *big.Int) *big.Int {
	r := new(big.Int).Neg(a)
	return r.Mod(r, f.m)
}

// IsElement reports whether a is already reduced, i.e. 0 <= a < m.
func (f *Field) IsElement(a *big.Int) bool {
	return a != nil && a.Sign() >= 0 && a.Cmp(f.m) < 0
}

// Inverse returns a^-1 mod m using the extended Euclidean algorithm. It
// runs in variable time and must only see public operands.
func (f *Field) Inverse(a *big.Int) (*big.Int, error) {
	r := f.Reduce(a)
	if r.Sign() == 0 {
		return nil, sm2.MakeError(sm2.ErrNoInverse, "field: zero has no inverse")
	}
	inv := new(big.Int).ModInverse(r, f.m)
	if inv == nil {
		return nil, sm2.MakeError(sm2.ErrNoInverse, "field: value shares a factor with the modulus")
	}
	return inv, nil
}

// InverseConstTime returns a^-1 mod m with a running time that depends only
// on the width of m.
func (f *Field) InverseConstTime(a *big.Int) (*big.Int, error) {
	inv, err := f.NatInverse(f.Nat(a))
	if err != nil {
		return nil, err
	}
	return inv.Big(), nil
}

// NatInverse is InverseConstTime on fixed-width operands. Only the final
// verdict, invertible or not, is branched on.
func (f *Field) NatInverse(a *safenum.Nat) (*safenum.Nat, error) {
	inv := new(safenum.Nat).ModInverse(a, f.mod)
	check := new(safenum.Nat).ModMul(a, inv, f.mod)
	if check.Eq(f.NatOne()) != 1 {
		return nil, sm2.MakeError(sm2.ErrNoInverse, "field: value is not invertible")
	}
	return inv, nil
}

// Sqrt returns a square root of a, or false when a is a non-residue.
func (f *Field) Sqrt(a *big.Int) (*big.Int, bool) {
	r := new(big.Int).ModSqrt(f.Reduce(a), f.m)
	if r == nil {
		return nil, false
	}
	return r, true
}

// Modulus returns the constant-time form of m.
func (f *Field) Modulus() *safenum.Modulus {
	return f.mod
}

// Nat converts a to a fixed-width natural reduced modulo m. The announced
// width is that of m, so later arithmetic never depends on the size of a.
func (f *Field) Nat(a *big.Int) *safenum.Nat {
	return new(safenum.Nat).SetBig(f.Reduce(a), f.bits)
}

// NatOne returns 1 at the width of m.
func (f *Field) NatOne() *safenum.Nat {
	return new(safenum.Nat).SetBig(big.NewInt(1), f.bits)
}

// NatZero returns 0 at the width of m.
func (f *Field) NatZero() *safenum.Nat {
	return new(safenum.Nat).SetBig(new(big.Int), f.bits)
}

// Big converts a natural back to a big integer.
func Big(n *safenum.Nat) *big.Int {
	return n.Big()
}

// ParseElementHex decodes a hex string into an element of [0, m).
func (f *Field) ParseElementHex(s string) (*big.Int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if s == "" {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "field: empty hex string")
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "field: malformed hex string")
	}
	if !f.IsElement(v) {
		return nil, errors.Wrap(sm2.MakeError(sm2.ErrOutOfRange, "value is not below the modulus"), "field")
	}
	return v, nil
}
