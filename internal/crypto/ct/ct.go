// Package ct collects the constant-time helpers shared by the signing and
// verification paths.
package ct

import (
	"crypto/subtle"
	"math/big"

	"github.com/cronokirby/safenum"
)

// InRange reports whether 1 <= x < m without branching on the limbs of x.
// bits is the bit length of m. Only the sign and length of x, both public
// properties of its encoding, are inspected directly.
func InRange(x *big.Int, m *safenum.Modulus, bits int) bool {
	if x == nil || x.Sign() < 0 || x.BitLen() > bits {
		return false
	}
	n := new(safenum.Nat).SetBig(x, bits)
	_, _, lt := n.CmpMod(m)
	nonZero := 1 ^ n.EqZero()
	return lt&nonZero == 1
}

// Equal compares two byte strings in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// EqualInt compares two non-negative integers through fixed-width
// encodings of size bytes.
func EqualInt(a, b *big.Int, size int) bool {
	if a == nil || b == nil || a.Sign() < 0 || b.Sign() < 0 {
		return false
	}
	if a.BitLen() > size*8 || b.BitLen() > size*8 {
		return false
	}
	ab := a.FillBytes(make([]byte, size))
	bb := b.FillBytes(make([]byte, size))
	defer Wipe(ab)
	defer Wipe(bb)
	return Equal(ab, bb)
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WipeInt overwrites the limbs of x and sets it to zero.
func WipeInt(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}

// WipeNat overwrites each natural with zero in place. bits is their
// announced width.
func WipeNat(bits int, ns ...*safenum.Nat) {
	zero := new(safenum.Nat).SetBig(new(big.Int), bits)
	for _, n := range ns {
		if n != nil {
			n.CondAssign(1, zero)
		}
	}
}
