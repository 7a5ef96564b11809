package group

import (
	"github.com/cronokirby/safenum"
	"github.com/pkg/errors"
)

// JacobianPoint is (X, Y, Z) representing the affine point (X/Z^2, Y/Z^3).
// Z = 0 is the identity. All coordinates are fixed-width naturals modulo p,
// and every operation below runs in time independent of their values.
type JacobianPoint struct {
	X, Y, Z *safenum.Nat
}

// JacobianIdentity returns (1, 1, 0).
func (c *Curve) JacobianIdentity() JacobianPoint {
	return JacobianPoint{X: c.fp.NatOne(), Y: c.fp.NatOne(), Z: c.fp.NatZero()}
}

// ToJacobian lifts an affine point, mapping the identity to Z = 0.
func (c *Curve) ToJacobian(p Point) JacobianPoint {
	if p.IsIdentity() {
		return c.JacobianIdentity()
	}
	return JacobianPoint{X: c.fp.Nat(p.X), Y: c.fp.Nat(p.Y), Z: c.fp.NatOne()}
}

// ToAffine converts back using a constant-time inverse of Z.
func (c *Curve) ToAffine(j JacobianPoint) (Point, error) {
	if j.Z.EqZero() == 1 {
		return Identity(), nil
	}
	p := c.fp.Modulus()
	zinv, err := c.fp.NatInverse(j.Z)
	if err != nil {
		return Point{}, errors.Wrap(err, "group: to affine")
	}
	zinv2 := new(safenum.Nat).ModMul(zinv, zinv, p)
	x := new(safenum.Nat).ModMul(j.X, zinv2, p)
	zinv2.ModMul(zinv2, zinv, p)
	y := new(safenum.Nat).ModMul(j.Y, zinv2, p)
	return Point{X: x.Big(), Y: y.Big()}, nil
}

// Clone returns a deep copy of j.
func (j JacobianPoint) Clone() JacobianPoint {
	return JacobianPoint{
		X: new(safenum.Nat).SetNat(j.X),
		Y: new(safenum.Nat).SetNat(j.Y),
		Z: new(safenum.Nat).SetNat(j.Z),
	}
}

// IsIdentity returns 1 when j is the identity.
func (j JacobianPoint) IsIdentity() safenum.Choice {
	return j.Z.EqZero()
}

// Select sets j to q if choice is 1 and leaves it unchanged otherwise.
func (j JacobianPoint) Select(choice safenum.Choice, q JacobianPoint) {
	j.X.CondAssign(choice, q.X)
	j.Y.CondAssign(choice, q.Y)
	j.Z.CondAssign(choice, q.Z)
}

// CondSwap exchanges the contents of a and b if choice is 1.
func CondSwap(choice safenum.Choice, a, b JacobianPoint) {
	tmp := a.Clone()
	a.Select(choice, b)
	b.Select(choice, tmp)
}

// AddJacobian returns p + q with a complete formula: the identity, p = q
// and p = -q are handled by conditional selection, never by branching.
func (c *Curve) AddJacobian(p1, p2 JacobianPoint) JacobianPoint {
	// See https://hyperelliptic.org/EFD/g1p/auto-shortw-jacobian.html#addition-add-2007-bl
	m := c.fp.Modulus()
	x3, y3, z3 := new(safenum.Nat), new(safenum.Nat), new(safenum.Nat)

	infinity1 := p1.Z.EqZero()
	infinity2 := p2.Z.EqZero()

	z1z1 := new(safenum.Nat).ModMul(p1.Z, p1.Z, m)
	z2z2 := new(safenum.Nat).ModMul(p2.Z, p2.Z, m)

	u1 := new(safenum.Nat).ModMul(p1.X, z2z2, m)
	u2 := new(safenum.Nat).ModMul(p2.X, z1z1, m)
	h := new(safenum.Nat).ModSub(u2, u1, m)
	xEqual := h.EqZero()
	i := new(safenum.Nat).ModAdd(h, h, m)
	i.ModMul(i, i, m)
	j := new(safenum.Nat).ModMul(h, i, m)

	s1 := new(safenum.Nat).ModMul(p1.Y, p2.Z, m)
	s1.ModMul(s1, z2z2, m)
	s2 := new(safenum.Nat).ModMul(p2.Y, p1.Z, m)
	s2.ModMul(s2, z1z1, m)
	r := new(safenum.Nat).ModSub(s2, s1, m)
	yEqual := r.EqZero()
	r.ModAdd(r, r, m)
	v := new(safenum.Nat).ModMul(u1, i, m)

	// X3 = r^2 - J - 2V
	x3.ModMul(r, r, m)
	x3.ModSub(x3, j, m)
	x3.ModSub(x3, v, m)
	x3.ModSub(x3, v, m)

	// Y3 = r(V - X3) - 2 S1 J
	v.ModSub(v, x3, m)
	y3.ModMul(r, v, m)
	s1.ModMul(s1, j, m)
	s1.ModAdd(s1, s1, m)
	y3.ModSub(y3, s1, m)

	// Z3 = ((Z1 + Z2)^2 - Z1Z1 - Z2Z2) H, zero when p1 = -p2
	z3.ModAdd(p1.Z, p2.Z, m)
	z3.ModMul(z3, z3, m)
	z3.ModSub(z3, z1z1, m)
	z3.ModSub(z3, z2z2, m)
	z3.ModMul(z3, h, m)

	out := JacobianPoint{X: x3, Y: y3, Z: z3}

	// Equal inputs make the chord formula degenerate.
	out.Select(xEqual&yEqual, c.DoubleJacobian(p1))

	out.Select(infinity1, p2)
	out.Select(infinity2, p1)
	return out
}

// DoubleJacobian returns 2p for any coefficient a.
func (c *Curve) DoubleJacobian(p JacobianPoint) JacobianPoint {
	// See https://hyperelliptic.org/EFD/g1p/auto-shortw-jacobian.html#doubling-dbl-2007-bl
	m := c.fp.Modulus()

	xx := new(safenum.Nat).ModMul(p.X, p.X, m)
	yy := new(safenum.Nat).ModMul(p.Y, p.Y, m)
	yyyy := new(safenum.Nat).ModMul(yy, yy, m)
	zz := new(safenum.Nat).ModMul(p.Z, p.Z, m)

	// S = 2((X + YY)^2 - XX - YYYY)
	s := new(safenum.Nat).ModAdd(p.X, yy, m)
	s.ModMul(s, s, m)
	s.ModSub(s, xx, m)
	s.ModSub(s, yyyy, m)
	s.ModAdd(s, s, m)

	// M = 3 XX + a ZZ^2
	mm := new(safenum.Nat).ModAdd(xx, xx, m)
	mm.ModAdd(mm, xx, m)
	azz := new(safenum.Nat).ModMul(zz, zz, m)
	azz.ModMul(azz, c.a, m)
	mm.ModAdd(mm, azz, m)

	// T = M^2 - 2S
	t := new(safenum.Nat).ModMul(mm, mm, m)
	t.ModSub(t, s, m)
	t.ModSub(t, s, m)

	// Y3 = M(S - T) - 8 YYYY
	y3 := new(safenum.Nat).ModSub(s, t, m)
	y3.ModMul(y3, mm, m)
	yyyy.ModAdd(yyyy, yyyy, m)
	yyyy.ModAdd(yyyy, yyyy, m)
	yyyy.ModAdd(yyyy, yyyy, m)
	y3.ModSub(y3, yyyy, m)

	// Z3 = (Y + Z)^2 - YY - ZZ
	z3 := new(safenum.Nat).ModAdd(p.Y, p.Z, m)
	z3.ModMul(z3, z3, m)
	z3.ModSub(z3, yy, m)
	z3.ModSub(z3, zz, m)

	return JacobianPoint{X: t, Y: y3, Z: z3}
}
