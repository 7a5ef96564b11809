package group

import (
	"math/big"

	"github.com/cronokirby/safenum"
	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/internal/crypto/field"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// DefaultSmallOrders are the subgroup orders HasSmallOrder probes when the
// caller does not name any.
var DefaultSmallOrders = []int{2, 3, 4, 5, 6, 7, 8}

// Point is an affine curve point. The zero value, with both coordinates
// nil, is the identity.
type Point struct {
	X, Y *big.Int
}

// Identity returns the point at infinity.
func Identity() Point {
	return Point{}
}

// NewPoint returns the affine point (x, y). It does not check the curve
// equation; see Curve.IsOnCurve.
func NewPoint(x, y *big.Int) Point {
	return Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
}

// IsIdentity reports whether p is the point at infinity.
func (p Point) IsIdentity() bool {
	return p.X == nil || p.Y == nil
}

// Curve implements the group law over one set of curve parameters. It is
// immutable and safe for concurrent use.
type Curve struct {
	params *curves.Params
	fp     *field.Field
	fn     *field.Field
	g      Point

	// Constant-time copies of the coefficients for the Jacobian formulas.
	a, b *safenum.Nat
}

// New builds the group for params after validating them.
func New(params *curves.Params) (*Curve, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "group")
	}
	fp, err := field.New(params.P)
	if err != nil {
		return nil, errors.Wrap(err, "group: base field")
	}
	fn, err := field.New(params.N)
	if err != nil {
		return nil, errors.Wrap(err, "group: scalar field")
	}
	return &Curve{
		params: params,
		fp:     fp,
		fn:     fn,
		g:      NewPoint(params.Gx, params.Gy),
		a:      fp.Nat(params.A),
		b:      fp.Nat(params.B),
	}, nil
}

// Params returns the curve parameters.
func (c *Curve) Params() *curves.Params {
	return c.params
}

// Field returns arithmetic modulo p.
func (c *Curve) Field() *field.Field {
	return c.fp
}

// ScalarField returns arithmetic modulo n.
func (c *Curve) ScalarField() *field.Field {
	return c.fn
}

// Generator returns a copy of the base point.
func (c *Curve) Generator() Point {
	return NewPoint(c.g.X, c.g.Y)
}

// Identity returns the point at infinity.
func (c *Curve) Identity() Point {
	return Identity()
}

// IsOnCurve reports whether p is the identity or an affine point with
// coordinates in [0, p) satisfying y^2 = x^3 + ax + b.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.IsIdentity() {
		return true
	}
	if !c.fp.IsElement(p.X) || !c.fp.IsElement(p.Y) {
		return false
	}
	lhs := c.fp.Square(p.Y)
	return lhs.Cmp(c.polynomial(p.X)) == 0
}

// polynomial returns x^3 + ax + b.
func (c *Curve) polynomial(x *big.Int) *big.Int {
	x3 := c.fp.Mul(c.fp.Square(x), x)
	ax := c.fp.Mul(c.params.A, x)
	return c.fp.Add(c.fp.Add(x3, ax), c.params.B)
}

// Negate returns -p.
func (c *Curve) Negate(p Point) Point {
	if p.IsIdentity() {
		return Identity()
	}
	return Point{X: new(big.Int).Set(p.X), Y: c.fp.Neg(p.Y)}
}

// Equal reports whether p and q are the same point.
func (c *Curve) Equal(p, q Point) bool {
	if p.IsIdentity() || q.IsIdentity() {
		return p.IsIdentity() == q.IsIdentity()
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Add returns p + q. It runs in variable time.
func (c *Curve) Add(p, q Point) Point {
	if p.IsIdentity() {
		return q
	}
	if q.IsIdentity() {
		return p
	}

	if c.fp.Reduce(p.X).Cmp(c.fp.Reduce(q.X)) == 0 {
		// Same x: either q = -p (this also covers y = 0) or q = p.
		if c.fp.Add(p.Y, q.Y).Sign() == 0 {
			return Identity()
		}
		d, _ := c.Double(p)
		return d
	}

	// lambda = (y2 - y1) / (x2 - x1)
	den, err := c.fp.Inverse(c.fp.Sub(q.X, p.X))
	if err != nil {
		// p is prime and x1 != x2 mod p, so the difference is invertible.
		panic(err)
	}
	lambda := c.fp.Mul(c.fp.Sub(q.Y, p.Y), den)

	x3 := c.fp.Sub(c.fp.Sub(c.fp.Square(lambda), p.X), q.X)
	y3 := c.fp.Sub(c.fp.Mul(lambda, c.fp.Sub(p.X, x3)), p.Y)
	return Point{X: x3, Y: y3}
}

// Double returns 2p. The tangent at a point with y = 0 is vertical, which
// is reported as ErrZeroTangent.
func (c *Curve) Double(p Point) (Point, error) {
	if p.IsIdentity() {
		return Identity(), nil
	}
	if c.fp.Reduce(p.Y).Sign() == 0 {
		return Point{}, sm2.MakeError(sm2.ErrZeroTangent, "group: doubling a point with y = 0")
	}

	// lambda = (3x^2 + a) / 2y
	num := c.fp.Add(c.fp.Mul(big.NewInt(3), c.fp.Square(p.X)), c.params.A)
	den, err := c.fp.Inverse(c.fp.Add(p.Y, p.Y))
	if err != nil {
		return Point{}, errors.Wrap(err, "group: double")
	}
	lambda := c.fp.Mul(num, den)

	x3 := c.fp.Sub(c.fp.Square(lambda), c.fp.Add(p.X, p.X))
	y3 := c.fp.Sub(c.fp.Mul(lambda, c.fp.Sub(p.X, x3)), p.Y)
	return Point{X: x3, Y: y3}, nil
}

// Order returns the order of p if it is at most bound, found by repeated
// addition. The second result is false when the order exceeds bound.
func (c *Curve) Order(p Point, bound int) (int, bool) {
	acc := p
	for k := 1; k <= bound; k++ {
		if acc.IsIdentity() {
			return k, true
		}
		acc = c.Add(acc, p)
	}
	return 0, false
}

// HasSmallOrder reports whether h*p is the identity for any h in orders
// (DefaultSmallOrders when orders is empty). The identity itself always has
// small order.
func (c *Curve) HasSmallOrder(p Point, orders ...int) bool {
	if len(orders) == 0 {
		orders = DefaultSmallOrders
	}
	max := 0
	for _, h := range orders {
		if h > max {
			max = h
		}
	}

	// killed[k] is true when k*p is the identity.
	killed := make([]bool, max+1)
	acc := p
	for k := 1; k <= max; k++ {
		killed[k] = acc.IsIdentity()
		acc = c.Add(acc, p)
	}
	for _, h := range orders {
		if h >= 1 && killed[h] {
			return true
		}
	}
	return false
}
