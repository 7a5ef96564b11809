package guard

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// Gate validates points on the way into and out of a multiplier. Inputs
// must satisfy the curve equation and must not lie in a small subgroup;
// outputs must satisfy the curve equation.
type Gate struct {
	c      *group.Curve
	inner  scalarmult.Multiplier
	orders []int
}

// NewGate wraps inner. orders lists the subgroup orders to probe; empty
// means group.DefaultSmallOrders.
func NewGate(c *group.Curve, inner scalarmult.Multiplier, orders ...int) *Gate {
	return &Gate{c: c, inner: inner, orders: orders}
}

// Check runs the input validation on its own.
func (g *Gate) Check(p group.Point) error {
	if !g.c.IsOnCurve(p) {
		return sm2.MakeError(sm2.ErrInvalidPoint, "guard: point is not on the curve")
	}
	if g.c.HasSmallOrder(p, g.orders...) {
		return sm2.MakeError(sm2.ErrInvalidPoint, "guard: point has small order")
	}
	return nil
}

func (g *Gate) Strategy() scalarmult.Strategy {
	return g.inner.Strategy()
}

func (g *Gate) Multiply(k *big.Int, p group.Point) (group.Point, error) {
	if err := g.Check(p); err != nil {
		return group.Point{}, err
	}
	q, err := g.inner.Multiply(k, p)
	if err != nil {
		return group.Point{}, errors.Wrap(err, "guard: gated multiply")
	}
	if !g.c.IsOnCurve(q) {
		return group.Point{}, sm2.MakeError(sm2.ErrInvalidPoint, "guard: result is not on the curve")
	}
	return q, nil
}
