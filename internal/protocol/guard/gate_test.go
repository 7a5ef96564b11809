package guard

import (
	"errors"
	"math/big"
	"testing"

	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toy23 is y^2 = x^3 + x + 1 over F_23 with 28 points. (4, 0) has order 2,
// (11, 3) order 4 and G = (5, 4) order 7.
func toy23(t testing.TB) *group.Curve {
	t.Helper()
	params, err := curves.New("toy23", big.NewInt(23), big.NewInt(1), big.NewInt(1),
		big.NewInt(7), big.NewInt(5), big.NewInt(4))
	require.NoError(t, err)
	c, err := group.New(params)
	require.NoError(t, err)
	return c
}

func sm2Curve(t testing.TB) *group.Curve {
	t.Helper()
	c, err := group.New(curves.SM2P256())
	require.NoError(t, err)
	return c
}

func pt(x, y int64) group.Point {
	return group.NewPoint(big.NewInt(x), big.NewInt(y))
}

// offCurve returns a fixed point that ignores the curve equation.
type offCurve struct{}

func (offCurve) Strategy() scalarmult.Strategy { return scalarmult.VariableTime }

func (offCurve) Multiply(*big.Int, group.Point) (group.Point, error) {
	return pt(5, 5), nil
}

func TestGateCheck(t *testing.T) {
	c := toy23(t)
	inner, err := scalarmult.New(scalarmult.VariableTime, c)
	require.NoError(t, err)
	g := NewGate(c, inner, 2, 4)

	tests := []struct {
		name string
		p    group.Point
		ok   bool
	}{
		{"generator", pt(5, 4), true},
		{"order 14", pt(6, 4), true},
		{"order 2", pt(4, 0), false},
		{"order 4", pt(11, 3), false},
		{"identity", group.Identity(), false},
		{"off curve", pt(5, 5), false},
		{"unreduced", pt(5+23, 4), false},
	}
	for _, tt := range tests {
		err := g.Check(tt.p)
		if tt.ok {
			assert.NoError(t, err, tt.name)
			continue
		}
		assert.True(t, errors.Is(err, sm2.ErrInvalidPoint), "%s: %v", tt.name, err)
	}
}

func TestGateMultiply(t *testing.T) {
	c := toy23(t)
	inner, err := scalarmult.New(scalarmult.VariableTime, c)
	require.NoError(t, err)
	g := NewGate(c, inner, 2, 4)
	assert.Equal(t, scalarmult.VariableTime, g.Strategy())

	want, err := inner.Multiply(big.NewInt(3), c.Generator())
	require.NoError(t, err)
	got, err := g.Multiply(big.NewInt(3), c.Generator())
	require.NoError(t, err)
	assert.True(t, c.Equal(want, got))

	_, err = g.Multiply(big.NewInt(3), pt(4, 0))
	assert.True(t, errors.Is(err, sm2.ErrInvalidPoint))

	_, err = NewGate(c, offCurve{}, 2, 4).Multiply(big.NewInt(3), c.Generator())
	assert.True(t, errors.Is(err, sm2.ErrInvalidPoint))

	_, err = g.Multiply(big.NewInt(-1), c.Generator())
	assert.True(t, errors.Is(err, sm2.ErrOutOfRange))
}

func TestGateDefaultOrders(t *testing.T) {
	c := sm2Curve(t)
	g := NewGate(c, scalarmult.NewLadder(c, 0))
	assert.NoError(t, g.Check(c.Generator()))
	assert.Error(t, g.Check(group.Identity()))

	// The toy generator has order 7.
	toy := toy23(t)
	assert.Error(t, NewGate(toy, scalarmult.NewLadder(toy, 0)).Check(toy.Generator()))
}
