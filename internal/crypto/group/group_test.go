package group

import (
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toy17 is y^2 = x^3 + 2x + 2 over F_17 with G = (5, 1) of order 19.
func toy17(t testing.TB) *Curve {
	t.Helper()
	params, err := curves.New("toy17", big.NewInt(17), big.NewInt(2), big.NewInt(2),
		big.NewInt(19), big.NewInt(5), big.NewInt(1))
	require.NoError(t, err)
	c, err := New(params)
	require.NoError(t, err)
	return c
}

// toy23 is y^2 = x^3 + x + 1 over F_23. The group has 28 points; G = (5, 4)
// generates the subgroup of order 7, leaving points of order 2, 4, 14 and 28
// outside it.
func toy23(t testing.TB) *Curve {
	t.Helper()
	params, err := curves.New("toy23", big.NewInt(23), big.NewInt(1), big.NewInt(1),
		big.NewInt(7), big.NewInt(5), big.NewInt(4))
	require.NoError(t, err)
	c, err := New(params)
	require.NoError(t, err)
	return c
}

func pt(x, y int64) Point {
	return Point{X: big.NewInt(x), Y: big.NewInt(y)}
}

// Multiples of G on toy17, index k holds k*G.
var toy17Multiples = [][2]int64{
	{5, 1}, {6, 3}, {10, 6}, {3, 1}, {9, 16}, {16, 13}, {0, 6}, {13, 7}, {7, 6},
	{7, 11}, {13, 10}, {0, 11}, {16, 4}, {9, 1}, {3, 16}, {10, 11}, {6, 14}, {5, 16},
}

func toy17Multiple(k int) Point {
	k %= 19
	if k == 0 {
		return Identity()
	}
	m := toy17Multiples[k-1]
	return pt(m[0], m[1])
}

func TestAddMatchesTable(t *testing.T) {
	c := toy17(t)
	g := c.Generator()

	acc := Identity()
	for k := 1; k <= 19; k++ {
		acc = c.Add(acc, g)
		want := toy17Multiple(k)
		if !c.Equal(acc, want) {
			t.Fatalf("%d*G: got %v, want %v", k, acc, want)
		}
		if !c.IsOnCurve(acc) {
			t.Fatalf("%d*G is not on the curve", k)
		}
	}
	assert.True(t, acc.IsIdentity(), "19*G should be the identity")
}

func TestGroupLaws(t *testing.T) {
	c := toy17(t)
	for i := 0; i < 19; i++ {
		p := toy17Multiple(i)

		// Identity and inverse.
		assert.True(t, c.Equal(p, c.Add(p, Identity())))
		assert.True(t, c.Equal(p, c.Add(Identity(), p)))
		assert.True(t, c.Add(p, c.Negate(p)).IsIdentity(), "P + (-P), i=%d", i)

		for j := 0; j < 19; j++ {
			q := toy17Multiple(j)
			sum := c.Add(p, q)
			// Closure and commutativity.
			require.True(t, c.IsOnCurve(sum))
			require.True(t, c.Equal(sum, c.Add(q, p)))
			require.True(t, c.Equal(sum, toy17Multiple(i+j)), "%d*G + %d*G", i, j)
		}
	}

	// Associativity on a sample.
	p, q, r := toy17Multiple(3), toy17Multiple(7), toy17Multiple(11)
	assert.True(t, c.Equal(c.Add(c.Add(p, q), r), c.Add(p, c.Add(q, r))))
}

func TestDouble(t *testing.T) {
	c := toy17(t)
	d, err := c.Double(c.Generator())
	require.NoError(t, err)
	assert.True(t, c.Equal(d, pt(6, 3)))

	d, err = c.Double(Identity())
	require.NoError(t, err)
	assert.True(t, d.IsIdentity())
}

func TestDoubleZeroTangent(t *testing.T) {
	c := toy23(t)
	p := pt(4, 0)
	require.True(t, c.IsOnCurve(p))

	_, err := c.Double(p)
	assert.True(t, errors.Is(err, sm2.ErrZeroTangent))

	// Through Add the same point cancels with itself.
	assert.True(t, c.Add(p, p).IsIdentity())
}

// TestAddUnreducedCoordinates feeds x and x + p, which are the same field
// element.
func TestAddUnreducedCoordinates(t *testing.T) {
	c := toy17(t)
	g := c.Generator()

	assert.True(t, c.Equal(pt(6, 3), c.Add(g, pt(5+17, 1))))
	assert.True(t, c.Add(g, pt(5+17, 16)).IsIdentity())
	assert.True(t, c.Equal(pt(10, 6), c.Add(g, pt(6+17, 3))))
}

func TestIsOnCurve(t *testing.T) {
	c := toy17(t)
	assert.True(t, c.IsOnCurve(Identity()))
	assert.True(t, c.IsOnCurve(pt(5, 1)))
	assert.False(t, c.IsOnCurve(pt(5, 2)))

	// Congruent but unreduced coordinates are rejected.
	assert.False(t, c.IsOnCurve(pt(5+17, 1)))
	assert.False(t, c.IsOnCurve(pt(5, -16)))
}

func TestOrder(t *testing.T) {
	c := toy23(t)
	tests := []struct {
		p    Point
		want int
	}{
		{pt(4, 0), 2},
		{pt(11, 3), 4},
		{pt(5, 4), 7},
		{pt(6, 4), 14},
		{pt(0, 1), 28},
	}
	for _, tt := range tests {
		require.True(t, c.IsOnCurve(tt.p))
		got, ok := c.Order(tt.p, 64)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "order of %v", tt.p)
	}

	_, ok := c.Order(pt(0, 1), 10)
	assert.False(t, ok)

	got, ok := c.Order(Identity(), 1)
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestHasSmallOrder(t *testing.T) {
	c := toy23(t)
	assert.True(t, c.HasSmallOrder(Identity()))
	assert.True(t, c.HasSmallOrder(pt(4, 0)))
	assert.True(t, c.HasSmallOrder(pt(11, 3)))
	// The generator has order 7, inside the default probe set.
	assert.True(t, c.HasSmallOrder(pt(5, 4)))
	assert.False(t, c.HasSmallOrder(pt(6, 4)))
	assert.False(t, c.HasSmallOrder(pt(0, 1)))

	// Only the listed orders are probed.
	assert.False(t, c.HasSmallOrder(pt(11, 3), 2, 3))
	assert.True(t, c.HasSmallOrder(pt(6, 4), 14))

	sm, err := New(curves.SM2P256())
	require.NoError(t, err)
	assert.False(t, sm.HasSmallOrder(sm.Generator()))
}

func TestJacobianAgreesWithAffine(t *testing.T) {
	c := toy17(t)
	for i := 0; i < 19; i++ {
		for j := 0; j < 19; j++ {
			sum := c.AddJacobian(c.ToJacobian(toy17Multiple(i)), c.ToJacobian(toy17Multiple(j)))
			got, err := c.ToAffine(sum)
			require.NoError(t, err)
			require.True(t, c.Equal(got, toy17Multiple(i+j)), "%d*G + %d*G", i, j)
		}

		dbl, err := c.ToAffine(c.DoubleJacobian(c.ToJacobian(toy17Multiple(i))))
		require.NoError(t, err)
		require.True(t, c.Equal(dbl, toy17Multiple(2*i)), "2 * %d*G", i)
	}
}

func TestJacobianOrderTwo(t *testing.T) {
	c := toy23(t)
	j := c.ToJacobian(pt(4, 0))

	sum, err := c.ToAffine(c.AddJacobian(j, j))
	require.NoError(t, err)
	assert.True(t, sum.IsIdentity())

	dbl, err := c.ToAffine(c.DoubleJacobian(j))
	require.NoError(t, err)
	assert.True(t, dbl.IsIdentity())
}

func TestJacobianLargeCurve(t *testing.T) {
	c, err := New(curves.SM2P256())
	require.NoError(t, err)

	g := c.Generator()
	g2, err := c.Double(g)
	require.NoError(t, err)
	g3 := c.Add(g2, g)

	jg := c.ToJacobian(g)
	j2 := c.DoubleJacobian(jg)
	j3 := c.AddJacobian(j2, jg)

	got2, err := c.ToAffine(j2)
	require.NoError(t, err)
	got3, err := c.ToAffine(j3)
	require.NoError(t, err)
	assert.True(t, c.Equal(g2, got2))
	assert.True(t, c.Equal(g3, got3))

	// Doubling through the complete addition.
	viaAdd, err := c.ToAffine(c.AddJacobian(jg, jg.Clone()))
	require.NoError(t, err)
	assert.True(t, c.Equal(g2, viaAdd))

	// P + (-P).
	neg, err := c.ToAffine(c.AddJacobian(jg, c.ToJacobian(c.Negate(g))))
	require.NoError(t, err)
	assert.True(t, neg.IsIdentity())
}

func TestCondSwap(t *testing.T) {
	c := toy17(t)
	a := c.ToJacobian(toy17Multiple(2))
	b := c.ToJacobian(toy17Multiple(5))

	CondSwap(0, a, b)
	pa, _ := c.ToAffine(a)
	assert.True(t, c.Equal(pa, toy17Multiple(2)))

	CondSwap(1, a, b)
	pa, _ = c.ToAffine(a)
	pb, _ := c.ToAffine(b)
	assert.True(t, c.Equal(pa, toy17Multiple(5)))
	assert.True(t, c.Equal(pb, toy17Multiple(2)))
}

func TestRandomPointsOnSM2(t *testing.T) {
	c, err := New(curves.SM2P256())
	require.NoError(t, err)

	// Random multiples through repeated doubling and addition stay on the
	// curve.
	p := c.Generator()
	for i := 0; i < 32; i++ {
		b := make([]byte, 1)
		_, err := rand.Read(b)
		require.NoError(t, err)
		d, err := c.Double(p)
		require.NoError(t, err)
		if b[0]&1 == 1 {
			d = c.Add(d, c.Generator())
		}
		p = d
		require.True(t, c.IsOnCurve(p))
	}
}
