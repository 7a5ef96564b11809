package ct

import (
	"math/big"
	"testing"

	"github.com/cronokirby/safenum"
	"github.com/stretchr/testify/assert"
)

func modulus(v int64) (*safenum.Modulus, int) {
	m := big.NewInt(v)
	return safenum.ModulusFromNat(new(safenum.Nat).SetBig(m, m.BitLen())), m.BitLen()
}

func TestInRange(t *testing.T) {
	m, bits := modulus(19)
	tests := []struct {
		x    *big.Int
		want bool
	}{
		{nil, false},
		{big.NewInt(-1), false},
		{big.NewInt(0), false},
		{big.NewInt(1), true},
		{big.NewInt(18), true},
		{big.NewInt(19), false},
		{big.NewInt(31), false},
		{big.NewInt(1 << 20), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InRange(tt.x, m, bits), "x=%v", tt.x)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.False(t, Equal([]byte{1, 2, 3}, []byte{1, 2, 4}))
	assert.False(t, Equal([]byte{1, 2}, []byte{1, 2, 3}))

	assert.True(t, EqualInt(big.NewInt(258), big.NewInt(258), 4))
	assert.False(t, EqualInt(big.NewInt(258), big.NewInt(259), 4))
	assert.False(t, EqualInt(big.NewInt(1<<40), big.NewInt(1<<40), 4))
	assert.False(t, EqualInt(nil, big.NewInt(1), 4))
}

func TestWipe(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	x, _ := new(big.Int).SetString("deadbeefdeadbeefdeadbeefdeadbeef", 16)
	words := x.Bits()
	WipeInt(x)
	assert.Equal(t, 0, x.Sign())
	for _, w := range words {
		assert.Equal(t, big.Word(0), w)
	}
	WipeInt(nil)
}

func TestWipeNat(t *testing.T) {
	v, _ := new(big.Int).SetString("ffeeddccbbaa99887766554433221100", 16)
	a := new(safenum.Nat).SetBig(v, 128)
	b := new(safenum.Nat).SetBig(big.NewInt(7), 128)

	WipeNat(128, a, nil, b)
	assert.Equal(t, safenum.Choice(1), a.EqZero())
	assert.Equal(t, safenum.Choice(1), b.EqZero())
	assert.Equal(t, 0, a.Big().Sign())
}
