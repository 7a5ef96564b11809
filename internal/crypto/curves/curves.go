package curves

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// Names of the registered curves.
const (
	NameSM2P256     = "sm2p256v1"
	NameSM2TestP256 = "sm2-test-p256"
	NameSecp256k1   = "secp256k1"
)

// Params describes a short Weierstrass curve y^2 = x^3 + ax + b over F_p
// with a base point G of prime order N. Values returned by the presets are
// shared and must not be modified.
type Params struct {
	Name    string
	P       *big.Int // Field prime
	A, B    *big.Int // Curve coefficients
	N       *big.Int // Order of G
	Gx, Gy  *big.Int // Base point
	BitSize int      // Bit length of P
}

// FieldBytes returns the width of a field element encoding.
func (c *Params) FieldBytes() int {
	return (c.P.BitLen() + 7) / 8
}

// ScalarBytes returns the width of a scalar encoding.
func (c *Params) ScalarBytes() int {
	return (c.N.BitLen() + 7) / 8
}

// Validate checks that the parameters describe a usable curve: an odd prime
// field, coefficients in range, a nonsingular equation and a base point that
// satisfies it.
func (c *Params) Validate() error {
	if c == nil || c.P == nil || c.A == nil || c.B == nil || c.N == nil || c.Gx == nil || c.Gy == nil {
		return sm2.MakeError(sm2.ErrInvalidParams, "curves: incomplete parameters")
	}
	if c.P.Cmp(big.NewInt(3)) <= 0 || c.P.Bit(0) == 0 || !c.P.ProbablyPrime(20) {
		return sm2.MakeError(sm2.ErrInvalidParams, "curves: p must be an odd prime")
	}
	if c.N.Cmp(big.NewInt(1)) <= 0 {
		return sm2.MakeError(sm2.ErrInvalidParams, "curves: n must exceed 1")
	}
	for _, v := range []*big.Int{c.A, c.B, c.Gx, c.Gy} {
		if v.Sign() < 0 || v.Cmp(c.P) >= 0 {
			return sm2.MakeError(sm2.ErrInvalidParams, "curves: value outside [0, p)")
		}
	}

	// 4a^3 + 27b^2 != 0 mod p
	a3 := new(big.Int).Exp(c.A, big.NewInt(3), c.P)
	a3.Mul(a3, big.NewInt(4))
	b2 := new(big.Int).Mul(c.B, c.B)
	b2.Mul(b2, big.NewInt(27))
	disc := a3.Add(a3, b2)
	if disc.Mod(disc, c.P).Sign() == 0 {
		return sm2.MakeError(sm2.ErrInvalidParams, "curves: singular curve")
	}

	if !c.onCurve(c.Gx, c.Gy) {
		return sm2.MakeError(sm2.ErrInvalidParams, "curves: base point not on curve")
	}
	return nil
}

func (c *Params) onCurve(x, y *big.Int) bool {
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, c.P)

	rhs := new(big.Int).Mul(x, x)
	rhs.Mul(rhs, x)
	ax := new(big.Int).Mul(c.A, x)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, c.P)

	return lhs.Cmp(rhs) == 0
}

// New builds and validates a custom curve.
func New(name string, p, a, b, n, gx, gy *big.Int) (*Params, error) {
	c := &Params{
		Name:    name,
		P:       p,
		A:       a,
		B:       b,
		N:       n,
		Gx:      gx,
		Gy:      gy,
		BitSize: p.BitLen(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func fromHex(name, p, a, b, n, gx, gy string) *Params {
	c := &Params{Name: name}
	for _, f := range []struct {
		dst **big.Int
		hex string
	}{{&c.P, p}, {&c.A, a}, {&c.B, b}, {&c.N, n}, {&c.Gx, gx}, {&c.Gy, gy}} {
		v, ok := new(big.Int).SetString(f.hex, 16)
		if !ok {
			panic(fmt.Sprintf("curves: bad constant for %s", name))
		}
		*f.dst = v
	}
	c.BitSize = c.P.BitLen()
	return c
}

var (
	initOnce    sync.Once
	sm2P256     *Params
	sm2TestP256 *Params
	k256        *Params
)

func initAll() {
	// GB/T 32918.5 recommended curve.
	sm2P256 = fromHex(NameSM2P256,
		"FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00000000FFFFFFFFFFFFFFFF",
		"FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00000000FFFFFFFFFFFFFFFC",
		"28E9FA9E9D9F5E344D5A9E4BCF6509A7F39789F515AB8F92DDBCBD414D940E93",
		"FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFF7203DF6B21C6052B53BBF40939D54123",
		"32C4AE2C1F1981195F9904466A39C9948FE30BBFF2660BE1715A4589334C74C7",
		"BC3736A2F4F6779C59BDCEE36B692153D0A9877CC62A474002DF32E52139F0A0",
	)

	// GB/T 32918.2 Annex A example curve.
	sm2TestP256 = fromHex(NameSM2TestP256,
		"8542D69E4C044F18E8B92435BF6FF7DE457283915C45517D722EDB8B08F1DFC3",
		"787968B4FA32C3FD2417842E73BBFEFF2F3C848B6831D7E0EC65228B3937E498",
		"63E4C6D3B23B0C849CF84241484BFE48F61D59A5B16BA06E6E12D1DA27C5249A",
		"8542D69E4C044F18E8B92435BF6FF7DD297720630485628D5AE74EE7C32E79B7",
		"421DEBD61B62EAB6746434EBC3CC315E32220B3BADD50BDC4C4E6C147FEDD43D",
		"0680512BCBB42C07D47349D2153B70C4E5D7FDFCBFA36EA1A85841B9E46E09A2",
	)

	// secp256k1 as published by decred, a = 0.
	s := secp256k1.S256().Params()
	k256 = &Params{
		Name:    NameSecp256k1,
		P:       new(big.Int).Set(s.P),
		A:       new(big.Int),
		B:       new(big.Int).Set(s.B),
		N:       new(big.Int).Set(s.N),
		Gx:      new(big.Int).Set(s.Gx),
		Gy:      new(big.Int).Set(s.Gy),
		BitSize: s.BitSize,
	}
}

// SM2P256 returns the SM2 recommended 256-bit curve.
func SM2P256() *Params {
	initOnce.Do(initAll)
	return sm2P256
}

// SM2TestP256 returns the example curve from GB/T 32918.2 Annex A. It exists
// to reproduce the published signature vector and is not for production keys.
func SM2TestP256() *Params {
	initOnce.Do(initAll)
	return sm2TestP256
}

// Secp256k1 returns secp256k1 in generic Weierstrass form.
func Secp256k1() *Params {
	initOnce.Do(initAll)
	return k256
}

// ByName looks up a registered curve.
func ByName(name string) (*Params, error) {
	switch name {
	case NameSM2P256, "sm2":
		return SM2P256(), nil
	case NameSM2TestP256:
		return SM2TestP256(), nil
	case NameSecp256k1:
		return Secp256k1(), nil
	}
	return nil, sm2.MakeError(sm2.ErrUnknownCurve, fmt.Sprintf("curves: unknown curve %q", name))
}
