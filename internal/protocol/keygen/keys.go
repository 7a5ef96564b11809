package keygen

import (
	crand "crypto/rand"
	"encoding/hex"
	"io"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// PublicKey is the point d*G.
type PublicKey struct {
	Curve *group.Curve
	X, Y  *big.Int
}

// PrivateKey holds the secret scalar d in [1, n-2] and its public key. d =
// n-1 is excluded because 1 + d must be invertible modulo n.
type PrivateKey struct {
	PublicKey
	D *big.Int
}

// Point returns the public key as a group element.
func (pk *PublicKey) Point() group.Point {
	return group.Point{X: pk.X, Y: pk.Y}
}

// Bytes returns the uncompressed encoding 0x04 || X || Y.
func (pk *PublicKey) Bytes() []byte {
	return pk.Curve.Marshal(pk.Point())
}

// Validate checks that the key is a non-identity curve point.
func (pk *PublicKey) Validate() error {
	if pk == nil || pk.Curve == nil {
		return sm2.MakeError(sm2.ErrInvalidPoint, "keygen: missing public key")
	}
	p := pk.Point()
	if p.IsIdentity() {
		return sm2.MakeError(sm2.ErrInvalidPoint, "keygen: public key is the identity")
	}
	if !pk.Curve.IsOnCurve(p) {
		return sm2.MakeError(sm2.ErrInvalidPoint, "keygen: public key is not on the curve")
	}
	return nil
}

// Public returns the public half of k.
func (k *PrivateKey) Public() *PublicKey {
	return &k.PublicKey
}

// Bytes returns d as a fixed-width big-endian string.
func (k *PrivateKey) Bytes() []byte {
	return k.D.FillBytes(make([]byte, k.Curve.Params().ScalarBytes()))
}

// Zero overwrites the secret scalar.
func (k *PrivateKey) Zero() {
	if k == nil {
		return
	}
	ct.WipeInt(k.D)
}

// validScalar reports 1 <= d <= n-2.
func validScalar(c *group.Curve, d *big.Int) bool {
	nMinus1 := new(big.Int).Sub(c.Params().N, big.NewInt(1))
	fn := c.ScalarField()
	if d == nil || d.Sign() <= 0 {
		return false
	}
	return ct.InRange(d, fn.Modulus(), fn.Bits()) && !ct.EqualInt(d, nMinus1, fn.Bytes())
}

// Generate draws d uniformly from [1, n-2] and derives d*G through the
// constant-time ladder.
func Generate(c *group.Curve, rand io.Reader) (*PrivateKey, error) {
	// 1. Sample d = 1 + U[0, n-2)
	bound := new(big.Int).Sub(c.Params().N, big.NewInt(2))
	d, err := crand.Int(rand, bound)
	if err != nil {
		return nil, errors.Wrap(err, "keygen: reading randomness")
	}
	d.Add(d, big.NewInt(1))
	defer ct.WipeInt(d)

	// 2. Derive the public key
	return NewPrivateKey(c, d)
}

// NewPrivateKey wraps an existing scalar, rejecting values outside
// [1, n-2].
func NewPrivateKey(c *group.Curve, d *big.Int) (*PrivateKey, error) {
	if !validScalar(c, d) {
		return nil, sm2.MakeError(sm2.ErrOutOfRange, "keygen: private key outside [1, n-2]")
	}
	q, err := scalarmult.NewLadder(c, 0).Multiply(d, c.Generator())
	if err != nil {
		return nil, errors.Wrap(err, "keygen: deriving public key")
	}
	pub := &PublicKey{Curve: c, X: q.X, Y: q.Y}
	if err := pub.Validate(); err != nil {
		return nil, errors.Wrap(err, "keygen: derived public key")
	}
	return &PrivateKey{PublicKey: *pub, D: new(big.Int).Set(d)}, nil
}

// NewPublicKey decodes any supported point encoding and validates it.
func NewPublicKey(c *group.Curve, data []byte) (*PublicKey, error) {
	p, err := c.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "keygen: public key")
	}
	pub := &PublicKey{Curve: c, X: p.X, Y: p.Y}
	if err := pub.Validate(); err != nil {
		return nil, err
	}
	return pub, nil
}

// ParsePrivateKeyHex decodes a hex scalar.
func ParsePrivateKeyHex(c *group.Curve, s string) (*PrivateKey, error) {
	d, err := c.ScalarField().ParseElementHex(s)
	if err != nil {
		return nil, errors.Wrap(err, "keygen: private key")
	}
	defer ct.WipeInt(d)
	return NewPrivateKey(c, d)
}

// ParsePublicKeyHex decodes a hex point encoding.
func ParsePublicKeyHex(c *group.Curve, s string) (*PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, errors.Wrap(sm2.MakeError(sm2.ErrInvalidEncoding, err.Error()), "keygen: public key")
	}
	return NewPublicKey(c, raw)
}
