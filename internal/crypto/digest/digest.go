package digest

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"math/big"

	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/sha3"
)

// Algorithm is an injected hash function. Only SM3 yields signatures that
// conform to GB/T 32918.2; the others exist for experimentation and are
// marked non-compliant.
type Algorithm struct {
	Name      string
	New       func() hash.Hash
	Compliant bool
}

var (
	SM3      = Algorithm{Name: "sm3", New: sm3.New, Compliant: true}
	SHA256   = Algorithm{Name: "sha256", New: sha256.New}
	SHA3_256 = Algorithm{Name: "sha3-256", New: sha3.New256}
)

// ByName looks up a registered hash.
func ByName(name string) (Algorithm, error) {
	switch name {
	case SM3.Name, "":
		return SM3, nil
	case SHA256.Name:
		return SHA256, nil
	case SHA3_256.Name:
		return SHA3_256, nil
	}
	return Algorithm{}, sm2.MakeError(sm2.ErrUnknownHash, fmt.Sprintf("digest: unknown hash %q", name))
}

// Size returns the output length in bytes.
func (a Algorithm) Size() int {
	return a.New().Size()
}

// Sum hashes the concatenation of parts.
func (a Algorithm) Sum(parts ...[]byte) []byte {
	h := a.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// IntToBytes encodes i big-endian, left padded to size bytes.
func IntToBytes(i *big.Int, size int) []byte {
	out := make([]byte, size)
	if i == nil {
		return out
	}
	return i.FillBytes(out)
}

// ZA computes the signer identity hash
//
//	Z_A = H(ENTL || ID || a || b || Gx || Gy || xA || yA)
//
// where ENTL is the bit length of ID as two big-endian bytes and every
// curve value is encoded at the field width.
func ZA(alg Algorithm, uid []byte, c *curves.Params, x, y *big.Int) ([]byte, error) {
	entl := len(uid) * 8
	if entl > 0xffff {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "digest: uid longer than 8191 bytes")
	}
	size := c.FieldBytes()
	return alg.Sum(
		[]byte{byte(entl >> 8), byte(entl)},
		uid,
		IntToBytes(c.A, size),
		IntToBytes(c.B, size),
		IntToBytes(c.Gx, size),
		IntToBytes(c.Gy, size),
		IntToBytes(x, size),
		IntToBytes(y, size),
	), nil
}

// DefaultUID returns a fresh copy of the standard identity.
func DefaultUID() []byte {
	return []byte(sm2.DefaultUID)
}
