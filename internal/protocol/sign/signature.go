package sign

import (
	"math/big"

	"github.com/smallyu/go-sm2/pkg/sm2"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Signature is an SM2 signature (r, s).
type Signature struct {
	R *big.Int
	S *big.Int
}

// Bytes returns r || s, each left padded to size bytes.
func (sig *Signature) Bytes(size int) []byte {
	out := make([]byte, 2*size)
	sig.R.FillBytes(out[:size])
	sig.S.FillBytes(out[size:])
	return out
}

// ParseSignature splits a fixed-width r || s encoding.
func ParseSignature(data []byte) (*Signature, error) {
	if len(data) == 0 || len(data)%2 != 0 {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "sign: signature must be r || s of equal width")
	}
	half := len(data) / 2
	return &Signature{
		R: new(big.Int).SetBytes(data[:half]),
		S: new(big.Int).SetBytes(data[half:]),
	}, nil
}

// MarshalDER encodes SEQUENCE { INTEGER r, INTEGER s }.
func (sig *Signature) MarshalDER() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(sig.R)
		b.AddASN1BigInt(sig.S)
	})
	return b.Bytes()
}

// ParseDER decodes a DER signature. Range checks are left to Verify.
func ParseDER(data []byte) (*Signature, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(data)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "sign: malformed DER signature")
	}
	if r.Sign() < 0 || s.Sign() < 0 {
		return nil, sm2.MakeError(sm2.ErrInvalidEncoding, "sign: negative signature component")
	}
	return &Signature{R: r, S: s}, nil
}
