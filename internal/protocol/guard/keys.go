package guard

import (
	"io"

	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

var selfTestMessage = []byte("sm2 key generation self test")

// GenerateKey creates a key pair on the scheme's curve, passes the public
// key through the point gate and runs a sign/verify self test before
// returning it.
func GenerateKey(s *sign.Scheme, rand io.Reader) (*keygen.PrivateKey, error) {
	priv, err := keygen.Generate(s.Curve(), rand)
	if err != nil {
		return nil, err
	}
	if err := SelfTest(s, priv); err != nil {
		priv.Zero()
		return nil, err
	}
	return priv, nil
}

// SelfTest checks that priv holds a well-formed key pair usable with s.
func SelfTest(s *sign.Scheme, priv *keygen.PrivateKey) error {
	c := s.Curve()
	gate := NewGate(c, scalarmult.NewLadder(c, 0))
	if err := gate.Check(priv.Point()); err != nil {
		return errors.Wrap(err, "guard: self test")
	}

	sig, err := s.Sign(selfTestMessage, priv)
	if err != nil {
		return errors.Wrap(err, "guard: self test")
	}
	if !s.Verify(selfTestMessage, sig, priv.Public()) {
		return sm2.MakeError(sm2.ErrFaultDetected, "guard: self test signature does not verify")
	}
	tampered := append([]byte(nil), selfTestMessage...)
	tampered[0] ^= 1
	if s.Verify(tampered, sig, priv.Public()) {
		return sm2.MakeError(sm2.ErrFaultDetected, "guard: self test accepted a tampered message")
	}
	return nil
}
