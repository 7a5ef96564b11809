package guard

import (
	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"go.uber.org/zap"
)

// DefaultMaxAttempts is the number of dual computations tried before a
// fault is reported.
const DefaultMaxAttempts = 3

// SignVerifier is the signing capability the Signer hardens. *sign.Scheme
// implements it.
type SignVerifier interface {
	Sign(msg []byte, priv *keygen.PrivateKey) (*sign.Signature, error)
	Verify(msg []byte, sig *sign.Signature, pub *keygen.PublicKey) bool
}

// Config configures a Signer.
type Config struct {
	MaxAttempts int // Defaults to DefaultMaxAttempts
	Logger      *zap.Logger
}

// Signer detects faults injected into signing. Every signature is computed
// twice and compared, the public key is re-derived from d, and the result
// is verified before it is released.
type Signer struct {
	inner    SignVerifier
	attempts int
	logger   *zap.Logger
}

// NewSigner wraps inner.
func NewSigner(inner SignVerifier, cfg Config) *Signer {
	s := &Signer{inner: inner, attempts: cfg.MaxAttempts, logger: cfg.Logger}
	if s.attempts <= 0 {
		s.attempts = DefaultMaxAttempts
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("guard")
	return s
}

// Verify delegates to the wrapped scheme.
func (s *Signer) Verify(msg []byte, sig *sign.Signature, pub *keygen.PublicKey) bool {
	return s.inner.Verify(msg, sig, pub)
}

// Sign produces a signature only once two independent computations agree
// and the result verifies under a freshly derived public key.
func (s *Signer) Sign(msg []byte, priv *keygen.PrivateKey) (*sign.Signature, error) {
	if priv == nil || priv.Curve == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "guard: missing private key")
	}
	curve := priv.Curve.Params().Name
	size := priv.Curve.Params().ScalarBytes()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		// 1. The stored public key must still be d*G.
		if err := s.checkKey(priv); err != nil {
			if errors.Is(err, sm2.ErrFaultDetected) {
				s.logger.Warn("fault detected", zap.Int("attempt", attempt),
					zap.String("reason", "public key mismatch"), zap.String("curve", curve))
				continue
			}
			return nil, err
		}

		// 2. Two independent computations.
		first, err := s.inner.Sign(msg, priv)
		if err != nil {
			return nil, errors.Wrap(err, "guard: first computation")
		}
		second, err := s.inner.Sign(msg, priv)
		if err != nil {
			return nil, errors.Wrap(err, "guard: second computation")
		}
		if !sameSignature(first, second, size) {
			s.logger.Warn("fault detected", zap.Int("attempt", attempt),
				zap.String("reason", "dual computation mismatch"), zap.String("curve", curve))
			continue
		}

		// 3. Release only what verifies.
		if !s.inner.Verify(msg, first, priv.Public()) {
			s.logger.Warn("fault detected", zap.Int("attempt", attempt),
				zap.String("reason", "self-verification failed"), zap.String("curve", curve))
			continue
		}
		return first, nil
	}

	return nil, sm2.MakeError(sm2.ErrFaultDetected, "guard: signing faulted on every attempt")
}

func (s *Signer) checkKey(priv *keygen.PrivateKey) error {
	q, err := scalarmult.NewLadder(priv.Curve, 0).Multiply(priv.D, priv.Curve.Generator())
	if err != nil {
		return errors.Wrap(err, "guard: re-deriving public key")
	}
	size := priv.Curve.Params().FieldBytes()
	if q.IsIdentity() || !ct.EqualInt(q.X, priv.X, size) || !ct.EqualInt(q.Y, priv.Y, size) {
		return sm2.MakeError(sm2.ErrFaultDetected, "guard: public key does not match d*G")
	}
	return nil
}

func sameSignature(a, b *sign.Signature, size int) bool {
	if a == nil || b == nil {
		return false
	}
	okR := ct.EqualInt(a.R, b.R, size)
	okS := ct.EqualInt(a.S, b.S, size)
	return okR && okS
}
