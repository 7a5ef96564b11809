package guard

import (
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"go.uber.org/zap"
)

// NewScheme builds the scheme the binaries ship: k*G goes through a
// Blinder when p.BlindBits > 0 (the plain ladder otherwise) and t*Q goes
// through a Gate around double-and-add.
func NewScheme(p *sm2.Parameters, logger *zap.Logger) (*sign.Scheme, error) {
	cfg, err := sign.ConfigFromParameters(p, logger)
	if err != nil {
		return nil, err
	}
	c := cfg.Curve

	if p.BlindBits > 0 {
		cfg.NonceMult = NewBlinder(c, p.BlindBits, nil)
	}
	inner, err := scalarmult.New(scalarmult.VariableTime, c)
	if err != nil {
		return nil, err
	}
	cfg.PointMult = NewGate(c, inner)
	return sign.New(cfg)
}

// NewSchemeSigner returns NewScheme together with a Signer configured with
// p.FaultAttempts.
func NewSchemeSigner(p *sm2.Parameters, logger *zap.Logger) (*sign.Scheme, *Signer, error) {
	s, err := NewScheme(p, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, NewSigner(s, Config{MaxAttempts: p.FaultAttempts, Logger: logger}), nil
}
