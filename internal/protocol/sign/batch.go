package sign

import (
	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

// SignBatch signs each message in order. The Z_A prefix is hashed once and
// shared by every message; nonces stay per message.
func (s *Scheme) SignBatch(messages [][]byte, priv *keygen.PrivateKey) ([]*Signature, error) {
	if len(messages) == 0 {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: empty batch")
	}
	if priv == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: missing private key")
	}

	prefix, err := s.identityPrefix(priv.Public())
	if err != nil {
		return nil, errors.Wrap(err, "sign: batch digest")
	}

	sigs := make([]*Signature, 0, len(messages))
	for i, msg := range messages {
		sig, err := s.SignDigest(s.hash.Sum(prefix, msg), priv)
		if err != nil {
			return nil, errors.Wrapf(err, "sign: batch message %d", i)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// VerifyBatch reports whether every signature is valid for its message.
func (s *Scheme) VerifyBatch(messages [][]byte, sigs []*Signature, pub *keygen.PublicKey) bool {
	if len(messages) == 0 || len(messages) != len(sigs) {
		return false
	}
	for i := range messages {
		if !s.Verify(messages[i], sigs[i], pub) {
			return false
		}
	}
	return true
}

// identityPrefix returns Z_A, or nothing when identity binding is off.
func (s *Scheme) identityPrefix(pub *keygen.PublicKey) ([]byte, error) {
	if s.skipZA {
		return nil, nil
	}
	return s.za(pub)
}
