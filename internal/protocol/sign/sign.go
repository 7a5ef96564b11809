package sign

import (
	"math/big"

	"github.com/cronokirby/safenum"
	"github.com/pkg/errors"
	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/internal/crypto/digest"
	"github.com/smallyu/go-sm2/internal/crypto/field"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/nonce"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds the nonce candidates tried per signature.
const DefaultMaxRetries = 32

// Config configures a Scheme. Zero fields take the standard defaults.
type Config struct {
	Curve        *group.Curve     // Required
	Hash         digest.Algorithm // Defaults to SM3
	UID          []byte           // Defaults to "1234567812345678"
	SkipIdentity bool             // e = H(M) instead of H(Z_A || M); non-compliant
	Nonces       nonce.Source     // Defaults to RFC 6979 over HMAC-SM3
	MaxRetries   int              // Defaults to DefaultMaxRetries

	// Multipliers for k*G when signing and for s*G and t*Q when verifying.
	// They default to the ladder, the cached base table and double-and-add.
	NonceMult scalarmult.Multiplier
	BaseMult  scalarmult.Multiplier
	PointMult scalarmult.Multiplier

	Logger *zap.Logger
}

// Scheme signs and verifies messages. It is immutable after New and safe for
// concurrent use; each call owns its nonce stream and accumulators.
type Scheme struct {
	c      *group.Curve
	fn     *field.Field
	hash   digest.Algorithm
	uid    []byte
	skipZA bool
	nonces nonce.Source
	tries  int

	nonceMult scalarmult.Multiplier
	baseMult  scalarmult.Multiplier
	pointMult scalarmult.Multiplier

	logger *zap.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Scheme, error) {
	if cfg.Curve == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: curve is required")
	}
	s := &Scheme{
		c:         cfg.Curve,
		fn:        cfg.Curve.ScalarField(),
		hash:      cfg.Hash,
		uid:       append([]byte(nil), cfg.UID...),
		skipZA:    cfg.SkipIdentity,
		nonces:    cfg.Nonces,
		tries:     cfg.MaxRetries,
		nonceMult: cfg.NonceMult,
		baseMult:  cfg.BaseMult,
		pointMult: cfg.PointMult,
		logger:    cfg.Logger,
	}
	if s.hash.New == nil {
		s.hash = digest.SM3
	}
	if cfg.UID == nil {
		s.uid = digest.DefaultUID()
	}
	if len(s.uid)*8 > 0xffff {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: uid is too long")
	}
	if s.nonces == nil {
		s.nonces = nonce.RFC6979{Hash: s.hash.New}
	}
	if s.tries == 0 {
		s.tries = DefaultMaxRetries
	}
	if s.tries < 0 {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: negative retry bound")
	}
	if s.nonceMult == nil {
		s.nonceMult = scalarmult.NewLadder(s.c, 0)
	}
	if s.baseMult == nil {
		s.baseMult = scalarmult.NewWindowed(s.c)
	}
	if s.pointMult == nil {
		var err error
		if s.pointMult, err = scalarmult.New(scalarmult.VariableTime, s.c); err != nil {
			return nil, err
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("sign").With(zap.String("curve", s.c.Params().Name))
	return s, nil
}

// ConfigFromParameters validates p and resolves its curve and hash names.
// The multiplier fields are left for the caller; BlindBits and
// FaultAttempts belong to the countermeasure layer.
func ConfigFromParameters(p *sm2.Parameters, logger *zap.Logger) (Config, error) {
	if err := p.Validate(); err != nil {
		return Config{}, err
	}
	params, err := curves.ByName(p.Curve)
	if err != nil {
		return Config{}, err
	}
	c, err := group.New(params)
	if err != nil {
		return Config{}, err
	}
	alg, err := digest.ByName(p.Hash)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Curve:        c,
		Hash:         alg,
		UID:          p.UID,
		SkipIdentity: p.SkipIdentity,
		MaxRetries:   p.MaxRetries,
		Logger:       logger,
	}, nil
}

// NewFromParameters builds an unhardened scheme from p. guard.NewScheme
// adds blinding and point validation on top of the same configuration.
func NewFromParameters(p *sm2.Parameters, logger *zap.Logger) (*Scheme, error) {
	cfg, err := ConfigFromParameters(p, logger)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Curve returns the group the scheme works in.
func (s *Scheme) Curve() *group.Curve {
	return s.c
}

// Multipliers returns the multipliers used for k*G, s*G and t*Q.
func (s *Scheme) Multipliers() (nonceMult, baseMult, pointMult scalarmult.Multiplier) {
	return s.nonceMult, s.baseMult, s.pointMult
}

// Hash returns the message hash.
func (s *Scheme) Hash() digest.Algorithm {
	return s.hash
}

// Compliant reports whether signatures follow GB/T 32918.2: SM3 with the
// signer identity bound into the digest.
func (s *Scheme) Compliant() bool {
	return s.hash.Compliant && !s.skipZA
}

// Digest computes e = H(Z_A || M), or H(M) when identity binding is off.
func (s *Scheme) Digest(msg []byte, pub *keygen.PublicKey) ([]byte, error) {
	prefix, err := s.identityPrefix(pub)
	if err != nil {
		return nil, err
	}
	return s.hash.Sum(prefix, msg), nil
}

func (s *Scheme) za(pub *keygen.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidPoint, "sign: missing public key")
	}
	return digest.ZA(s.hash, s.uid, s.c.Params(), pub.X, pub.Y)
}

// Sign signs msg with priv.
func (s *Scheme) Sign(msg []byte, priv *keygen.PrivateKey) (*Signature, error) {
	if priv == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: missing private key")
	}
	e, err := s.Digest(msg, priv.Public())
	if err != nil {
		return nil, errors.Wrap(err, "sign: digest")
	}
	return s.SignDigest(e, priv)
}

// SignDigest signs a precomputed digest e.
func (s *Scheme) SignDigest(e []byte, priv *keygen.PrivateKey) (*Signature, error) {
	if priv == nil || priv.D == nil {
		return nil, sm2.MakeError(sm2.ErrInvalidParams, "sign: missing private key")
	}
	fn := s.fn
	n := fn.Order()
	if priv.D.Sign() <= 0 || !ct.InRange(new(big.Int).Add(priv.D, big.NewInt(1)), fn.Modulus(), fn.Bits()) {
		return nil, sm2.MakeError(sm2.ErrOutOfRange, "sign: private key outside [1, n-2]")
	}

	m := fn.Modulus()
	d := fn.Nat(priv.D)
	en := fn.Nat(new(big.Int).SetBytes(e))

	// Every secret natural is registered here and wiped on return.
	secrets := []*safenum.Nat{d}
	defer func() { ct.WipeNat(fn.Bits(), secrets...) }()

	// (1 + d)^-1, computed once per signature.
	onePlusD := new(safenum.Nat).ModAdd(d, fn.NatOne(), m)
	secrets = append(secrets, onePlusD)
	inv, err := fn.NatInverse(onePlusD)
	if err != nil {
		return nil, errors.Wrap(err, "sign: 1 + d")
	}
	secrets = append(secrets, inv)

	stream := s.nonces.Stream(n, priv.D, e)
	defer stream.Zero()

	for attempt := 1; attempt <= s.tries; attempt++ {
		// 1. Draw k in [1, n-1]
		kb := stream.Next()
		if kb == nil {
			s.logger.Debug("nonce stream exhausted", zap.Int("attempt", attempt))
			break
		}
		if !ct.InRange(kb, m, fn.Bits()) {
			ct.WipeInt(kb)
			s.logger.Debug("retrying signature", zap.Int("attempt", attempt), zap.String("reason", "nonce out of range"))
			continue
		}

		// 2. (x1, y1) = k*G, r = (e + x1) mod n
		p, err := s.nonceMult.Multiply(kb, s.c.Generator())
		if err != nil {
			ct.WipeInt(kb)
			return nil, errors.Wrap(err, "sign: k*G")
		}
		k := fn.Nat(kb)
		ct.WipeInt(kb)
		secrets = append(secrets, k)

		r := new(safenum.Nat).ModAdd(en, fn.Nat(p.X), m)
		if r.EqZero() == 1 {
			s.logger.Debug("retrying signature", zap.Int("attempt", attempt), zap.String("reason", "r = 0"))
			continue
		}
		if new(safenum.Nat).ModAdd(r, k, m).EqZero() == 1 {
			s.logger.Debug("retrying signature", zap.Int("attempt", attempt), zap.String("reason", "r + k = n"))
			continue
		}

		// 3. s = (1 + d)^-1 (k - r d) mod n
		rd := new(safenum.Nat).ModMul(r, d, m)
		sn := new(safenum.Nat).ModSub(k, rd, m)
		secrets = append(secrets, rd)
		sn.ModMul(sn, inv, m)
		if sn.EqZero() == 1 {
			s.logger.Debug("retrying signature", zap.Int("attempt", attempt), zap.String("reason", "s = 0"))
			continue
		}

		return &Signature{R: r.Big(), S: sn.Big()}, nil
	}

	return nil, sm2.MakeError(sm2.ErrSigningExhausted, "sign: no acceptable nonce within the retry bound")
}

// Verify reports whether sig is a valid signature of msg under pub. It
// never returns an error: every malformed input is simply invalid.
func (s *Scheme) Verify(msg []byte, sig *Signature, pub *keygen.PublicKey) bool {
	if sig == nil || pub == nil {
		return false
	}
	// 1. r, s in [1, n-1], before any curve arithmetic
	if !s.inRange(sig) {
		return false
	}
	if !s.validKey(pub) {
		return false
	}
	e, err := s.Digest(msg, pub)
	if err != nil {
		return false
	}
	return s.verify(e, sig, pub)
}

// VerifyDigest checks sig against a precomputed digest e.
func (s *Scheme) VerifyDigest(e []byte, sig *Signature, pub *keygen.PublicKey) bool {
	if sig == nil || pub == nil || !s.inRange(sig) || !s.validKey(pub) {
		return false
	}
	return s.verify(e, sig, pub)
}

func (s *Scheme) inRange(sig *Signature) bool {
	m, bits := s.fn.Modulus(), s.fn.Bits()
	okR := ct.InRange(sig.R, m, bits)
	okS := ct.InRange(sig.S, m, bits)
	return okR && okS
}

func (s *Scheme) validKey(pub *keygen.PublicKey) bool {
	if pub.Curve == nil || pub.Curve.Params().Name != s.c.Params().Name {
		return false
	}
	return pub.Validate() == nil
}

func (s *Scheme) verify(e []byte, sig *Signature, pub *keygen.PublicKey) bool {
	fn := s.fn

	// 2. t = (r + s) mod n, t != 0
	t := fn.Add(sig.R, sig.S)
	if t.Sign() == 0 {
		return false
	}

	// 3. (x1, y1) = s*G + t*Q
	sg, err := s.baseMult.Multiply(sig.S, s.c.Generator())
	if err != nil {
		return false
	}
	tq, err := s.pointMult.Multiply(t, pub.Point())
	if err != nil {
		return false
	}
	p := s.c.Add(sg, tq)
	if p.IsIdentity() {
		return false
	}

	// 4. R = (e + x1) mod n, accept iff R = r
	r := fn.Add(new(big.Int).SetBytes(e), p.X)
	return ct.EqualInt(r, sig.R, fn.Bytes())
}
