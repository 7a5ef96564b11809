package sm2

import "fmt"

// DefaultUID is the signer identity GB/T 35276 prescribes when the
// application does not supply one.
const DefaultUID = "1234567812345678"

// Parameters holds the configuration for a signing engine.
type Parameters struct {
	Curve         string // Registered curve name (e.g., "sm2p256v1")
	Hash          string // Registered hash name (e.g., "sm3")
	UID           []byte // Signer identity bound into Z_A
	SkipIdentity  bool   // Hash the bare message instead of Z_A || M
	MaxRetries    int    // Nonce candidates tried before giving up
	FaultAttempts int    // Dual-computation rounds before reporting a fault
	BlindBits     int    // Width of the random scalar blinding factor
}

// DefaultParameters returns the standards-compliant configuration. The
// numbers mirror sign.DefaultMaxRetries, guard.DefaultMaxAttempts and
// guard.DefaultBlindBits, which import this package.
func DefaultParameters() *Parameters {
	return &Parameters{
		Curve:         "sm2p256v1",
		Hash:          "sm3",
		UID:           []byte(DefaultUID),
		MaxRetries:    32,
		FaultAttempts: 3,
		BlindBits:     64,
	}
}

// Validate checks the parameters for values no engine can work with.
func (p *Parameters) Validate() error {
	if p == nil {
		return MakeError(ErrInvalidParams, "parameters cannot be nil")
	}
	if p.Curve == "" {
		return MakeError(ErrInvalidParams, "curve name is empty")
	}
	if p.Hash == "" {
		return MakeError(ErrInvalidParams, "hash name is empty")
	}
	if p.MaxRetries < 1 {
		return MakeError(ErrInvalidParams,
			fmt.Sprintf("max retries must be positive, got %d", p.MaxRetries))
	}
	if p.FaultAttempts < 1 {
		return MakeError(ErrInvalidParams,
			fmt.Sprintf("fault attempts must be positive, got %d", p.FaultAttempts))
	}
	if p.BlindBits < 0 || p.BlindBits > 256 {
		return MakeError(ErrInvalidParams,
			fmt.Sprintf("blind bits must be in [0, 256], got %d", p.BlindBits))
	}
	// ENTL is a 16-bit bit length.
	if len(p.UID)*8 > 0xffff {
		return MakeError(ErrInvalidParams, "uid is too long")
	}
	return nil
}
