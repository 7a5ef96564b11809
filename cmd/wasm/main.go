//go:build js && wasm

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/smallyu/go-sm2/internal/protocol/guard"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
	"github.com/smallyu/go-sm2/pkg/sm2"
)

func main() {
	c := make(chan struct{}, 0)

	fmt.Println("Go SM2 WASM Initialized")

	// Expose Go functions to JS
	js.Global().Set("GoSM2", map[string]interface{}{
		"keygen": js.FuncOf(KeyGen),
		"sign":   js.FuncOf(Sign),
		"verify": js.FuncOf(Verify),
	})

	<-c
}

// paramsInput is the JSON form of sm2.Parameters. Missing fields keep the
// defaults; blindBits 0 disables blinding.
type paramsInput struct {
	Curve        string `json:"curve"`
	Hash         string `json:"hash"`
	UID          string `json:"uid"`
	SkipIdentity bool   `json:"skipIdentity"`
	BlindBits    *int   `json:"blindBits"`
}

func scheme(paramsJSON string) (*sign.Scheme, *guard.Signer, *sm2.Parameters, error) {
	p := sm2.DefaultParameters()
	if paramsJSON != "" {
		var in paramsInput
		if err := json.Unmarshal([]byte(paramsJSON), &in); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid json: %v", err)
		}
		if in.Curve != "" {
			p.Curve = in.Curve
		}
		if in.Hash != "" {
			p.Hash = in.Hash
		}
		if in.UID != "" {
			p.UID = []byte(in.UID)
		}
		if in.BlindBits != nil {
			p.BlindBits = *in.BlindBits
		}
		p.SkipIdentity = in.SkipIdentity
	}
	s, signer, err := guard.NewSchemeSigner(p, nil)
	return s, signer, p, err
}

func optionalParams(args []js.Value, i int) string {
	if len(args) > i && args[i].Type() == js.TypeString {
		return args[i].String()
	}
	return ""
}

// KeyGen generates a key pair.
// Arguments:
// 0: optional JSON string of parameters
// Returns:
// JSON string { curve, privateKey, publicKey } (hex) or an error string
func KeyGen(this js.Value, args []js.Value) interface{} {
	s, _, p, err := scheme(optionalParams(args, 0))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	priv, err := guard.GenerateKey(s, rand.Reader)
	if err != nil {
		return fmt.Sprintf("error: keygen failed: %v", err)
	}
	defer priv.Zero()

	resp := map[string]interface{}{
		"curve":      p.Curve,
		"privateKey": hex.EncodeToString(priv.Bytes()),
		"publicKey":  hex.EncodeToString(priv.Public().Bytes()),
	}
	respBytes, _ := json.Marshal(resp)
	return string(respBytes)
}

// Sign signs a message with the fault-checked signer.
// Arguments:
// 0: private key (hex)
// 1: message (string)
// 2: optional JSON string of parameters
// Returns:
// Signature r || s (hex) or an error string
func Sign(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return "error: expected at least 2 arguments (privateKey, message)"
	}
	s, signer, _, err := scheme(optionalParams(args, 2))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	priv, err := keygen.ParsePrivateKeyHex(s.Curve(), args[0].String())
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	defer priv.Zero()

	sig, err := signer.Sign([]byte(args[1].String()), priv)
	if err != nil {
		return fmt.Sprintf("error: sign failed: %v", err)
	}
	return hex.EncodeToString(sig.Bytes(s.Curve().Params().ScalarBytes()))
}

// Verify checks a signature.
// Arguments:
// 0: public key (hex, any supported point encoding)
// 1: message (string)
// 2: signature r || s (hex)
// 3: optional JSON string of parameters
// Returns:
// bool, or an error string for undecodable input
func Verify(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return "error: expected at least 3 arguments (publicKey, message, signature)"
	}
	s, _, _, err := scheme(optionalParams(args, 3))
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	pub, err := keygen.ParsePublicKeyHex(s.Curve(), args[0].String())
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	raw, err := hex.DecodeString(args[2].String())
	if err != nil {
		return "error: signature is not hex"
	}
	sig, err := sign.ParseSignature(raw)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return s.Verify([]byte(args[1].String()), sig, pub)
}
