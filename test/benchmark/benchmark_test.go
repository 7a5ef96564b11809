package benchmark

import (
	"crypto/rand"
	"testing"

	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/internal/crypto/group"
	"github.com/smallyu/go-sm2/internal/crypto/scalarmult"
	"github.com/smallyu/go-sm2/internal/protocol/guard"
	"github.com/smallyu/go-sm2/internal/protocol/keygen"
	"github.com/smallyu/go-sm2/internal/protocol/sign"
)

var message = []byte("benchmark message")

func setup(b *testing.B) (*group.Curve, *sign.Scheme, *keygen.PrivateKey) {
	b.Helper()
	c, err := group.New(curves.SM2P256())
	if err != nil {
		b.Fatal(err)
	}
	s, err := sign.New(sign.Config{Curve: c})
	if err != nil {
		b.Fatal(err)
	}
	priv, err := keygen.Generate(c, rand.Reader)
	if err != nil {
		b.Fatal(err)
	}
	return c, s, priv
}

func BenchmarkScalarMult(b *testing.B) {
	c, _, _ := setup(b)
	k, err := rand.Int(rand.Reader, c.Params().N)
	if err != nil {
		b.Fatal(err)
	}

	for _, strategy := range []scalarmult.Strategy{scalarmult.VariableTime, scalarmult.ConstantTime, scalarmult.Windowed} {
		m, err := scalarmult.New(strategy, c)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(strategy.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := m.Multiply(k, c.Generator()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}

	b.Run("blinded", func(b *testing.B) {
		m := guard.NewBlinder(c, 0, nil)
		for i := 0; i < b.N; i++ {
			if _, err := m.Multiply(k, c.Generator()); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkKeyGen(b *testing.B) {
	c, _, _ := setup(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := keygen.Generate(c, rand.Reader); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSign(b *testing.B) {
	_, s, priv := setup(b)

	b.Run("plain", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := s.Sign(message, priv); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("guarded", func(b *testing.B) {
		signer := guard.NewSigner(s, guard.Config{})
		for i := 0; i < b.N; i++ {
			if _, err := signer.Sign(message, priv); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkVerify(b *testing.B) {
	_, s, priv := setup(b)
	sig, err := s.Sign(message, priv)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !s.Verify(message, sig, priv.Public()) {
			b.Fatal("signature did not verify")
		}
	}
}

func BenchmarkVerifyBatch(b *testing.B) {
	_, s, priv := setup(b)
	msgs := make([][]byte, 16)
	for i := range msgs {
		msgs[i] = append([]byte(nil), message...)
		msgs[i][0] = byte(i)
	}
	sigs, err := s.SignBatch(msgs, priv)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !s.VerifyBatch(msgs, sigs, priv.Public()) {
			b.Fatal("batch did not verify")
		}
	}
}
