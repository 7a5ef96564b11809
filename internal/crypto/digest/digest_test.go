package digest

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/smallyu/go-sm2/internal/crypto/curves"
	"github.com/smallyu/go-sm2/pkg/sm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownDigests(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want string
	}{
		{SM3, "66c7f0f462eeedd9d1f2d46bdc10e4e24167c4875cf2f7a2297da02b8f4ba8e0"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA3_256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}
	for _, tt := range tests {
		got := tt.alg.Sum([]byte("a"), []byte("bc"))
		assert.Equal(t, tt.want, hex.EncodeToString(got), tt.alg.Name)
		assert.Equal(t, 32, tt.alg.Size())
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"sm3", "sha256", "sha3-256"} {
		alg, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, alg.Name)
		assert.Equal(t, name == "sm3", alg.Compliant)
	}

	alg, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "sm3", alg.Name)

	_, err = ByName("md5")
	assert.True(t, errors.Is(err, sm2.ErrUnknownHash))
}

func hexInt(t *testing.T, s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok)
	return v
}

// TestZAAnnexA reproduces Z_A and e from GB/T 32918.2 Annex A.
func TestZAAnnexA(t *testing.T) {
	c := curves.SM2TestP256()
	x := hexInt(t, "0AE4C7798AA0F119471BEE11825BE46202BB79E2A5844495E97C04FF4DF2548A")
	y := hexInt(t, "7C0240F88F1CD4E16352A73C17B7F16F07353E53A176D684A9FE0C6BB798E857")

	za, err := ZA(SM3, []byte("ALICE123@YAHOO.COM"), c, x, y)
	require.NoError(t, err)
	assert.Equal(t, "f4a38489e32b45b6f876e3ac2168ca392362dc8f23459c1d1146fc3dbfb7bc9a", hex.EncodeToString(za))

	e := SM3.Sum(za, []byte("message digest"))
	assert.Equal(t, "b524f552cd82b8b028476e005c377fb19a87e6fc682d48bb5d42e3d9b9effe76", hex.EncodeToString(e))
}

func TestZARecommendedCurve(t *testing.T) {
	c := curves.SM2P256()
	x := hexInt(t, "09f9df311e5421a150dd7d161e4bc5c672179fad1833fc076bb08ff356f35020")
	y := hexInt(t, "ccea490ce26775a52dc6ea718cc1aa600aed05fbf35e084a6632f6072da9ad13")

	za, err := ZA(SM3, DefaultUID(), c, x, y)
	require.NoError(t, err)
	e := SM3.Sum(za, []byte("message digest"))
	assert.Equal(t, "f0b43e94ba45accaace692ed534382eb17e6ab5a19ce7b31f4486fdfc0d28640", hex.EncodeToString(e))
}

func TestZARejectsLongUID(t *testing.T) {
	_, err := ZA(SM3, make([]byte, 8192), curves.SM2P256(), big.NewInt(1), big.NewInt(2))
	assert.True(t, errors.Is(err, sm2.ErrInvalidParams))

	_, err = ZA(SM3, make([]byte, 8191), curves.SM2P256(), big.NewInt(1), big.NewInt(2))
	assert.NoError(t, err)
}

func TestIntToBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0}, IntToBytes(big.NewInt(256), 4))
	assert.Equal(t, []byte{0, 0}, IntToBytes(nil, 2))
}
