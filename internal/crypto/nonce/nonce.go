// Package nonce supplies per-signature secret scalars. RFC6979 derives them
// deterministically from the private key and the message digest; Fixed
// replays caller-chosen values to reproduce published test vectors.
package nonce

import (
	"crypto/hmac"
	"hash"
	"math/big"

	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/tjfoc/gmsm/sm3"
)

// Stream yields nonce candidates for a single signing operation.
type Stream interface {
	// Next returns the next candidate. Successive calls return fresh
	// values; nil means the stream is exhausted.
	Next() *big.Int
	// Zero wipes any internal secret state.
	Zero()
}

// Source opens a Stream for one (order, private key, digest) triple.
type Source interface {
	Stream(n, key *big.Int, digest []byte) Stream
}

// RFC6979 is the HMAC-DRBG construction of RFC 6979 section 3.2. Hash
// defaults to SM3. Extra is the optional additional data of section 3.6.
type RFC6979 struct {
	Hash  func() hash.Hash
	Extra []byte
}

func (r RFC6979) Stream(n, key *big.Int, digest []byte) Stream {
	newHash := r.Hash
	if newHash == nil {
		newHash = sm3.New
	}
	return newDRBG(newHash, n, key, digest, r.Extra)
}

type drbg struct {
	newHash func() hash.Hash
	n       *big.Int
	qlen    int
	k, v    []byte
	started bool
}

func newDRBG(newHash func() hash.Hash, n, key *big.Int, digest, extra []byte) *drbg {
	qlen := n.BitLen()
	rolen := (qlen + 7) / 8
	hlen := newHash().Size()

	x := int2octets(new(big.Int).Mod(key, n), rolen)
	h := bits2octets(digest, n, qlen, rolen)
	defer ct.Wipe(x)
	defer ct.Wipe(h)

	d := &drbg{newHash: newHash, n: n, qlen: qlen}

	// Step B.
	//
	// V = 0x01 0x01 0x01 ... 0x01
	d.v = make([]byte, hlen)
	for i := range d.v {
		d.v[i] = 0x01
	}

	// Step C.
	//
	// K = 0x00 0x00 0x00 ... 0x00
	d.k = make([]byte, hlen)

	// Step D.
	//
	// K = HMAC_K(V || 0x00 || int2octets(x) || bits2octets(h1) || extra)
	d.k = d.mac(d.k, d.v, []byte{0x00}, x, h, extra)

	// Step E.
	//
	// V = HMAC_K(V)
	d.v = d.mac(d.k, d.v)

	// Step F.
	//
	// K = HMAC_K(V || 0x01 || int2octets(x) || bits2octets(h1) || extra)
	d.k = d.mac(d.k, d.v, []byte{0x01}, x, h, extra)

	// Step G.
	//
	// V = HMAC_K(V)
	d.v = d.mac(d.k, d.v)

	return d
}

func (d *drbg) mac(key []byte, parts ...[]byte) []byte {
	m := hmac.New(d.newHash, key)
	for _, p := range parts {
		m.Write(p)
	}
	return m.Sum(nil)
}

// reseed is K = HMAC_K(V || 0x00), V = HMAC_K(V).
func (d *drbg) reseed() {
	k := d.mac(d.k, d.v, []byte{0x00})
	ct.Wipe(d.k)
	d.k = k
	d.v = d.mac(d.k, d.v)
}

func (d *drbg) Next() *big.Int {
	// A caller asking again rejected the previous candidate.
	if d.started {
		d.reseed()
	}
	d.started = true

	// Step H.
	for {
		// Step H1 and H2.
		//
		// While tlen < qlen: V = HMAC_K(V), T = T || V
		var t []byte
		for len(t)*8 < d.qlen {
			d.v = d.mac(d.k, d.v)
			t = append(t, d.v...)
		}

		// Step H3.
		//
		// k = bits2int(T), returned if within [1, q-1].
		k := bits2int(t, d.qlen)
		ct.Wipe(t)
		if k.Sign() > 0 && k.Cmp(d.n) < 0 {
			return k
		}
		ct.WipeInt(k)
		d.reseed()
	}
}

func (d *drbg) Zero() {
	ct.Wipe(d.k)
	ct.Wipe(d.v)
}

// bits2int takes the leftmost qlen bits of b as an integer.
func bits2int(b []byte, qlen int) *big.Int {
	v := new(big.Int).SetBytes(b)
	if excess := len(b)*8 - qlen; excess > 0 {
		v.Rsh(v, uint(excess))
	}
	return v
}

func int2octets(x *big.Int, rolen int) []byte {
	return x.FillBytes(make([]byte, rolen))
}

func bits2octets(h []byte, n *big.Int, qlen, rolen int) []byte {
	z := bits2int(h, qlen)
	if z.Cmp(n) >= 0 {
		z.Sub(z, n)
	}
	defer ct.WipeInt(z)
	return int2octets(z, rolen)
}

// Fixed replays ks in order for every stream it opens. It exists for
// reproducing vectors whose nonce is given by a standard.
func Fixed(ks ...*big.Int) Source {
	vals := make([]*big.Int, len(ks))
	for i, k := range ks {
		vals[i] = new(big.Int).Set(k)
	}
	return fixedSource(vals)
}

type fixedSource []*big.Int

func (f fixedSource) Stream(_, _ *big.Int, _ []byte) Stream {
	return &fixedStream{vals: f}
}

type fixedStream struct {
	vals []*big.Int
	pos  int
}

func (s *fixedStream) Next() *big.Int {
	if s.pos >= len(s.vals) {
		return nil
	}
	k := new(big.Int).Set(s.vals[s.pos])
	s.pos++
	return k
}

func (s *fixedStream) Zero() {
	s.pos = len(s.vals)
}
