package scalarmult

import (
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"

	"github.com/cronokirby/safenum"
	"github.com/smallyu/go-sm2/internal/crypto/ct"
	"github.com/smallyu/go-sm2/internal/crypto/group"
)

// WindowBits is the width of one table window.
const WindowBits = 4

// Table holds i*P for i in [0, 2^WindowBits).
type Table struct {
	point   group.Point
	entries []group.JacobianPoint
}

// baseTables caches the generator table per parameter set, so every Curve
// built from the same parameters shares one entry.
var baseTables sync.Map // string -> *Table

func tableKey(c *group.Curve) string {
	p := c.Params()
	return fmt.Sprintf("%s:%x:%x:%x:%x:%x:%x", p.Name, p.P, p.A, p.B, p.N, p.Gx, p.Gy)
}

// NewTable precomputes the multiples of p.
func NewTable(c *group.Curve, p group.Point) *Table {
	entries := make([]group.JacobianPoint, 1<<WindowBits)
	entries[0] = c.JacobianIdentity()
	jp := c.ToJacobian(p)
	for i := 1; i < len(entries); i++ {
		entries[i] = c.AddJacobian(entries[i-1], jp)
	}
	return &Table{point: p, entries: entries}
}

// BaseTable returns the cached generator table for c.
func BaseTable(c *group.Curve) *Table {
	key := tableKey(c)
	if t, ok := baseTables.Load(key); ok {
		return t.(*Table)
	}
	t, _ := baseTables.LoadOrStore(key, NewTable(c, c.Generator()))
	return t.(*Table)
}

// lookup returns entries[idx] after touching every entry.
func (t *Table) lookup(c *group.Curve, idx byte) group.JacobianPoint {
	out := c.JacobianIdentity()
	for i := range t.entries {
		hit := safeChoice(byte(subtle.ConstantTimeByteEq(byte(i), idx)))
		out.Select(hit, t.entries[i])
	}
	return out
}

// WindowedMultiplier multiplies through a fixed-window table. Multiplying
// the table's own point uses the cached entries; any other point gets a
// table built for the call.
type WindowedMultiplier struct {
	c     *group.Curve
	bits  int
	table *Table
}

// NewWindowed returns a windowed multiplier whose fixed point is the
// generator.
func NewWindowed(c *group.Curve) *WindowedMultiplier {
	return &WindowedMultiplier{c: c, bits: c.Params().N.BitLen(), table: BaseTable(c)}
}

// NewWindowedFor returns a windowed multiplier with its own table for p.
func NewWindowedFor(c *group.Curve, p group.Point) *WindowedMultiplier {
	return &WindowedMultiplier{c: c, bits: c.Params().N.BitLen(), table: NewTable(c, p)}
}

func (w *WindowedMultiplier) Strategy() Strategy { return Windowed }

func (w *WindowedMultiplier) Multiply(k *big.Int, p group.Point) (group.Point, error) {
	if err := checkScalar(k, w.bits); err != nil {
		return group.Point{}, err
	}
	if p.IsIdentity() {
		return group.Identity(), nil
	}

	table := w.table
	if !w.c.Equal(p, table.point) {
		table = NewTable(w.c, p)
	}

	buf := scalarBytes(k, w.bits)
	defer ct.Wipe(buf)

	windows := (w.bits + WindowBits - 1) / WindowBits
	acc := w.c.JacobianIdentity()
	for win := windows - 1; win >= 0; win-- {
		for i := 0; i < WindowBits; i++ {
			acc = w.c.DoubleJacobian(acc)
		}
		var idx byte
		for i := WindowBits - 1; i >= 0; i-- {
			idx = idx<<1 | bitAt(buf, win*WindowBits+i)
		}
		acc = w.c.AddJacobian(acc, table.lookup(w.c, idx))
	}
	return w.c.ToAffine(acc)
}

func safeChoice(b byte) safenum.Choice {
	return safenum.Choice(b & 1)
}
