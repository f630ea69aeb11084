package voucher

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeDeterministicPerSecret(t *testing.T) {
	a := NewCodeGenerator("k1")
	b := NewCodeGenerator("k1")
	c := NewCodeGenerator("k2")

	assert.Equal(t, a.Code("c1", 7, ""), b.Code("c1", 7, ""))
	assert.NotEqual(t, a.Code("c1", 7, ""), c.Code("c1", 7, ""))
	assert.NotEqual(t, a.Code("c1", 7, ""), a.Code("c1", 8, ""))
	assert.NotEqual(t, a.Code("c1", 7, ""), a.Code("c2", 7, ""))
}

func TestCodeShape(t *testing.T) {
	g := NewCodeGenerator("")
	code := g.Code("c1", 1, " vip ")
	assert.True(t, strings.HasPrefix(code, "VIP-"), code)
	body := strings.TrimPrefix(code, "VIP-")
	assert.Len(t, body, codeBodyLen)
	for _, r := range body {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestCodesUniqueOverRange(t *testing.T) {
	g := NewCodeGenerator("k1")
	seen := make(map[string]bool, 5000)
	for i := uint64(0); i < 5000; i++ {
		code := g.Code("c1", i, "")
		assert.False(t, seen[code], "duplicate %s at %d", code, i)
		seen[code] = true
	}
}

func TestPermuteIsInvertible(t *testing.T) {
	g := NewCodeGenerator("k1")
	for _, x := range []uint64{0, 1, 1 << 32, 0xdeadbeefcafef00d, ^uint64(0)} {
		y := g.permute(x)
		// run the rounds backwards
		l, r := uint32(y>>32), uint32(y)
		var in, out [16]byte
		for round := feistelRounds - 1; round >= 0; round-- {
			in[0] = byte(round)
			binary.BigEndian.PutUint32(in[12:], l)
			g.block.Encrypt(out[:], in[:])
			l, r = r^binary.BigEndian.Uint32(out[:4]), l
		}
		assert.Equal(t, x, uint64(l)<<32|uint64(r))
	}
}

func TestCodesUniqueAcrossSequenceWindow(t *testing.T) {
	g := NewCodeGenerator("k1")
	seen := make(map[string]uint64, 4096)
	for _, base := range []uint64{0, 1 << 20, 1<<32 - 2048} {
		for i := uint64(0); i < 1024; i++ {
			seq := base + i
			code := g.Code("cmp-spring", seq, "")
			prev, dup := seen[code]
			assert.False(t, dup, "sequences %d and %d share code %s", prev, seq, code)
			seen[code] = seq
		}
	}
}
