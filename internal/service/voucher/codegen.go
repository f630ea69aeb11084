package voucher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// Code alphabet without 0/O and 1/I so printed codes read unambiguously.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// 13 base-32 characters hold all 64 bits of a permuted value.
const codeBodyLen = 13

const feistelRounds = 4

// CodeGenerator derives voucher codes from (campaign, sequence) pairs with a
// keyed 64-bit permutation. Codes of one campaign never repeat for sequences
// below 2^32 and are not guessable from one another. Campaign IDs are folded
// to 32 bits, so codes of different campaigns can collide; storage rejects
// those as duplicates.
type CodeGenerator struct {
	block cipher.Block
}

// NewCodeGenerator creates a generator keyed by secret. An empty secret uses
// a random key, which is fine as long as uniqueness is enforced by storage.
func NewCodeGenerator(secret string) *CodeGenerator {
	var key [32]byte
	if secret == "" {
		_, _ = rand.Read(key[:])
	} else {
		key = sha256.Sum256([]byte(secret))
	}
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		panic(fmt.Sprintf("voucher: aes key: %v", err))
	}
	return &CodeGenerator{block: block}
}

// Code returns the code for the seq-th voucher of campaignID, prefixed with
// prefix when one is given.
func (g *CodeGenerator) Code(campaignID string, seq uint64, prefix string) string {
	h := fnv.New32a()
	h.Write([]byte(campaignID))

	// high 32 bits: campaign, low 32 bits: sequence
	v := g.permute(uint64(h.Sum32())<<32 | seq&0xffffffff)
	body := make([]byte, codeBodyLen)
	base := uint64(len(codeAlphabet))
	for i := codeBodyLen - 1; i >= 0; i-- {
		body[i] = codeAlphabet[v%base]
		v /= base
	}

	if prefix = NormalizeCode(prefix); prefix != "" {
		return prefix + "-" + string(body)
	}
	return string(body)
}

// permute is a Feistel network over 64 bits with AES as the round function,
// so distinct inputs always give distinct outputs.
func (g *CodeGenerator) permute(x uint64) uint64 {
	l, r := uint32(x>>32), uint32(x)
	var in, out [16]byte
	for round := 0; round < feistelRounds; round++ {
		in[0] = byte(round)
		binary.BigEndian.PutUint32(in[12:], r)
		g.block.Encrypt(out[:], in[:])
		l, r = r, l^binary.BigEndian.Uint32(out[:4])
	}
	return uint64(l)<<32 | uint64(r)
}

// NormalizeCode upper-cases a code and trims surrounding space.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
