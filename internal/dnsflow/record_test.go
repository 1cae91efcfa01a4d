package dnsflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuestions_Single(t *testing.T) {
	msg := buildName("example", "com")
	msg = append(msg, 0x00, 0x01, 0x00, 0x01) // A IN

	qs, cursor, ok := decodeQuestions(msg, 0, 1)
	require.True(t, ok)
	require.Len(t, qs, 1)
	assert.Equal(t, "example.com", qs[0].Name)
	assert.Equal(t, uint16(TypeA), qs[0].Type)
	assert.Equal(t, uint16(1), qs[0].Class)
	assert.Equal(t, len(msg), cursor)
}

func TestDecodeRecords_A(t *testing.T) {
	msg := buildName("example", "com")
	msg = append(msg, 0x00, 0x01, 0x00, 0x01) // A IN

	recordOffset := len(msg)
	msg = append(msg, 0xC0, 0x00) // name: pointer to example.com
	msg = append(msg, 0x00, 0x01, 0x00, 0x01) // A IN
	msg = append(msg, 0x00, 0x00, 0x00, 0x3C) // TTL=60
	msg = append(msg, 0x00, 0x04)             // rdlength=4
	msg = append(msg, 192, 0, 2, 1)

	recs, _, ok := decodeRecords(msg, recordOffset, 1)
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Equal(t, "example.com", recs[0].Name)
	assert.Equal(t, uint32(60), recs[0].TTL)
	assert.Equal(t, []byte{192, 0, 2, 1}, recs[0].RData)
}

func TestCanonicalizeRData_CNAME(t *testing.T) {
	msg := buildName("example", "com")
	target := buildName("alias", "example", "com")
	absOffset := len(msg)
	msg = append(msg, target...)

	out := canonicalizeRData(msg, TypeCNAME, msg[absOffset:], absOffset)
	assert.Equal(t, "alias.example.com", string(out))
}

func TestCanonicalizeRData_MX(t *testing.T) {
	msg := buildName("example", "com")
	absOffset := len(msg)
	raw := []byte{0x00, 0x0A} // preference 10
	raw = append(raw, buildName("mail", "example", "com")...)
	msg = append(msg, raw...)

	out := canonicalizeRData(msg, TypeMX, msg[absOffset:absOffset+len(raw)], absOffset)
	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, byte(0x0A), out[1])
	assert.Equal(t, "mail.example.com", string(out[2:]))
}

func TestCanonicalizeRData_A_LeftRaw(t *testing.T) {
	msg := []byte{192, 0, 2, 1}
	out := canonicalizeRData(msg, TypeA, msg, 0)
	assert.Equal(t, msg, out)
}

func TestCanonicalizeRData_SOA(t *testing.T) {
	var msg []byte
	mname := buildName("ns1", "example", "com")
	rname := buildName("hostmaster", "example", "com")
	absOffset := len(msg)
	msg = append(msg, mname...)
	msg = append(msg, rname...)
	trailer := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0, 5}
	msg = append(msg, trailer...)

	raw := msg[absOffset : len(msg)-0]
	out := canonicalizeRData(msg, TypeSOA, raw, absOffset)

	parts := splitNUL(out)
	require.Len(t, parts, 2)
	assert.Equal(t, "ns1.example.com", parts[0])
	assert.Equal(t, "hostmaster.example.com", parts[1])
}

func splitNUL(b []byte) []string {
	var out []string
	start := 0
	for i, c := range b {
		if c == 0 {
			out = append(out, string(b[start:i]))
			start = i + 1
		}
	}
	return out
}
