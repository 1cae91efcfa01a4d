// Package flowkey computes a stable hash of a flow's 5-tuple so the
// surrounding pipeline can shard flows across worker goroutines with
// affinity: every packet belonging to the same flow lands on the same
// worker, regardless of which worker happened to see the flow's first
// packet.
package flowkey

import (
	"encoding/binary"
	"net"

	"github.com/dchest/siphash"
)

// Key is the SipHash-2-4 digest of one flow's 5-tuple.
type Key uint64

// Hasher computes Keys with a single process-lifetime secret. Unlike a
// cookie secret, this is never rotated and never shared across a
// cluster: it exists only to spread flows evenly across this process's
// workers, not to authenticate anything.
type Hasher struct {
	secret [16]byte
}

// NewHasher builds a Hasher seeded with secret, which must be exactly
// 16 bytes (SipHash-2-4's key size).
func NewHasher(secret [16]byte) *Hasher {
	return &Hasher{secret: secret}
}

// Hash computes the flow key for one direction-agnostic 5-tuple: the
// two endpoints are combined in a canonical (lower, higher) byte order
// first, so both directions of a flow hash identically.
func (h *Hasher) Hash(srcIP, dstIP net.IP, srcPort, dstPort uint16, proto uint8) Key {
	a, b, aPort, bPort := srcIP, dstIP, srcPort, dstPort
	if bytesGreater(a, b, aPort, bPort) {
		a, b = b, a
		aPort, bPort = bPort, aPort
	}

	s := siphash.New(h.secret[:])
	s.Write(a.To16())
	s.Write(b.To16())
	var ports [4]byte
	binary.BigEndian.PutUint16(ports[0:2], aPort)
	binary.BigEndian.PutUint16(ports[2:4], bPort)
	s.Write(ports[:])
	s.Write([]byte{proto})

	return Key(s.Sum64())
}

// bytesGreater reports whether (ip, port) sorts after (otherIP, otherPort)
// in the canonical ordering used to make Hash direction-independent.
func bytesGreater(ip, otherIP net.IP, port, otherPort uint16) bool {
	c := compareIP(ip.To16(), otherIP.To16())
	if c != 0 {
		return c > 0
	}
	return port > otherPort
}

func compareIP(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Shard maps a Key to a worker index in [0, n).
func (k Key) Shard(n int) int {
	if n <= 0 {
		return 0
	}
	return int(uint64(k) % uint64(n))
}
