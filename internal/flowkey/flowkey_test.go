package flowkey

import (
	"net"
	"testing"
)

func testHasher() *Hasher {
	var secret [16]byte
	for i := range secret {
		secret[i] = byte(i)
	}
	return NewHasher(secret)
}

func TestHash_Deterministic(t *testing.T) {
	h := testHasher()
	a := h.Hash(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 5353, 53, 17)
	b := h.Hash(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 5353, 53, 17)
	if a != b {
		t.Error("same 5-tuple hashed twice should match")
	}
}

func TestHash_DirectionIndependent(t *testing.T) {
	h := testHasher()
	forward := h.Hash(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 5353, 53, 17)
	reverse := h.Hash(net.ParseIP("10.0.0.2"), net.ParseIP("10.0.0.1"), 53, 5353, 17)
	if forward != reverse {
		t.Error("forward and reverse directions of the same flow must hash identically")
	}
}

func TestHash_DistinctFlowsDiffer(t *testing.T) {
	h := testHasher()
	a := h.Hash(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.2"), 5353, 53, 17)
	b := h.Hash(net.ParseIP("10.0.0.1"), net.ParseIP("10.0.0.3"), 5353, 53, 17)
	if a == b {
		t.Error("different 5-tuples should not collide in this small sample")
	}
}

func TestShard_WithinRange(t *testing.T) {
	k := Key(12345)
	for _, n := range []int{1, 2, 3, 16} {
		s := k.Shard(n)
		if s < 0 || s >= n {
			t.Errorf("Shard(%d) = %d, out of range", n, s)
		}
	}
}

func TestShard_ZeroWorkers(t *testing.T) {
	if Key(1).Shard(0) != 0 {
		t.Error("Shard(0) should return 0 rather than panic")
	}
}
