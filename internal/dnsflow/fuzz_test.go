package dnsflow

import "testing"

// FuzzProcessRequest asserts the request parser never panics on
// arbitrary bytes, however malformed.
func FuzzProcessRequest(f *testing.F) {
	f.Add(simpleQuery(1, true))
	f.Add([]byte{0xC0, 0x0C})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		s := NewState(nil, nil)
		s.ProcessRequestUDP(data)
	})
}

// FuzzProcessResponse asserts the response parser never panics on
// arbitrary bytes, however malformed.
func FuzzProcessResponse(f *testing.F) {
	f.Add(simpleResponse(1, 0, true))
	f.Add([]byte{0xC0, 0x0C})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		s := NewState(nil, nil)
		s.ProcessResponseUDP(data)
	})
}

// FuzzDecodeName asserts the name decoder never panics regardless of
// input bytes or starting offset.
func FuzzDecodeName(f *testing.F) {
	f.Add(buildName("example", "com"), 0)
	f.Add([]byte{0xC0, 0x00}, 0)

	f.Fuzz(func(t *testing.T, data []byte, offset int) {
		DecodeName(data, offset)
	})
}

// FuzzTCPFramer asserts the TCP reassembler never panics on arbitrary
// chunked byte streams, and that memory it accounts for in-progress
// messages never exceeds the configured state memcap.
func FuzzTCPFramer(f *testing.F) {
	f.Add(lengthPrefixed(simpleQuery(1, true)))
	f.Add([]byte{0x00})
	f.Add([]byte{0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg := NewConfig()
		cfg.SetStateMemcap(4096)
		g := NewGlobal(cfg)
		s := NewState(g, cfg)

		s.tcp[DirToServer].Feed(data)

		if s.MemUse() > uint64(cfg.StateMemcap()) {
			t.Fatalf("flow memory use %d exceeds state memcap %d", s.MemUse(), cfg.StateMemcap())
		}
	})
}
