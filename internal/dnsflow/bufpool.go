package dnsflow

import "sync"

// Size-classed buffer pools for reassembled TCP messages, to keep
// per-message allocation off the hot path during sustained traffic.
const (
	smallBufferSize  = 512   // typical query, most UDP/TCP messages
	mediumBufferSize = 4096  // EDNS0-sized responses
	largeBufferSize  = 65535 // maximum DNS message size
)

var (
	smallBufferPool = sync.Pool{New: func() any { b := make([]byte, smallBufferSize); return &b }}
	mediumBufferPool = sync.Pool{New: func() any { b := make([]byte, mediumBufferSize); return &b }}
	largeBufferPool = sync.Pool{New: func() any { b := make([]byte, largeBufferSize); return &b }}
)

// getMsgBuffer returns a buffer of length n drawn from the pool sized to
// fit it, or a fresh allocation for anything larger than the largest class.
func getMsgBuffer(n int) []byte {
	switch {
	case n <= smallBufferSize:
		b := smallBufferPool.Get().(*[]byte)
		return (*b)[:n]
	case n <= mediumBufferSize:
		b := mediumBufferPool.Get().(*[]byte)
		return (*b)[:n]
	case n <= largeBufferSize:
		b := largeBufferPool.Get().(*[]byte)
		return (*b)[:n]
	default:
		return make([]byte, n)
	}
}

// putMsgBuffer returns a buffer obtained from getMsgBuffer to its pool.
// Buffers not originally drawn from a pool (oversized, or a fresh slice
// from the caller) are silently dropped.
func putMsgBuffer(buf []byte) {
	full := buf[:cap(buf)]
	switch cap(buf) {
	case smallBufferSize:
		smallBufferPool.Put(&full)
	case mediumBufferSize:
		mediumBufferPool.Put(&full)
	case largeBufferSize:
		largeBufferPool.Put(&full)
	}
}
