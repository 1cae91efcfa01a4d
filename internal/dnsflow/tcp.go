package dnsflow

// tcpFramer incrementally reassembles 2-octet length-prefixed DNS
// messages out of a TCP byte stream, one instance per direction of a
// flow. Unlike a blocking io.ReadFull reader, Feed never blocks: it is
// handed whatever bytes the segment contained and returns zero or more
// complete messages, buffering any remainder for the next call.
type tcpFramer struct {
	state *State
	dir   Direction

	have      int    // bytes of the current message (length prefix + body) seen so far
	need      int    // total bytes wanted for the current message once the prefix is known; -1 until then
	buf       []byte // accumulated bytes of the in-progress message, reused across messages
	draining  bool   // true once the accountant has refused this message; bytes are discarded, not buffered
	accounted uint32 // bytes currently charged to the accountant for the in-progress message
}

// reset drops the in-progress message and its accounted memory,
// returning the framer to the idle state.
func (f *tcpFramer) reset() {
	if f.accounted > 0 {
		f.state.acct.decr(f.accounted)
		f.accounted = 0
	}
	f.buf = f.buf[:0]
	f.have = 0
	f.need = -1
	f.draining = false
}

// Feed appends data to the framer and returns every DNS message that
// became complete as a result, in order. Each returned message is its
// own copy drawn from getMsgBuffer, independent of the framer's internal
// buffer; the caller hands it back with putMsgBuffer when done.
func (f *tcpFramer) Feed(data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		if f.need == -1 {
			// Need the 2-octet length prefix before anything else.
			for f.have < 2 && len(data) > 0 {
				f.buf = append(f.buf, data[0])
				data = data[1:]
				f.have++
			}
			if f.have < 2 {
				return out
			}
			f.need = int(be16(f.buf[:2])) + 2
			if !f.state.acct.checkWant(uint32(f.need)) {
				f.state.raiseState(EventStateMemcapReached)
				f.draining = true
				f.buf = f.buf[:0]
				continue
			}
			f.state.acct.incr(uint32(f.need))
			f.accounted = uint32(f.need)
		}

		remaining := f.need - f.have
		n := remaining
		if n > len(data) {
			n = len(data)
		}
		if !f.draining {
			f.buf = append(f.buf, data[:n]...)
		}
		data = data[n:]
		f.have += n

		if f.have == f.need {
			if !f.draining {
				msg := getMsgBuffer(f.need - 2)
				copy(msg, f.buf[2:])
				out = append(out, msg)
				f.state.acct.decr(f.accounted)
				f.accounted = 0
			}
			f.buf = f.buf[:0]
			f.have = 0
			f.need = -1
			f.draining = false
		}
	}
	return out
}
