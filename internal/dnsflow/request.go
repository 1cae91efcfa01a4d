package dnsflow

// ProcessRequestUDP parses a complete UDP DNS request datagram against
// flow state s. It always consumes the whole datagram; malformed
// content raises MalformedData and stops parsing at the point of
// failure without propagating a Go error, since wire-format problems
// are signaled as events, not errors (callers never see a parse
// failure any other way).
func (s *State) ProcessRequestUDP(msg []byte) {
	s.processRequest(msg)
}

// ProcessRequestTCP feeds data into the to-server TCP framer and
// processes every request message it completes.
func (s *State) ProcessRequestTCP(data []byte) {
	for _, msg := range s.tcp[DirToServer].Feed(data) {
		s.processRequest(msg)
		putMsgBuffer(msg)
	}
}

func (s *State) processRequest(msg []byte) {
	hdr, ok := decodeHeader(msg)
	if !ok {
		s.raiseState(EventMalformedData)
		return
	}
	if hdr.QR {
		s.raiseState(EventNotARequest)
		return
	}
	if hdr.Z != 0 {
		s.raiseState(EventZFlagSet)
	}
	if hdr.Opcode != 0 {
		s.raiseState(EventInvalidOpcode)
	}
	if hdr.QDCount == 0 {
		s.raiseState(EventMalformedData)
		return
	}

	questions, cursor, ok := decodeQuestions(msg, headerSize, int(hdr.QDCount))
	if !ok {
		s.raiseState(EventMalformedData)
		return
	}
	_ = cursor // additional sections beyond the question list are not needed for a request

	if !s.admitNewTransaction() {
		return
	}

	tx := s.Create(hdr.TxID)
	tx.RecursionDesired = hdr.RD
	tx.ReqQDCount = hdr.QDCount
	for _, q := range questions {
		s.AppendQuery(tx, q.Name, q.Type, q.Class)
	}
}
