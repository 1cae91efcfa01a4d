package dnsflow

// ProcessResponseUDP parses a complete UDP DNS response datagram
// against flow state s.
func (s *State) ProcessResponseUDP(msg []byte) {
	s.processResponse(msg)
}

// ProcessResponseTCP feeds data into the to-client TCP framer and
// processes every response message it completes.
func (s *State) ProcessResponseTCP(data []byte) {
	for _, msg := range s.tcp[DirToClient].Feed(data) {
		s.processResponse(msg)
		putMsgBuffer(msg)
	}
}

func (s *State) processResponse(msg []byte) {
	hdr, ok := decodeHeader(msg)
	if !ok {
		s.raiseState(EventMalformedData)
		return
	}
	if !hdr.QR {
		s.raiseState(EventNotAResponse)
		return
	}

	// Pairing comes before any body decoding: a transaction must be
	// found, and its question count must match the request's, before a
	// single answer is looked at. Anything else is unsolicited, and no
	// event on it is ever attached to a transaction that did not pair.
	tx := s.FindByTxID(hdr.TxID)
	if tx == nil || hdr.QDCount != tx.ReqQDCount {
		s.raiseState(EventUnsolicitedResponse)
		s.noteResponseReceived()
		return
	}
	if hdr.Z != 0 {
		s.raiseTx(tx, EventZFlagSet)
	}

	// The transaction is replied the moment it pairs, regardless of
	// whether the body that follows turns out to be truncated or
	// malformed — a response is still a response.
	s.MarkReplied(tx, hdr.RCode, hdr.RA)
	s.noteResponseReceived()

	_, cursor, ok := decodeQuestions(msg, headerSize, int(hdr.QDCount))
	if !ok {
		s.raiseTx(tx, EventMalformedData)
		return
	}

	answers, cursor, ok := decodeRecords(msg, cursor, int(hdr.ANCount))
	for _, a := range answers {
		s.AppendAnswer(tx, ListAnswer, a.Name, a.Type, a.Class, a.TTL, a.RData)
	}
	if !ok {
		s.raiseTx(tx, EventMalformedData)
		return
	}

	authority, cursor, ok := decodeRecords(msg, cursor, int(hdr.NSCount))
	for _, a := range authority {
		s.AppendAnswer(tx, ListAuthority, a.Name, a.Type, a.Class, a.TTL, a.RData)
	}
	if !ok {
		s.raiseTx(tx, EventMalformedData)
		return
	}

	// The additional section is decoded far enough to confirm the
	// message is well-formed, then discarded — it is never stored on a
	// transaction.
	_, _, ok = decodeRecords(msg, cursor, int(hdr.ARCount))
	if !ok {
		s.raiseTx(tx, EventMalformedData)
	}
}
