package dnsflow

// GetTxCount returns the number of transactions currently held by the
// flow, for a detection engine iterating by index.
func (s *State) GetTxCount() int { return len(s.txs) }

// GetTxByIndex returns the transaction at position i in creation order,
// or nil if i is out of range. Indices shift as transactions are freed;
// callers that need a stable handle across Free calls should use a
// transaction's own Seq.
func (s *State) GetTxByIndex(i int) *Transaction {
	if i < 0 || i >= len(s.txs) {
		return nil
	}
	return s.txs[i]
}

// GetTxBySeq returns the transaction with the given internal sequence
// number, or nil if it has already been freed or never existed.
func (s *State) GetTxBySeq(seq uint64) *Transaction {
	for _, tx := range s.txs {
		if tx.seq == seq {
			return tx
		}
	}
	return nil
}

// IsComplete reports whether a transaction has received its matching
// response. A detection engine typically waits for this before running
// content inspection on the answer/authority sections, though it may
// also choose to run on a timed-out (ReplyLost) transaction.
func (tx *Transaction) IsComplete() bool { return tx.Replied }

// Progress reports how far tx has gotten in the given direction, as 0 or
// 1. The to-server side is complete the instant a transaction exists —
// Create is only ever called once a request has been fully parsed — so
// it is always 1. The to-client side is 1 once a matching response has
// been applied, 0 until then.
func (tx *Transaction) Progress(dir Direction) int {
	switch dir {
	case DirToServer:
		return 1
	case DirToClient:
		if tx.Replied {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// CompletionStatus is the terminal state of one direction of a
// transaction.
type CompletionStatus int

const (
	StatusPending CompletionStatus = iota
	StatusComplete
	StatusLost
)

func (cs CompletionStatus) String() string {
	switch cs {
	case StatusComplete:
		return "complete"
	case StatusLost:
		return "lost"
	default:
		return "pending"
	}
}

// CompletionStatus reports the terminal status of tx in the given
// direction. The to-server side is always StatusComplete, for the same
// reason Progress always reports 1 there. The to-client side is
// StatusComplete once replied, StatusLost if the surrounding engine has
// given up waiting on it (ReplyLost), and StatusPending otherwise.
func (tx *Transaction) CompletionStatus(dir Direction) CompletionStatus {
	switch dir {
	case DirToServer:
		return StatusComplete
	case DirToClient:
		switch {
		case tx.Replied:
			return StatusComplete
		case tx.ReplyLost:
			return StatusLost
		default:
			return StatusPending
		}
	default:
		return StatusPending
	}
}

// StateEvents returns a snapshot of events raised against the flow
// state itself (as opposed to a specific transaction), most recent
// last.
func (s *State) StateEvents() []Event { return s.events.snapshot() }

// HasStateEvents reports whether any state-level event has ever been
// raised on this flow, without allocating a snapshot.
func (s *State) HasStateEvents() bool { return s.events.has() }

// Events returns a snapshot of events raised against this specific
// transaction, most recent last.
func (tx *Transaction) Events() []Event { return tx.events.snapshot() }

// HasEvents reports whether any event has ever been raised against this
// transaction, without allocating a snapshot.
func (tx *Transaction) HasEvents() bool { return tx.events.has() }
