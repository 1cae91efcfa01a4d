package dnsflow

// State is a per-flow DNS container: the ordered
// transaction list, the current transaction, flood-detection counters,
// the per-flow memory accountant, the state-level event list, and the
// TCP framer scratch for each direction. One State is created on the
// first DNS byte seen on a flow (either direction) and destroyed when
// the flow itself is torn down by the surrounding engine.
type State struct {
	acct accountant
	cfg  *Config

	txs          []*Transaction
	curr         *Transaction
	txMax        uint64
	unrepliedCnt uint32
	givenup      bool

	events ringBuffer
	evSeq  uint64

	tcp [2]tcpFramer // indexed by Direction
}

// NewState creates a flow state bound to the given shared accountant and
// configuration. global may be nil (accounting always succeeds; used by
// unit tests that only exercise parsing logic).
func NewState(global *Global, cfg *Config) *State {
	if cfg == nil {
		cfg = NewConfig()
	}
	s := &State{acct: accountant{global: global}, cfg: cfg}
	s.tcp[DirToServer].state = s
	s.tcp[DirToServer].dir = DirToServer
	s.tcp[DirToClient].state = s
	s.tcp[DirToClient].dir = DirToClient
	return s
}

// MemUse returns the bytes currently accounted to this flow.
func (s *State) MemUse() uint64 { return s.acct.memUse }

// Close releases any in-progress TCP reassembly buffered for either
// direction, returning its accounted bytes to the accountant. Call it
// when the surrounding engine tears down this flow (connection close,
// table eviction) so a message left incomplete by a closed connection
// doesn't hold its memcap share forever.
func (s *State) Close() {
	s.tcp[DirToServer].reset()
	s.tcp[DirToClient].reset()
}

// raiseState records a state-level event, attached to the flow state
// when no transaction is current.
func (s *State) raiseState(k EventKind) {
	s.evSeq++
	s.events.add(Event{Kind: k, Seq: s.evSeq})
	if s.acct.global != nil {
		if s.acct.global.metrics != nil {
			s.acct.global.metrics.recordEvent(k)
		}
		s.acct.global.trace.Trace(k, s.evSeq)
	}
}

// raiseTx records a transaction-level event.
func (s *State) raiseTx(tx *Transaction, k EventKind) {
	s.evSeq++
	tx.events.add(Event{Kind: k, Seq: s.evSeq})
	if s.acct.global != nil {
		if s.acct.global.metrics != nil {
			s.acct.global.metrics.recordEvent(k)
		}
		s.acct.global.trace.Trace(k, s.evSeq)
	}
}

// FindByTxID returns the most recently created transaction matching id
// that is not yet replied. A response matching an already-replied
// transaction is treated as unsolicited rather than re-matched.
func (s *State) FindByTxID(id uint16) *Transaction {
	for i := len(s.txs) - 1; i >= 0; i-- {
		tx := s.txs[i]
		if tx.TxID == id && !tx.Replied {
			return tx
		}
	}
	return nil
}

// Create assigns a new internal sequence number, links the transaction
// at the list tail, and makes it the flow's current transaction.
func (s *State) Create(id uint16) *Transaction {
	s.txMax++
	tx := &Transaction{seq: s.txMax, TxID: id}
	s.txs = append(s.txs, tx)
	s.curr = tx
	if s.acct.global != nil && s.acct.global.metrics != nil {
		s.acct.global.metrics.incTransactionCreated()
	}
	return tx
}

// entryOverhead approximates the bytes a stored entry consumes, for
// memcap accounting purposes. It does not need to be exact — only
// consistent, since memcap accounting is about the sum of tracked
// allocations, not about matching a real allocator's bookkeeping.
func entryOverhead(extra int) uint32 {
	const fixedOverhead = 32 // struct + slice header slop
	return uint32(fixedOverhead + extra)
}

// AppendQuery appends a query entry to tx's query list. If the
// accountant denies the allocation, the entry is dropped and
// StateMemcapReached is raised on tx.
func (s *State) AppendQuery(tx *Transaction, name string, qtype, class uint16) {
	n := entryOverhead(len(name))
	if !s.acct.checkWant(n) {
		s.raiseTx(tx, EventStateMemcapReached)
		return
	}
	s.acct.incr(n)
	tx.Queries = append(tx.Queries, QueryEntry{Name: name, Type: qtype, Class: class})
}

// AppendAnswer appends a decoded answer or authority record to the
// requested sub-list. If the accountant denies the allocation, the entry
// is dropped and StateMemcapReached is raised on tx.
func (s *State) AppendAnswer(tx *Transaction, list List, name string, rtype, class uint16, ttl uint32, rdata []byte) {
	n := entryOverhead(len(name) + len(rdata))
	if !s.acct.checkWant(n) {
		s.raiseTx(tx, EventStateMemcapReached)
		return
	}
	s.acct.incr(n)
	entry := AnswerEntry{Name: name, Type: rtype, Class: class, TTL: ttl, RData: rdata}
	switch list {
	case ListAnswer:
		tx.Answers = append(tx.Answers, entry)
	case ListAuthority:
		tx.Authority = append(tx.Authority, entry)
	}
}

// MarkReplied marks tx as replied-to and applies the rcode/RA flags
// extracted from a response header. Replied is set at most once per
// transaction; a second call is a no-op.
func (s *State) MarkReplied(tx *Transaction, rcode uint8, ra bool) {
	if tx.Replied {
		return
	}
	tx.Replied = true
	tx.RCode = rcode
	tx.NoSuchName = rcode == 3
	tx.RecursionDesired = ra
}

// Free removes the transaction with the given internal sequence number
// from the flow's list and releases its accounted memory. Idempotent:
// unknown sequence numbers are tolerated silently.
func (s *State) Free(seq uint64) {
	for i, tx := range s.txs {
		if tx.seq != seq {
			continue
		}
		n := txMemEstimate(tx)
		s.acct.decr(n)
		if s.curr == tx {
			s.curr = nil
		}
		s.txs = append(s.txs[:i], s.txs[i+1:]...)
		if s.acct.global != nil && s.acct.global.metrics != nil {
			s.acct.global.metrics.incTransactionFreed()
		}
		return
	}
}

func txMemEstimate(tx *Transaction) uint32 {
	var n uint32
	for _, q := range tx.Queries {
		n += entryOverhead(len(q.Name))
	}
	for _, a := range tx.Answers {
		n += entryOverhead(len(a.Name) + len(a.RData))
	}
	for _, a := range tx.Authority {
		n += entryOverhead(len(a.Name) + len(a.RData))
	}
	return n
}

// admitNewTransaction reports whether the request parser may create a
// new transaction for this request. If the flow is already given up, no
// transaction is created and the counter is left untouched. Otherwise,
// if creating one more transaction would push unrepliedCnt past the
// configured threshold, givenup latches, Flooded is raised exactly once,
// and the transaction is not created — this is what keeps a request
// flood at exactly the configured threshold of transactions created,
// never one more.
func (s *State) admitNewTransaction() bool {
	if s.givenup {
		return false
	}
	if s.unrepliedCnt+1 > s.cfg.RequestFlood() {
		s.givenup = true
		s.raiseState(EventFlooded)
		return false
	}
	s.unrepliedCnt++
	return true
}

// noteResponseReceived implements the other half of flood detection: any
// response, matched or not, resets the unreplied-request counter and
// clears givenup.
func (s *State) noteResponseReceived() {
	s.unrepliedCnt = 0
	s.givenup = false
}
