package dnsflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_CreateAndFind(t *testing.T) {
	s := NewState(nil, nil)
	tx := s.Create(0x1234)
	assert.Equal(t, uint16(0x1234), tx.TxID)

	found := s.FindByTxID(0x1234)
	require.NotNil(t, found)
	assert.Equal(t, tx.Seq(), found.Seq())
}

func TestState_FindSkipsReplied(t *testing.T) {
	s := NewState(nil, nil)
	tx1 := s.Create(0x1234)
	s.MarkReplied(tx1, 0, false)
	tx2 := s.Create(0x1234)

	found := s.FindByTxID(0x1234)
	require.NotNil(t, found)
	assert.Equal(t, tx2.Seq(), found.Seq())
}

func TestState_RepliedTransactionNeverMatchedAgain(t *testing.T) {
	s := NewState(nil, nil)
	tx := s.Create(0x1234)
	s.MarkReplied(tx, 0, false)

	assert.Nil(t, s.FindByTxID(0x1234))
}

func TestState_MarkRepliedIsIdempotent(t *testing.T) {
	s := NewState(nil, nil)
	tx := s.Create(1)
	s.MarkReplied(tx, 3, true)
	s.MarkReplied(tx, 0, false) // second call must be a no-op

	assert.Equal(t, uint8(3), tx.RCode)
	assert.True(t, tx.NoSuchName)
	assert.True(t, tx.RecursionDesired)
}

func TestState_FreeRemovesAndReleasesMemory(t *testing.T) {
	g := NewGlobal(NewConfig())
	s := NewState(g, NewConfig())
	tx := s.Create(1)
	s.AppendQuery(tx, "example.com", TypeA, 1)

	before := g.Counters().GlobalUse
	assert.Greater(t, before, uint64(0))

	s.Free(tx.Seq())
	assert.Equal(t, 0, s.GetTxCount())
	assert.Equal(t, uint64(0), g.Counters().GlobalUse)
}

func TestState_FreeUnknownSeqIsNoop(t *testing.T) {
	s := NewState(nil, nil)
	s.Create(1)
	s.Free(9999)
	assert.Equal(t, 1, s.GetTxCount())
}

func TestState_AppendDeniedByMemcapRaisesEvent(t *testing.T) {
	cfg := NewConfig()
	cfg.SetStateMemcap(1) // too small for any entry
	g := NewGlobal(cfg)
	s := NewState(g, cfg)
	tx := s.Create(1)

	s.AppendQuery(tx, "example.com", TypeA, 1)
	assert.Empty(t, tx.Queries)
	assert.True(t, tx.HasEvents())
	events := tx.Events()
	assert.Equal(t, EventStateMemcapReached, events[len(events)-1].Kind)
}

func TestState_FloodDetection(t *testing.T) {
	cfg := NewConfig()
	cfg.SetRequestFlood(3)
	s := NewState(nil, cfg)

	for i := 0; i < 3; i++ {
		assert.True(t, s.admitNewTransaction())
	}
	assert.False(t, s.admitNewTransaction())
	assert.True(t, s.HasStateEvents())

	events := s.StateEvents()
	assert.Equal(t, EventFlooded, events[len(events)-1].Kind)

	// Once given up, further admits stay denied without raising again.
	assert.False(t, s.admitNewTransaction())
	assert.Len(t, s.StateEvents(), 1)
}

func TestState_ResponseClearsFloodLatch(t *testing.T) {
	cfg := NewConfig()
	cfg.SetRequestFlood(1)
	s := NewState(nil, cfg)

	assert.True(t, s.admitNewTransaction())
	assert.False(t, s.admitNewTransaction()) // trips flood

	s.noteResponseReceived()
	assert.True(t, s.admitNewTransaction())
}
