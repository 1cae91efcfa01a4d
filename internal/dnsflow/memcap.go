package dnsflow

import "sync/atomic"

// Global is the process-wide memory accountant. One Global is
// constructed by the calling pipeline and shared, read-mostly, across
// every flow's State; the only mutable part is the atomic global-use
// counter, updated with atomic fetch-add/fetch-sub so concurrent flows
// on different worker threads never need a lock to share it.
type Global struct {
	cfg       *Config
	globalUse atomic.Int64
	metrics   *Metrics        // optional; nil is valid and simply skips recording
	trace     *LogRateLimiter // optional; nil is valid and simply skips tracing
}

// NewGlobal constructs a Global accountant bound to cfg. cfg must not be
// mutated after any State starts using this Global: config is
// write-once-at-startup, read-only thereafter.
func NewGlobal(cfg *Config) *Global {
	return &Global{cfg: cfg}
}

// SetMetrics attaches a Metrics bundle so allocation and memcap events
// are observable from outside the core. Optional; safe to call once
// before any flow touches this Global.
func (g *Global) SetMetrics(m *Metrics) { g.metrics = m }

// SetTraceSink attaches a rate-limited debug trace of raised events.
// Optional; safe to call once before any flow touches this Global.
func (g *Global) SetTraceSink(l *LogRateLimiter) { g.trace = l }

// Counters is a point-in-time snapshot: current global bytes in use,
// the configured state memcap, and the configured global memcap.
type Counters struct {
	GlobalUse   uint64
	StateMemcap uint64
	GlobalCap   uint64
}

// Counters returns a point-in-time snapshot of the accountant's state.
func (g *Global) Counters() Counters {
	return Counters{
		GlobalUse:   uint64(g.globalUse.Load()),
		StateMemcap: uint64(g.cfg.StateMemcap()),
		GlobalCap:   g.cfg.GlobalMemcap(),
	}
}

// checkWant reports whether allocating n more bytes on top of a flow
// already using stateUse bytes would stay within both the per-state and
// global memcaps.
func (g *Global) checkWant(stateUse uint64, n uint32) bool {
	if stateUse+uint64(n) > uint64(g.cfg.StateMemcap()) {
		return false
	}
	if uint64(g.globalUse.Load())+uint64(n) > g.cfg.GlobalMemcap() {
		return false
	}
	return true
}

func (g *Global) incr(n uint32) {
	g.globalUse.Add(int64(n))
	if g.metrics != nil {
		g.metrics.SetGlobalMemUse(uint64(g.globalUse.Load()))
	}
}

func (g *Global) decr(n uint32) {
	g.globalUse.Add(-int64(n))
	if g.metrics != nil {
		g.metrics.SetGlobalMemUse(uint64(g.globalUse.Load()))
	}
}

// accountant is the per-flow half of the memory accounting contract: a
// flow's own memuse counter plus a reference to the shared Global it
// reports into. It is not safe for concurrent use — a flow is only ever
// touched by one worker at a time, so no lock is taken here.
type accountant struct {
	global *Global
	memUse uint64
}

// checkWant reports whether this flow may allocate n more bytes without
// exceeding its own state memcap or the process-wide global memcap.
func (a *accountant) checkWant(n uint32) bool {
	if a.global == nil {
		return true // unconfigured accountant: used only by unit tests
	}
	return a.global.checkWant(a.memUse, n)
}

// incr records a successful allocation of n bytes attributable to this
// flow, updating both the flow-local and global counters (the sum of
// per-flow counters always equals the global counter).
func (a *accountant) incr(n uint32) {
	a.memUse += uint64(n)
	if a.global != nil {
		a.global.incr(n)
	}
}

// decr releases n bytes previously accounted to this flow (TCP framer
// buffer flush, transaction free).
func (a *accountant) decr(n uint32) {
	if uint64(n) > a.memUse {
		n = uint32(a.memUse)
	}
	a.memUse -= uint64(n)
	if a.global != nil {
		a.global.decr(n)
	}
}
