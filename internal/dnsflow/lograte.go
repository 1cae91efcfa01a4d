package dnsflow

import "golang.org/x/time/rate"

// TraceSink receives a rate-limited stream of raised events for
// debug-level logging by the host process. It is entirely optional and
// separate from Metrics: Metrics counts every event regardless of rate,
// this only bounds how often a human-readable trace line is emitted.
type TraceSink func(kind EventKind, seq uint64)

// LogRateLimiter throttles how often individual event kinds are traced,
// so a sustained flood of e.g. StateMemcapReached events cannot spam a
// log sink. One token bucket per event kind, all sharing the same
// burst/refill parameters.
type LogRateLimiter struct {
	limiters map[EventKind]*rate.Limiter
	r        rate.Limit
	burst    int
	sink     TraceSink
}

// NewLogRateLimiter builds a limiter allowing up to burst trace lines
// immediately per event kind, refilling at r lines/sec thereafter. Every
// known EventKind gets its bucket up front, since Trace is called
// concurrently from every flow's worker goroutine and the limiter map
// itself is never safe to mutate after construction.
func NewLogRateLimiter(r float64, burst int, sink TraceSink) *LogRateLimiter {
	l := &LogRateLimiter{
		limiters: make(map[EventKind]*rate.Limiter, len(eventNames)),
		r:        rate.Limit(r),
		burst:    burst,
		sink:     sink,
	}
	for k := range eventNames {
		l.limiters[EventKind(k)] = rate.NewLimiter(l.r, l.burst)
	}
	return l
}

// Trace reports the event to the sink if this kind's bucket has a token
// available; otherwise it is silently dropped. Only ever reads the
// limiters map — every entry was populated at construction — so
// concurrent calls from different flows' workers need no lock.
func (l *LogRateLimiter) Trace(kind EventKind, seq uint64) {
	if l == nil || l.sink == nil {
		return
	}
	lim, ok := l.limiters[kind]
	if !ok {
		return
	}
	if lim.Allow() {
		l.sink(kind, seq)
	}
}
