// Command dnsflow-harness wires the dnsflow transaction tracker into a
// small forwarding DNS proxy so its behavior can be exercised against
// live traffic: client queries land on one listening socket and are
// relayed to a real upstream resolver over a per-client dialed socket,
// with both legs fed through the same dnsflow.State. It demonstrates
// the wiring a real packet-capture pipeline would do — flow-key
// hashing, worker-affinity dispatch, and periodic counter reporting —
// without implementing a resolver of its own.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dnsscience/dnsscienced/internal/dnsflow"
	"github.com/dnsscience/dnsscienced/internal/flowkey"
	"github.com/dnsscience/dnsscienced/internal/flowworker"
)

var (
	listenAddr   = flag.String("listen", ":8530", "UDP address to accept client queries on")
	upstreamAddr = flag.String("upstream", "8.8.8.8:53", "Upstream DNS server to relay queries to")
	workers      = flag.Int("workers", 0, "Worker goroutines (0 = runtime.NumCPU())")
	statsEvery   = flag.Duration("stats-interval", 5*time.Second, "Interval between stats reports")
	requestFlood = flag.Uint("request-flood", dnsflow.DefaultRequestFlood, "Unreplied-request threshold before a flow is flagged flooded")
	stateMemcap  = flag.Uint("state-memcap", dnsflow.DefaultStateMemcap, "Per-flow memory cap in bytes")
	globalMemcap = flag.Uint("global-memcap", dnsflow.DefaultGlobalMemcap, "Process-wide memory cap in bytes")
)

// session pairs a client's dnsflow.State with the dedicated socket used
// to relay its queries upstream and read back the matching replies.
// Keying both directions off the same client<->upstream pair (rather
// than each socket's own local view of "who sent this") is what lets a
// request and its reply land on the same flowkey.Key and the same
// dnsflow.State.
type session struct {
	state      *dnsflow.State
	upstream   *net.UDPConn
	clientAddr net.Addr
}

type flowTable struct {
	mu       sync.Mutex
	sessions map[flowkey.Key]*session
	global   *dnsflow.Global
	cfg      *dnsflow.Config
}

// getOrCreate returns the session for key, dialing a fresh upstream
// socket and spawning its reply-reader goroutine the first time a key
// is seen. onReply is invoked for every byte run read back from
// upstream, from that goroutine.
func (t *flowTable) getOrCreate(key flowkey.Key, clientAddr net.Addr, onReply func(*session, []byte)) (*session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[key]; ok {
		return s, false
	}

	upstream, err := net.DialUDP("udp", nil, mustResolveUDP(*upstreamAddr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dialing upstream %s: %v\n", *upstreamAddr, err)
		return nil, false
	}

	s := &session{
		state:      dnsflow.NewState(t.global, t.cfg),
		upstream:   upstream,
		clientAddr: clientAddr,
	}
	t.sessions[key] = s

	go func() {
		buf := make([]byte, 65535)
		for {
			n, err := upstream.Read(buf)
			if err != nil {
				return
			}
			onReply(s, append([]byte(nil), buf[:n]...))
		}
	}()

	return s, true
}

func mustResolveUDP(addr string) *net.UDPAddr {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving upstream %s: %v\n", addr, err)
		os.Exit(1)
	}
	return a
}

func main() {
	flag.Parse()

	fmt.Println("dnsflow-harness: DNS transaction tracker demo")
	fmt.Printf("  listen:   %s\n", *listenAddr)
	fmt.Printf("  upstream: %s\n", *upstreamAddr)
	fmt.Println()

	cfg := dnsflow.NewConfig()
	cfg.SetRequestFlood(uint32(*requestFlood))
	cfg.SetStateMemcap(uint32(*stateMemcap))
	cfg.SetGlobalMemcap(uint64(*globalMemcap))

	global := dnsflow.NewGlobal(cfg)
	metrics := dnsflow.NewMetrics("dnsflow_harness")
	global.SetMetrics(metrics)
	global.SetTraceSink(dnsflow.NewLogRateLimiter(5, 10, func(kind dnsflow.EventKind, seq uint64) {
		fmt.Printf("event seq=%d kind=%s\n", seq, dnsflow.EventName(kind))
	}))

	table := &flowTable{sessions: make(map[flowkey.Key]*session), global: global, cfg: cfg}

	var secret [16]byte
	if _, err := rand.Read(secret[:]); err != nil {
		fmt.Fprintf(os.Stderr, "generating flow-key secret: %v\n", err)
		os.Exit(1)
	}
	hasher := flowkey.NewHasher(secret)
	upstream := mustResolveUDP(*upstreamAddr)

	pool := flowworker.NewPool(flowworker.Config{Workers: *workers})
	defer pool.Close()

	listener, err := net.ListenPacket("udp", *listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listening on %s: %v\n", *listenAddr, err)
		os.Exit(1)
	}
	defer listener.Close()

	go serve(listener, hasher, upstream, table, pool)
	go reportStats(table, pool, *statsEvery)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nshutting down")

	table.mu.Lock()
	for _, sess := range table.sessions {
		sess.state.Close()
		sess.upstream.Close()
	}
	table.mu.Unlock()
}

// serve accepts client queries on listener, relays each to upstream
// over that client's dedicated dialed socket, and feeds both legs
// through the same dnsflow.State. The reply-side goroutine started by
// getOrCreate runs the response half of the pipeline and writes the
// reply back to the client.
func serve(listener net.PacketConn, hasher *flowkey.Hasher, upstream *net.UDPAddr, table *flowTable, pool *flowworker.Pool) {
	buf := make([]byte, 65535)
	for {
		n, addr, err := listener.ReadFrom(buf)
		if err != nil {
			return
		}
		msg := append([]byte(nil), buf[:n]...)

		clientIP, clientPort := splitHostPort(addr)
		key := hasher.Hash(clientIP, upstream.IP, clientPort, uint16(upstream.Port), 17)

		sess, _ := table.getOrCreate(key, addr, func(s *session, reply []byte) {
			if err := pool.Submit(key, func() {
				s.state.ProcessResponseUDP(reply)
				listener.WriteTo(reply, s.clientAddr)
			}); err != nil {
				fmt.Fprintf(os.Stderr, "dropping reply for %s: %v\n", s.clientAddr, err)
			}
		})
		if sess == nil {
			continue
		}

		if err := pool.Submit(key, func() {
			sess.state.ProcessRequestUDP(msg)
			sess.upstream.Write(msg)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "dropping packet from %s: %v\n", addr, err)
		}
	}
}

func splitHostPort(addr net.Addr) (net.IP, uint16) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return net.IPv4zero, 0
	}
	return udpAddr.IP, uint16(udpAddr.Port)
}

func reportStats(table *flowTable, pool *flowworker.Pool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		counters := table.global.Counters()
		poolStats := pool.GetStats()

		table.mu.Lock()
		flowCount := len(table.sessions)
		table.mu.Unlock()

		fmt.Printf("flows=%d mem=%d/%d bytes  workers: submitted=%d completed=%d rejected=%d\n",
			flowCount, counters.GlobalUse, counters.GlobalCap,
			poolStats.Submitted, poolStats.Completed, poolStats.Rejected)
	}
}
