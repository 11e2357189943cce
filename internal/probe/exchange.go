// Package probe performs SNTP exchanges against candidate servers and
// selects the best result from a bounded concurrent fan-out.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"chronosync/internal/wire"
)

// Server is one candidate time server. Lower Priority values win ties.
type Server struct {
	Host     string
	Port     int
	Priority int
}

func (s Server) port() int {
	if s.Port == 0 {
		return 123
	}
	return s.Port
}

// Result is one successful measurement against a server.
type Result struct {
	Server  Server
	Addr    netip.Addr
	Offset  time.Duration // remote clock minus local clock
	RTT     time.Duration
	Stratum uint8
	Time    time.Time // authoritative wall reading at the end of the exchange
}

// dialFunc is the seam used to reach a server; the default is a plain UDP dial.
type dialFunc func(ctx context.Context, address string) (net.Conn, error)

func udpDial(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "udp", address)
}

// exchange performs one request/response round trip.
//
// Timing discipline: a single wall reading is taken at send time; the round
// trip is measured as a monotonic delta from that same reading, so wall
// adjustments mid-exchange cannot produce a negative or inflated RTT. The
// destination timestamp for the offset formula is synthesized as
// wallSend + monotonicDelta, never read from a second wall-clock call.
func (e *Engine) exchange(ctx context.Context, srv Server, addr netip.Addr) (*Result, error) {
	conn, err := e.dial(ctx, net.JoinHostPort(addr.String(), strconv.Itoa(srv.port())))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(e.attemptTimeout)); err != nil {
		return nil, err
	}

	// Cooperative cancellation: when the fan-out context dies (early
	// termination or overall deadline), yank the connection deadline so
	// the blocking read returns at its next boundary. Registered after
	// the attempt deadline so a context that is already dead cannot have
	// its yank overwritten.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	sendTime := time.Now() // wall + monotonic reading, taken once
	req := wire.NewRequest(wire.FromTime(sendTime))
	if _, err := conn.Write(req.Encode()); err != nil {
		return nil, fmt.Errorf("sending to %s: %w", addr, err)
	}

	buf := make([]byte, 2*wire.PacketSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("reading from %s: %w", addr, err)
	}
	rtt := time.Since(sendTime) // monotonic delta, always >= 0

	pkt, err := wire.Decode(buf[:n])
	if err != nil {
		return nil, err
	}
	if err := validate(pkt); err != nil {
		return nil, fmt.Errorf("response from %s: %w", addr, err)
	}
	if rtt > e.maxRTT {
		return nil, fmt.Errorf("response from %s: round trip %v exceeds sanity bound %v", addr, rtt, e.maxRTT)
	}

	// Symmetric offset: ((T2-T1) + (T3-T4)) / 2, with T4 synthesized on
	// the wall timeline from the monotonic round trip.
	destTime := sendTime.Add(rtt)
	t2 := pkt.ReceiveTime.Time()
	t3 := pkt.TransmitTime.Time()
	offset := (t2.Sub(sendTime) + t3.Sub(destTime)) / 2

	return &Result{
		Server:  srv,
		Addr:    addr,
		Offset:  offset,
		RTT:     rtt,
		Stratum: pkt.Stratum,
		Time:    destTime.Add(offset),
	}, nil
}

func validate(p *wire.Packet) error {
	if p.LeapIndicator == wire.LeapUnsynchronized {
		return fmt.Errorf("server not synchronized (leap indicator %d)", p.LeapIndicator)
	}
	if p.Stratum == 0 || p.Stratum >= 16 {
		return fmt.Errorf("invalid stratum %d", p.Stratum)
	}
	if p.TransmitTime.IsZero() {
		return fmt.Errorf("zero transmit timestamp")
	}
	return nil
}
