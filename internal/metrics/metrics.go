// Package metrics provides lightweight, lock-free counters for tracking
// the traffic of a single roverctl session.
//
// All methods are safe for concurrent use: the inbound and outbound
// loops record into the same Collector.  A nil *Collector is a valid
// no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a session.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	packetsIn   atomic.Int64
	packetsOut  atomic.Int64
	bytesIn     atomic.Int64
	bytesOut    atomic.Int64
	truncated   atomic.Int64
	ignored     atomic.Int64
	rejected    atomic.Int64
	errorsTotal atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Traffic ──────────────────────────────────────────────────────────

// PacketReceived records one inbound read of n bytes.
func (c *Collector) PacketReceived(n int) {
	if c == nil {
		return
	}
	c.packetsIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// PacketSent records one outbound packet of n bytes.
func (c *Collector) PacketSent(n int) {
	if c == nil {
		return
	}
	c.packetsOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// PacketsIn returns the number of inbound reads handled.
func (c *Collector) PacketsIn() int64 {
	if c == nil {
		return 0
	}
	return c.packetsIn.Load()
}

// PacketsOut returns the number of command packets written.
func (c *Collector) PacketsOut() int64 {
	if c == nil {
		return 0
	}
	return c.packetsOut.Load()
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Recovered conditions ─────────────────────────────────────────────

// Truncated records an inbound packet dropped for being too short.
func (c *Collector) Truncated() {
	if c == nil {
		return
	}
	c.truncated.Add(1)
}

// Ignored records an inbound packet with an unknown type tag.
func (c *Collector) Ignored() {
	if c == nil {
		return
	}
	c.ignored.Add(1)
}

// Rejected records an operator command that produced no packet.
func (c *Collector) Rejected() {
	if c == nil {
		return
	}
	c.rejected.Add(1)
}

// TruncatedCount returns the number of dropped short packets.
func (c *Collector) TruncatedCount() int64 {
	if c == nil {
		return 0
	}
	return c.truncated.Load()
}

// IgnoredCount returns the number of unknown-type packets.
func (c *Collector) IgnoredCount() int64 {
	if c == nil {
		return 0
	}
	return c.ignored.Load()
}

// RejectedCount returns the number of rejected operator commands.
func (c *Collector) RejectedCount() int64 {
	if c == nil {
		return 0
	}
	return c.rejected.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	PacketsIn        int64  `json:"packets_in"`
	PacketsOut       int64  `json:"packets_out"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	Truncated        int64  `json:"truncated"`
	Ignored          int64  `json:"ignored"`
	Rejected         int64  `json:"rejected_commands"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:      time.Since(c.startTime).Truncate(time.Second).String(),
		PacketsIn:   c.packetsIn.Load(),
		PacketsOut:  c.packetsOut.Load(),
		BytesIn:     c.bytesIn.Load(),
		BytesOut:    c.bytesOut.Load(),
		Truncated:   c.truncated.Load(),
		Ignored:     c.ignored.Load(),
		Rejected:    c.rejected.Load(),
		ErrorsTotal: c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
