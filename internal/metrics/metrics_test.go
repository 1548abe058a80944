package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCollector_Packets(t *testing.T) {
	c := New()

	c.PacketReceived(41)
	c.PacketReceived(5)
	c.PacketSent(10)

	if c.PacketsIn() != 2 {
		t.Errorf("packets in = %d, want 2", c.PacketsIn())
	}
	if c.PacketsOut() != 1 {
		t.Errorf("packets out = %d, want 1", c.PacketsOut())
	}
	if c.TotalBytesIn() != 46 {
		t.Errorf("bytes in = %d, want 46", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 10 {
		t.Errorf("bytes out = %d, want 10", c.TotalBytesOut())
	}
}

func TestCollector_Recovered(t *testing.T) {
	c := New()

	c.Truncated()
	c.Ignored()
	c.Ignored()
	c.Rejected()
	c.Rejected()
	c.Rejected()

	if c.TruncatedCount() != 1 {
		t.Errorf("truncated = %d, want 1", c.TruncatedCount())
	}
	if c.IgnoredCount() != 2 {
		t.Errorf("ignored = %d, want 2", c.IgnoredCount())
	}
	if c.RejectedCount() != 3 {
		t.Errorf("rejected = %d, want 3", c.RejectedCount())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.PacketReceived(1)
				c.PacketSent(10)
			}
		}()
	}
	wg.Wait()

	if c.PacketsIn() != 2000 || c.TotalBytesOut() != 20000 {
		t.Errorf("got in=%d out bytes=%d", c.PacketsIn(), c.TotalBytesOut())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.PacketReceived(100)
	c.PacketSent(10)
	c.Truncated()
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.PacketsIn != 1 {
		t.Errorf("snap packets in = %d", snap.PacketsIn)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.Truncated != 1 {
		t.Errorf("snap truncated = %d", snap.Truncated)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
	if snap.LastErrorMessage != "test" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.PacketSent(10)
	c.Rejected()

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.PacketsOut != 1 {
		t.Errorf("JSON packets out = %d", snap.PacketsOut)
	}
	if snap.Rejected != 1 {
		t.Errorf("JSON rejected = %d", snap.Rejected)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.PacketReceived(100)
	c.PacketSent(100)
	c.Truncated()
	c.Ignored()
	c.Rejected()
	c.RecordError("test")

	if c.PacketsIn() != 0 || c.TotalBytesIn() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.ErrorCount() != 0 {
		t.Error("nil collector should return 0")
	}

	snap := c.Snapshot()
	if snap.PacketsOut != 0 {
		t.Error("nil snapshot should be zero")
	}

	if j := c.JSON(); j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
