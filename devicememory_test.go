package hellfire

import (
	"sync/atomic"
	"testing"
)

func TestDeviceMemoryIsMapped(t *testing.T) {
	d := &DeviceMemory{}
	if d.IsMapped() {
		t.Error("expected fresh memory to be unmapped")
	}

	atomic.AddInt32(&d.MapCount, 1)
	if !d.IsMapped() {
		t.Error("expected memory with an outstanding mapping to report mapped")
	}

	atomic.AddInt32(&d.MapCount, -1)
	if d.IsMapped() {
		t.Error("expected memory to report unmapped after the mapping is released")
	}
}
