package hellfire

import (
	"testing"
)

func TestPoolAllocatorFill(t *testing.T) {
	p := &PoolAllocator{Size: 100, Align: 10}

	a1 := p.Allocate(10)
	if a1 == nil || a1.Offset != 0 {
		t.Errorf("expected first allocation at offset 0, got %v", a1)
	}

	a2 := p.Allocate(15)
	if a2 == nil || a2.Offset != 10 {
		t.Errorf("expected second allocation at offset 10, got %v", a2)
	}

	// 15 ends at 25, next aligned offset is 30.
	a3 := p.Allocate(20)
	if a3 == nil || a3.Offset != 30 {
		t.Errorf("expected aligned allocation at offset 30, got %v", a3)
	}

	if p.Allocate(60) != nil {
		t.Error("expected allocation past capacity to fail")
	}
}

func TestPoolAllocatorReuse(t *testing.T) {
	p := &PoolAllocator{Size: 100, Align: 10}

	a1 := p.Allocate(30)
	a2 := p.Allocate(30)
	a3 := p.Allocate(30)
	if a1 == nil || a2 == nil || a3 == nil {
		t.Fatal("expected three allocations to succeed")
	}

	p.Free(a2)

	// The freed hole between a1 and a3 is reusable.
	a4 := p.Allocate(25)
	if a4 == nil {
		t.Fatal("expected allocation from freed hole")
	}
	if a4.Offset != 30 {
		t.Errorf("expected reused offset 30, got %d", a4.Offset)
	}
}

func TestPoolAllocatorHeadReuse(t *testing.T) {
	p := &PoolAllocator{Size: 100, Align: 10}

	a1 := p.Allocate(20)
	a2 := p.Allocate(20)
	if a1 == nil || a2 == nil {
		t.Fatal("expected allocations to succeed")
	}

	p.Free(a1)

	a3 := p.Allocate(20)
	if a3 == nil || a3.Offset != 0 {
		t.Errorf("expected head reuse at offset 0, got %v", a3)
	}
}

func TestPoolAllocatorExactFit(t *testing.T) {
	p := &PoolAllocator{Size: 64, Align: 1}

	a := p.Allocate(64)
	if a == nil {
		t.Fatal("expected exact-fit allocation to succeed")
	}
	if p.Allocate(1) != nil {
		t.Error("expected allocation from a full pool to fail")
	}

	p.Free(a)
	if p.Allocate(64) == nil {
		t.Error("expected full reuse after free")
	}
}

func TestPoolAllocatorFreeUnknown(t *testing.T) {
	p := &PoolAllocator{Size: 64, Align: 1}
	p.Allocate(32)

	// Freeing a range the pool never issued must not disturb it.
	p.Free(&Allocation{Offset: 0, Size: 32})

	if a := p.Allocate(32); a == nil || a.Offset != 32 {
		t.Errorf("expected allocation at offset 32, got %v", a)
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct {
		value, align, want uint64
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := alignUp(c.value, c.align); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.value, c.align, got, c.want)
		}
	}
}
