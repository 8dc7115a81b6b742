package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func testQueueFamily(index int, flags vk.QueueFlagBits) *QueueFamily {
	return &QueueFamily{
		Index:                   index,
		VKQueueFamilyProperties: vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(flags)},
	}
}

func TestQueueFamilySliceFilters(t *testing.T) {
	families := QueueFamilySlice{
		testQueueFamily(0, vk.QueueGraphicsBit|vk.QueueComputeBit|vk.QueueTransferBit),
		testQueueFamily(1, vk.QueueComputeBit),
		testQueueFamily(2, vk.QueueTransferBit),
	}

	graphics := families.FilterGraphics()
	if len(graphics) != 1 || graphics[0].Index != 0 {
		t.Errorf("expected only family 0 to be graphics capable, got %v", graphics)
	}

	compute := families.FilterCompute()
	if len(compute) != 2 {
		t.Fatalf("expected 2 compute families, got %d", len(compute))
	}
	if compute[0].Index != 0 || compute[1].Index != 1 {
		t.Errorf("expected compute families 0 and 1, got %v", compute)
	}

	transfer := families.Filter(func(q *QueueFamily) bool { return q.IsTransfer() })
	if len(transfer) != 2 {
		t.Errorf("expected 2 transfer families, got %d", len(transfer))
	}
}

func TestFindQueueFamilyIndicesCombined(t *testing.T) {
	qi := FindQueueFamilyIndices([]QueueFamilyCaps{
		{Graphics: false, Present: true},
		{Graphics: true, Present: true},
	})

	if !qi.IsComplete() {
		t.Fatal("expected complete selection")
	}
	if *qi.Graphics != 1 || *qi.Present != 1 {
		t.Errorf("expected combined family 1, got graphics %d present %d", *qi.Graphics, *qi.Present)
	}
	if !qi.IsSameFamily() {
		t.Error("expected graphics and present to share a family")
	}
}

func TestFindQueueFamilyIndicesSplit(t *testing.T) {
	qi := FindQueueFamilyIndices([]QueueFamilyCaps{
		{Graphics: true, Present: false},
		{Graphics: false, Present: true},
	})

	if !qi.IsComplete() {
		t.Fatal("expected complete selection")
	}
	if *qi.Graphics != 0 {
		t.Errorf("expected graphics family 0, got %d", *qi.Graphics)
	}
	if *qi.Present != 1 {
		t.Errorf("expected present family 1, got %d", *qi.Present)
	}
	if qi.IsSameFamily() {
		t.Error("expected split families")
	}
}

func TestFindQueueFamilyIndicesPrefersCombined(t *testing.T) {
	// The first graphics family presents, so it wins both roles even
	// though an earlier family could present.
	qi := FindQueueFamilyIndices([]QueueFamilyCaps{
		{Graphics: false, Present: true},
		{Graphics: true, Present: true},
		{Graphics: true, Present: false},
	})

	if !qi.IsComplete() {
		t.Fatal("expected complete selection")
	}
	if *qi.Graphics != 1 || *qi.Present != 1 {
		t.Errorf("expected family 1 for both, got graphics %d present %d", *qi.Graphics, *qi.Present)
	}
}

func TestFindQueueFamilyIndicesIncomplete(t *testing.T) {
	cases := []struct {
		name string
		caps []QueueFamilyCaps
	}{
		{"no families", nil},
		{"no graphics", []QueueFamilyCaps{{Graphics: false, Present: true}}},
		{"no present", []QueueFamilyCaps{{Graphics: true, Present: false}}},
	}

	for _, c := range cases {
		if qi := FindQueueFamilyIndices(c.caps); qi.IsComplete() {
			t.Errorf("%s: expected incomplete selection", c.name)
		}
	}
}
