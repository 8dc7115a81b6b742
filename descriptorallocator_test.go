package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestPoolSizes(t *testing.T) {
	ratios := []PoolSizeRatio{
		{Type: vk.DescriptorTypeStorageImage, Ratio: 1},
		{Type: vk.DescriptorTypeUniformBuffer, Ratio: 2.5},
		{Type: vk.DescriptorTypeCombinedImageSampler, Ratio: 0.5},
	}

	sizes := PoolSizes(ratios, 10)
	if len(sizes) != 3 {
		t.Fatalf("expected 3 pool sizes, got %d", len(sizes))
	}

	want := []uint32{10, 25, 5}
	for i, s := range sizes {
		if s.Type != ratios[i].Type {
			t.Errorf("size %d: expected type %v, got %v", i, ratios[i].Type, s.Type)
		}
		if s.DescriptorCount != want[i] {
			t.Errorf("size %d: expected count %d, got %d", i, want[i], s.DescriptorCount)
		}
	}
}

func TestPoolSizesEmpty(t *testing.T) {
	if sizes := PoolSizes(nil, 10); len(sizes) != 0 {
		t.Errorf("expected no pool sizes, got %d", len(sizes))
	}
}
