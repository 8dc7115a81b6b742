package hellfire

import (
	vk "github.com/goki/vulkan"
)

// PoolSizeRatio expresses how many descriptors of one type the pool
// holds relative to its maximum set count.
type PoolSizeRatio struct {
	Type  vk.DescriptorType
	Ratio float32
}

// PoolSizes scales each ratio by maxSets into concrete pool sizes.
func PoolSizes(ratios []PoolSizeRatio, maxSets uint32) []vk.DescriptorPoolSize {
	sizes := make([]vk.DescriptorPoolSize, len(ratios))
	for i, r := range ratios {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            r.Type,
			DescriptorCount: uint32(r.Ratio * float32(maxSets)),
		}
	}
	return sizes
}

// DescriptorAllocator manages one descriptor pool sized from type
// ratios. Allocation grants exactly one set per call and fails when the
// pool is exhausted.
type DescriptorAllocator struct {
	Device           *Device
	VKDescriptorPool vk.DescriptorPool
}

// InitPool creates the backing pool with ratio*maxSets descriptors of
// each listed type.
func (a *DescriptorAllocator) InitPool(d *Device, maxSets uint32, ratios []PoolSizeRatio) error {
	sizes := PoolSizes(ratios, maxSets)

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &createInfo, nil, &pool))
	if err != nil {
		return err
	}

	a.Device = d
	a.VKDescriptorPool = pool
	return nil
}

// Allocate grants one descriptor set for the given layout.
func (a *DescriptorAllocator) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     a.VKDescriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.VKDescriptorSetLayout},
	}

	var set vk.DescriptorSet
	err := vk.Error(vk.AllocateDescriptorSets(a.Device.VKDevice, &allocInfo, &set))
	if err != nil {
		return nil, err
	}

	return &DescriptorSet{Device: a.Device, VKDescriptorSet: set}, nil
}

// ClearDescriptors resets the pool, returning every allocated set to it
// without destroying the pool memory.
func (a *DescriptorAllocator) ClearDescriptors() error {
	return vk.Error(vk.ResetDescriptorPool(a.Device.VKDevice, a.VKDescriptorPool, 0))
}

// DestroyPool releases the pool and all sets allocated from it.
func (a *DescriptorAllocator) DestroyPool() {
	vk.DestroyDescriptorPool(a.Device.VKDevice, a.VKDescriptorPool, nil)
}
