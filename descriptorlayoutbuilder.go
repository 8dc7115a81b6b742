package hellfire

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// DescriptorSetLayout describes the layout of a descriptor set
type DescriptorSetLayout struct {
	Device                *Device
	VKDescriptorSetLayout vk.DescriptorSetLayout
}

// Destroy destroys this descriptor set layout
func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}

// DescriptorLayoutBuilder accumulates bindings for one layout. The
// accumulator carries no state between builds other than what Clear
// removes, and every binding receives the stage mask passed to Build.
type DescriptorLayoutBuilder struct {
	bindings []vk.DescriptorSetLayoutBinding
}

// AddBinding accumulates a single-descriptor binding entry.
func (b *DescriptorLayoutBuilder) AddBinding(binding uint32, dtype vk.DescriptorType) *DescriptorLayoutBuilder {
	b.bindings = append(b.bindings, vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  dtype,
		DescriptorCount: 1,
	})
	return b
}

// Clear empties the accumulator for reuse.
func (b *DescriptorLayoutBuilder) Clear() {
	b.bindings = b.bindings[:0]
}

// Bindings returns a copy of the accumulated binding entries.
func (b *DescriptorLayoutBuilder) Bindings() []vk.DescriptorSetLayoutBinding {
	out := make([]vk.DescriptorSetLayoutBinding, len(b.bindings))
	copy(out, b.bindings)
	return out
}

// Build stamps the stage mask onto every accumulated binding and creates
// the layout. Bindings are shared across all stages in the mask, they
// are not independently stageable.
func (b *DescriptorLayoutBuilder) Build(d *Device, stages vk.ShaderStageFlags, pNext unsafe.Pointer, flags vk.DescriptorSetLayoutCreateFlags) (*DescriptorSetLayout, error) {
	bindings := b.Bindings()
	for i := range bindings {
		bindings[i].StageFlags |= stages
	}

	createInfo := &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		PNext:        pNext,
		Flags:        flags,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(d.VKDevice, createInfo, nil, &layout))
	if err != nil {
		return nil, err
	}

	return &DescriptorSetLayout{Device: d, VKDescriptorSetLayout: layout}, nil
}
