package hellfire

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// AllocatedBuffer is a buffer suballocated from a BufferPool.
type AllocatedBuffer struct {
	Pool       *BufferPool
	VKBuffer   vk.Buffer
	Size       uint64
	Allocation *Allocation
}

func (d *Device) createBufferHandle(sizeInBytes uint64, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(sizeInBytes),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return vk.NullBuffer, err
	}
	return buffer, nil
}

// DSInfo describes the buffer for descriptor writes.
func (b *AllocatedBuffer) DSInfo(offset int) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(b.Size),
	}
}

// MapCopy writes data into the buffer through its pool memory. Only
// valid for buffers from host-visible pools.
func (b *AllocatedBuffer) MapCopy(data []byte) error {
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("data of %d bytes exceeds buffer size %d", len(data), b.Size)
	}
	return b.Pool.Memory.MapCopyUnmap(data, b.Allocation.Offset)
}

// Destroy releases the buffer handle and returns its range to the pool.
func (b *AllocatedBuffer) Destroy() {
	if b.VKBuffer == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.Pool.Device.VKDevice, b.VKBuffer, nil)
	b.VKBuffer = vk.NullBuffer
	b.Pool.pool.Free(b.Allocation)
	b.Allocation = nil
}

// CmdCopyBuffer records a whole-range copy between two buffers.
func (c *CommandBuffer) CmdCopyBuffer(src, dst vk.Buffer, size uint64) {
	region := vk.BufferCopy{Size: vk.DeviceSize(size)}
	vk.CmdCopyBuffer(c.VKCommandBuffer, src, dst, 1, []vk.BufferCopy{region})
}
