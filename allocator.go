package hellfire

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

var errPoolExhausted = fmt.Errorf("insufficient space in resource pool")

// Allocation is one suballocated range inside a pool.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// PoolAllocator hands out aligned ranges from a fixed-size block using
// first-fit. Ranges are kept sorted by offset so freed space between
// neighbours can be reused.
type PoolAllocator struct {
	Size   uint64
	Align  uint64
	allocs []*Allocation
}

func alignUp(a uint64, align uint64) uint64 {
	if align == 0 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return a - m + align
}

// Allocate returns a range of at least size bytes aligned to the pool's
// alignment, or nil if no gap is large enough.
func (p *PoolAllocator) Allocate(size uint64) *Allocation {
	if len(p.allocs) == 0 {
		if size > p.Size {
			return nil
		}
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}

	if p.allocs[0].Offset >= size {
		na := &Allocation{Offset: 0, Size: size}
		p.allocs = append([]*Allocation{na}, p.allocs...)
		return na
	}

	for i := 0; i+1 < len(p.allocs); i++ {
		c := p.allocs[i]
		n := p.allocs[i+1]

		l := alignUp(c.Offset+c.Size, p.Align)
		if n.Offset >= l && n.Offset-l >= size {
			na := &Allocation{Offset: l, Size: size}
			p.allocs = append(p.allocs[:i+1], append([]*Allocation{na}, p.allocs[i+1:]...)...)
			return na
		}
	}

	last := p.allocs[len(p.allocs)-1]
	l := alignUp(last.Offset+last.Size, p.Align)
	if l <= p.Size && p.Size-l >= size {
		na := &Allocation{Offset: l, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

// Free returns a range to the pool. Freeing a range the pool does not
// own is a no-op.
func (p *PoolAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

func (p *PoolAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}

// Allocator owns GPU memory for the engine. Images get a dedicated
// device-local allocation each; buffers are suballocated from pools.
type Allocator struct {
	Device *Device
}

func (d *Device) CreateAllocator() *Allocator {
	return &Allocator{Device: d}
}

// AllocateImage creates a 2D image with its own device-local memory and
// a default view over the given aspect.
func (a *Allocator) AllocateImage(extent vk.Extent3D, format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*AllocatedImage, error) {
	createInfo := &vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   vk.ImageType2d,
		Format:      format,
		Extent:      extent,
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var image vk.Image
	err := vk.Error(vk.CreateImage(a.Device.VKDevice, createInfo, nil, &image))
	if err != nil {
		return nil, fmt.Errorf("error creating image: %w", err)
	}

	var mr vk.MemoryRequirements
	vk.GetImageMemoryRequirements(a.Device.VKDevice, image, &mr)
	mr.Deref()

	memory, err := a.Device.Allocate(int(mr.Size), mr.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(a.Device.VKDevice, image, nil)
		return nil, err
	}

	err = vk.Error(vk.BindImageMemory(a.Device.VKDevice, image, memory.VKDeviceMemory, 0))
	if err != nil {
		memory.Destroy()
		vk.DestroyImage(a.Device.VKDevice, image, nil)
		return nil, err
	}

	view, err := a.Device.CreateImageView(image, format, aspect)
	if err != nil {
		memory.Destroy()
		vk.DestroyImage(a.Device.VKDevice, image, nil)
		return nil, err
	}

	return &AllocatedImage{
		VKImage:     image,
		VKImageView: view,
		Memory:      memory,
		VKFormat:    format,
		VKExtent:    extent,
	}, nil
}

// BufferPool is one block of device memory that buffers with a shared
// usage are suballocated from.
type BufferPool struct {
	Device *Device
	Memory *DeviceMemory
	Usage  vk.BufferUsageFlags
	pool   *PoolAllocator
}

// CreateBufferPool reserves a block of memory sized for buffers of the
// given usage. A throwaway buffer probes the memory type bits and
// alignment the driver wants for that usage.
func (a *Allocator) CreateBufferPool(size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*BufferPool, error) {
	probe, err := a.Device.createBufferHandle(size, usage)
	if err != nil {
		return nil, err
	}

	var mr vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(a.Device.VKDevice, probe, &mr)
	mr.Deref()
	vk.DestroyBuffer(a.Device.VKDevice, probe, nil)

	memory, err := a.Device.Allocate(int(size), mr.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}

	return &BufferPool{
		Device: a.Device,
		Memory: memory,
		Usage:  usage,
		pool:   &PoolAllocator{Size: size, Align: uint64(mr.Alignment)},
	}, nil
}

// AllocateBuffer carves a buffer out of the pool's memory block.
func (p *BufferPool) AllocateBuffer(size uint64) (*AllocatedBuffer, error) {
	buffer, err := p.Device.createBufferHandle(size, p.Usage)
	if err != nil {
		return nil, err
	}

	var mr vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(p.Device.VKDevice, buffer, &mr)
	mr.Deref()

	allocation := p.pool.Allocate(uint64(mr.Size))
	if allocation == nil {
		vk.DestroyBuffer(p.Device.VKDevice, buffer, nil)
		return nil, errPoolExhausted
	}

	err = vk.Error(vk.BindBufferMemory(p.Device.VKDevice, buffer, p.Memory.VKDeviceMemory, vk.DeviceSize(allocation.Offset)))
	if err != nil {
		p.pool.Free(allocation)
		vk.DestroyBuffer(p.Device.VKDevice, buffer, nil)
		return nil, err
	}

	return &AllocatedBuffer{
		Pool:       p,
		VKBuffer:   buffer,
		Size:       size,
		Allocation: allocation,
	}, nil
}

// Destroy releases the pool's memory block. Buffers allocated from the
// pool must be destroyed first.
func (p *BufferPool) Destroy() {
	if p.Memory != nil {
		p.Memory.Destroy()
		p.Memory = nil
	}
	p.pool = nil
}
