package hellfire

import (
	vk "github.com/goki/vulkan"
)

// FrameOverlap is the depth of the frame ring. Two frames can be in
// flight at once, one recording on the CPU while the other executes on
// the GPU.
const FrameOverlap = 2

// FrameData holds the per-slot state of the frame ring: a command pool
// with one buffer, the semaphores and fence ordering the slot's work,
// and a deletion queue drained when the slot is reused.
type FrameData struct {
	CommandPool   *CommandPool
	CommandBuffer *CommandBuffer

	SwapchainSemaphore vk.Semaphore
	RenderSemaphore    vk.Semaphore
	RenderFence        vk.Fence

	DeletionQueue DeletionQueue
}

// beginSlot runs the start-of-cycle sequence for this ring slot: block
// until the slot's previous submission signals its fence, drain the
// deletion queue of resources retired by that submission, then reset
// the slot's command buffer for re-recording. The fence wait must
// complete before either of the later steps runs, otherwise resources
// still referenced by in-flight work would be touched.
func (f *FrameData) beginSlot(waitFence func(vk.Fence) error, resetCmd func() error) error {
	if err := waitFence(f.RenderFence); err != nil {
		return err
	}
	f.DeletionQueue.Flush()
	return resetCmd()
}

func (d *Device) createFrameData(graphicsFamily uint32) (*FrameData, error) {
	pool, err := d.CreateCommandPool(graphicsFamily)
	if err != nil {
		return nil, err
	}

	buffer, err := pool.AllocateBuffer()
	if err != nil {
		pool.Destroy()
		return nil, err
	}

	f := &FrameData{CommandPool: pool, CommandBuffer: buffer}

	f.SwapchainSemaphore, err = d.VKCreateSemaphore()
	if err != nil {
		f.Destroy(d)
		return nil, err
	}

	f.RenderSemaphore, err = d.VKCreateSemaphore()
	if err != nil {
		f.Destroy(d)
		return nil, err
	}

	// Signaled so the first wait on this slot passes immediately.
	f.RenderFence, err = d.VKCreateFence(true)
	if err != nil {
		f.Destroy(d)
		return nil, err
	}

	return f, nil
}

// Destroy flushes the slot's deletion queue and releases its pool and
// sync objects. Safe to call on a partially constructed slot.
func (f *FrameData) Destroy(d *Device) {
	f.DeletionQueue.Flush()

	if f.CommandPool != nil {
		if f.CommandBuffer != nil {
			f.CommandPool.FreeBuffer(f.CommandBuffer)
			f.CommandBuffer = nil
		}
		f.CommandPool.Destroy()
		f.CommandPool = nil
	}
	if f.SwapchainSemaphore != vk.NullSemaphore {
		d.VKDestroySemaphore(f.SwapchainSemaphore)
		f.SwapchainSemaphore = vk.NullSemaphore
	}
	if f.RenderSemaphore != vk.NullSemaphore {
		d.VKDestroySemaphore(f.RenderSemaphore)
		f.RenderSemaphore = vk.NullSemaphore
	}
	if f.RenderFence != vk.NullFence {
		d.VKDestroyFence(f.RenderFence)
		f.RenderFence = vk.NullFence
	}
}
