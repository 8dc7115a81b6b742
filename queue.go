package hellfire

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type Queue struct {
	Device      *Device
	FamilyIndex uint32
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

// SemaphoreSubmit builds a synchronization2 semaphore dependency for
// the given stage mask.
func SemaphoreSubmit(stageMask vk.PipelineStageFlags2, semaphore vk.Semaphore) vk.SemaphoreSubmitInfo {
	return vk.SemaphoreSubmitInfo{
		SType:     vk.StructureTypeSemaphoreSubmitInfo,
		Semaphore: semaphore,
		StageMask: stageMask,
		Value:     1,
	}
}

// CommandBufferSubmit wraps a command buffer for a QueueSubmit2 call.
func CommandBufferSubmit(cmd vk.CommandBuffer) vk.CommandBufferSubmitInfo {
	return vk.CommandBufferSubmitInfo{
		SType:         vk.StructureTypeCommandBufferSubmitInfo,
		CommandBuffer: cmd,
	}
}

// Submit2 submits one command buffer with optional wait/signal semaphore
// dependencies through the synchronization2 submission path. The fence,
// if not nil, is signaled when the submission completes.
func (q *Queue) Submit2(cmd *CommandBuffer, wait, signal *vk.SemaphoreSubmitInfo, fence vk.Fence) error {
	cmdInfo := CommandBufferSubmit(cmd.VKCommandBuffer)

	submit := vk.SubmitInfo2{
		SType:                  vk.StructureTypeSubmitInfo2,
		CommandBufferInfoCount: 1,
		PCommandBufferInfos:    []vk.CommandBufferSubmitInfo{cmdInfo},
	}
	if wait != nil {
		submit.WaitSemaphoreInfoCount = 1
		submit.PWaitSemaphoreInfos = []vk.SemaphoreSubmitInfo{*wait}
	}
	if signal != nil {
		submit.SignalSemaphoreInfoCount = 1
		submit.PSignalSemaphoreInfos = []vk.SemaphoreSubmitInfo{*signal}
	}

	return vk.Error(vk.QueueSubmit2(q.VKQueue, 1, []vk.SubmitInfo2{submit}, fence))
}

// Present queues the presentation of an acquired swapchain image once
// the wait semaphore signals. The raw result is returned so callers can
// distinguish out-of-date/suboptimal from genuine failure.
func (q *Queue) Present(swapchain *Swapchain, imageIndex uint32, wait vk.Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain.VKSwapchain},
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{ Device: %s FamilyIndex: %d }", q.Device.String(), q.FamilyIndex)
}
