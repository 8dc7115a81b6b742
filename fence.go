package hellfire

import (
	"time"

	vk "github.com/goki/vulkan"
)

func (d *Device) VKDestroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

// VKCreateFence creates a native vulkan fence, optionally already
// signaled so the first wait on it returns immediately.
func (d *Device) VKCreateFence(signaled bool) (vk.Fence, error) {
	var fence vk.Fence
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	err := vk.Error(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence))
	if err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

// WaitForFence blocks until the fence signals or the timeout expires.
// A timeout result is surfaced as an error.
func (d *Device) WaitForFence(f vk.Fence, ts time.Duration) error {
	return vk.Error(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, uint64(ts.Nanoseconds())))
}

func (d *Device) ResetFence(f vk.Fence) error {
	return vk.Error(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}))
}
