package hellfire

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Swapchain owns the chain of presentable images for a surface, the
// negotiated format/mode/extent and one image view per image.
type Swapchain struct {
	Extent      vk.Extent2D
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode

	Images     []vk.Image
	ImageViews []vk.ImageView

	Device      *Device
	VKSwapchain vk.Swapchain
}

// ChooseSurfaceFormat picks the 8-bit BGRA sRGB pair when the surface
// offers it, the first reported format otherwise.
func ChooseSurfaceFormat(formats VKSurfaceFormats) vk.SurfaceFormat {
	preferred := formats.Filter(func(f vk.SurfaceFormat) bool {
		return f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear
	})
	if len(preferred) > 0 {
		return preferred[0]
	}
	return formats[0]
}

// ChoosePresentMode picks mailbox when available, otherwise FIFO, which
// the platform contract guarantees.
func ChoosePresentMode(modes VKPresentModes) vk.PresentMode {
	if len(modes.Filter(vk.PresentModeMailbox)) > 0 {
		return vk.PresentModeMailbox
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent when it is defined.
// The all-ones sentinel means the surface leaves the choice to us, in
// which case the framebuffer pixel size is clamped to the capability
// bounds.
func ChooseExtent(current, min, max vk.Extent2D, framebuffer vk.Extent2D) vk.Extent2D {
	if current.Width != vk.MaxUint32 {
		return current
	}
	return vk.Extent2D{
		Width:  clampUint32(framebuffer.Width, min.Width, max.Width),
		Height: clampUint32(framebuffer.Height, min.Height, max.Height),
	}
}

// ChooseImageCount requests one image over the capability minimum,
// capped at the maximum (0 = unbounded).
func ChooseImageCount(minCount, maxCount uint32) uint32 {
	count := minCount + 1
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type CreateSwapchainOptions struct {
	OldSwapchain *Swapchain

	// FramebufferExtent is the window framebuffer size in pixels, used
	// only when the surface reports the undefined-extent sentinel.
	FramebufferExtent vk.Extent2D
}

// CreateSwapchain negotiates format, present mode, extent and image
// count against the surface and builds the chain plus its image views.
// Sharing is concurrent across the two families when graphics and
// present differ, exclusive otherwise.
func (d *Device) CreateSwapchain(surface vk.Surface, options *CreateSwapchainOptions) (*Swapchain, error) {
	modes, err := d.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	presentMode := ChoosePresentMode(modes)

	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("surface reports no formats")
	}
	for i := range formats {
		formats[i].Deref()
	}
	format := ChooseSurfaceFormat(formats)

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	var framebuffer vk.Extent2D
	if options != nil {
		framebuffer = options.FramebufferExtent
	}
	extent := ChooseExtent(caps.CurrentExtent, caps.MinImageExtent, caps.MaxImageExtent, framebuffer)
	imageCount := ChooseImageCount(caps.MinImageCount, caps.MaxImageCount)

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}

	if options != nil && options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}

	graphicsQueue := d.GraphicsQueue
	presentQueue := d.PresentQueue
	if graphicsQueue.FamilyIndex != presentQueue.FamilyIndex {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{graphicsQueue.FamilyIndex, presentQueue.FamilyIndex}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	} else {
		createInfo.QueueFamilyIndexCount = 0
		createInfo.PQueueFamilyIndices = nil
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err = vk.Error(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain))
	if err != nil {
		return nil, err
	}

	ret := &Swapchain{
		VKSwapchain: swapchain,
		Device:      d,
		Extent:      extent,
		Format:      format.Format,
		ColorSpace:  format.ColorSpace,
		PresentMode: presentMode,
	}

	if err := ret.initImages(); err != nil {
		ret.Destroy()
		return nil, err
	}

	return ret, nil
}

func (s *Swapchain) initImages() error {
	var imageCount uint32
	err := vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil))
	if err != nil {
		return err
	}

	s.Images = make([]vk.Image, imageCount)
	err = vk.Error(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, s.Images))
	if err != nil {
		return err
	}

	s.ImageViews = make([]vk.ImageView, imageCount)
	for i, image := range s.Images {
		view, err := s.Device.CreateImageView(image, s.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		s.ImageViews[i] = view
	}
	return nil
}

// AcquireNextImage obtains the index of the next presentable image,
// signaling the given semaphore once the image is actually ready. The
// raw result is returned so callers can react to out-of-date surfaces.
func (s *Swapchain) AcquireNextImage(timeoutNs uint64, semaphore vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, timeoutNs, semaphore, vk.NullFence, &imageIndex)
	return imageIndex, res
}

// Destroy releases all image views and the chain handle. The images
// themselves belong to the presentation engine. Safe to call repeatedly.
func (s *Swapchain) Destroy() {
	for _, view := range s.ImageViews {
		vk.DestroyImageView(s.Device.VKDevice, view, nil)
	}
	s.ImageViews = nil
	s.Images = nil
	if s.VKSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
		s.VKSwapchain = vk.NullSwapchain
	}
}
