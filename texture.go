package hellfire

import (
	"image"
	"image/draw"
	"os"

	// Register the png loader for texture files.
	_ "image/png"

	vk "github.com/goki/vulkan"
)

// UploadTextureFromFile decodes an image file and uploads it as a
// sampled texture in shader-read-only layout.
func (e *Engine) UploadTextureFromFile(filename string) (*AllocatedImage, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	src, _, err := image.Decode(reader)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)

	return e.UploadTexture(m)
}

// UploadTexture stages the pixel data through the staging pool, copies
// it into a device-local image and leaves the image ready for sampling.
func (e *Engine) UploadTexture(src *image.RGBA) (*AllocatedImage, error) {
	b := src.Bounds()
	extent := vk.Extent3D{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Depth: 1}

	img, err := e.Allocator.AllocateImage(extent, vk.FormatR8g8b8a8Unorm,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}

	staging, err := e.stagingPool.AllocateBuffer(uint64(len(src.Pix)))
	if err != nil {
		img.Destroy(e.Device)
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.MapCopy(src.Pix); err != nil {
		img.Destroy(e.Device)
		return nil, err
	}

	err = e.ImmediateSubmit(func(cmd *CommandBuffer) error {
		cmd.TransitionImage(img.VKImage, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		cmd.CmdCopyBufferToImage(staging.VKBuffer, img.VKImage, extent)
		cmd.TransitionImage(img.VKImage, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
		return nil
	})
	if err != nil {
		img.Destroy(e.Device)
		return nil, err
	}

	return img, nil
}

// CmdCopyBufferToImage records a full-extent copy from a tightly packed
// buffer into the first mip of an image in transfer-dst layout.
func (c *CommandBuffer) CmdCopyBufferToImage(buffer vk.Buffer, image vk.Image, extent vk.Extent3D) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: extent,
	}
	vk.CmdCopyBufferToImage(c.VKCommandBuffer, buffer, image,
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// CreateSampler creates a linear-filtering repeating sampler with
// anisotropy, suitable for textures uploaded by the engine.
func (d *Device) CreateSampler() (vk.Sampler, error) {
	createInfo := &vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vk.FilterLinear,
		MinFilter:        vk.FilterLinear,
		AddressModeU:     vk.SamplerAddressModeRepeat,
		AddressModeV:     vk.SamplerAddressModeRepeat,
		AddressModeW:     vk.SamplerAddressModeRepeat,
		AnisotropyEnable: vk.True,
		MaxAnisotropy:    16,
		MipmapMode:       vk.SamplerMipmapModeLinear,
	}

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(d.VKDevice, createInfo, nil, &sampler))
	if err != nil {
		return vk.NullSampler, err
	}
	return sampler, nil
}
