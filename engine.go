package hellfire

import (
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/loov/hrtime"
	lin "github.com/xlab/linmath"
)

const (
	// frameTimeout bounds every per-frame fence and acquire wait. A
	// frame taking longer than this means the GPU is lost or hung.
	frameTimeout = time.Second

	// immediateTimeout bounds immediate submissions, which may carry
	// large uploads and are allowed to take much longer than a frame.
	immediateTimeout = 10 * time.Second

	stagingPoolSize = 16 * 1024 * 1024
)

// DrawImageFormat is the format of the intermediate draw target. Wider
// than the swapchain so compute effects get headroom before the blit.
const DrawImageFormat = vk.FormatR16g16b16a16Sfloat

// engineLive enforces the single-engine invariant. The engine owns
// process-wide Vulkan state, so a second live instance is a programming
// error surfaced at construction.
var engineLive int32

// Overlay draws on top of the blitted swapchain image, typically a UI
// layer. The image is in color-attachment layout for the duration of
// the call.
type Overlay interface {
	Draw(cmd *CommandBuffer, targetView vk.ImageView, extent vk.Extent2D)
}

// EngineOptions configures engine construction.
type EngineOptions struct {
	// AppName names the application to the Vulkan driver.
	AppName string

	// Debug enables the Khronos validation layer and the debug
	// callback. Validation messages are logged and never abort.
	Debug bool

	// ShaderDir is where compiled SPIR-V shaders are loaded from.
	// Defaults to "shaders".
	ShaderDir string

	// Overlay, if set, is invoked every frame after the draw target is
	// blitted to the swapchain.
	Overlay Overlay
}

// Engine ties the Vulkan device, presentation chain, frame ring and
// pipelines together. Construct with NewEngine, drive with Run or Draw,
// release with Destroy. At most one engine may be live per process.
type Engine struct {
	Window *glfw.Window

	Instance       *Instance
	Surface        vk.Surface
	PhysicalDevice *PhysicalDevice
	Device         *Device
	Allocator      *Allocator

	Swapchain *Swapchain

	// DrawImage is the intermediate render target. All drawing lands
	// here and is blitted onto the acquired swapchain image.
	DrawImage *AllocatedImage

	frames      [FrameOverlap]*FrameData
	frameNumber uint64
	drawExtent  vk.Extent2D

	globalDescriptors    DescriptorAllocator
	drawImageLayout      *DescriptorSetLayout
	drawImageDescriptors *DescriptorSet

	effects       []*ComputeEffect
	currentEffect int

	pipelineCache    *PipelineCache
	triangleLayout   *PipelineLayout
	trianglePipeline vk.Pipeline

	immPool   *CommandPool
	immBuffer *CommandBuffer
	immFence  vk.Fence

	stagingPool *BufferPool

	overlay Overlay

	mainDeletionQueue DeletionQueue

	resizeRequested bool
	lastFrameTime   time.Duration
	destroyed       bool
}

// NewEngine builds the full rendering stack against the given window.
// Construction fails if another engine is already live.
func NewEngine(window *glfw.Window, options EngineOptions) (*Engine, error) {
	if !atomic.CompareAndSwapInt32(&engineLive, 0, 1) {
		return nil, fmt.Errorf("an engine is already live in this process")
	}

	e := &Engine{Window: window, overlay: options.Overlay}

	err := e.init(options)
	if err != nil {
		e.Destroy()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(options EngineOptions) error {
	if err := e.initVulkan(options); err != nil {
		return err
	}
	if err := e.initSwapchain(); err != nil {
		return err
	}
	if err := e.initCommands(); err != nil {
		return err
	}
	if err := e.initDescriptors(); err != nil {
		return err
	}
	return e.initPipelines(options)
}

func (e *Engine) initVulkan(options EngineOptions) error {
	app := &App{
		Name:       options.AppName,
		EngineName: "hellfire",
	}
	for _, ext := range e.Window.GetRequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if options.Debug {
		if err := app.EnableDebugging(); err != nil {
			log.Printf("WARNING: debugging unavailable: %v", err)
			options.Debug = false
		}
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return fmt.Errorf("error creating instance: %w", err)
	}
	e.Instance = instance

	if options.Debug {
		if err := instance.UseDefaultDebugCallback(); err != nil {
			return fmt.Errorf("error installing debug callback: %w", err)
		}
	}

	surfPtr, err := e.Window.CreateWindowSurface(instance.VKInstance, nil)
	if err != nil {
		return fmt.Errorf("error creating window surface: %w", err)
	}
	e.Surface = vk.SurfaceFromPointer(surfPtr)

	devices, err := instance.PhysicalDevices()
	if err != nil {
		return err
	}
	e.PhysicalDevice, err = SelectPhysicalDevice(devices, e.Surface)
	if err != nil {
		return err
	}

	families, err := e.PhysicalDevice.QueueFamilies()
	if err != nil {
		return err
	}
	log.Printf("selected GPU '%s': %d queue families (%d graphics, %d compute)",
		e.PhysicalDevice.DeviceName, len(families),
		len(families.FilterGraphics()), len(families.FilterCompute()))

	qi, err := e.PhysicalDevice.FindQueueFamilyIndices(e.Surface)
	if err != nil {
		return err
	}

	e.Device, err = e.PhysicalDevice.CreateLogicalDevice(qi, &CreateDeviceOptions{
		EnabledExtensions: RequiredDeviceExtensions,
		Features:          DefaultDeviceFeatureRequests(),
	})
	if err != nil {
		return fmt.Errorf("error creating logical device: %w", err)
	}

	e.Allocator = e.Device.CreateAllocator()

	e.stagingPool, err = e.Allocator.CreateBufferPool(stagingPoolSize,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	return err
}

func (e *Engine) framebufferExtent() vk.Extent2D {
	w, h := e.Window.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func (e *Engine) initSwapchain() error {
	swapchain, err := e.Device.CreateSwapchain(e.Surface, &CreateSwapchainOptions{
		FramebufferExtent: e.framebufferExtent(),
	})
	if err != nil {
		return fmt.Errorf("error creating swapchain: %w", err)
	}
	e.Swapchain = swapchain

	extent := e.framebufferExtent()
	drawImage, err := e.Allocator.AllocateImage(
		vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		DrawImageFormat,
		vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit|vk.ImageUsageTransferDstBit|
			vk.ImageUsageStorageBit|vk.ImageUsageColorAttachmentBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return fmt.Errorf("error creating draw image: %w", err)
	}
	e.DrawImage = drawImage
	e.mainDeletionQueue.Push(func() { drawImage.Destroy(e.Device) })

	return nil
}

func (e *Engine) initCommands() error {
	graphicsFamily := e.Device.GraphicsQueue.FamilyIndex

	for i := range e.frames {
		frame, err := e.Device.createFrameData(graphicsFamily)
		if err != nil {
			return err
		}
		e.frames[i] = frame
	}

	pool, err := e.Device.CreateCommandPool(graphicsFamily)
	if err != nil {
		return err
	}
	e.immPool = pool

	e.immBuffer, err = pool.AllocateBuffer()
	if err != nil {
		return err
	}

	e.immFence, err = e.Device.VKCreateFence(true)
	return err
}

func (e *Engine) initDescriptors() error {
	err := e.globalDescriptors.InitPool(e.Device, 10, []PoolSizeRatio{
		{Type: vk.DescriptorTypeStorageImage, Ratio: 1},
	})
	if err != nil {
		return err
	}

	builder := &DescriptorLayoutBuilder{}
	builder.AddBinding(0, vk.DescriptorTypeStorageImage)
	e.drawImageLayout, err = builder.Build(e.Device,
		vk.ShaderStageFlags(vk.ShaderStageComputeBit), nil, 0)
	if err != nil {
		return err
	}

	e.drawImageDescriptors, err = e.globalDescriptors.Allocate(e.drawImageLayout)
	if err != nil {
		return err
	}

	e.drawImageDescriptors.AddStorageImage(0, vk.ImageLayoutGeneral, e.DrawImage.VKImageView)
	e.drawImageDescriptors.Write()
	return nil
}

func (e *Engine) initPipelines(options EngineOptions) error {
	shaderDir := options.ShaderDir
	if shaderDir == "" {
		shaderDir = "shaders"
	}

	cache, err := e.Device.CreatePipelineCache()
	if err != nil {
		return err
	}
	e.pipelineCache = cache

	gradient, err := e.Device.CreateComputeEffect("gradient",
		filepath.Join(shaderDir, "gradient.comp.spv"), e.drawImageLayout, e.pipelineCache)
	if err != nil {
		return err
	}
	gradient.Data.Data1 = lin.Vec4{1, 0, 0, 1}
	gradient.Data.Data2 = lin.Vec4{0, 0, 1, 1}

	sky, err := e.Device.CreateComputeEffect("sky",
		filepath.Join(shaderDir, "sky.comp.spv"), e.drawImageLayout, e.pipelineCache)
	if err != nil {
		gradient.Destroy(e.Device)
		return err
	}
	sky.Data.Data1 = lin.Vec4{0.1, 0.2, 0.4, 0.97}

	e.effects = []*ComputeEffect{gradient, sky}

	return e.initTrianglePipeline(shaderDir)
}

func (e *Engine) initTrianglePipeline(shaderDir string) error {
	vert, err := e.Device.LoadShaderModuleFromFile(filepath.Join(shaderDir, "colored_triangle.vert.spv"))
	if err != nil {
		return err
	}
	defer vert.Destroy()

	frag, err := e.Device.LoadShaderModuleFromFile(filepath.Join(shaderDir, "colored_triangle.frag.spv"))
	if err != nil {
		return err
	}
	defer frag.Destroy()

	e.triangleLayout, err = e.Device.CreatePipelineLayout()
	if err != nil {
		return err
	}

	builder := NewPipelineBuilder()
	builder.SetShaders(vert, frag).
		SetInputTopology(vk.PrimitiveTopologyTriangleList).
		SetPolygonMode(vk.PolygonModeFill).
		SetCullMode(vk.CullModeFlags(vk.CullModeNone), vk.FrontFaceClockwise).
		SetMultisamplingNone().
		DisableBlending().
		DisableDepthTest().
		SetColorAttachmentFormat(e.DrawImage.VKFormat).
		SetDepthFormat(vk.FormatUndefined).
		SetPipelineLayout(e.triangleLayout)

	e.trianglePipeline, err = builder.BuildPipeline(e.Device, e.pipelineCache)
	return err
}

func (e *Engine) currentFrame() *FrameData {
	return e.frames[e.frameNumber%FrameOverlap]
}

// FrameNumber returns how many frames have been submitted.
func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}

// FrameTime returns the CPU time of the most recent Draw call.
func (e *Engine) FrameTime() time.Duration {
	return e.lastFrameTime
}

// Effects returns the selectable background effects.
func (e *Engine) Effects() []*ComputeEffect {
	return e.effects
}

// CurrentEffect returns the active background effect.
func (e *Engine) CurrentEffect() *ComputeEffect {
	return e.effects[e.currentEffect]
}

// SetEffect selects the background effect by index.
func (e *Engine) SetEffect(i int) error {
	if i < 0 || i >= len(e.effects) {
		return fmt.Errorf("no effect at index %d", i)
	}
	e.currentEffect = i
	return nil
}

// NextEffect cycles to the next background effect.
func (e *Engine) NextEffect() {
	e.currentEffect = (e.currentEffect + 1) % len(e.effects)
}

// Draw renders and presents one frame. An out-of-date swapchain is not
// an error: the frame is skipped and a resize flagged for the caller or
// the Run loop to service.
func (e *Engine) Draw() error {
	frame := e.currentFrame()

	err := frame.beginSlot(
		func(fence vk.Fence) error { return e.Device.WaitForFence(fence, frameTimeout) },
		frame.CommandBuffer.Reset)
	if err != nil {
		return fmt.Errorf("error preparing frame slot: %w", err)
	}

	imageIndex, res := e.Swapchain.AcquireNextImage(uint64(frameTimeout.Nanoseconds()), frame.SwapchainSemaphore)
	if res == vk.ErrorOutOfDate {
		e.resizeRequested = true
		return nil
	}
	if res != vk.Success && res != vk.Suboptimal {
		return fmt.Errorf("error acquiring swapchain image: %w", vk.Error(res))
	}

	if err := e.Device.ResetFence(frame.RenderFence); err != nil {
		return err
	}

	cmd := frame.CommandBuffer
	if err := cmd.BeginOneTime(); err != nil {
		return err
	}

	e.drawExtent = e.DrawImage.Extent2D()

	cmd.TransitionImage(e.DrawImage.VKImage, vk.ImageLayoutUndefined, vk.ImageLayoutGeneral)
	e.drawBackground(cmd)

	cmd.TransitionImage(e.DrawImage.VKImage, vk.ImageLayoutGeneral, vk.ImageLayoutColorAttachmentOptimal)
	e.drawGeometry(cmd)

	cmd.TransitionImage(e.DrawImage.VKImage, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutTransferSrcOptimal)

	swapchainImage := e.Swapchain.Images[imageIndex]
	cmd.TransitionImage(swapchainImage, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	cmd.CopyImageToImage(e.DrawImage.VKImage, swapchainImage, e.drawExtent, e.Swapchain.Extent)

	if e.overlay != nil {
		cmd.TransitionImage(swapchainImage, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutColorAttachmentOptimal)
		e.overlay.Draw(cmd, e.Swapchain.ImageViews[imageIndex], e.Swapchain.Extent)
		cmd.TransitionImage(swapchainImage, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc)
	} else {
		cmd.TransitionImage(swapchainImage, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc)
	}

	if err := cmd.End(); err != nil {
		return err
	}

	wait := SemaphoreSubmit(vk.PipelineStageFlags2(vk.PipelineStage2ColorAttachmentOutputBit), frame.SwapchainSemaphore)
	signal := SemaphoreSubmit(vk.PipelineStageFlags2(vk.PipelineStage2AllGraphicsBit), frame.RenderSemaphore)

	if err := e.Device.GraphicsQueue.Submit2(cmd, &wait, &signal, frame.RenderFence); err != nil {
		return fmt.Errorf("error submitting frame: %w", err)
	}

	res = e.Device.PresentQueue.Present(e.Swapchain, imageIndex, frame.RenderSemaphore)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal {
		e.resizeRequested = true
	} else if err := vk.Error(res); err != nil {
		return fmt.Errorf("error presenting frame: %w", err)
	}

	e.frameNumber++
	return nil
}

func (e *Engine) drawBackground(cmd *CommandBuffer) {
	effect := e.CurrentEffect()

	cmd.CmdBindComputePipeline(effect.Pipeline)
	cmd.CmdBindDescriptorSets(vk.PipelineBindPointCompute, effect.Layout, 0, e.drawImageDescriptors)
	cmd.CmdPushConstants(effect.Layout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, effect.Data.Bytes())

	cmd.CmdDispatch(
		int(groupCount(e.drawExtent.Width, 16)),
		int(groupCount(e.drawExtent.Height, 16)),
		1)
}

func (e *Engine) drawGeometry(cmd *CommandBuffer) {
	colorAttachment := vk.RenderingAttachmentInfo{
		SType:       vk.StructureTypeRenderingAttachmentInfo,
		ImageView:   e.DrawImage.VKImageView,
		ImageLayout: vk.ImageLayoutColorAttachmentOptimal,
		LoadOp:      vk.AttachmentLoadOpLoad,
		StoreOp:     vk.AttachmentStoreOpStore,
	}

	renderInfo := vk.RenderingInfo{
		SType:                vk.StructureTypeRenderingInfo,
		RenderArea:           vk.Rect2D{Extent: e.drawExtent},
		LayerCount:           1,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.RenderingAttachmentInfo{colorAttachment},
	}

	vk.CmdBeginRendering(cmd.VK(), &renderInfo)

	cmd.CmdBindGraphicsPipeline(e.trianglePipeline)
	cmd.CmdSetViewportAndScissor(e.drawExtent)
	vk.CmdDraw(cmd.VK(), 3, 1, 0, 0)

	vk.CmdEndRendering(cmd.VK())
}

// ImmediateSubmit records fn into a dedicated command buffer, submits
// it outside the frame ring and blocks until the GPU has finished it.
func (e *Engine) ImmediateSubmit(fn func(cmd *CommandBuffer) error) error {
	if err := e.Device.ResetFence(e.immFence); err != nil {
		return err
	}
	if err := e.immBuffer.Reset(); err != nil {
		return err
	}
	if err := e.immBuffer.BeginOneTime(); err != nil {
		return err
	}

	if err := fn(e.immBuffer); err != nil {
		return err
	}

	if err := e.immBuffer.End(); err != nil {
		return err
	}
	if err := e.Device.GraphicsQueue.Submit2(e.immBuffer, nil, nil, e.immFence); err != nil {
		return err
	}
	return e.Device.WaitForFence(e.immFence, immediateTimeout)
}

// UploadToBuffer copies data into a device-local buffer by staging it
// in host-visible memory and replaying the copy on the GPU.
func (e *Engine) UploadToBuffer(dst *AllocatedBuffer, data []byte) error {
	staging, err := e.stagingPool.AllocateBuffer(uint64(len(data)))
	if err != nil {
		return err
	}
	defer staging.Destroy()

	if err := staging.MapCopy(data); err != nil {
		return err
	}

	return e.ImmediateSubmit(func(cmd *CommandBuffer) error {
		cmd.CmdCopyBuffer(staging.VKBuffer, dst.VKBuffer, uint64(len(data)))
		return nil
	})
}

func (e *Engine) recreateSwapchain() error {
	e.Device.WaitIdle()

	old := e.Swapchain
	swapchain, err := e.Device.CreateSwapchain(e.Surface, &CreateSwapchainOptions{
		OldSwapchain:      old,
		FramebufferExtent: e.framebufferExtent(),
	})
	if err != nil {
		return fmt.Errorf("error recreating swapchain: %w", err)
	}
	old.Destroy()

	e.Swapchain = swapchain
	e.resizeRequested = false
	return nil
}

// Run drives the frame loop until the window is closed. A minimized
// window throttles the loop instead of spinning.
func (e *Engine) Run() error {
	var frameAcc time.Duration
	var frameCount int

	for !e.Window.ShouldClose() {
		glfw.PollEvents()

		extent := e.framebufferExtent()
		if extent.Width == 0 || extent.Height == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if e.resizeRequested {
			if err := e.recreateSwapchain(); err != nil {
				return err
			}
		}

		start := hrtime.Now()
		if err := e.Draw(); err != nil {
			return err
		}
		e.lastFrameTime = hrtime.Since(start)

		frameAcc += e.lastFrameTime
		frameCount++
		if frameCount == 1000 {
			log.Printf("average frame time %v", frameAcc/time.Duration(frameCount))
			frameAcc, frameCount = 0, 0
		}
	}

	e.Device.WaitIdle()
	return nil
}

// Destroy tears the engine down in reverse construction order and
// releases the single-engine slot. Safe to call repeatedly and on a
// partially constructed engine.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true

	if e.Device != nil {
		e.Device.WaitIdle()

		for _, frame := range e.frames {
			if frame != nil {
				frame.Destroy(e.Device)
			}
		}

		if e.immFence != vk.NullFence {
			e.Device.VKDestroyFence(e.immFence)
			e.immFence = vk.NullFence
		}
		if e.immPool != nil {
			if e.immBuffer != nil {
				e.immPool.FreeBuffer(e.immBuffer)
				e.immBuffer = nil
			}
			e.immPool.Destroy()
		}

		for _, effect := range e.effects {
			effect.Destroy(e.Device)
		}
		e.effects = nil

		if e.trianglePipeline != vk.NullPipeline {
			vk.DestroyPipeline(e.Device.VKDevice, e.trianglePipeline, nil)
			e.trianglePipeline = vk.NullPipeline
		}
		if e.triangleLayout != nil {
			e.triangleLayout.Destroy()
			e.triangleLayout = nil
		}
		if e.pipelineCache != nil {
			e.pipelineCache.Destroy(e.Device)
			e.pipelineCache = nil
		}

		if e.drawImageLayout != nil {
			e.drawImageLayout.Destroy()
			e.drawImageLayout = nil
		}
		if e.globalDescriptors.VKDescriptorPool != vk.NullDescriptorPool {
			e.globalDescriptors.DestroyPool()
			e.globalDescriptors.VKDescriptorPool = vk.NullDescriptorPool
		}

		e.mainDeletionQueue.Flush()

		if e.stagingPool != nil {
			e.stagingPool.Destroy()
			e.stagingPool = nil
		}
		if e.Swapchain != nil {
			e.Swapchain.Destroy()
		}

		e.Device.Destroy()
	}

	if e.Instance != nil {
		e.Instance.DestroyDebugCallback()
		if e.Surface != vk.NullSurface {
			vk.DestroySurface(e.Instance.VKInstance, e.Surface, nil)
			e.Surface = vk.NullSurface
		}
		e.Instance.Destroy()
	}

	atomic.StoreInt32(&engineLive, 0)
}
