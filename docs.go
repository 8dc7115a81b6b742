/*
Package hellfire is a small Vulkan rendering engine which owns the full
lifecycle of a hardware accelerated frame: instance and device setup,
swapchain management, per-frame command recording, GPU/CPU synchronization
and a deferred-deletion scheme for GPU resources.

The engine targets Vulkan 1.3 and records frames with dynamic rendering
and the synchronization2 primitives instead of render passes and the
legacy barrier API. Window creation and event polling are left to the
caller (GLFW is used by the bundled examples); shaders are consumed as
precompiled SPIR-V blobs.

A typical application looks like:

	window := createGLFWWindow()
	engine, err := hellfire.NewEngine(window, hellfire.EngineOptions{
		AppName: "demo",
		Debug:   true,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Destroy()
	engine.Run()

Native Vulkan handles are exposed on all wrapper objects with a VK prefix
in the name, so applications are never limited by what this package wraps.
The heart of the package is the Engine frame loop (engine.go); the
supporting objects (Instance, Device, Swapchain, DescriptorAllocator,
PipelineBuilder, DeletionQueue) are usable on their own.
*/
package hellfire
