package hellfire

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseSurfaceFormatPreferred(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	got := ChooseSurfaceFormat(formats)
	if got.Format != vk.FormatB8g8r8a8Srgb || got.ColorSpace != vk.ColorSpaceSrgbNonlinear {
		t.Errorf("expected BGRA sRGB pair, got %v", got)
	}
}

func TestChooseSurfaceFormatFallback(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR16g16b16a16Sfloat, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	got := ChooseSurfaceFormat(formats)
	if got.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("expected first reported format, got %v", got)
	}
}

func TestChoosePresentMode(t *testing.T) {
	mailbox := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}
	if got := ChoosePresentMode(mailbox); got != vk.PresentModeMailbox {
		t.Errorf("expected mailbox, got %v", got)
	}

	noMailbox := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	if got := ChoosePresentMode(noMailbox); got != vk.PresentModeFifo {
		t.Errorf("expected fifo fallback, got %v", got)
	}

	if got := ChoosePresentMode(nil); got != vk.PresentModeFifo {
		t.Errorf("expected fifo for empty mode list, got %v", got)
	}
}

func TestChooseExtentCurrentDefined(t *testing.T) {
	current := vk.Extent2D{Width: 800, Height: 600}
	got := ChooseExtent(current,
		vk.Extent2D{Width: 1, Height: 1},
		vk.Extent2D{Width: 4096, Height: 4096},
		vk.Extent2D{Width: 1024, Height: 768})

	if got != current {
		t.Errorf("expected surface extent %v, got %v", current, got)
	}
}

func TestChooseExtentSentinelClamps(t *testing.T) {
	sentinel := vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	min := vk.Extent2D{Width: 200, Height: 200}
	max := vk.Extent2D{Width: 1000, Height: 1000}

	cases := []struct {
		framebuffer vk.Extent2D
		want        vk.Extent2D
	}{
		{vk.Extent2D{Width: 500, Height: 500}, vk.Extent2D{Width: 500, Height: 500}},
		{vk.Extent2D{Width: 100, Height: 2000}, vk.Extent2D{Width: 200, Height: 1000}},
		{vk.Extent2D{Width: 5000, Height: 50}, vk.Extent2D{Width: 1000, Height: 200}},
	}

	for _, c := range cases {
		if got := ChooseExtent(sentinel, min, max, c.framebuffer); got != c.want {
			t.Errorf("framebuffer %v: expected %v, got %v", c.framebuffer, c.want, got)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	if got := ChooseImageCount(2, 8); got != 3 {
		t.Errorf("expected min+1 = 3, got %d", got)
	}
	if got := ChooseImageCount(3, 3); got != 3 {
		t.Errorf("expected cap at max 3, got %d", got)
	}
	// Zero max means unbounded.
	if got := ChooseImageCount(4, 0); got != 5 {
		t.Errorf("expected 5 with unbounded max, got %d", got)
	}
}
