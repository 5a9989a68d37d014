package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bnema/wayout/internal/region"
)

var ErrFramebufferReleased = errors.New("framebuffer has been released")

// Framebuffer is the presentation target of a view. Coordinates are device
// pixels of the output, before any scanout transform.
type Framebuffer interface {
	Width() int32
	Height() int32
	// BufferAge follows EGL_EXT_buffer_age: 0 when the back buffer content
	// is undefined, otherwise how many swaps ago it was last presented.
	BufferAge() int
	// ReadPixels returns RGBA bytes of the last presented buffer
	ReadPixels(rect region.Rectangle) ([]byte, error)
	SwapBuffersWithDamage(damage region.Region) error
	Release()
}

// FramebufferAllocator creates the framebuffer of a new view
type FramebufferAllocator func(width, height int32) (Framebuffer, error)

// NewMemoryAllocator returns an allocator of in-memory swap chains
func NewMemoryAllocator(swapChainLength int) FramebufferAllocator {
	return func(width, height int32) (Framebuffer, error) {
		return NewMemoryFramebuffer(width, height, swapChainLength)
	}
}

type memoryBuffer struct {
	img         *image.RGBA
	presentedAt uint64
	valid       bool
}

// MemoryFramebuffer is a swap chain of RGBA images. Painting goes to
// BackBuffer; ReadPixels reads the front buffer.
type MemoryFramebuffer struct {
	width   int32
	height  int32
	buffers []*memoryBuffer
	back    int
	front   int
	frame   uint64

	lastDamage region.Region
	released   bool
}

// NewMemoryFramebuffer allocates length buffers of width x height
func NewMemoryFramebuffer(width, height int32, length int) (*MemoryFramebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	if length < 1 {
		return nil, fmt.Errorf("swap chain needs at least one buffer, got %d", length)
	}
	fb := &MemoryFramebuffer{
		width:  width,
		height: height,
		front:  -1,
	}
	for i := 0; i < length; i++ {
		fb.buffers = append(fb.buffers, &memoryBuffer{
			img: image.NewRGBA(image.Rect(0, 0, int(width), int(height))),
		})
	}
	return fb, nil
}

func (fb *MemoryFramebuffer) Width() int32 {
	return fb.width
}

func (fb *MemoryFramebuffer) Height() int32 {
	return fb.height
}

func (fb *MemoryFramebuffer) BufferAge() int {
	if fb.released {
		return 0
	}
	b := fb.buffers[fb.back]
	if !b.valid {
		return 0
	}
	return int(fb.frame - b.presentedAt + 1)
}

// BackBuffer returns the image the next frame is painted into. With a single
// buffer this is also the front buffer, painted in place.
func (fb *MemoryFramebuffer) BackBuffer() *image.RGBA {
	if fb.released {
		return nil
	}
	return fb.buffers[fb.back].img
}

// Fill paints every rectangle of clip with c in the back buffer
func (fb *MemoryFramebuffer) Fill(clip region.Region, c color.Color) {
	if fb.released {
		return
	}
	src := image.NewUniform(c)
	for _, r := range clip.Rectangles() {
		draw.Draw(fb.BackBuffer(), toImageRect(r), src, image.Point{}, draw.Src)
	}
}

// CopyFrom copies clip from src, which must share the framebuffer's coordinates
func (fb *MemoryFramebuffer) CopyFrom(src image.Image, clip region.Region) {
	if fb.released {
		return
	}
	for _, r := range clip.Rectangles() {
		ir := toImageRect(r)
		draw.Draw(fb.BackBuffer(), ir, src, ir.Min, draw.Src)
	}
}

func (fb *MemoryFramebuffer) SwapBuffersWithDamage(damage region.Region) error {
	if fb.released {
		return ErrFramebufferReleased
	}
	fb.frame++
	b := fb.buffers[fb.back]
	b.presentedAt = fb.frame
	b.valid = true
	fb.front = fb.back
	fb.back = (fb.back + 1) % len(fb.buffers)
	fb.lastDamage = damage.Copy()
	return nil
}

// FrontBuffer returns the last presented image, or nil before the first swap
func (fb *MemoryFramebuffer) FrontBuffer() *image.RGBA {
	if fb.front < 0 {
		return nil
	}
	return fb.buffers[fb.front].img
}

// LastDamage returns the damage passed to the last swap
func (fb *MemoryFramebuffer) LastDamage() region.Region {
	return fb.lastDamage.Copy()
}

// Frames returns the number of swaps so far
func (fb *MemoryFramebuffer) Frames() uint64 {
	return fb.frame
}

func (fb *MemoryFramebuffer) ReadPixels(rect region.Rectangle) ([]byte, error) {
	if fb.released {
		return nil, ErrFramebufferReleased
	}
	bounds := region.Rect(0, 0, fb.width, fb.height)
	if rect.Empty() || rect.Intersect(bounds) != rect {
		return nil, fmt.Errorf("read %v outside framebuffer %dx%d", rect, fb.width, fb.height)
	}
	front := fb.FrontBuffer()
	if front == nil {
		return nil, fmt.Errorf("nothing presented yet")
	}

	out := make([]byte, 0, int(rect.Width)*int(rect.Height)*4)
	for y := rect.Y; y < rect.Y+rect.Height; y++ {
		start := front.PixOffset(int(rect.X), int(y))
		out = append(out, front.Pix[start:start+int(rect.Width)*4]...)
	}
	return out, nil
}

func (fb *MemoryFramebuffer) Release() {
	fb.released = true
	fb.buffers = nil
	fb.back = 0
	fb.front = -1
}

func toImageRect(r region.Rectangle) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}
