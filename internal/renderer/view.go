package renderer

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/wayout/internal/damage"
	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/region"
)

// PaintFunc paints clip, in framebuffer coordinates, into the view's back buffer
type PaintFunc func(v *View, clip region.Region) error

// FrameResult describes what a Paint call did
type FrameResult struct {
	View       string
	Skipped    bool
	FullRedraw bool
	BufferAge  int
	// Damage is what changed this frame, Redraw what was actually painted
	Damage region.Region
	Redraw region.Region
}

// View presents one crtc. It owns the crtc's framebuffer and damage history.
type View struct {
	name      string
	crtc      *gpu.Crtc
	layout    region.Rectangle
	scale     float64
	transform gpu.Transform
	fb        Framebuffer
	history   *damage.History
	opts      Options
	log       *log.Logger

	pendingClip region.Region
	redrawAll   bool
	destroyed   bool
}

func newView(name string, crtc *gpu.Crtc, layout region.Rectangle, scale float64, fb Framebuffer, opts Options) *View {
	cfg, _ := crtc.Config()
	v := &View{
		name:      name,
		crtc:      crtc,
		layout:    layout,
		scale:     scale,
		transform: cfg.Transform,
		fb:        fb,
		history:   damage.NewHistory(),
		opts:      opts,
		log:       logger.WithPrefix("renderer"),
		redrawAll: true,
	}
	return v
}

func (v *View) Name() string {
	return v.name
}

func (v *View) Crtc() *gpu.Crtc {
	return v.crtc
}

// Layout returns the view's rectangle in global logical coordinates
func (v *View) Layout() region.Rectangle {
	return v.layout
}

func (v *View) Scale() float64 {
	return v.scale
}

func (v *View) Transform() gpu.Transform {
	return v.transform
}

func (v *View) Framebuffer() Framebuffer {
	return v.fb
}

// History exposes the damage history, mainly for inspection
func (v *View) History() *damage.History {
	return v.history
}

// AddRedrawClip queues a view-local logical rectangle for repaint. A nil
// rectangle queues the whole view.
func (v *View) AddRedrawClip(clip *region.Rectangle) {
	if clip == nil {
		v.redrawAll = true
		return
	}
	local := clip.Intersect(region.Rect(0, 0, v.layout.Width, v.layout.Height))
	if local.Empty() {
		return
	}
	v.pendingClip = v.pendingClip.UnionRect(local)
}

// HasRedrawClip reports whether the next Paint has anything to do
func (v *View) HasRedrawClip() bool {
	return v.redrawAll || !v.pendingClip.IsEmpty()
}

// InvalidateHistory forgets all recorded damage; the next frame is a full redraw
func (v *View) InvalidateHistory() {
	v.history.Destroy()
	v.redrawAll = true
}

// LogicalToFramebuffer maps a view-local logical rectangle to framebuffer
// pixels: scale first, then the scanout transform.
func (v *View) LogicalToFramebuffer(r region.Rectangle) region.Rectangle {
	scaled := region.RectF{
		X:      float64(r.X) * v.scale,
		Y:      float64(r.Y) * v.scale,
		Width:  float64(r.Width) * v.scale,
		Height: float64(r.Height) * v.scale,
	}.Round()

	fw, fh := v.fb.Width(), v.fb.Height()
	out := transformRect(scaled, v.transform, fw, fh)
	return out.Intersect(region.Rect(0, 0, fw, fh))
}

// transformRect maps a rectangle from the untransformed view space into the
// framebuffer. fw and fh are the framebuffer size; the view space is the same
// size with width and height swapped for rotated transforms.
func transformRect(r region.Rectangle, t gpu.Transform, fw, fh int32) region.Rectangle {
	vw, vh := fw, fh
	if t.IsRotated() {
		vw, vh = fh, fw
	}
	x, y, w, h := r.X, r.Y, r.Width, r.Height

	switch t {
	case gpu.Transform90:
		return region.Rect(y, vw-x-w, h, w)
	case gpu.Transform180:
		return region.Rect(vw-x-w, vh-y-h, w, h)
	case gpu.Transform270:
		return region.Rect(vh-y-h, x, h, w)
	case gpu.TransformFlipped:
		return region.Rect(vw-x-w, y, w, h)
	case gpu.TransformFlipped90:
		return region.Rect(y, x, h, w)
	case gpu.TransformFlipped180:
		return region.Rect(x, vh-y-h, w, h)
	case gpu.TransformFlipped270:
		return region.Rect(vh-y-h, vw-x-w, h, w)
	default:
		return r
	}
}

func (v *View) framebufferRect() region.Rectangle {
	return region.Rect(0, 0, v.fb.Width(), v.fb.Height())
}

// Paint runs one frame: it turns the pending clip into framebuffer damage,
// widens it with the damage history when the back buffer is stale, paints,
// presents, and advances the history.
func (v *View) Paint(paint PaintFunc) (FrameResult, error) {
	result := FrameResult{View: v.name}
	if v.destroyed {
		return result, fmt.Errorf("paint view %s: view destroyed", v.name)
	}
	if !v.HasRedrawClip() {
		result.Skipped = true
		return result, nil
	}

	fbRect := v.framebufferRect()
	full := v.redrawAll || v.opts.ForceFullRepaint

	var clip region.Region
	if !full {
		for _, r := range v.pendingClip.Rectangles() {
			clip = clip.UnionRect(v.LogicalToFramebuffer(r))
		}
		full = clip.ContainsRect(fbRect)
	}
	if full {
		clip = region.NewRegion(fbRect)
	}

	age := v.fb.BufferAge()
	result.BufferAge = age
	redraw := clip

	if !full {
		var old region.Region
		ok := !v.opts.DisableDamageHistory && v.history.IsAgeValid(age)
		if ok {
			// a frame stepped without damage leaves a hole the age check misses
			old, ok = v.history.Accumulate(age)
		}
		if ok {
			redraw = clip.Union(old).IntersectRect(fbRect)
		} else {
			v.log.Debugf("%s: buffer age %d not usable, repainting everything", v.name, age)
			redraw = region.NewRegion(fbRect)
		}
	}

	if err := paint(v, redraw); err != nil {
		return result, fmt.Errorf("paint view %s: %w", v.name, err)
	}

	v.history.Record(clip)
	if err := v.fb.SwapBuffersWithDamage(clip); err != nil {
		return result, fmt.Errorf("swap buffers of view %s: %w", v.name, err)
	}
	v.history.Step()

	v.pendingClip = region.Region{}
	v.redrawAll = false

	result.FullRedraw = redraw.ContainsRect(fbRect)
	result.Damage = clip
	result.Redraw = redraw
	return result, nil
}

// Destroy releases the framebuffer and the damage history
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.history.Destroy()
	if v.fb != nil {
		v.fb.Release()
	}
}
