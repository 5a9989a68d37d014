// Package renderer keeps one view per active crtc in sync with the monitor
// layout and drives the damage-aware repaint of each view.
package renderer

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/region"
)

var ErrRendererClosed = errors.New("renderer is closed")

// Options tune the repaint behaviour
type Options struct {
	// ForceFullRepaint disables partial redraws entirely
	ForceFullRepaint bool
	// DisableDamageHistory repaints everything whenever the clip is partial
	// but the back buffer is not the last presented one
	DisableDamageHistory bool
}

// Renderer is the stage: the set of views covering the logical monitors
type Renderer struct {
	manager   *display.MonitorManager
	allocator FramebufferAllocator
	opts      Options
	log       *log.Logger

	views  []*View
	sub    display.Subscription
	closed bool
}

// NewRenderer builds views for the current layout and follows monitors-changed
func NewRenderer(manager *display.MonitorManager, allocator FramebufferAllocator, opts Options) (*Renderer, error) {
	r := &Renderer{
		manager:   manager,
		allocator: allocator,
		opts:      opts,
		log:       logger.WithPrefix("renderer"),
	}
	if err := r.rebuildViews(); err != nil {
		r.destroyViews()
		return nil, err
	}
	r.sub = manager.Subscribe(r.onMonitorsChanged)
	return r, nil
}

func (r *Renderer) onMonitorsChanged() {
	if err := r.rebuildViews(); err != nil {
		r.log.Errorf("Failed to rebuild views: %v", err)
	}
}

// rebuildViews reconciles the views with the active crtcs. A view whose crtc,
// layout, scale, transform and framebuffer size are unchanged keeps its
// framebuffer, damage history and pending clip; anything else gets a fresh
// view.
func (r *Renderer) rebuildViews() error {
	existing := make(map[*gpu.Crtc]*View, len(r.views))
	for _, v := range r.views {
		existing[v.crtc] = v
	}

	var views []*View
	var firstErr error
	for _, lm := range r.manager.LogicalMonitors() {
		for _, mon := range lm.Monitors {
			if !mon.IsActive() {
				continue
			}
			cfg, _ := mon.Crtc.Config()
			width, height := cfg.Mode.Info.Width, cfg.Mode.Info.Height

			if v, ok := existing[mon.Crtc]; ok {
				delete(existing, mon.Crtc)
				if v.layout == lm.Layout && v.scale == lm.Scale && v.transform == cfg.Transform &&
					v.fb.Width() == width && v.fb.Height() == height {
					v.name = mon.Name
					views = append(views, v)
					continue
				}
				r.log.Debugf("View %s changed geometry, recreating", v.name)
				v.Destroy()
			}

			fb, err := r.allocator(width, height)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("allocate framebuffer for %s: %w", mon.Name, err)
				}
				continue
			}
			views = append(views, newView(mon.Name, mon.Crtc, lm.Layout, lm.Scale, fb, r.opts))
			r.log.Debugf("Created view %s %v scale %.2f", mon.Name, lm.Layout, lm.Scale)
		}
	}

	for _, v := range existing {
		r.log.Debugf("Destroying view %s", v.name)
		v.Destroy()
	}
	r.views = views
	return firstErr
}

// Views returns the current views
func (r *Renderer) Views() []*View {
	out := make([]*View, len(r.views))
	copy(out, r.views)
	return out
}

// ViewForLogicalMonitor returns the first view presenting lm
func (r *Renderer) ViewForLogicalMonitor(lm *display.LogicalMonitor) *View {
	if lm == nil {
		return nil
	}
	for _, v := range r.views {
		if v.layout == lm.Layout {
			return v
		}
	}
	return nil
}

// QueueRedraw queues a global logical rectangle on every view it touches.
// A nil rectangle queues everything.
func (r *Renderer) QueueRedraw(clip *region.Rectangle) {
	for _, v := range r.views {
		if clip == nil {
			v.AddRedrawClip(nil)
			continue
		}
		if !clip.Overlaps(v.layout) {
			continue
		}
		local := clip.Translate(-v.layout.X, -v.layout.Y)
		v.AddRedrawClip(&local)
	}
}

// PaintAll paints every view with pending redraws
func (r *Renderer) PaintAll(paint PaintFunc) ([]FrameResult, error) {
	if r.closed {
		return nil, ErrRendererClosed
	}
	results := make([]FrameResult, 0, len(r.views))
	var errs []error
	for _, v := range r.views {
		res, err := v.Paint(paint)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// ReadPixels reads a global logical rectangle from the presented framebuffer
// of the view containing it. Bytes are RGBA in framebuffer orientation.
func (r *Renderer) ReadPixels(rect region.Rectangle) ([]byte, error) {
	if r.closed {
		return nil, ErrRendererClosed
	}
	for _, v := range r.views {
		if rect.Intersect(v.layout) != rect {
			continue
		}
		local := rect.Translate(-v.layout.X, -v.layout.Y)
		return v.fb.ReadPixels(v.LogicalToFramebuffer(local))
	}
	return nil, fmt.Errorf("no view covers %v", rect)
}

func (r *Renderer) destroyViews() {
	for _, v := range r.views {
		v.Destroy()
	}
	r.views = nil
}

// Close stops following the monitor manager and destroys every view
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.manager.Unsubscribe(r.sub)
	r.destroyViews()
}
