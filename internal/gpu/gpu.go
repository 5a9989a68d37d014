package gpu

import (
	"fmt"

	"github.com/bnema/wayout/internal/logger"
)

// GPU owns the crtcs and modes of one device
type GPU struct {
	name  string
	kind  Kind
	crtcs []*Crtc
	modes []*CrtcMode

	nextCrtcID uint64
	nextModeID uint64
	closed     bool
}

// NewGPU creates an empty device
func NewGPU(name string, kind Kind) *GPU {
	return &GPU{
		name:       name,
		kind:       kind,
		nextCrtcID: 1,
		nextModeID: 1,
	}
}

func (g *GPU) Name() string {
	return g.name
}

func (g *GPU) Kind() Kind {
	return g.kind
}

// AddCrtc creates a disabled crtc owned by this gpu
func (g *GPU) AddCrtc(opts ...CrtcOption) *Crtc {
	c := &Crtc{
		id:   g.nextCrtcID,
		kind: g.kind,
		gpu:  g,
	}
	g.nextCrtcID++
	for _, opt := range opts {
		opt(c)
	}
	g.crtcs = append(g.crtcs, c)
	logger.Debugf("gpu %s: added crtc %d", g.name, c.id)
	return c
}

// AddMode registers a mode. A mode with identical info is returned instead of
// creating a duplicate.
func (g *GPU) AddMode(info ModeInfo, opts ...ModeOption) *CrtcMode {
	if m := g.FindMode(info); m != nil {
		return m
	}
	m := &CrtcMode{
		ID:   g.nextModeID,
		Name: info.String(),
		Info: info,
	}
	g.nextModeID++
	for _, opt := range opts {
		opt(m)
	}
	g.modes = append(g.modes, m)
	return m
}

// FindMode returns the mode matching info, or nil
func (g *GPU) FindMode(info ModeInfo) *CrtcMode {
	for _, m := range g.modes {
		if m.Info.Matches(info) {
			return m
		}
	}
	return nil
}

// Crtcs returns the crtcs that have not been removed
func (g *GPU) Crtcs() []*Crtc {
	out := make([]*Crtc, len(g.crtcs))
	copy(out, g.crtcs)
	return out
}

func (g *GPU) Modes() []*CrtcMode {
	out := make([]*CrtcMode, len(g.modes))
	copy(out, g.modes)
	return out
}

// RemoveCrtc finalizes a crtc and forgets it
func (g *GPU) RemoveCrtc(c *Crtc) error {
	for i, cc := range g.crtcs {
		if cc == c {
			c.Finalize()
			g.crtcs = append(g.crtcs[:i], g.crtcs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("crtc %d not owned by gpu %s", c.id, g.name)
}

// Close finalizes every crtc, then every mode
func (g *GPU) Close() {
	if g.closed {
		return
	}
	g.closed = true
	for _, c := range g.crtcs {
		c.Finalize()
	}
	for _, m := range g.modes {
		m.Finalize()
	}
	g.crtcs = nil
	g.modes = nil
}
