// Package gpu models the display controllers of a GPU: crtcs, the modes they
// can drive and the configuration currently programmed on each crtc.
package gpu

import (
	"errors"
	"fmt"

	"github.com/bnema/wayout/internal/region"
)

var ErrCrtcFinalized = errors.New("crtc has been finalized")

// Kind identifies the backend flavour a crtc or gpu belongs to
type Kind int

const (
	KindKMS Kind = iota
	KindX11
	KindVirtual
)

func (k Kind) String() string {
	switch k {
	case KindKMS:
		return "kms"
	case KindX11:
		return "x11"
	case KindVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// CrtcConfig is the configuration programmed on a crtc. Mode is borrowed
// from the owning GPU.
type CrtcConfig struct {
	Layout    region.RectF
	Mode      *CrtcMode
	Transform Transform
}

// Crtc is a display controller. It holds at most one CrtcConfig; no config
// means the crtc is disabled.
type Crtc struct {
	id     uint64
	kind   Kind
	gpu    *GPU
	config *CrtcConfig

	driverPrivate any
	driverNotify  func(*Crtc)
	finalized     bool
}

// CrtcOption configures a crtc at creation
type CrtcOption func(*Crtc)

// WithCrtcNotify registers a driver teardown callback run once by Finalize
func WithCrtcNotify(notify func(*Crtc)) CrtcOption {
	return func(c *Crtc) {
		c.driverNotify = notify
	}
}

// WithCrtcDriverPrivate attaches backend specific data
func WithCrtcDriverPrivate(data any) CrtcOption {
	return func(c *Crtc) {
		c.driverPrivate = data
	}
}

func (c *Crtc) ID() uint64 {
	return c.id
}

func (c *Crtc) Kind() Kind {
	return c.kind
}

// GPU returns the owning gpu
func (c *Crtc) GPU() *GPU {
	return c.gpu
}

func (c *Crtc) DriverPrivate() any {
	return c.driverPrivate
}

// SetConfig replaces the current configuration. The old config is dropped
// before the new one is installed.
func (c *Crtc) SetConfig(layout region.RectF, mode *CrtcMode, transform Transform) error {
	if c.finalized {
		return fmt.Errorf("set config on crtc %d: %w", c.id, ErrCrtcFinalized)
	}
	if mode == nil {
		return fmt.Errorf("set config on crtc %d: mode is required", c.id)
	}

	c.UnsetConfig()
	c.config = &CrtcConfig{
		Layout:    layout,
		Mode:      mode,
		Transform: transform,
	}
	return nil
}

// UnsetConfig disables the crtc; calling it on a disabled crtc does nothing
func (c *Crtc) UnsetConfig() {
	c.config = nil
}

// Config returns a copy of the current configuration
func (c *Crtc) Config() (CrtcConfig, bool) {
	if c.config == nil {
		return CrtcConfig{}, false
	}
	return *c.config, true
}

func (c *Crtc) IsConfigured() bool {
	return c.config != nil
}

// Finalize runs the driver notify callback, exactly once, then drops the config
func (c *Crtc) Finalize() {
	if c.finalized {
		return
	}
	c.finalized = true

	if c.driverNotify != nil {
		c.driverNotify(c)
	}
	c.UnsetConfig()
}

func (c *Crtc) IsFinalized() bool {
	return c.finalized
}

func (c *Crtc) String() string {
	if c.config == nil {
		return fmt.Sprintf("crtc %d (%s): disabled", c.id, c.kind)
	}
	return fmt.Sprintf("crtc %d (%s): %s at %.0f,%.0f %s", c.id, c.kind,
		c.config.Mode.Name, c.config.Layout.X, c.config.Layout.Y, c.config.Transform)
}
