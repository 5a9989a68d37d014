package gpu

import "fmt"

// ModeInfo describes a video mode
type ModeInfo struct {
	Width       int32
	Height      int32
	RefreshRate float64
	Preferred   bool
}

func (m ModeInfo) String() string {
	return fmt.Sprintf("%dx%d@%.3f", m.Width, m.Height, m.RefreshRate)
}

// Matches compares the geometry and refresh rate, ignoring preference
func (m ModeInfo) Matches(o ModeInfo) bool {
	return m.Width == o.Width && m.Height == o.Height && m.RefreshRate == o.RefreshRate
}

// CrtcMode is a mode owned by a GPU and referenced by crtc configs
type CrtcMode struct {
	ID            uint64
	Name          string
	Info          ModeInfo
	DriverPrivate any

	driverNotify func(*CrtcMode)
	finalized    bool
}

// ModeOption configures a mode at creation
type ModeOption func(*CrtcMode)

// WithModeNotify registers a driver teardown callback run once by Finalize
func WithModeNotify(notify func(*CrtcMode)) ModeOption {
	return func(m *CrtcMode) {
		m.driverNotify = notify
	}
}

// WithModeDriverPrivate attaches backend specific data
func WithModeDriverPrivate(data any) ModeOption {
	return func(m *CrtcMode) {
		m.DriverPrivate = data
	}
}

// Finalize runs the driver notify callback once
func (m *CrtcMode) Finalize() {
	if m.finalized {
		return
	}
	m.finalized = true
	if m.driverNotify != nil {
		m.driverNotify(m)
	}
}
