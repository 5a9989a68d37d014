// Package display handles monitor detection and the monitor to crtc mapping
package display

import (
	"fmt"
	"math"

	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/region"
)

// MonitorSpec identifies a physical monitor across reconfigurations
type MonitorSpec struct {
	Connector string
	Vendor    string
	Product   string
	Serial    string
}

func (s MonitorSpec) String() string {
	if s.Vendor == "" && s.Product == "" {
		return s.Connector
	}
	return fmt.Sprintf("%s (%s %s)", s.Connector, s.Vendor, s.Product)
}

// Monitor represents a physical display. A new Monitor object is built on
// every reload, compare monitors with Spec rather than by pointer.
type Monitor struct {
	Spec        MonitorSpec
	Name        string
	Modes       []*gpu.CrtcMode
	CurrentMode *gpu.CrtcMode
	Crtc        *gpu.Crtc
	Logical     *LogicalMonitor
	Primary     bool
}

// ID returns the connector name
func (m *Monitor) ID() string {
	return m.Spec.Connector
}

// IsActive reports whether the monitor is assigned to a logical monitor and
// driven by a configured crtc
func (m *Monitor) IsActive() bool {
	return m.Logical != nil && m.Crtc != nil && m.Crtc.IsConfigured() && m.CurrentMode != nil
}

// Bounds returns the monitor's boundaries in global coordinates
func (m *Monitor) Bounds() (x1, y1, x2, y2 int32) {
	if m.Logical == nil {
		return 0, 0, 0, 0
	}
	return m.Logical.Layout.Bounds()
}

// Contains checks if a point is within this monitor
func (m *Monitor) Contains(x, y int32) bool {
	return m.Logical != nil && m.Logical.Layout.Contains(x, y)
}

// LogicalMonitor is the compositor's view of an output: where it sits in the
// global coordinate space and how big it is after scaling
type LogicalMonitor struct {
	Number    int
	Layout    region.Rectangle
	Scale     float64
	Transform gpu.Transform
	Primary   bool
	Monitors  []*Monitor
}

// Contains checks if a point is within this logical monitor
func (l *LogicalMonitor) Contains(x, y int32) bool {
	return l.Layout.Contains(x, y)
}

// logicalLayout computes the global rectangle a mode occupies at (x, y)
func logicalLayout(x, y int32, mode gpu.ModeInfo, scale float64, transform gpu.Transform) region.Rectangle {
	if scale <= 0 {
		scale = 1.0
	}
	width, height := mode.Width, mode.Height
	if transform.IsRotated() {
		width, height = height, width
	}
	return region.Rectangle{
		X:      x,
		Y:      y,
		Width:  int32(math.Round(float64(width) / scale)),
		Height: int32(math.Round(float64(height) / scale)),
	}
}

// determinePrimaryMonitor sets the primary logical monitor based on position
// The logical monitor at position (0,0) is considered primary, with fallback to the first one
func determinePrimaryMonitor(logical []*LogicalMonitor) {
	// Reset all monitors to non-primary
	for _, lm := range logical {
		lm.Primary = false
		for _, m := range lm.Monitors {
			m.Primary = false
		}
	}

	var primary *LogicalMonitor
	for _, lm := range logical {
		if lm.Layout.X == 0 && lm.Layout.Y == 0 {
			primary = lm
			break
		}
	}

	// Fallback to first monitor if no monitor is at (0,0)
	if primary == nil && len(logical) > 0 {
		primary = logical[0]
	}
	if primary == nil {
		return
	}
	primary.Primary = true
	for _, m := range primary.Monitors {
		m.Primary = true
	}
}
