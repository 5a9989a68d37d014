package display

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/region"
)

// Subscription identifies a monitors-changed listener
type Subscription uint64

// MonitorManager owns the authoritative monitor layout. It maps backend
// outputs onto crtcs of a GPU and notifies listeners, synchronously, every
// time the layout is rebuilt.
type MonitorManager struct {
	backend Backend
	gpu     *gpu.GPU
	log     *log.Logger

	crtcs    map[string]*gpu.Crtc
	monitors []*Monitor
	logical  []*LogicalMonitor

	listeners     map[Subscription]func()
	listenerOrder []Subscription
	nextListener  Subscription
	serial        uint64
}

// NewMonitorManager creates a manager; call Reload to populate it
func NewMonitorManager(backend Backend, device *gpu.GPU) *MonitorManager {
	return &MonitorManager{
		backend:      backend,
		gpu:          device,
		log:          logger.WithPrefix("monitors"),
		crtcs:        make(map[string]*gpu.Crtc),
		listeners:    make(map[Subscription]func()),
		nextListener: 1,
	}
}

// GPU returns the device whose crtcs drive the monitors
func (mm *MonitorManager) GPU() *gpu.GPU {
	return mm.gpu
}

// Backend returns the output source
func (mm *MonitorManager) Backend() Backend {
	return mm.backend
}

// Serial increases on every successful reload
func (mm *MonitorManager) Serial() uint64 {
	return mm.serial
}

// Reload queries the backend, reprograms the crtcs and rebuilds the monitor
// and logical monitor lists, then emits monitors-changed
func (mm *MonitorManager) Reload() error {
	outputs, err := mm.backend.GetOutputs()
	if err != nil {
		return fmt.Errorf("failed to query outputs from %s: %w", mm.backend.Name(), err)
	}

	var monitors []*Monitor
	var logical []*LogicalMonitor
	seen := make(map[string]bool, len(outputs))

	for _, out := range outputs {
		if seen[out.Name] {
			mm.log.Warnf("Duplicate output %s reported, ignoring", out.Name)
			continue
		}
		seen[out.Name] = true

		crtc := mm.crtcFor(out.Name)
		mon := &Monitor{
			Spec: out.Spec(),
			Name: out.Name,
			Crtc: crtc,
		}
		for _, info := range out.Modes {
			mon.Modes = append(mon.Modes, mm.gpu.AddMode(info))
		}
		monitors = append(monitors, mon)

		if !out.Enabled {
			crtc.UnsetConfig()
			continue
		}

		mode := mm.gpu.AddMode(out.Mode)
		layout := logicalLayout(out.X, out.Y, out.Mode, out.Scale, out.Transform)
		layoutF := region.RectF{
			X:      float64(layout.X),
			Y:      float64(layout.Y),
			Width:  float64(layout.Width),
			Height: float64(layout.Height),
		}
		if err := crtc.SetConfig(layoutF, mode, out.Transform); err != nil {
			return fmt.Errorf("failed to configure %s: %w", out.Name, err)
		}
		mon.CurrentMode = mode

		// Outputs sharing a layout mirror each other
		lm := findLogicalMonitor(logical, layout)
		if lm == nil {
			lm = &LogicalMonitor{
				Number:    len(logical),
				Layout:    layout,
				Scale:     out.Scale,
				Transform: out.Transform,
			}
			if lm.Scale <= 0 {
				lm.Scale = 1.0
			}
			logical = append(logical, lm)
		}
		lm.Monitors = append(lm.Monitors, mon)
		mon.Logical = lm
	}

	// Connectors that disappeared release their crtc
	for name, crtc := range mm.crtcs {
		if seen[name] {
			continue
		}
		if err := mm.gpu.RemoveCrtc(crtc); err != nil {
			mm.log.Warnf("Failed to remove crtc for %s: %v", name, err)
		}
		delete(mm.crtcs, name)
	}

	determinePrimaryMonitor(logical)

	mm.monitors = monitors
	mm.logical = logical
	mm.serial++
	mm.log.Debugf("Reloaded %d monitor(s), %d logical monitor(s)", len(monitors), len(logical))

	mm.emitMonitorsChanged()
	return nil
}

func (mm *MonitorManager) crtcFor(connector string) *gpu.Crtc {
	if crtc, ok := mm.crtcs[connector]; ok {
		return crtc
	}
	crtc := mm.gpu.AddCrtc(
		gpu.WithCrtcDriverPrivate(connector),
		gpu.WithCrtcNotify(func(c *gpu.Crtc) {
			mm.log.Debugf("Releasing crtc %d (%s)", c.ID(), connector)
		}),
	)
	mm.crtcs[connector] = crtc
	return crtc
}

func findLogicalMonitor(logical []*LogicalMonitor, layout region.Rectangle) *LogicalMonitor {
	for _, lm := range logical {
		if lm.Layout == layout {
			return lm
		}
	}
	return nil
}

// Subscribe registers a monitors-changed listener
func (mm *MonitorManager) Subscribe(fn func()) Subscription {
	id := mm.nextListener
	mm.nextListener++
	mm.listeners[id] = fn
	mm.listenerOrder = append(mm.listenerOrder, id)
	return id
}

// Unsubscribe removes a listener; unknown ids are ignored. It is safe to call
// from inside a monitors-changed callback.
func (mm *MonitorManager) Unsubscribe(id Subscription) {
	if _, ok := mm.listeners[id]; !ok {
		return
	}
	delete(mm.listeners, id)
	for i, l := range mm.listenerOrder {
		if l == id {
			mm.listenerOrder = append(mm.listenerOrder[:i], mm.listenerOrder[i+1:]...)
			break
		}
	}
}

func (mm *MonitorManager) emitMonitorsChanged() {
	order := make([]Subscription, len(mm.listenerOrder))
	copy(order, mm.listenerOrder)
	for _, id := range order {
		// A listener may have been removed by an earlier one
		if fn, ok := mm.listeners[id]; ok {
			fn()
		}
	}
}

// Monitors returns all known monitors, active or not
func (mm *MonitorManager) Monitors() []*Monitor {
	out := make([]*Monitor, len(mm.monitors))
	copy(out, mm.monitors)
	return out
}

func (mm *MonitorManager) LogicalMonitors() []*LogicalMonitor {
	out := make([]*LogicalMonitor, len(mm.logical))
	copy(out, mm.logical)
	return out
}

// PrimaryLogicalMonitor returns the primary logical monitor, or nil without outputs
func (mm *MonitorManager) PrimaryLogicalMonitor() *LogicalMonitor {
	for _, lm := range mm.logical {
		if lm.Primary {
			return lm
		}
	}
	return nil
}

// FindMonitor resolves a monitor by identity
func (mm *MonitorManager) FindMonitor(spec MonitorSpec) *Monitor {
	for _, m := range mm.monitors {
		if m.Spec == spec {
			return m
		}
	}
	return nil
}

// FindMonitorByConnector resolves a monitor by connector name
func (mm *MonitorManager) FindMonitorByConnector(connector string) *Monitor {
	for _, m := range mm.monitors {
		if m.Spec.Connector == connector {
			return m
		}
	}
	return nil
}

// LogicalMonitorAt returns the logical monitor containing the given coordinates
func (mm *MonitorManager) LogicalMonitorAt(x, y int32) *LogicalMonitor {
	for _, lm := range mm.logical {
		if lm.Contains(x, y) {
			return lm
		}
	}
	return nil
}

// LogicalMonitorFor returns the logical monitor a monitor is assigned to
func (mm *MonitorManager) LogicalMonitorFor(m *Monitor) *LogicalMonitor {
	if m == nil {
		return nil
	}
	return m.Logical
}

// Close drops every listener, finalizes the gpu and closes the backend
func (mm *MonitorManager) Close() error {
	mm.listeners = make(map[Subscription]func())
	mm.listenerOrder = nil
	mm.monitors = nil
	mm.logical = nil
	mm.crtcs = make(map[string]*gpu.Crtc)
	mm.gpu.Close()
	if mm.backend != nil {
		return mm.backend.Close()
	}
	return nil
}
