package display

import (
	"fmt"

	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
)

// OutputInfo is what a backend reports for one connector
type OutputInfo struct {
	Name      string
	Make      string
	Model     string
	Serial    string
	Enabled   bool
	X         int32
	Y         int32
	Mode      gpu.ModeInfo
	Modes     []gpu.ModeInfo
	Scale     float64
	Transform gpu.Transform
}

// Spec returns the identity of the monitor plugged into this output
func (o OutputInfo) Spec() MonitorSpec {
	return MonitorSpec{
		Connector: o.Name,
		Vendor:    o.Make,
		Product:   o.Model,
		Serial:    o.Serial,
	}
}

// Backend interface for different output detection methods
type Backend interface {
	Name() string
	GetOutputs() ([]OutputInfo, error)
	Close() error
}

// NewBackend creates the backend called name. "auto" tries the native
// detection methods in order of preference and falls back to the static
// outputs.
func NewBackend(name string, static []OutputInfo) (Backend, error) {
	switch name {
	case "static":
		return NewStaticBackend(static), nil
	case "wlr-randr":
		return newWlrRandrBackend()
	case "hyprland", "sway":
		return newCompositorBackend(name)
	case "", "auto":
	default:
		return nil, fmt.Errorf("unknown monitor backend %q", name)
	}

	backends := []func() (Backend, error){
		func() (Backend, error) { return newCompositorBackend("") }, // Compositor IPC (hyprctl, swaymsg)
		newWlrRandrBackend, // wlr-randr command
	}
	for _, create := range backends {
		backend, err := create()
		if err == nil {
			logger.Debugf("NewBackend: using %s", backend.Name())
			return backend, nil
		}
		logger.Debugf("NewBackend: backend failed: %v", err)
	}

	if len(static) == 0 {
		return nil, fmt.Errorf("no monitor backend available")
	}
	logger.Debug("NewBackend: falling back to static outputs")
	return NewStaticBackend(static), nil
}

// StaticBackend serves a fixed set of outputs. SetOutputs replaces the set,
// which is how hot-plug is simulated.
type StaticBackend struct {
	outputs []OutputInfo
}

func NewStaticBackend(outputs []OutputInfo) *StaticBackend {
	b := &StaticBackend{}
	b.SetOutputs(outputs)
	return b
}

func (s *StaticBackend) Name() string {
	return "static"
}

// SetOutputs replaces the reported outputs
func (s *StaticBackend) SetOutputs(outputs []OutputInfo) {
	s.outputs = make([]OutputInfo, len(outputs))
	copy(s.outputs, outputs)
}

func (s *StaticBackend) GetOutputs() ([]OutputInfo, error) {
	out := make([]OutputInfo, len(s.outputs))
	copy(out, s.outputs)
	return out, nil
}

func (s *StaticBackend) Close() error {
	return nil
}
