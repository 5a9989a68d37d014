package display

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bnema/wayout/internal/gpu"
)

// compositorBackend asks the running compositor over its IPC
type compositorBackend struct {
	compositor string
}

func newCompositorBackend(compositor string) (Backend, error) {
	if compositor == "" {
		compositor = detectCompositor()
	}
	switch compositor {
	case "hyprland", "sway":
	case "":
		return nil, fmt.Errorf("unable to detect Wayland compositor")
	default:
		return nil, fmt.Errorf("unsupported compositor: %s", compositor)
	}

	return &compositorBackend{compositor: compositor}, nil
}

func detectCompositor() string {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return "hyprland"
	}
	if os.Getenv("SWAYSOCK") != "" {
		return "sway"
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("XDG_CURRENT_DESKTOP"))) {
	case "hyprland":
		return "hyprland"
	case "sway":
		return "sway"
	}
	return ""
}

func (c *compositorBackend) Name() string {
	return c.compositor
}

func (c *compositorBackend) GetOutputs() ([]OutputInfo, error) {
	switch c.compositor {
	case "hyprland":
		output, err := runFirst([]string{"hyprctl", "/usr/bin/hyprctl", "/usr/local/bin/hyprctl"}, "monitors", "all", "-j")
		if err != nil {
			return nil, fmt.Errorf("failed to run hyprctl: %w", err)
		}
		return parseHyprlandMonitors(output)
	case "sway":
		output, err := exec.Command("swaymsg", "-t", "get_outputs", "-r").Output()
		if err != nil {
			return nil, fmt.Errorf("failed to run swaymsg: %w", err)
		}
		return parseSwayOutputs(output)
	default:
		return nil, fmt.Errorf("unsupported compositor: %s", c.compositor)
	}
}

func (c *compositorBackend) Close() error {
	return nil
}

// runFirst tries each binary path until one succeeds
func runFirst(paths []string, args ...string) ([]byte, error) {
	var err error
	for _, path := range paths {
		var output []byte
		output, err = exec.Command(path, args...).Output()
		if err == nil {
			return output, nil
		}
	}
	return nil, err
}

type hyprlandMonitor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Serial      string  `json:"serial"`
	Width       int32   `json:"width"`
	Height      int32   `json:"height"`
	RefreshRate float64 `json:"refreshRate"`
	X           int32   `json:"x"`
	Y           int32   `json:"y"`
	Scale       float64 `json:"scale"`
	Transform   int     `json:"transform"`
	Disabled    bool    `json:"disabled"`
}

// parseHyprlandMonitors converts `hyprctl monitors all -j` output. Hyprland
// reports transforms with the wl_output numbering, which Transform follows.
func parseHyprlandMonitors(data []byte) ([]OutputInfo, error) {
	var raw []hyprlandMonitor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}

	outputs := make([]OutputInfo, 0, len(raw))
	for _, hm := range raw {
		mode := gpu.ModeInfo{Width: hm.Width, Height: hm.Height, RefreshRate: hm.RefreshRate}
		scale := hm.Scale
		if scale == 0 {
			scale = 1.0
		}
		outputs = append(outputs, OutputInfo{
			Name:      hm.Name,
			Make:      hm.Make,
			Model:     hm.Model,
			Serial:    hm.Serial,
			Enabled:   !hm.Disabled && hm.Width > 0 && hm.Height > 0,
			X:         hm.X,
			Y:         hm.Y,
			Mode:      mode,
			Modes:     []gpu.ModeInfo{mode},
			Scale:     scale,
			Transform: gpu.Transform(hm.Transform & 7),
		})
	}
	return outputs, nil
}

type swayMode struct {
	Width   int32 `json:"width"`
	Height  int32 `json:"height"`
	Refresh int   `json:"refresh"` // mHz
}

type swayOutput struct {
	Name        string     `json:"name"`
	Make        string     `json:"make"`
	Model       string     `json:"model"`
	Serial      string     `json:"serial"`
	Active      bool       `json:"active"`
	Scale       float64    `json:"scale"`
	Transform   string     `json:"transform"`
	Modes       []swayMode `json:"modes"`
	CurrentMode swayMode   `json:"current_mode"`
	Rect        struct {
		X int32 `json:"x"`
		Y int32 `json:"y"`
	} `json:"rect"`
}

// parseSwayOutputs converts `swaymsg -t get_outputs -r` output
func parseSwayOutputs(data []byte) ([]OutputInfo, error) {
	var raw []swayOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sway output: %w", err)
	}

	outputs := make([]OutputInfo, 0, len(raw))
	for _, so := range raw {
		transform, err := gpu.ParseTransform(so.Transform)
		if err != nil {
			transform = gpu.TransformNormal
		}
		scale := so.Scale
		if scale <= 0 {
			scale = 1.0
		}
		info := OutputInfo{
			Name:      so.Name,
			Make:      so.Make,
			Model:     so.Model,
			Serial:    so.Serial,
			Enabled:   so.Active && so.CurrentMode.Width > 0,
			X:         so.Rect.X,
			Y:         so.Rect.Y,
			Mode:      swayModeInfo(so.CurrentMode),
			Scale:     scale,
			Transform: transform,
		}
		for _, m := range so.Modes {
			info.Modes = append(info.Modes, swayModeInfo(m))
		}
		outputs = append(outputs, info)
	}
	return outputs, nil
}

func swayModeInfo(m swayMode) gpu.ModeInfo {
	return gpu.ModeInfo{Width: m.Width, Height: m.Height, RefreshRate: float64(m.Refresh) / 1000}
}
