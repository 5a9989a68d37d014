package display

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/logger"
)

// wlrRandrBackend uses wlr-randr for output detection
type wlrRandrBackend struct{}

func newWlrRandrBackend() (Backend, error) {
	// Check if wlr-randr is available
	if _, err := exec.LookPath("wlr-randr"); err != nil {
		return nil, fmt.Errorf("wlr-randr not found. Please install wlr-randr: https://gitlab.freedesktop.org/emersion/wlr-randr")
	}

	return &wlrRandrBackend{}, nil
}

func (w *wlrRandrBackend) Name() string {
	return "wlr-randr"
}

func (w *wlrRandrBackend) GetOutputs() ([]OutputInfo, error) {
	output, err := wlrRandrCommand("--json").CombinedOutput()
	if err != nil {
		// Log the error output for debugging
		if len(output) > 0 {
			logger.Errorf("wlr-randr --json error: %s", string(output))
		}
		logger.Debug("JSON mode failed, falling back to text parsing")
		return w.getOutputsText()
	}

	outputs, err := parseWlrRandrJSON(output)
	if err != nil {
		logger.Debugf("wlr-randr JSON parse failed: %v", err)
		return w.getOutputsText()
	}
	return outputs, nil
}

func (w *wlrRandrBackend) getOutputsText() ([]OutputInfo, error) {
	output, err := wlrRandrCommand().CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			logger.Errorf("wlr-randr error: %s", string(output))
		}
		return nil, fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return parseWlrRandrText(string(output))
}

func (w *wlrRandrBackend) Close() error {
	return nil
}

// wlrRandrCommand builds the command, pointing it at the invoking user's
// Wayland socket when running under sudo
func wlrRandrCommand(args ...string) *exec.Cmd {
	cmd := exec.Command("wlr-randr", args...)

	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser == "" || os.Geteuid() != 0 {
		return cmd
	}
	logger.Debugf("Running wlr-randr with sudo, SUDO_USER=%s", sudoUser)

	sudoUID := os.Getenv("SUDO_UID")
	if sudoUID == "" {
		// Try to get UID from the user
		if uidOutput, err := exec.Command("id", "-u", sudoUser).Output(); err == nil {
			sudoUID = strings.TrimSpace(string(uidOutput))
		}
	}

	xdgRuntimeDir := fmt.Sprintf("/run/user/%s", sudoUID)
	cmd.Env = append(os.Environ(), fmt.Sprintf("XDG_RUNTIME_DIR=%s", xdgRuntimeDir))

	// Detect WAYLAND_DISPLAY by looking at the socket files
	waylandDisplay := ""
	if files, err := os.ReadDir(xdgRuntimeDir); err == nil {
		for _, file := range files {
			if strings.HasPrefix(file.Name(), "wayland-") && !strings.HasSuffix(file.Name(), ".lock") {
				waylandDisplay = file.Name()
				break
			}
		}
	} else {
		logger.Warnf("Could not read socket directory %s: %v", xdgRuntimeDir, err)
	}
	if waylandDisplay == "" {
		waylandDisplay = os.Getenv("WAYLAND_DISPLAY")
	}
	if waylandDisplay != "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("WAYLAND_DISPLAY=%s", waylandDisplay))
	} else {
		logger.Warn("Could not detect WAYLAND_DISPLAY for sudo session")
	}
	return cmd
}

type wlrRandrMode struct {
	Width     int32   `json:"width"`
	Height    int32   `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred"`
	Current   bool    `json:"current"`
}

type wlrRandrOutput struct {
	Name      string         `json:"name"`
	Make      string         `json:"make"`
	Model     string         `json:"model"`
	Serial    string         `json:"serial"`
	Enabled   bool           `json:"enabled"`
	Modes     []wlrRandrMode `json:"modes"`
	Transform string         `json:"transform"`
	Scale     float64        `json:"scale"`
	Position  struct {
		X int32 `json:"x"`
		Y int32 `json:"y"`
	} `json:"position"`
}

// parseWlrRandrJSON converts `wlr-randr --json` output
func parseWlrRandrJSON(data []byte) ([]OutputInfo, error) {
	var raw []wlrRandrOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse wlr-randr output: %w", err)
	}

	outputs := make([]OutputInfo, 0, len(raw))
	for _, r := range raw {
		transform, err := gpu.ParseTransform(r.Transform)
		if err != nil {
			logger.Warnf("Output %s: %v, assuming normal", r.Name, err)
		}
		info := OutputInfo{
			Name:      r.Name,
			Make:      r.Make,
			Model:     r.Model,
			Serial:    r.Serial,
			Enabled:   r.Enabled,
			X:         r.Position.X,
			Y:         r.Position.Y,
			Scale:     r.Scale,
			Transform: transform,
		}
		if info.Scale == 0 {
			info.Scale = 1.0
		}
		for _, m := range r.Modes {
			mode := gpu.ModeInfo{Width: m.Width, Height: m.Height, RefreshRate: m.Refresh, Preferred: m.Preferred}
			info.Modes = append(info.Modes, mode)
			if m.Current {
				info.Mode = mode
			}
		}

		// Skip monitors with invalid dimensions
		if info.Enabled && (info.Mode.Width == 0 || info.Mode.Height == 0) {
			logger.Warnf("Skipping output %s without a current mode", r.Name)
			info.Enabled = false
		}
		outputs = append(outputs, info)
	}
	return outputs, nil
}

// parseWlrRandrText parses the human readable wlr-randr output:
//
//	DP-1 "Dell Inc. DELL U2720Q ABC123 (DP-1)"
//	  Make: Dell Inc.
//	  Enabled: yes
//	  Modes:
//	    3840x2160 px, 59.997002 Hz (preferred, current)
//	  Position: 0,0
//	  Transform: normal
//	  Scale: 1.500000
func parseWlrRandrText(text string) ([]OutputInfo, error) {
	var outputs []OutputInfo
	var current *OutputInfo

	flush := func() {
		if current != nil {
			outputs = append(outputs, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		// Output header has no leading whitespace
		if raw[0] != ' ' && raw[0] != '\t' {
			flush()
			parts := strings.Fields(raw)
			current = &OutputInfo{Name: parts[0], Scale: 1.0}
			continue
		}
		if current == nil {
			continue
		}

		line := strings.TrimSpace(raw)
		key, value, hasKey := strings.Cut(line, ":")
		value = strings.TrimSpace(value)

		switch {
		case hasKey && key == "Make":
			current.Make = value
		case hasKey && key == "Model":
			current.Model = value
		case hasKey && key == "Serial":
			current.Serial = value
		case hasKey && key == "Enabled":
			current.Enabled = value == "yes"
		case hasKey && key == "Position":
			fmt.Sscanf(value, "%d,%d", &current.X, &current.Y)
		case hasKey && key == "Scale":
			fmt.Sscanf(value, "%f", &current.Scale)
		case hasKey && key == "Transform":
			if t, err := gpu.ParseTransform(value); err == nil {
				current.Transform = t
			}
		case strings.Contains(line, " px"):
			// Format: "1920x1080 px, 60.000000 Hz (preferred, current)"
			var mode gpu.ModeInfo
			if _, err := fmt.Sscanf(line, "%dx%d px, %f Hz", &mode.Width, &mode.Height, &mode.RefreshRate); err != nil {
				continue
			}
			mode.Preferred = strings.Contains(line, "preferred")
			current.Modes = append(current.Modes, mode)
			if strings.Contains(line, "current") {
				current.Mode = mode
			}
		}
	}
	flush()

	if len(outputs) == 0 {
		return nil, fmt.Errorf("no outputs detected from wlr-randr output")
	}
	for i := range outputs {
		if outputs[i].Enabled && outputs[i].Mode.Width == 0 {
			outputs[i].Enabled = false
		}
	}
	return outputs, nil
}
