package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/wayout/internal/config"
	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/ui"
)

// DisplayInfo represents the monitors command output
type DisplayInfo struct {
	Backend  string        `json:"backend,omitempty"`
	Monitors []MonitorInfo `json:"monitors"`
	Logical  []LogicalInfo `json:"logical_monitors"`
	Error    string        `json:"error,omitempty"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	Connector string    `json:"connector"`
	Vendor    string    `json:"vendor,omitempty"`
	Product   string    `json:"product,omitempty"`
	Serial    string    `json:"serial,omitempty"`
	Active    bool      `json:"active"`
	Primary   bool      `json:"primary"`
	Mode      string    `json:"mode,omitempty"`
	Crtc      *CrtcInfo `json:"crtc,omitempty"`
}

// CrtcInfo is the configuration a crtc scans out with
type CrtcInfo struct {
	ID        uint64     `json:"id"`
	Layout    [4]float64 `json:"layout"`
	Mode      string     `json:"mode"`
	Transform string     `json:"transform"`
}

// LogicalInfo is one logical monitor of the global layout
type LogicalInfo struct {
	Number    int      `json:"number"`
	X         int32    `json:"x"`
	Y         int32    `json:"y"`
	Width     int32    `json:"width"`
	Height    int32    `json:"height"`
	Scale     float64  `json:"scale"`
	Transform string   `json:"transform"`
	Primary   bool     `json:"primary"`
	Monitors  []string `json:"monitors"`
}

var jsonOutput bool

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "Show monitor configuration",
	Long:  `Read the outputs once and display monitors, their crtc configuration and the logical layout.`,
	RunE:  runMonitors,
}

func init() {
	monitorsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.AddCommand(monitorsCmd)
}

func runMonitors(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	mm, err := newMonitorManager(config.Get())
	if err != nil {
		if jsonOutput {
			return json.NewEncoder(out).Encode(DisplayInfo{Error: err.Error()})
		}
		return err
	}
	defer mm.Close()

	info := collectDisplayInfo(mm)
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	printDisplayInfo(out, info)
	return nil
}

func collectDisplayInfo(mm *display.MonitorManager) DisplayInfo {
	info := DisplayInfo{
		Backend:  mm.Backend().Name(),
		Monitors: []MonitorInfo{},
		Logical:  []LogicalInfo{},
	}

	for _, m := range mm.Monitors() {
		mi := MonitorInfo{
			Connector: m.Spec.Connector,
			Vendor:    m.Spec.Vendor,
			Product:   m.Spec.Product,
			Serial:    m.Spec.Serial,
			Active:    m.IsActive(),
			Primary:   m.Primary,
		}
		if m.CurrentMode != nil {
			mi.Mode = m.CurrentMode.Info.String()
		}
		if m.Crtc != nil {
			if cfg, ok := m.Crtc.Config(); ok {
				mi.Crtc = &CrtcInfo{
					ID:        m.Crtc.ID(),
					Layout:    [4]float64{cfg.Layout.X, cfg.Layout.Y, cfg.Layout.Width, cfg.Layout.Height},
					Mode:      cfg.Mode.Info.String(),
					Transform: cfg.Transform.String(),
				}
			}
		}
		info.Monitors = append(info.Monitors, mi)
	}

	for _, lm := range mm.LogicalMonitors() {
		li := LogicalInfo{
			Number:    lm.Number,
			X:         lm.Layout.X,
			Y:         lm.Layout.Y,
			Width:     lm.Layout.Width,
			Height:    lm.Layout.Height,
			Scale:     lm.Scale,
			Transform: lm.Transform.String(),
			Primary:   lm.Primary,
		}
		for _, m := range lm.Monitors {
			li.Monitors = append(li.Monitors, m.Spec.Connector)
		}
		info.Logical = append(info.Logical, li)
	}
	return info
}

func printDisplayInfo(out io.Writer, info DisplayInfo) {
	if len(info.Monitors) == 0 {
		fmt.Fprintln(out, ui.WarningStyle.Render("No monitors detected"))
		return
	}

	fmt.Fprintln(out, ui.FormatHeader(ui.IconMonitor, fmt.Sprintf("%d monitor(s) via %s", len(info.Monitors), info.Backend)))
	for _, m := range info.Monitors {
		status := m.Connector
		if m.Vendor != "" || m.Product != "" {
			status += ui.SubtleStyle.Render(fmt.Sprintf(" (%s %s)", m.Vendor, m.Product))
		}
		fmt.Fprintln(out, ui.FormatStatus(m.Active, status))
		if !m.Active {
			fmt.Fprintln(out, ui.FormatKeyValue("State", "disabled"))
			continue
		}
		fmt.Fprintln(out, ui.FormatKeyValue("Mode", m.Mode))
		if m.Crtc != nil {
			fmt.Fprintln(out, ui.FormatKeyValue("Crtc", m.Crtc.ID))
			fmt.Fprintln(out, ui.FormatKeyValue("Layout", fmt.Sprintf("%.0f,%.0f %.0fx%.0f",
				m.Crtc.Layout[0], m.Crtc.Layout[1], m.Crtc.Layout[2], m.Crtc.Layout[3])))
			fmt.Fprintln(out, ui.FormatKeyValue("Transform", m.Crtc.Transform))
		}
		if m.Primary {
			fmt.Fprintln(out, ui.FormatKeyValue("Primary", "yes"))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SubheaderStyle.Render("Logical layout"))
	var minX, minY, maxX, maxY int32
	for i, lm := range info.Logical {
		item := fmt.Sprintf("#%d %d,%d %dx%d scale %.2f %s [%s]",
			lm.Number, lm.X, lm.Y, lm.Width, lm.Height, lm.Scale, lm.Transform, strings.Join(lm.Monitors, ", "))
		fmt.Fprintln(out, ui.FormatListItem(item, lm.Primary))

		if i == 0 || lm.X < minX {
			minX = lm.X
		}
		if i == 0 || lm.Y < minY {
			minY = lm.Y
		}
		if i == 0 || lm.X+lm.Width > maxX {
			maxX = lm.X + lm.Width
		}
		if i == 0 || lm.Y+lm.Height > maxY {
			maxY = lm.Y + lm.Height
		}
	}
	if len(info.Logical) > 1 {
		fmt.Fprintln(out, ui.FormatKeyValue("Virtual size", fmt.Sprintf("%dx%d", maxX-minX, maxY-minY)))
	}
}
