package display

import (
	"testing"

	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fhdOutput(name string, x, y int32) OutputInfo {
	mode := gpu.ModeInfo{Width: 1920, Height: 1080, RefreshRate: 60, Preferred: true}
	return OutputInfo{
		Name:    name,
		Make:    "Acme",
		Model:   "Panel " + name,
		Serial:  "SN-" + name,
		Enabled: true,
		X:       x,
		Y:       y,
		Mode:    mode,
		Modes:   []gpu.ModeInfo{mode},
		Scale:   1.0,
	}
}

func newTestManager(t *testing.T, outputs ...OutputInfo) (*MonitorManager, *StaticBackend) {
	t.Helper()
	backend := NewStaticBackend(outputs)
	mm := NewMonitorManager(backend, gpu.NewGPU("test", gpu.KindVirtual))
	require.NoError(t, mm.Reload())
	t.Cleanup(func() { mm.Close() })
	return mm, backend
}

func TestReloadConfiguresCrtcs(t *testing.T) {
	mm, _ := newTestManager(t, fhdOutput("DP-1", 0, 0), fhdOutput("HDMI-A-1", 1920, 0))

	monitors := mm.Monitors()
	require.Len(t, monitors, 2)
	require.Len(t, mm.LogicalMonitors(), 2)

	for _, m := range monitors {
		assert.True(t, m.IsActive(), "%s should be active", m.Name)
		cfg, ok := m.Crtc.Config()
		require.True(t, ok)
		assert.Same(t, m.CurrentMode, cfg.Mode)
		assert.Equal(t, float64(m.Logical.Layout.X), cfg.Layout.X)
	}

	hdmi := mm.FindMonitorByConnector("HDMI-A-1")
	require.NotNil(t, hdmi)
	assert.Equal(t, region.Rect(1920, 0, 1920, 1080), hdmi.Logical.Layout)
	assert.Same(t, hdmi.Logical, mm.LogicalMonitorAt(2000, 10))
	assert.Same(t, hdmi.Logical, mm.LogicalMonitorFor(hdmi))
	assert.Nil(t, mm.LogicalMonitorAt(5000, 10))
}

func TestReloadDisabledOutput(t *testing.T) {
	off := fhdOutput("DP-2", 1920, 0)
	off.Enabled = false
	mm, _ := newTestManager(t, fhdOutput("DP-1", 0, 0), off)

	dp2 := mm.FindMonitorByConnector("DP-2")
	require.NotNil(t, dp2)
	assert.False(t, dp2.IsActive())
	assert.False(t, dp2.Crtc.IsConfigured())
	assert.Nil(t, dp2.Logical)
	assert.Len(t, mm.LogicalMonitors(), 1)
}

func TestReloadUnplugFinalizesCrtc(t *testing.T) {
	mm, backend := newTestManager(t, fhdOutput("DP-1", 0, 0), fhdOutput("DP-2", 1920, 0))
	dp2 := mm.FindMonitorByConnector("DP-2")
	crtc := dp2.Crtc

	backend.SetOutputs([]OutputInfo{fhdOutput("DP-1", 0, 0)})
	require.NoError(t, mm.Reload())

	assert.Nil(t, mm.FindMonitorByConnector("DP-2"))
	assert.True(t, crtc.IsFinalized())
	assert.Len(t, mm.GPU().Crtcs(), 1)
}

func TestReloadKeepsCrtcButReplacesMonitorObjects(t *testing.T) {
	mm, _ := newTestManager(t, fhdOutput("DP-1", 0, 0))
	before := mm.FindMonitorByConnector("DP-1")

	require.NoError(t, mm.Reload())
	after := mm.FindMonitor(before.Spec)

	require.NotNil(t, after)
	assert.NotSame(t, before, after)
	assert.Same(t, before.Crtc, after.Crtc)
	assert.Equal(t, before.Logical.Layout, after.Logical.Layout)
	assert.Equal(t, uint64(2), mm.Serial())
}

func TestReloadMirroredOutputsShareLogicalMonitor(t *testing.T) {
	mm, _ := newTestManager(t, fhdOutput("DP-1", 0, 0), fhdOutput("DP-2", 0, 0))

	logical := mm.LogicalMonitors()
	require.Len(t, logical, 1)
	assert.Len(t, logical[0].Monitors, 2)
}

func TestLogicalLayout(t *testing.T) {
	uhd := gpu.ModeInfo{Width: 3840, Height: 2160, RefreshRate: 60}

	tests := []struct {
		name      string
		scale     float64
		transform gpu.Transform
		expected  region.Rectangle
	}{
		{"unscaled", 1, gpu.TransformNormal, region.Rect(10, 20, 3840, 2160)},
		{"scale 2", 2, gpu.TransformNormal, region.Rect(10, 20, 1920, 1080)},
		{"fractional scale", 1.5, gpu.TransformNormal, region.Rect(10, 20, 2560, 1440)},
		{"rotated", 2, gpu.Transform90, region.Rect(10, 20, 1080, 1920)},
		{"flipped keeps orientation", 1, gpu.TransformFlipped180, region.Rect(10, 20, 3840, 2160)},
		{"zero scale treated as 1", 0, gpu.TransformNormal, region.Rect(10, 20, 3840, 2160)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := logicalLayout(10, 20, uhd, tt.scale, tt.transform)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPrimaryMonitorDetermination(t *testing.T) {
	tests := []struct {
		name            string
		outputs         []OutputInfo
		expectedPrimary string
	}{
		{
			name:            "monitor at 0,0 should be primary",
			outputs:         []OutputInfo{fhdOutput("DP-1", -1920, 0), fhdOutput("DP-2", 0, 0)},
			expectedPrimary: "DP-2",
		},
		{
			name:            "first monitor fallback when no monitor at 0,0",
			outputs:         []OutputInfo{fhdOutput("DP-1", -1920, 0), fhdOutput("DP-2", 1920, 0)},
			expectedPrimary: "DP-1",
		},
		{
			name:            "single monitor at 0,0",
			outputs:         []OutputInfo{fhdOutput("DP-1", 0, 0)},
			expectedPrimary: "DP-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm, _ := newTestManager(t, tt.outputs...)

			primaryCount := 0
			for _, m := range mm.Monitors() {
				if m.Primary {
					primaryCount++
					assert.Equal(t, tt.expectedPrimary, m.Name)
				}
			}
			assert.Equal(t, 1, primaryCount)
			require.NotNil(t, mm.PrimaryLogicalMonitor())
			assert.Equal(t, tt.expectedPrimary, mm.PrimaryLogicalMonitor().Monitors[0].Name)
		})
	}
}

func TestMonitorsChangedDispatch(t *testing.T) {
	mm, _ := newTestManager(t, fhdOutput("DP-1", 0, 0))

	var calls []string
	var second Subscription
	first := mm.Subscribe(func() {
		calls = append(calls, "first")
		// removing a later listener from inside dispatch must skip it
		mm.Unsubscribe(second)
	})
	second = mm.Subscribe(func() { calls = append(calls, "second") })

	require.NoError(t, mm.Reload())
	assert.Equal(t, []string{"first"}, calls)

	mm.Unsubscribe(first)
	mm.Unsubscribe(first)
	calls = nil
	require.NoError(t, mm.Reload())
	assert.Empty(t, calls)
}

func TestCloseFinalizesGPU(t *testing.T) {
	backend := NewStaticBackend([]OutputInfo{fhdOutput("DP-1", 0, 0)})
	mm := NewMonitorManager(backend, gpu.NewGPU("test", gpu.KindVirtual))
	require.NoError(t, mm.Reload())
	crtc := mm.FindMonitorByConnector("DP-1").Crtc

	require.NoError(t, mm.Close())
	assert.True(t, crtc.IsFinalized())
	assert.Empty(t, mm.Monitors())
}
