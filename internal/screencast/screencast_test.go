package screencast

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/gpu"
	"github.com/bnema/wayout/internal/region"
	"github.com/bnema/wayout/internal/renderer"
)

func output(name string, x, y int32) display.OutputInfo {
	mode := gpu.ModeInfo{Width: 64, Height: 32, RefreshRate: 60}
	return display.OutputInfo{
		Name:    name,
		Make:    "Acme",
		Model:   "Panel",
		Serial:  name,
		Enabled: true,
		X:       x,
		Y:       y,
		Mode:    mode,
		Modes:   []gpu.ModeInfo{mode},
		Scale:   1,
	}
}

type fixture struct {
	backend *display.StaticBackend
	manager *display.MonitorManager
	stage   *renderer.Renderer
	session *Session
}

func newFixture(t *testing.T, outputs ...display.OutputInfo) *fixture {
	t.Helper()
	backend := display.NewStaticBackend(outputs)
	mm := display.NewMonitorManager(backend, gpu.NewGPU("test", gpu.KindVirtual))
	require.NoError(t, mm.Reload())
	stage, err := renderer.NewRenderer(mm, renderer.NewMemoryAllocator(2), renderer.Options{})
	require.NoError(t, err)

	session := NewSession(mm, stage)
	t.Cleanup(func() {
		session.Close()
		stage.Close()
		mm.Close()
	})
	return &fixture{backend: backend, manager: mm, stage: stage, session: session}
}

func (f *fixture) reload(t *testing.T, outputs ...display.OutputInfo) {
	t.Helper()
	f.backend.SetOutputs(outputs)
	require.NoError(t, f.manager.Reload())
}

func TestParseCursorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    CursorMode
		wantErr bool
	}{
		{in: "hidden", want: CursorHidden},
		{in: "Embedded", want: CursorEmbedded},
		{in: "", want: CursorEmbedded},
		{in: " metadata ", want: CursorMetadata},
		{in: "sparkly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCursorMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordMonitor(t *testing.T) {
	f := newFixture(t, output("DP-1", 0, 0), output("DP-2", 64, 0))

	stream, err := f.session.RecordMonitor("DP-2", CursorMetadata)
	require.NoError(t, err)
	assert.NotEmpty(t, stream.ID())
	assert.Equal(t, CursorMetadata, stream.CursorMode())
	assert.Same(t, f.stage, stream.Stage())
	assert.Equal(t, "DP-2", stream.Monitor().Name)
	assert.Len(t, f.session.Streams(), 1)

	params, err := stream.Parameters()
	require.NoError(t, err)
	assert.Equal(t, Parameters{Position: [2]int32{64, 0}, Size: [2]int32{64, 32}}, params)

	x, y, err := stream.TransformPosition(10.5, 3)
	require.NoError(t, err)
	assert.Equal(t, 74.5, x)
	assert.Equal(t, 3.0, y)

	_, err = f.session.RecordMonitor("HDMI-A-9", CursorHidden)
	assert.ErrorIs(t, err, ErrMonitorNotFound)
}

func TestRecordInactiveMonitor(t *testing.T) {
	off := output("DP-2", 64, 0)
	off.Enabled = false
	f := newFixture(t, output("DP-1", 0, 0), off)

	_, err := f.session.RecordMonitor("DP-2", CursorHidden)
	assert.ErrorIs(t, err, ErrMonitorNotActive)
	assert.Empty(t, f.session.Streams())
}

func TestStreamFollowsUnchangedLayout(t *testing.T) {
	f := newFixture(t, output("DP-1", 0, 0), output("DP-2", 64, 0))
	stream, err := f.session.RecordMonitor("DP-1", CursorEmbedded)
	require.NoError(t, err)
	before := stream.Monitor()

	// DP-2 moving does not affect DP-1
	f.reload(t, output("DP-1", 0, 0), output("DP-2", 0, 32))

	assert.False(t, stream.IsClosed())
	assert.NotSame(t, before, stream.Monitor())
	assert.Equal(t, before.Spec, stream.Monitor().Spec)
	assert.Same(t, f.manager.FindMonitorByConnector("DP-1"), stream.Monitor())
}

func TestStreamClosesOnLayoutChange(t *testing.T) {
	tests := []struct {
		name    string
		outputs []display.OutputInfo
	}{
		{name: "moved", outputs: []display.OutputInfo{output("DP-1", 0, 0), output("DP-2", 128, 0)}},
		{name: "unplugged", outputs: []display.OutputInfo{output("DP-1", 0, 0)}},
		{name: "disabled", outputs: func() []display.OutputInfo {
			off := output("DP-2", 64, 0)
			off.Enabled = false
			return []display.OutputInfo{output("DP-1", 0, 0), off}
		}()},
		{name: "rescaled", outputs: func() []display.OutputInfo {
			scaled := output("DP-2", 64, 0)
			scaled.Scale = 2
			return []display.OutputInfo{output("DP-1", 0, 0), scaled}
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, output("DP-1", 0, 0), output("DP-2", 64, 0))
			stream, err := f.session.RecordMonitor("DP-2", CursorEmbedded)
			require.NoError(t, err)

			var closed []Stream
			f.session.OnStreamClosed(func(s Stream) { closed = append(closed, s) })

			f.reload(t, tt.outputs...)

			assert.True(t, stream.IsClosed())
			require.Len(t, closed, 1)
			assert.Equal(t, stream.ID(), closed[0].ID())
			assert.Empty(t, f.session.Streams())

			_, err = stream.Parameters()
			assert.ErrorIs(t, err, ErrStreamClosed)
			_, _, err = stream.TransformPosition(0, 0)
			assert.ErrorIs(t, err, ErrStreamClosed)
			_, err = stream.CaptureFrame()
			assert.ErrorIs(t, err, ErrStreamClosed)

			// later reloads must not reach the closed stream
			f.reload(t, output("DP-1", 0, 0), output("DP-2", 64, 0))
			assert.Len(t, closed, 1)
		})
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, output("DP-1", 0, 0))
	stream, err := f.session.RecordMonitor("DP-1", CursorHidden)
	require.NoError(t, err)

	calls := 0
	f.session.OnStreamClosed(func(Stream) { calls++ })
	stream.Close()
	stream.Close()
	assert.Equal(t, 1, calls)
}

func TestSessionClose(t *testing.T) {
	f := newFixture(t, output("DP-1", 0, 0), output("DP-2", 64, 0))
	a, err := f.session.RecordMonitor("DP-1", CursorHidden)
	require.NoError(t, err)
	b, err := f.session.RecordMonitor("DP-2", CursorHidden)
	require.NoError(t, err)

	var closed []string
	f.session.OnStreamClosed(func(s Stream) { closed = append(closed, s.ID()) })
	f.session.Close()

	assert.True(t, f.session.IsClosed())
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, closed)

	_, err = f.session.RecordMonitor("DP-1", CursorHidden)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCaptureFrame(t *testing.T) {
	f := newFixture(t, output("DP-1", 0, 0), output("DP-2", 64, 0))
	stream, err := f.session.RecordMonitor("DP-2", CursorEmbedded)
	require.NoError(t, err)

	_, err = stream.CaptureFrame()
	assert.Error(t, err, "nothing presented yet")

	green := color.RGBA{0, 255, 0, 255}
	_, err = f.stage.PaintAll(func(v *renderer.View, clip region.Region) error {
		v.Framebuffer().(*renderer.MemoryFramebuffer).Fill(clip, green)
		return nil
	})
	require.NoError(t, err)

	frame, err := stream.CaptureFrame()
	require.NoError(t, err)
	assert.Equal(t, stream.ID(), frame.StreamID)
	assert.Equal(t, uint64(1), frame.Sequence)
	assert.Equal(t, int32(64), frame.Width)
	assert.Equal(t, int32(32), frame.Height)
	require.Len(t, frame.Pixels, 64*32*4)
	assert.Equal(t, []byte{0, 255, 0, 255}, frame.Pixels[:4])

	frame, err = stream.CaptureFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), frame.Sequence)
}

func TestParametersStruct(t *testing.T) {
	p := Parameters{Position: [2]int32{1920, 0}, Size: [2]int32{1280, 720}}
	s, err := p.Struct()
	require.NoError(t, err)

	pos := s.GetFields()["position"].GetListValue().GetValues()
	require.Len(t, pos, 2)
	assert.Equal(t, 1920.0, pos[0].GetNumberValue())
	assert.Equal(t, 0.0, pos[1].GetNumberValue())

	size := s.GetFields()["size"].GetListValue().GetValues()
	require.Len(t, size, 2)
	assert.Equal(t, 1280.0, size[0].GetNumberValue())
	assert.Equal(t, 720.0, size[1].GetNumberValue())
}
