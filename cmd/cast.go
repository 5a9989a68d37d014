package cmd

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/wayout/internal/config"
	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/region"
	"github.com/bnema/wayout/internal/renderer"
	"github.com/bnema/wayout/internal/screencast"
	"github.com/bnema/wayout/internal/ui"
)

var (
	castMonitor string
	castFrames  int
	castCursor  string
	castLive    bool
)

var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "Record a monitor as a screen cast stream",
	Long: `Render a test scene on every monitor and record one of them as a screen cast
stream. Repaints are damage tracked; the monitor layout is polled and the
stream ends when its monitor moves, resizes or disappears. With --live the
counters are shown in an interactive view.`,
	RunE: runCast,
}

func init() {
	castCmd.Flags().StringVarP(&castMonitor, "monitor", "m", "", "Connector of the monitor to record (default: primary)")
	castCmd.Flags().IntVarP(&castFrames, "frames", "n", 0, "Stop after this many frames (0 runs until interrupted)")
	castCmd.Flags().StringVar(&castCursor, "cursor", "", "Cursor mode: hidden, embedded or metadata (default from config)")
	castCmd.Flags().BoolVar(&castLive, "live", false, "Show a live view instead of plain output")
	rootCmd.AddCommand(castCmd)
}

func runCast(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cursorName := cfg.Screencast.CursorMode
	if castCursor != "" {
		cursorName = castCursor
	}
	cursor, err := screencast.ParseCursorMode(cursorName)
	if err != nil {
		return err
	}

	mm, err := newMonitorManager(cfg)
	if err != nil {
		return err
	}
	defer mm.Close()

	connector := castMonitor
	if connector == "" {
		primary := mm.PrimaryLogicalMonitor()
		if primary == nil || len(primary.Monitors) == 0 {
			return fmt.Errorf("no active monitor to record")
		}
		connector = primary.Monitors[0].Spec.Connector
	}

	c, err := newCaster(cmd.OutOrStdout(), mm, cfg, connector, cursor, castFrames)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pollInterval := time.Duration(cfg.Monitors.PollIntervalMs) * time.Millisecond
	if castLive {
		err = c.RunLive(ctx, cmd.InOrStdin(), pollInterval)
		c.PrintSummary()
		return err
	}

	repaint := time.NewTicker(c.frameInterval())
	defer repaint.Stop()
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	err = c.Run(ctx, repaint.C, poll.C)
	c.PrintSummary()
	return err
}

// caster drives the renderer and a screen cast session from one goroutine
type caster struct {
	out       io.Writer
	manager   *display.MonitorManager
	stage     *renderer.Renderer
	session   *screencast.Session
	stream    *screencast.MonitorStream
	scene     *bouncingBox
	maxFrames int

	captured     int
	partial      int
	full         int
	lastFrame    *screencast.Frame
	streamClosed bool
	closing      bool
	quiet        bool
}

func newCaster(out io.Writer, mm *display.MonitorManager, cfg *config.Config, connector string, cursor screencast.CursorMode, maxFrames int) (*caster, error) {
	stage, err := renderer.NewRenderer(mm, renderer.NewMemoryAllocator(cfg.Renderer.SwapChainLength), renderer.Options{
		ForceFullRepaint:     cfg.Renderer.ForceFullRepaint,
		DisableDamageHistory: cfg.Renderer.DisableDamageHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	session := screencast.NewSession(mm, stage)
	stream, err := session.RecordMonitor(connector, cursor)
	if err != nil {
		stage.Close()
		return nil, err
	}

	c := &caster{
		out:       out,
		manager:   mm,
		stage:     stage,
		session:   session,
		stream:    stream,
		scene:     newBouncingBox(),
		maxFrames: maxFrames,
	}
	session.OnStreamClosed(func(s screencast.Stream) {
		if c.closing {
			return
		}
		c.streamClosed = true
		if c.quiet {
			return
		}
		fmt.Fprintln(c.out, ui.WarningStyle.Render(fmt.Sprintf("%s Stream %s closed: monitor %s left the layout",
			ui.IconWarning, s.ID(), stream.Monitor().Spec)))
	})

	params, _ := stream.Parameters()
	fmt.Fprintln(out, ui.FormatHeader(ui.IconStream, fmt.Sprintf("Recording %s", stream.Monitor().Spec)))
	fmt.Fprintln(out, ui.FormatKeyValue("Session", session.ID()))
	fmt.Fprintln(out, ui.FormatKeyValue("Stream", stream.ID()))
	fmt.Fprintln(out, ui.FormatKeyValue("Area", fmt.Sprintf("%d,%d %dx%d", params.Position[0], params.Position[1], params.Size[0], params.Size[1])))
	fmt.Fprintln(out, ui.FormatKeyValue("Cursor", stream.CursorMode()))
	if payload, err := params.Struct(); err == nil {
		logger.Debugf("Stream parameters: %v", payload.AsMap())
	}
	return c, nil
}

// frameInterval follows the refresh rate of the recorded monitor
func (c *caster) frameInterval() time.Duration {
	refresh := 60.0
	if m := c.stream.Monitor(); m != nil && m.CurrentMode != nil && m.CurrentMode.Info.RefreshRate > 0 {
		refresh = m.CurrentMode.Info.RefreshRate
	}
	return time.Duration(float64(time.Second) / refresh)
}

// Run handles repaint and poll ticks until ctx is done, the frame budget is
// spent or the stream closes
func (c *caster) Run(ctx context.Context, repaint, poll <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-repaint:
			if err := c.tick(); err != nil {
				return err
			}
			if c.maxFrames > 0 && c.captured >= c.maxFrames {
				return nil
			}
		case <-poll:
			c.poll()
		}
		if c.streamClosed {
			return nil
		}
	}
}

// RunLive runs the cast inside a bubbletea program; the program's update loop
// is the only goroutine touching the renderer and the monitor manager
func (c *caster) RunLive(ctx context.Context, in io.Reader, pollInterval time.Duration) error {
	c.quiet = true
	model := ui.NewCastModel(c, fmt.Sprintf("Recording %s", c.stream.Monitor().Spec), c.frameInterval(), pollInterval, c.maxFrames)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(c.out))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("live view failed: %w", err)
	}
	return model.Err()
}

// Frame paints and captures one frame for the live view
func (c *caster) Frame() (ui.CastStats, error) {
	err := c.tick()
	return c.stats(), err
}

// Poll reloads the monitor layout for the live view
func (c *caster) Poll() (ui.CastStats, error) {
	c.poll()
	return c.stats(), nil
}

func (c *caster) stats() ui.CastStats {
	return ui.CastStats{Frames: c.captured, Partial: c.partial, Full: c.full, Closed: c.streamClosed}
}

func (c *caster) poll() {
	if err := c.manager.Reload(); err != nil {
		logger.Warnf("Failed to reload monitors: %v", err)
	}
}

func (c *caster) tick() error {
	params, err := c.stream.Parameters()
	if err != nil {
		return err
	}
	bounds := region.Rect(params.Position[0], params.Position[1], params.Size[0], params.Size[1])

	old, cur := c.scene.step(bounds)
	c.stage.QueueRedraw(&old)
	c.stage.QueueRedraw(&cur)

	results, err := c.stage.PaintAll(c.scene.paint)
	if err != nil {
		return err
	}
	for _, res := range results {
		switch {
		case res.Skipped:
		case res.FullRedraw:
			c.full++
		default:
			c.partial++
		}
	}

	frame, err := c.stream.CaptureFrame()
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}
	c.captured++
	c.lastFrame = frame
	logger.Debugf("Frame %d: %dx%d, %d bytes", frame.Sequence, frame.Width, frame.Height, len(frame.Pixels))
	return nil
}

func (c *caster) PrintSummary() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, ui.FormatHeader(ui.IconSummary, "Summary"))
	fmt.Fprintln(c.out, ui.FormatKeyValue("Frames", c.captured))
	fmt.Fprintln(c.out, ui.FormatKeyValue("Partial", c.partial))
	fmt.Fprintln(c.out, ui.FormatKeyValue("Full", c.full))
	if c.lastFrame != nil {
		fmt.Fprintln(c.out, ui.FormatKeyValue("Frame size", fmt.Sprintf("%dx%d", c.lastFrame.Width, c.lastFrame.Height)))
	}
	if c.streamClosed {
		fmt.Fprintln(c.out, ui.FormatResult(false, "Stream closed by a layout change"))
	} else {
		fmt.Fprintln(c.out, ui.FormatResult(true, "Stream finished"))
	}
}

func (c *caster) Close() {
	c.closing = true
	c.session.Close()
	c.stage.Close()
}

var (
	sceneBackground = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff}
	sceneBox        = color.RGBA{R: 0x00, G: 0xaf, B: 0xff, A: 0xff}
)

// bouncingBox is the test scene: a square moving inside the recorded area
type bouncingBox struct {
	rect   region.Rectangle
	dx, dy int32
}

func newBouncingBox() *bouncingBox {
	return &bouncingBox{rect: region.Rect(0, 0, 32, 32), dx: 6, dy: 4}
}

// step moves the box inside bounds and returns its previous and new position
func (b *bouncingBox) step(bounds region.Rectangle) (region.Rectangle, region.Rectangle) {
	old := b.rect
	if !b.rect.Overlaps(bounds) {
		b.rect.X, b.rect.Y = bounds.X, bounds.Y
	}

	next := b.rect.Translate(b.dx, b.dy)
	if next.X < bounds.X || next.X+next.Width > bounds.X+bounds.Width {
		b.dx = -b.dx
		next.X = b.rect.X + b.dx
	}
	if next.Y < bounds.Y || next.Y+next.Height > bounds.Y+bounds.Height {
		b.dy = -b.dy
		next.Y = b.rect.Y + b.dy
	}
	b.rect = next
	return old, b.rect
}

func (b *bouncingBox) paint(v *renderer.View, clip region.Region) error {
	fb, ok := v.Framebuffer().(*renderer.MemoryFramebuffer)
	if !ok {
		return fmt.Errorf("view %s: unsupported framebuffer %T", v.Name(), v.Framebuffer())
	}
	fb.Fill(clip, sceneBackground)

	layout := v.Layout()
	if !b.rect.Overlaps(layout) {
		return nil
	}
	local := b.rect.Intersect(layout).Translate(-layout.X, -layout.Y)
	fb.Fill(clip.IntersectRect(v.LogicalToFramebuffer(local)), sceneBox)
	return nil
}
