package screencast

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/region"
	"github.com/bnema/wayout/internal/renderer"
)

// MonitorStream streams the area of one monitor. It follows the monitor
// across reloads as long as its logical layout does not move or resize, and
// closes itself otherwise.
type MonitorStream struct {
	id         string
	session    *Session
	spec       display.MonitorSpec
	monitor    *display.Monitor
	logical    *display.LogicalMonitor
	layout     region.Rectangle
	cursorMode CursorMode
	log        *log.Logger

	sub      display.Subscription
	sequence uint64
	closed   bool
}

var _ Stream = (*MonitorStream)(nil)

func newMonitorStream(session *Session, monitor *display.Monitor, cursorMode CursorMode) (*MonitorStream, error) {
	if !monitor.IsActive() {
		return nil, fmt.Errorf("record %s: %w", monitor.Name, ErrMonitorNotActive)
	}
	s := &MonitorStream{
		id:         uuid.NewString(),
		session:    session,
		spec:       monitor.Spec,
		monitor:    monitor,
		logical:    monitor.Logical,
		layout:     monitor.Logical.Layout,
		cursorMode: cursorMode,
		log:        logger.WithPrefix("screencast"),
	}
	s.sub = session.manager.Subscribe(s.onMonitorsChanged)
	return s, nil
}

func (s *MonitorStream) onMonitorsChanged() {
	if s.closed {
		return
	}
	m := s.session.manager.FindMonitor(s.spec)
	if m == nil || !m.IsActive() {
		s.log.Debugf("Stream %s: monitor %s is gone, closing", s.id, s.spec)
		s.Close()
		return
	}
	if m.Logical.Layout != s.layout {
		s.log.Debugf("Stream %s: monitor %s moved from %v to %v, closing", s.id, s.spec, s.layout, m.Logical.Layout)
		s.Close()
		return
	}
	s.monitor = m
	s.logical = m.Logical
}

func (s *MonitorStream) ID() string {
	return s.id
}

// Monitor returns the monitor object of the current layout
func (s *MonitorStream) Monitor() *display.Monitor {
	return s.monitor
}

func (s *MonitorStream) Stage() *renderer.Renderer {
	return s.session.stage
}

func (s *MonitorStream) CursorMode() CursorMode {
	return s.cursorMode
}

func (s *MonitorStream) Parameters() (Parameters, error) {
	if s.closed {
		return Parameters{}, ErrStreamClosed
	}
	return Parameters{
		Position: [2]int32{s.layout.X, s.layout.Y},
		Size:     [2]int32{s.layout.Width, s.layout.Height},
	}, nil
}

func (s *MonitorStream) TransformPosition(x, y float64) (float64, float64, error) {
	if s.closed {
		return 0, 0, ErrStreamClosed
	}
	return float64(s.layout.X) + x, float64(s.layout.Y) + y, nil
}

// CaptureFrame reads the monitor area from the last presented framebuffer
func (s *MonitorStream) CaptureFrame() (*Frame, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	view := s.session.stage.ViewForLogicalMonitor(s.logical)
	if view == nil {
		return nil, fmt.Errorf("capture %s: no view for monitor", s.spec)
	}
	rect := view.LogicalToFramebuffer(region.Rect(0, 0, s.layout.Width, s.layout.Height))
	pixels, err := view.Framebuffer().ReadPixels(rect)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", s.spec, err)
	}
	s.sequence++
	return &Frame{
		StreamID:  s.id,
		Sequence:  s.sequence,
		Width:     rect.Width,
		Height:    rect.Height,
		Pixels:    pixels,
		Timestamp: time.Now(),
	}, nil
}

func (s *MonitorStream) IsClosed() bool {
	return s.closed
}

// Close stops following the monitor and tells the session. Closing twice is a no-op.
func (s *MonitorStream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.session.manager.Unsubscribe(s.sub)
	s.session.streamClosed(s)
}
