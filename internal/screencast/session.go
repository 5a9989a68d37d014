package screencast

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/bnema/wayout/internal/display"
	"github.com/bnema/wayout/internal/logger"
	"github.com/bnema/wayout/internal/renderer"
)

// Session groups the streams of one screen cast consumer
type Session struct {
	id      string
	manager *display.MonitorManager
	stage   *renderer.Renderer
	log     *log.Logger

	streams  []Stream
	onClosed []func(Stream)
	closed   bool
}

func NewSession(manager *display.MonitorManager, stage *renderer.Renderer) *Session {
	return &Session{
		id:      uuid.NewString(),
		manager: manager,
		stage:   stage,
		log:     logger.WithPrefix("screencast"),
	}
}

func (s *Session) ID() string {
	return s.id
}

// RecordMonitor starts a stream of the monitor plugged into connector
func (s *Session) RecordMonitor(connector string, cursorMode CursorMode) (*MonitorStream, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	m := s.manager.FindMonitorByConnector(connector)
	if m == nil {
		return nil, fmt.Errorf("record %s: %w", connector, ErrMonitorNotFound)
	}
	stream, err := newMonitorStream(s, m, cursorMode)
	if err != nil {
		return nil, err
	}
	s.streams = append(s.streams, stream)
	s.log.Infof("Session %s: recording %s as stream %s", s.id, m.Spec, stream.ID())
	return stream, nil
}

// Streams returns the open streams
func (s *Session) Streams() []Stream {
	out := make([]Stream, len(s.streams))
	copy(out, s.streams)
	return out
}

// OnStreamClosed registers fn to be called whenever a stream of the session closes
func (s *Session) OnStreamClosed(fn func(Stream)) {
	s.onClosed = append(s.onClosed, fn)
}

func (s *Session) streamClosed(stream Stream) {
	for i, st := range s.streams {
		if st == stream {
			s.streams = append(s.streams[:i], s.streams[i+1:]...)
			break
		}
	}
	s.log.Infof("Session %s: stream %s closed", s.id, stream.ID())
	for _, fn := range s.onClosed {
		fn(stream)
	}
}

// Close closes every stream; the session cannot record afterwards
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, st := range s.Streams() {
		st.Close()
	}
}

func (s *Session) IsClosed() bool {
	return s.closed
}
