// Package screencast exposes monitors of the stage as capture streams and
// keeps them consistent with the monitor layout.
package screencast

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrMonitorNotActive = errors.New("monitor is not active")
	ErrMonitorNotFound  = errors.New("monitor not found")
	ErrStreamClosed     = errors.New("stream is closed")
	ErrSessionClosed    = errors.New("session is closed")
)

// CursorMode tells how the pointer shows up in a stream
type CursorMode int

const (
	CursorHidden CursorMode = iota
	CursorEmbedded
	CursorMetadata
)

func (c CursorMode) String() string {
	switch c {
	case CursorHidden:
		return "hidden"
	case CursorEmbedded:
		return "embedded"
	case CursorMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("cursor-mode(%d)", int(c))
	}
}

// ParseCursorMode parses the names accepted in the config file and on the command line
func ParseCursorMode(s string) (CursorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hidden":
		return CursorHidden, nil
	case "embedded", "":
		return CursorEmbedded, nil
	case "metadata":
		return CursorMetadata, nil
	}
	return CursorHidden, fmt.Errorf("unknown cursor mode %q", s)
}

// Parameters describe the streamed area in global logical coordinates
type Parameters struct {
	Position [2]int32
	Size     [2]int32
}

// Struct builds the payload handed to the stream negotiation
func (p Parameters) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"position": []interface{}{p.Position[0], p.Position[1]},
		"size":     []interface{}{p.Size[0], p.Size[1]},
	})
}

// Frame is one captured image of a stream, RGBA in framebuffer orientation
type Frame struct {
	StreamID  string
	Sequence  uint64
	Width     int32
	Height    int32
	Pixels    []byte
	Timestamp time.Time
}

// Stream is a capture source of a session. MonitorStream is the only
// implementation.
type Stream interface {
	ID() string
	Parameters() (Parameters, error)
	// TransformPosition maps a stream-local position to global logical coordinates
	TransformPosition(x, y float64) (float64, float64, error)
	CaptureFrame() (*Frame, error)
	Close()
	IsClosed() bool
}
