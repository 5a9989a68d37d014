package gpu

import (
	"fmt"
	"strings"
)

// Transform is the rotation/flip applied by a crtc when scanning out
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformNames = map[Transform]string{
	TransformNormal:     "normal",
	Transform90:         "90",
	Transform180:        "180",
	Transform270:        "270",
	TransformFlipped:    "flipped",
	TransformFlipped90:  "flipped-90",
	TransformFlipped180: "flipped-180",
	TransformFlipped270: "flipped-270",
}

func (t Transform) String() string {
	if name, ok := transformNames[t]; ok {
		return name
	}
	return fmt.Sprintf("transform(%d)", int(t))
}

// IsRotated reports whether the transform swaps width and height
func (t Transform) IsRotated() bool {
	return t == Transform90 || t == Transform270 || t == TransformFlipped90 || t == TransformFlipped270
}

// IsFlipped reports whether the transform mirrors horizontally
func (t Transform) IsFlipped() bool {
	return t >= TransformFlipped && t <= TransformFlipped270
}

// ParseTransform accepts the names wlr-randr prints
func ParseTransform(s string) (Transform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TransformNormal, nil
	}
	for t, name := range transformNames {
		if name == s {
			return t, nil
		}
	}
	return TransformNormal, fmt.Errorf("unknown transform %q", s)
}
