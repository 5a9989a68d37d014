// Package region implements pixel rectangles and rectangle sets used for damage tracking
package region

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Rectangle is an integer rectangle in device or logical pixels
type Rectangle struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Rect is a shorthand constructor
func Rect(x, y, width, height int32) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// Empty reports whether the rectangle covers no pixels
func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Bounds returns the rectangle's boundaries
func (r Rectangle) Bounds() (x1, y1, x2, y2 int32) {
	return r.X, r.Y, r.X + r.Width, r.Y + r.Height
}

// Contains checks if a point is within this rectangle
func (r Rectangle) Contains(x, y int32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersect returns the overlapping part of r and o; the result is empty when they are disjoint
func (r Rectangle) Intersect(o Rectangle) Rectangle {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rectangle{}
	}
	return Rectangle{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Overlaps reports whether r and o share at least one pixel
func (r Rectangle) Overlaps(o Rectangle) bool {
	return !r.Intersect(o).Empty()
}

// Union returns the bounding box of r and o
func (r Rectangle) Union(o Rectangle) Rectangle {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rectangle{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Translate moves the rectangle by (dx, dy)
func (r Rectangle) Translate(dx, dy int32) Rectangle {
	r.X += dx
	r.Y += dy
	return r
}

// Equal compares all four fields
func (r Rectangle) Equal(o Rectangle) bool {
	return r == o
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// RectF is a floating point layout rectangle
type RectF struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Round converts to integer pixels, flooring the origin and ceiling the far edge
// so the result always covers the original area.
func (r RectF) Round() Rectangle {
	x1 := math.Floor(r.X)
	y1 := math.Floor(r.Y)
	x2 := math.Ceil(r.X + r.Width)
	y2 := math.Ceil(r.Y + r.Height)
	return Rectangle{X: int32(x1), Y: int32(y1), Width: int32(x2 - x1), Height: int32(y2 - y1)}
}

// Equal compares all four fields exactly
func (r RectF) Equal(o RectF) bool {
	return r == o
}

// Region is a set of pixels stored as y-x banded, non-overlapping rectangles.
// The representation is canonical, so two regions covering the same pixels
// have identical rectangle lists. The zero value is the empty region.
type Region struct {
	rects []Rectangle
}

// NewRegion builds a region covering the union of rects
func NewRegion(rects ...Rectangle) Region {
	return normalize(rects)
}

// Copy returns an independent copy of the region
func (g Region) Copy() Region {
	if len(g.rects) == 0 {
		return Region{}
	}
	rects := make([]Rectangle, len(g.rects))
	copy(rects, g.rects)
	return Region{rects: rects}
}

// IsEmpty reports whether the region covers no pixels
func (g Region) IsEmpty() bool {
	return len(g.rects) == 0
}

// Rectangles returns a copy of the banded rectangles
func (g Region) Rectangles() []Rectangle {
	out := make([]Rectangle, len(g.rects))
	copy(out, g.rects)
	return out
}

// NumRectangles returns the number of banded rectangles
func (g Region) NumRectangles() int {
	return len(g.rects)
}

// Extents returns the bounding box of the region
func (g Region) Extents() Rectangle {
	var ext Rectangle
	for _, r := range g.rects {
		ext = ext.Union(r)
	}
	return ext
}

// Area returns the number of pixels covered
func (g Region) Area() int64 {
	var area int64
	for _, r := range g.rects {
		area += int64(r.Width) * int64(r.Height)
	}
	return area
}

// Union returns the pixels covered by g or o
func (g Region) Union(o Region) Region {
	if g.IsEmpty() {
		return o.Copy()
	}
	if o.IsEmpty() {
		return g.Copy()
	}
	rects := make([]Rectangle, 0, len(g.rects)+len(o.rects))
	rects = append(rects, g.rects...)
	rects = append(rects, o.rects...)
	return normalize(rects)
}

// UnionRect adds a single rectangle
func (g Region) UnionRect(r Rectangle) Region {
	return g.Union(NewRegion(r))
}

// IntersectRect returns the part of the region inside r
func (g Region) IntersectRect(r Rectangle) Region {
	rects := make([]Rectangle, 0, len(g.rects))
	for _, rr := range g.rects {
		if i := rr.Intersect(r); !i.Empty() {
			rects = append(rects, i)
		}
	}
	return normalize(rects)
}

// Intersect returns the pixels covered by both g and o
func (g Region) Intersect(o Region) Region {
	var rects []Rectangle
	for _, a := range g.rects {
		for _, b := range o.rects {
			if i := a.Intersect(b); !i.Empty() {
				rects = append(rects, i)
			}
		}
	}
	return normalize(rects)
}

// Translate moves every rectangle by (dx, dy)
func (g Region) Translate(dx, dy int32) Region {
	out := g.Copy()
	for i := range out.rects {
		out.rects[i] = out.rects[i].Translate(dx, dy)
	}
	return out
}

// ContainsPoint reports whether the pixel (x, y) is covered
func (g Region) ContainsPoint(x, y int32) bool {
	for _, r := range g.rects {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

// ContainsRect reports whether every pixel of r is covered
func (g Region) ContainsRect(r Rectangle) bool {
	if r.Empty() {
		return true
	}
	return g.IntersectRect(r).Area() == int64(r.Width)*int64(r.Height)
}

// Equal reports whether both regions cover the same pixels
func (g Region) Equal(o Region) bool {
	if len(g.rects) != len(o.rects) {
		return false
	}
	for i := range g.rects {
		if g.rects[i] != o.rects[i] {
			return false
		}
	}
	return true
}

func (g Region) String() string {
	if g.IsEmpty() {
		return "region{}"
	}
	parts := make([]string, len(g.rects))
	for i, r := range g.rects {
		parts[i] = r.String()
	}
	return "region{" + strings.Join(parts, " ") + "}"
}

type span struct {
	x1, x2 int32
}

// normalize decomposes rects into horizontal bands at every distinct y edge,
// merges the x spans inside each band, then coalesces vertically adjacent
// bands with identical spans.
func normalize(rects []Rectangle) Region {
	ys := make([]int32, 0, len(rects)*2)
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		ys = append(ys, r.Y, r.Y+r.Height)
	}
	if len(ys) == 0 {
		return Region{}
	}
	sort.Slice(ys, func(i, j int) bool { return ys[i] < ys[j] })
	ys = dedup(ys)

	type band struct {
		y1, y2 int32
		spans  []span
	}
	var bands []band
	for i := 0; i+1 < len(ys); i++ {
		y1, y2 := ys[i], ys[i+1]
		var spans []span
		for _, r := range rects {
			if r.Empty() || r.Y > y1 || r.Y+r.Height < y2 {
				continue
			}
			spans = append(spans, span{r.X, r.X + r.Width})
		}
		if len(spans) == 0 {
			continue
		}
		spans = mergeSpans(spans)

		if n := len(bands); n > 0 && bands[n-1].y2 == y1 && equalSpans(bands[n-1].spans, spans) {
			bands[n-1].y2 = y2
			continue
		}
		bands = append(bands, band{y1: y1, y2: y2, spans: spans})
	}

	var out []Rectangle
	for _, b := range bands {
		for _, s := range b.spans {
			out = append(out, Rectangle{X: s.x1, Y: b.y1, Width: s.x2 - s.x1, Height: b.y2 - b.y1})
		}
	}
	return Region{rects: out}
}

func dedup(ys []int32) []int32 {
	out := ys[:1]
	for _, y := range ys[1:] {
		if y != out[len(out)-1] {
			out = append(out, y)
		}
	}
	return out
}

func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].x1 < spans[j].x1 })
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.x1 <= last.x2 {
			if s.x2 > last.x2 {
				last.x2 = s.x2
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func equalSpans(a, b []span) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
