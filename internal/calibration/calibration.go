package calibration

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
)

// Point is one measured reference patch.
type Point struct {
	Kind     Kind              `json:"kind"`
	Measured colorspace.Linear `json:"measured_linear"`
}

// Snapshot is an immutable calibration state. The zero value holds no points
// and applies the identity mapping.
type Snapshot struct {
	points  [numKinds]Point
	present [numKinds]bool
}

// With returns a copy of s holding p, replacing any point of the same kind.
// Points of an unknown kind are ignored.
func (s Snapshot) With(p Point) Snapshot {
	if !p.Kind.Valid() {
		return s
	}
	s.points[p.Kind] = p
	s.present[p.Kind] = true
	return s
}

// Len returns the number of stored points (0-3).
func (s Snapshot) Len() int {
	n := 0
	for _, ok := range s.present {
		if ok {
			n++
		}
	}
	return n
}

// Ready reports whether at least two distinct kinds are stored.
func (s Snapshot) Ready() bool {
	return s.Len() >= 2
}

// Points returns the stored points in kind order.
func (s Snapshot) Points() []Point {
	out := make([]Point, 0, numKinds)
	for k, ok := range s.present {
		if ok {
			out = append(out, s.points[k])
		}
	}
	return out
}

// Point returns the stored point of kind k, if any.
func (s Snapshot) Point(k Kind) (Point, bool) {
	if !k.Valid() || !s.present[k] {
		return Point{}, false
	}
	return s.points[k], true
}

// Apply maps c through the per-channel correction curves. It is the identity
// until the snapshot is Ready.
func (s Snapshot) Apply(c colorspace.Linear) colorspace.Linear {
	if !s.Ready() {
		return c
	}
	return colorspace.Linear{
		R: interpolate(s.anchors(func(l colorspace.Linear) float64 { return l.R }), c.R),
		G: interpolate(s.anchors(func(l colorspace.Linear) float64 { return l.G }), c.G),
		B: interpolate(s.anchors(func(l colorspace.Linear) float64 { return l.B }), c.B),
	}
}

type anchor struct {
	x, y float64
}

// anchors builds the sorted (measured, target) list for one channel,
// synthesizing (0,0) and (1,1) when no black or white reference exists.
func (s Snapshot) anchors(channel func(colorspace.Linear) float64) []anchor {
	list := make([]anchor, 0, numKinds+2)
	hasZero, hasOne := false, false
	for _, p := range s.Points() {
		target := p.Kind.Target()
		hasZero = hasZero || target == 0
		hasOne = hasOne || target == 1
		list = append(list, anchor{x: clamp01(channel(p.Measured)), y: target})
	}
	if !hasZero {
		list = append(list, anchor{x: 0, y: 0})
	}
	if !hasOne {
		list = append(list, anchor{x: 1, y: 1})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].x < list[j].x })
	return list
}

func interpolate(list []anchor, x float64) float64 {
	x = clamp01(x)
	for i := 0; i+1 < len(list); i++ {
		a, b := list[i], list[i+1]
		if x > b.x {
			continue
		}
		t := 0.0
		if b.x != a.x {
			t = (x - a.x) / (b.x - a.x)
		}
		return clamp01(a.y + t*(b.y-a.y))
	}
	return list[len(list)-1].y
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Calibration is the session-owned, mutable calibration model.
//
// Calibration is safe for concurrent use. Readers should call Snapshot once
// and work from the returned value.
type Calibration struct {
	mu    sync.RWMutex
	state Snapshot
}

// New returns an empty calibration.
func New() *Calibration {
	return &Calibration{}
}

// Add stores a reference measurement, replacing any previous point of the
// same kind.
func (c *Calibration) Add(kind Kind, measured colorspace.Linear) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown calibration kind %d", int(kind))
	}
	c.mu.Lock()
	c.state = c.state.With(Point{Kind: kind, Measured: measured})
	c.mu.Unlock()
	return nil
}

// Clear removes every stored point.
func (c *Calibration) Clear() {
	c.mu.Lock()
	c.state = Snapshot{}
	c.mu.Unlock()
}

// Replace swaps the whole state for s.
func (c *Calibration) Replace(s Snapshot) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Ready reports whether at least two distinct kinds are stored.
func (c *Calibration) Ready() bool {
	return c.Snapshot().Ready()
}

// Snapshot returns a copy of the current state.
func (c *Calibration) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
