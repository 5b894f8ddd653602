// Package scene is the renderable model produced by layout and ornament
// generation: named layers of primitive shapes addressed by note ID.
//
// A Scene is the single source of truth for what is drawn. Renderers
// (SVG, JSON, YAML) are projections of it and are never parsed back.
package scene

import (
	"slices"
)

// Kind identifies a primitive shape.
type Kind string

const (
	KindLine     Kind = "line"
	KindCircle   Kind = "circle"
	KindPolyline Kind = "polyline"
	KindText     Kind = "text"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Shape is one drawable primitive. Which geometry fields are meaningful
// depends on Kind: Line uses X1..Y2, Circle uses X, Y and R, Polyline uses
// Points, Text uses X, Y and Text.
type Shape struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	NoteID string `json:"note_id,omitempty" yaml:"note_id,omitempty"`
	Class  string `json:"class,omitempty" yaml:"class,omitempty"`

	X1 float64 `json:"x1,omitempty" yaml:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty" yaml:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty" yaml:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty" yaml:"y2,omitempty"`

	X float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y float64 `json:"y,omitempty" yaml:"y,omitempty"`
	R float64 `json:"r,omitempty" yaml:"r,omitempty"`

	Points []Point `json:"points,omitempty" yaml:"points,omitempty"`
	Text   string  `json:"text,omitempty" yaml:"text,omitempty"`

	Stroke string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Fill   string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`

	Meta map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Line returns a line shape.
func Line(x1, y1, x2, y2 float64) Shape {
	return Shape{Kind: KindLine, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Circle returns a circle shape.
func Circle(x, y, r float64) Shape {
	return Shape{Kind: KindCircle, X: x, Y: y, R: r}
}

// Polyline returns a polyline through pts.
func Polyline(pts []Point) Shape {
	return Shape{Kind: KindPolyline, Points: pts}
}

// Text returns a text label anchored at x, y.
func Text(x, y float64, s string) Shape {
	return Shape{Kind: KindText, X: x, Y: y, Text: s}
}

// Layer is an ordered set of shape groups. Groups are keyed so that a
// generator can replace exactly the shapes it drew before.
type Layer struct {
	Name string

	// Projected marks layers whose geometry is already in screen space
	// (ornaments computed at the current zoom). Other layers hold model
	// coordinates and are transformed when rendered.
	Projected bool

	keys   []string
	groups map[string][]Shape
}

// Scene is an ordered stack of layers, drawn first to last.
type Scene struct {
	Width  float64
	Height float64

	layers []*Layer
	byName map[string]*Layer
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{byName: make(map[string]*Layer)}
}

// AddLayer appends a layer if it does not exist yet and returns it.
func (s *Scene) AddLayer(name string, projected bool) *Layer {
	if l, ok := s.byName[name]; ok {
		return l
	}
	l := &Layer{Name: name, Projected: projected, groups: make(map[string][]Shape)}
	s.layers = append(s.layers, l)
	s.byName[name] = l
	return l
}

// Layer returns the named layer, or nil.
func (s *Scene) Layer(name string) *Layer {
	return s.byName[name]
}

// Layers returns the layers in drawing order.
func (s *Scene) Layers() []*Layer {
	return slices.Clone(s.layers)
}

// Add appends shapes to the layer's ungrouped set, creating the layer if
// needed.
func (s *Scene) Add(layer string, shapes ...Shape) {
	l := s.AddLayer(layer, false)
	l.add("", shapes)
}

// ReplaceGroup sets the shapes of one group, discarding whatever the group
// held before. Calling it twice with the same key never duplicates shapes.
// An empty shapes slice removes the group.
func (s *Scene) ReplaceGroup(layer, key string, shapes []Shape) {
	l := s.byName[layer]
	if l == nil {
		if len(shapes) == 0 {
			return
		}
		l = s.AddLayer(layer, false)
	}
	l.remove(key)
	l.add(key, shapes)
}

// RemoveGroup drops a group and reports whether it existed.
func (s *Scene) RemoveGroup(layer, key string) bool {
	l := s.byName[layer]
	if l == nil {
		return false
	}
	return l.remove(key)
}

// Clear empties a layer but keeps its position in the stack.
func (s *Scene) Clear(layer string) {
	if l := s.byName[layer]; l != nil {
		l.keys = nil
		clear(l.groups)
	}
}

// Shapes returns every shape of a layer in group insertion order.
func (s *Scene) Shapes(layer string) []Shape {
	l := s.byName[layer]
	if l == nil {
		return nil
	}
	return l.Shapes()
}

// Group returns the shapes of one group.
func (s *Scene) Group(layer, key string) []Shape {
	l := s.byName[layer]
	if l == nil {
		return nil
	}
	return slices.Clone(l.groups[key])
}

// ByNote returns every shape in every layer tagged with noteID.
func (s *Scene) ByNote(noteID string) []Shape {
	var out []Shape
	for _, l := range s.layers {
		for _, sh := range l.Shapes() {
			if sh.NoteID == noteID {
				out = append(out, sh)
			}
		}
	}
	return out
}

// Shapes returns the layer's shapes in group insertion order.
func (l *Layer) Shapes() []Shape {
	var out []Shape
	for _, k := range l.keys {
		out = append(out, l.groups[k]...)
	}
	return out
}

// Groups returns the group keys in insertion order.
func (l *Layer) Groups() []string {
	return slices.Clone(l.keys)
}

// Len returns the number of shapes in the layer.
func (l *Layer) Len() int {
	n := 0
	for _, g := range l.groups {
		n += len(g)
	}
	return n
}

func (l *Layer) add(key string, shapes []Shape) {
	if len(shapes) == 0 {
		return
	}
	if _, ok := l.groups[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.groups[key] = append(l.groups[key], shapes...)
}

func (l *Layer) remove(key string) bool {
	if _, ok := l.groups[key]; !ok {
		return false
	}
	delete(l.groups, key)
	l.keys = slices.DeleteFunc(l.keys, func(k string) bool { return k == key })
	return true
}
