package geom

import (
	"fmt"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
)

// MapPointer converts a pointer position in client (screen) coordinates to the
// native pixel space of a surface that is displayed inside bounds. A surface
// that has not been laid out yet (zero width or height) maps everything to the
// origin.
func MapPointer(client Point, bounds Rect, native Size) Point {
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Point{}
	}
	scaleX := native.W / w
	scaleY := native.H / h
	return Point{
		X: (client.X - bounds.Min.X) * scaleX,
		Y: (client.Y - bounds.Min.Y) * scaleY,
	}
}

// Viewport describes where the surface is shown on screen. Bounds is the
// on-screen bounding rectangle after rotation; Quarter is the display rotation
// in clockwise quarter turns around the centre of Bounds.
type Viewport struct {
	Bounds  Rect
	Quarter int
}

// Turns returns Quarter normalised to 0..3.
func (v Viewport) Turns() int {
	return ((v.Quarter % 4) + 4) % 4
}

// Map converts a client position to native surface coordinates.
func (v Viewport) Map(client Point, native Size) Point {
	if v.Bounds.Dx() == 0 || v.Bounds.Dy() == 0 {
		return Point{}
	}
	if v.Turns() == 0 {
		return MapPointer(client, v.Bounds, native)
	}
	inv, err := ViewTransform(native, v).Invert()
	if err != nil {
		return Point{}
	}
	return inv.Apply(client)
}

// Transform is a 2D affine transform stored as a 3x3 homogeneous matrix.
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		1, 0, tx,
		0, 1, ty,
		0, 0, 1,
	})}
}

// ScaleXY returns a non-uniform scale.
func ScaleXY(sx, sy float64) Transform {
	return Transform{m: mat.NewDense(3, 3, []float64{
		sx, 0, 0,
		0, sy, 0,
		0, 0, 1,
	})}
}

// QuarterTurn returns a clockwise rotation by q quarter turns (in screen
// space, where Y grows downwards). Exact values avoid drift from math.Sin.
func QuarterTurn(q int) Transform {
	c, s := 1.0, 0.0
	switch ((q % 4) + 4) % 4 {
	case 1:
		c, s = 0, 1
	case 2:
		c, s = -1, 0
	case 3:
		c, s = 0, -1
	}
	return Transform{m: mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})}
}

// Then returns the transform that applies t followed by next.
func (t Transform) Then(next Transform) Transform {
	var out mat.Dense
	out.Mul(next.m, t.m)
	return Transform{m: &out}
}

// Apply maps p through the transform.
func (t Transform) Apply(p Point) Point {
	m := t.m
	return Point{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2),
	}
}

// Invert returns the inverse transform.
func (t Transform) Invert() (Transform, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.m); err != nil {
		return Transform{}, fmt.Errorf("invert view transform: %w", err)
	}
	return Transform{m: &inv}, nil
}

// Aff3 returns the transform in the layout used by golang.org/x/image/draw.
func (t Transform) Aff3() f64.Aff3 {
	m := t.m
	return f64.Aff3{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
	}
}

// ViewTransform builds the native-to-screen transform for a viewport: the
// surface is scaled to fill the unrotated display box, rotated around its
// centre and centred inside v.Bounds.
func ViewTransform(native Size, v Viewport) Transform {
	dw, dh := v.Bounds.Dx(), v.Bounds.Dy()
	if v.Turns()%2 == 1 {
		dw, dh = dh, dw
	}
	sx, sy := 1.0, 1.0
	if !native.Empty() {
		sx = dw / native.W
		sy = dh / native.H
	}
	c := v.Bounds.Center()
	return Translate(-native.W/2, -native.H/2).
		Then(ScaleXY(sx, sy)).
		Then(QuarterTurn(v.Turns())).
		Then(Translate(c.X, c.Y))
}
