package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow describes a soft drop shadow placed behind an exported image.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadow is the shadow used when exports ask for one without
// further settings.
func DefaultShadow() Shadow {
	return Shadow{Radius: 24, Offset: image.Pt(16, 16), Opacity: 0.55}
}

// Apply returns img on a larger transparent canvas with the shadow behind
// it, plus where img's top-left corner landed. A zero opacity returns img
// unchanged.
func (s Shadow) Apply(img *image.RGBA) (*image.RGBA, image.Point) {
	if img == nil || img.Bounds().Empty() || s.Opacity <= 0 {
		return img, image.Point{}
	}
	opacity := min(s.Opacity, 1)
	radius := max(s.Radius, 0)

	src := img.Bounds()
	silhouette := src.Inset(-radius)
	cast := silhouette.Add(s.Offset)
	canvas := src.Union(cast)

	mask := image.NewAlpha(silhouette.Sub(silhouette.Min))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			if a := img.RGBAAt(x, y).A; a != 0 {
				mask.SetAlpha(x-silhouette.Min.X, y-silhouette.Min.Y, color.Alpha{A: a})
			}
		}
	}
	mask = boxBlur(mask, radius)

	out := image.NewRGBA(canvas.Sub(canvas.Min))
	tint := image.NewUniform(color.NRGBA{A: uint8(opacity*255 + 0.5)})
	at := cast.Min.Sub(canvas.Min)
	draw.DrawMask(out, mask.Bounds().Add(at), tint, image.Point{}, mask, image.Point{}, draw.Over)
	shift := src.Min.Sub(canvas.Min)
	draw.Draw(out, src.Sub(canvas.Min), img, src.Min, draw.Over)
	return out, shift
}

// boxBlur runs a separable running-sum box filter of the given radius.
func boxBlur(src *image.Alpha, radius int) *image.Alpha {
	b := src.Bounds()
	out := image.NewAlpha(b)
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := b.Dx(), b.Dy()
	tmp := image.NewAlpha(b)
	blur1D(w, h, radius,
		func(i, j int) int { return int(src.Pix[j*src.Stride+i]) },
		func(i, j int, v uint8) { tmp.Pix[j*tmp.Stride+i] = v })
	blur1D(h, w, radius,
		func(i, j int) int { return int(tmp.Pix[i*tmp.Stride+j]) },
		func(i, j int, v uint8) { out.Pix[i*out.Stride+j] = v })
	return out
}

// blur1D averages along the first axis of length n for each of m lines.
func blur1D(n, m, radius int, get func(i, j int) int, set func(i, j int, v uint8)) {
	prefix := make([]int, n+1)
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + get(i, j)
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			set(i, j, uint8((prefix[hi+1]-prefix[lo])/(hi-lo+1)))
		}
	}
}
