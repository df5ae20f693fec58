package render

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

func regularFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
		if regularErr != nil {
			regularErr = fmt.Errorf("parse goregular: %w", regularErr)
		}
	})
	return regular, regularErr
}

// faceCache holds faces for one painter. font.Face values are not safe for
// concurrent use, so caches are never shared between renders.
type faceCache struct {
	faces map[float64]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{faces: make(map[float64]font.Face)}
}

func (c *faceCache) face(size float64) (font.Face, error) {
	if size <= 0 || math.IsNaN(size) {
		return nil, fmt.Errorf("invalid font size %v", size)
	}
	if f, ok := c.faces[size]; ok {
		return f, nil
	}
	ft, err := regularFont()
	if err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face %v: %w", size, err)
	}
	c.faces[size] = f
	return f, nil
}

// MeasureText reports the advance width, ascent and descent of s at size.
func MeasureText(s string, size float64) (width, ascent, descent int, err error) {
	f, err := newFaceCache().face(size)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()
	m := f.Metrics()
	return font.MeasureString(f, s).Ceil(), m.Ascent.Ceil(), m.Descent.Ceil(), nil
}
