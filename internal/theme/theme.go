// Package theme describes the colours of the editor window chrome.
package theme

import (
	"fmt"
	"image/color"
	"reflect"
	"strings"

	"github.com/example/markup/internal/annotation"
)

// Theme defines the colours used around the image being annotated.
type Theme struct {
	Name string

	Background color.RGBA // window area around the canvas
	Foreground color.RGBA // general text

	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonActive          color.RGBA // selected tool
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA

	StatusBackground color.RGBA
	StatusText       color.RGBA
	ErrorText        color.RGBA

	TextCaret color.RGBA // pending text entry marker

	// Transparent regions of the image are shown on a checkerboard.
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{220, 220, 220, 255},
		Foreground:            color.RGBA{0, 0, 0, 255},
		ToolbarBackground:     color.RGBA{220, 220, 220, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonActive:          color.RGBA{150, 150, 150, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonBorder:          color.RGBA{0, 0, 0, 255},
		StatusBackground:      color.RGBA{240, 240, 240, 255},
		StatusText:            color.RGBA{40, 40, 40, 255},
		ErrorText:             color.RGBA{180, 0, 0, 255},
		TextCaret:             color.RGBA{0, 90, 255, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
	}
}

// Set assigns the colour field named key (case-insensitive). "Name" sets the
// theme name. Unknown keys are ignored so newer theme files still load.
func (t *Theme) Set(key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	v := reflect.ValueOf(t).Elem()
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !strings.EqualFold(f.Name, key) || f.Type != reflect.TypeOf(color.RGBA{}) {
			continue
		}
		c, err := annotation.ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		v.Field(i).Set(reflect.ValueOf(color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}))
		return nil
	}
	return nil
}

// Field is one named colour of a theme.
type Field struct {
	Key   string
	Color color.RGBA
}

// Fields lists the colour fields in declaration order.
func (t *Theme) Fields() []Field {
	v := reflect.ValueOf(t).Elem()
	typ := v.Type()
	var out []Field
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := v.Field(i).Interface().(color.RGBA); ok {
			out = append(out, Field{Key: typ.Field(i).Name, Color: c})
		}
	}
	return out
}

// Hex formats c as #RRGGBB or #RRGGBBAA. Channel bytes are written as
// stored, matching how Set reads them.
func Hex(c color.RGBA) string {
	return annotation.Color{R: c.R, G: c.G, B: c.B, A: c.A}.Hex()
}
