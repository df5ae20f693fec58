package annotation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/markup/internal/geom"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#ff0000", RGB(255, 0, 0)},
		{"#F00", RGB(255, 0, 0)},
		{"#00ff0080", Color{R: 0, G: 255, B: 0, A: 128}},
		{"blue", RGB(0, 0, 255)},
		{" White ", RGB(255, 255, 255)},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, bad := range []string{"", "#12", "#zzzzzz", "not-a-colour"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	c := Color{R: 0x12, G: 0x34, B: 0x56, A: 0x78}
	assert.Equal(t, "#12345678", c.Hex())
	assert.Equal(t, "#123456", RGB(0x12, 0x34, 0x56).Hex())
	var back Color
	require.NoError(t, back.UnmarshalText([]byte(c.Hex())))
	assert.Equal(t, c, back)
}

func TestWithOpacity(t *testing.T) {
	assert.Equal(t, uint8(128), RGB(1, 2, 3).WithOpacity(0.5).A)
	assert.Equal(t, uint8(255), RGB(1, 2, 3).WithOpacity(4).A)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseKind("rect")
	require.NoError(t, err)
	assert.Equal(t, Rectangle, got)
	_, err = ParseKind("triangle")
	assert.Error(t, err)
	assert.False(t, Select.Drawable())
	assert.True(t, Blur.Drawable())
}

func TestNewAppliesDefaults(t *testing.T) {
	st := DefaultStyle()
	st.StrokeWidth = 99
	st.Opacity = 0.8

	h := New(Highlight, geom.Pt(1, 2), st)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, MaxStrokeWidth, h.StrokeWidth)
	assert.Equal(t, HighlightOpacity, h.Opacity)
	assert.Equal(t, h.Start, h.End)

	st.FontSize = 0
	txt := New(Text, geom.Pt(1, 2), st)
	assert.Equal(t, DefaultFontSize, txt.FontSize)
	assert.Equal(t, 0.8, txt.Opacity)

	f := New(Freehand, geom.Pt(5, 5), st)
	assert.Equal(t, []geom.Point{geom.Pt(5, 5)}, f.Path)
}

func TestExtendFreehandDoesNotAlias(t *testing.T) {
	f := New(Freehand, geom.Pt(0, 0), DefaultStyle())
	a := f.Extend(geom.Pt(1, 1))
	b := f.Extend(geom.Pt(2, 2))
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)}, a.Path)
	assert.Equal(t, []geom.Point{geom.Pt(0, 0), geom.Pt(2, 2)}, b.Path)
	assert.Len(t, a.Extend(geom.Pt(1, 1)).Path, 2)
	assert.Equal(t, geom.Pt(2, 2), b.End)
}

func TestEffectiveFillAndSVGPath(t *testing.T) {
	a := New(Freehand, geom.Pt(10, 20), DefaultStyle()).Extend(geom.Pt(30.5, 40))
	assert.Equal(t, a.Color, a.EffectiveFill())
	fill := RGB(0, 0, 255)
	a.FillColor = &fill
	assert.Equal(t, fill, a.EffectiveFill())
	assert.Equal(t, "M 10 20 L 30.5 40", a.SVGPath())
}

func TestCollectionIsPersistent(t *testing.T) {
	a := New(Rectangle, geom.Pt(0, 0), DefaultStyle())
	a.ZIndex = 0
	b := New(Line, geom.Pt(0, 0), DefaultStyle())
	b.ZIndex = 1

	empty := Collection{}
	one := empty.Append(a)
	two := one.Append(b)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())
	assert.Equal(t, 1, two.MaxZ())
	assert.Equal(t, -1, empty.MaxZ())

	// Appending to a shared prefix must not clobber the sibling.
	other := one.Append(New(Ellipse, geom.Pt(0, 0), DefaultStyle()))
	assert.Equal(t, Line, two.At(1).Kind)
	assert.Equal(t, Ellipse, other.At(1).Kind)

	without, ok := two.Without(a.ID)
	require.True(t, ok)
	assert.Equal(t, 1, without.Len())
	assert.Equal(t, 2, two.Len())
	_, ok = two.Without("missing")
	assert.False(t, ok)

	got, ok := two.ByID(b.ID)
	require.True(t, ok)
	assert.True(t, got.Equal(b))

	var kinds []Kind
	for _, ann := range two.All() {
		kinds = append(kinds, ann.Kind)
	}
	assert.Equal(t, []Kind{Rectangle, Line}, kinds)
	assert.True(t, two.Equal(NewCollection(b, a)))
}

func testDocument() Document {
	a := New(Arrow, geom.Pt(1, 2), DefaultStyle()).Extend(geom.Pt(30, 40))
	a.ZIndex = 0
	txt := New(Text, geom.Pt(5, 6), DefaultStyle())
	txt.Text = "hello"
	txt.ZIndex = 1
	return NewDocument("shot.png", 640, 480, NewCollection(a, txt), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestDocumentEncodeDecode(t *testing.T) {
	doc := testDocument()
	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, doc, f))
		got, err := Decode(&buf, f)
		require.NoError(t, err, f)
		assert.Equal(t, doc.ID, got.ID)
		assert.True(t, doc.SavedAt.Equal(got.SavedAt))
		assert.True(t, doc.Collection().Equal(got.Collection()), f)
	}
}

func TestDocumentJSONShape(t *testing.T) {
	data, err := json.Marshal(testDocument())
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"kind":"arrow"`)
	assert.Contains(t, s, `"color":"#FF0000"`)
	assert.Contains(t, s, `"strokeWidth":4`)
}

func TestDecodeRejectsDuplicates(t *testing.T) {
	doc := testDocument()
	doc.Annotations[1].ID = doc.Annotations[0].ID
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, FormatJSON))
	_, err := Decode(&buf, FormatJSON)
	assert.ErrorContains(t, err, "duplicate annotation id")

	_, err = Decode(strings.NewReader(`{"annotations":[{"id":"x","kind":"select","strokeWidth":1}]}`), FormatJSON)
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.annotations.yml"))
	assert.Equal(t, FormatJSON, FormatForPath("a/b.json"))
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
	assert.Len(t, NewDocumentID(), 26)
}
