package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Format is the encoding of a flattened image.
type Format string

const (
	PNG Format = "png"
	PDF Format = "pdf"
)

// ParseFormat accepts "png" or "pdf". The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img to w in format f. title is stored as PDF metadata.
func Encode(w io.Writer, img image.Image, f Format, title string) error {
	switch f {
	case PNG, "":
		return png.Encode(w, img)
	case PDF:
		return encodePDF(w, img, title)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// encodePDF places img on a single page of exactly its size, one point per
// pixel.
func encodePDF(w io.Writer, img image.Image, title string) error {
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("encode pdf: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode pdf page image: %w", err)
	}

	width, height := float64(b.Dx()), float64(b.Dy())
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("markup", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("page", opt, &buf)
	pdf.ImageOptions("page", 0, 0, width, height, false, opt, 0, "")
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	return pdf.Output(w)
}
