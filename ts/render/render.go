// Package render draws what a screen displays into an image
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/Scarpy19/TextScreen/ts/fit"
	"github.com/Scarpy19/TextScreen/ts/measure"
	"github.com/Scarpy19/TextScreen/ts/screen"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pixiv/go-libjpeg/jpeg"
)

// Style holds the hex colours used when drawing
type Style struct {
	Background  string
	Text        string
	Placeholder string
}

// Layout is the text layout the screen measured with
type Layout struct {
	Font        *truetype.Font
	LineSpacing float64
	Wrap        bool
}

// maxDimension keeps snapshot images to a sane size
const maxDimension = 4096

// Draw renders state centred on a viewport sized canvas. It lays text out on
// its own surface and never touches the one a screen fits with.
func Draw(state screen.State, vp fit.Viewport, layout Layout, style Style) (*gg.Context, error) {
	width := clampDimension(vp.Width)
	height := clampDimension(vp.Height)
	dc := gg.NewContext(width, height)
	dc.SetHexColor(style.Background)
	dc.Clear()

	if state.FontSize <= 0 || len(state.Text) == 0 {
		return dc, nil
	}
	surface := measure.NewSurface(layout.Font, layout.LineSpacing, layout.Wrap)
	surface.SetWrapWidth(vp.Width)
	face, err := surface.NewFace(state.FontSize)
	if err != nil {
		return dc, err
	}
	lines, err := surface.Lines(state.Text, state.FontSize)
	if err != nil {
		return dc, err
	}
	box, err := surface.Measure(state.Text, state.FontSize)
	if err != nil {
		return dc, err
	}

	if state.Placeholder {
		dc.SetHexColor(style.Placeholder)
	} else {
		dc.SetHexColor(style.Text)
	}
	dc.SetFontFace(face)

	_, lineHeight := dc.MeasureString(state.Text)
	step := lineHeight * surface.LineSpacing()
	y := (float64(height) - box.Height) / 2
	for i, line := range lines {
		// Anchor on the top of each line
		dc.DrawStringAnchored(line, float64(width)/2, y+float64(i)*step, 0.5, 0.8)
	}
	return dc, nil
}

// EncodeJpg writes the canvas as a JPEG
func EncodeJpg(w io.Writer, dc *gg.Context, quality int) error {
	if err := jpeg.Encode(w, dc.Image(), &jpeg.EncoderOptions{Quality: quality}); err != nil {
		return fmt.Errorf("jpeg encode failed: %w", err)
	}
	return nil
}

// EncodePng writes the canvas as a PNG
func EncodePng(w io.Writer, dc *gg.Context) error {
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return nil
}

func clampDimension(v float64) int {
	d := int(math.Round(v))
	if d < 1 {
		return 1
	}
	if d > maxDimension {
		return maxDimension
	}
	return d
}
