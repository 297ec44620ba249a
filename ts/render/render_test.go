package render

import (
	"bytes"
	"fmt"
	"image/png"
	"sync"
	"testing"

	"github.com/Scarpy19/TextScreen/ts/common"
	"github.com/Scarpy19/TextScreen/ts/fit"
	"github.com/Scarpy19/TextScreen/ts/screen"
)

var testStyle = Style{Background: "#000000", Text: "#FFFFFF", Placeholder: "#666666"}

func newLayout(t *testing.T) Layout {
	t.Helper()
	f, err := common.LoadFont("", "")
	if err != nil {
		t.Fatal(err)
	}
	return Layout{Font: f, LineSpacing: 1, Wrap: true}
}

func TestDraw(t *testing.T) {
	state := screen.State{Text: "Hello\nWorld", FontSize: 48}
	dc, err := Draw(state, fit.Viewport{Width: 320, Height: 240}, newLayout(t), testStyle)
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if dc.Width() != 320 || dc.Height() != 240 {
		t.Errorf("Unexpected canvas %dx%d", dc.Width(), dc.Height())
	}

	// Some pixel must be lit by the text
	img := dc.Image()
	lit := false
	for y := 0; y < 240 && !lit; y++ {
		for x := 0; x < 320; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("Expected text drawn on the canvas")
	}
}

func TestDraw_Empty(t *testing.T) {
	dc, err := Draw(screen.State{}, fit.Viewport{}, newLayout(t), testStyle)
	if err != nil {
		t.Fatal(err)
	}
	if dc.Width() != 1 || dc.Height() != 1 {
		t.Errorf("Expected 1x1 canvas, got %dx%d", dc.Width(), dc.Height())
	}
}

func TestEncode(t *testing.T) {
	state := screen.State{Text: "Type something...", FontSize: 32, Placeholder: true}
	dc, err := Draw(state, fit.Viewport{Width: 400, Height: 200}, newLayout(t), testStyle)
	if err != nil {
		t.Fatal(err)
	}

	var pngBytes bytes.Buffer
	if err = EncodePng(&pngBytes, dc); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&pngBytes)
	if err != nil {
		t.Fatalf("Expected valid png: %v", err)
	}
	if img.Bounds().Dx() != 400 {
		t.Errorf("Unexpected png width %d", img.Bounds().Dx())
	}

	var jpgBytes bytes.Buffer
	if err = EncodeJpg(&jpgBytes, dc, 80); err != nil {
		t.Fatal(err)
	}
	if jpgBytes.Len() == 0 {
		t.Error("Expected jpeg bytes")
	}
}

func TestDraw_Concurrent(t *testing.T) {
	layout := newLayout(t)
	text := "the quick brown fox jumps over the lazy dog"
	want, err := Draw(screen.State{Text: text, FontSize: 40}, fit.Viewport{Width: 300, Height: 300},
		layout, testStyle)
	if err != nil {
		t.Fatal(err)
	}
	var expected bytes.Buffer
	EncodePng(&expected, want)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Other widths wrap differently and must not leak into this draw
			width := 300.0
			if i%2 == 1 {
				width = 2000
			}
			dc, err := Draw(screen.State{Text: text, FontSize: 40}, fit.Viewport{Width: width, Height: 300},
				layout, testStyle)
			if err != nil {
				errs <- err
				return
			}
			if width != 300 {
				return
			}
			var got bytes.Buffer
			EncodePng(&got, dc)
			if !bytes.Equal(got.Bytes(), expected.Bytes()) {
				errs <- fmt.Errorf("draw %d differs from the serial draw", i)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestClampDimension(t *testing.T) {
	tests := map[float64]int{-5: 1, 0: 1, 10.4: 10, 10.6: 11, 100000: maxDimension}
	for in, want := range tests {
		if got := clampDimension(in); got != want {
			t.Errorf("clampDimension(%v) = %d, want %d", in, got, want)
		}
	}
}
