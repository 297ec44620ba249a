// Package measure renders text on a hidden surface and reports the box it
// occupies at a given font size.
package measure

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// ErrMeasure is returned when the surface cannot produce a size
var ErrMeasure = errors.New("measure: text could not be measured")

// maxCachedFaces bounds the per size face cache
const maxCachedFaces = 256

// Box is the rendered bounding box of a piece of text
type Box struct {
	Width  float64
	Height float64
}

// Measurer reports the rendered box of text at a font size
type Measurer interface {
	Measure(text string, fontSize int) (Box, error)
}

// Func adapts a plain function to a Measurer
type Func func(text string, fontSize int) (Box, error)

// Measure calls f
func (f Func) Measure(text string, fontSize int) (Box, error) {
	return f(text, fontSize)
}

// Surface is the single hidden measurement surface. It mirrors the display's
// font, line spacing and wrapping rules and is never drawn to the screen.
type Surface struct {
	mu          sync.Mutex
	dc          *gg.Context
	font        *truetype.Font
	faces       map[int]font.Face
	lineSpacing float64
	wrap        bool
	wrapWidth   float64
}

// NewSurface creates a measurement surface for font. When wrap is set, lines
// longer than the wrap width are broken on spaces.
func NewSurface(f *truetype.Font, lineSpacing float64, wrap bool) *Surface {
	if lineSpacing <= 0 {
		lineSpacing = 1
	}
	return &Surface{
		dc:          gg.NewContext(1, 1),
		font:        f,
		faces:       make(map[int]font.Face),
		lineSpacing: lineSpacing,
		wrap:        wrap,
	}
}

// SetWrapWidth sets the width at which lines wrap. Zero disables wrapping
// until a width is set again.
func (s *Surface) SetWrapWidth(width float64) {
	s.mu.Lock()
	s.wrapWidth = width
	s.mu.Unlock()
}

// NewFace returns a face of the surface font at fontSize that is not shared
// with the surface, for drawing outside of it.
func (s *Surface) NewFace(fontSize int) (font.Face, error) {
	if fontSize <= 0 || s.font == nil {
		return nil, fmt.Errorf("%w: no face at size %d", ErrMeasure, fontSize)
	}
	return truetype.NewFace(s.font, &truetype.Options{
		Size: float64(fontSize),
	}), nil
}

// Measure returns the tight box of text rendered at fontSize
func (s *Surface) Measure(text string, fontSize int) (Box, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	face, err := s.face(fontSize)
	if err != nil {
		return Box{}, err
	}
	s.dc.SetFontFace(face)

	var box Box
	var lineHeight float64
	lines := s.lines(text)
	for _, line := range lines {
		w, h := s.dc.MeasureString(line)
		if w > box.Width {
			box.Width = w
		}
		lineHeight = h
	}
	n := float64(len(lines))
	box.Height = n*lineHeight*s.lineSpacing - (s.lineSpacing-1)*lineHeight
	return box, nil
}

// Lines returns text broken into the lines the surface would render at
// fontSize.
func (s *Surface) Lines(text string, fontSize int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	face, err := s.face(fontSize)
	if err != nil {
		return nil, err
	}
	s.dc.SetFontFace(face)
	return s.lines(text), nil
}

// LineSpacing returns the line spacing multiplier of the surface
func (s *Surface) LineSpacing() float64 {
	return s.lineSpacing
}

func (s *Surface) lines(text string) []string {
	raw := strings.Split(text, "\n")
	if !s.wrap || s.wrapWidth <= 0 {
		return raw
	}
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, s.dc.WordWrap(line, s.wrapWidth)...)
	}
	return lines
}

func (s *Surface) face(fontSize int) (font.Face, error) {
	if fontSize <= 0 {
		return nil, fmt.Errorf("%w: font size %d", ErrMeasure, fontSize)
	}
	if s.font == nil {
		return nil, fmt.Errorf("%w: no font loaded", ErrMeasure)
	}
	if face, found := s.faces[fontSize]; found {
		return face, nil
	}
	if len(s.faces) >= maxCachedFaces {
		s.faces = make(map[int]font.Face)
	}
	face := truetype.NewFace(s.font, &truetype.Options{
		Size: float64(fontSize),
	})
	s.faces[fontSize] = face
	return face, nil
}
