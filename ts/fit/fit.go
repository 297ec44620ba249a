// Package fit finds the largest font size at which text fits a viewport
// budget.
//
// The search is a single binary search over the integer size range. A probe
// fits when its measured box is within the budget on both axes, allowing
// Options.Tolerance units of overflow for subpixel rounding. The largest
// fitting probe wins; when nothing fits the minimum size is used.
package fit

import (
	"math"
	"strings"

	"github.com/Scarpy19/TextScreen/ts/measure"
)

// DefaultPlaceholder is shown while there is no user text
const DefaultPlaceholder = "Type something..."

// Viewport is the live size of the page
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Budget is the box rendered text may occupy
type Budget struct {
	Viewport  Viewport `json:"viewport"`
	MaxWidth  float64  `json:"maxWidth"`
	MaxHeight float64  `json:"maxHeight"`
}

// NewBudget derives a budget as a fraction of each viewport dimension
func NewBudget(vp Viewport, widthFraction, heightFraction float64) Budget {
	return Budget{
		Viewport:  vp,
		MaxWidth:  vp.Width * widthFraction,
		MaxHeight: vp.Height * heightFraction,
	}
}

// Bounds is the inclusive font size search domain
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DeriveBounds sizes the search domain from the budget. The upper bound is
// twice the smaller budget dimension, limited to limit when limit > 0.
func DeriveBounds(budget Budget, minSize int, limit int) Bounds {
	maxSize := int(2 * math.Min(budget.MaxWidth, budget.MaxHeight))
	if limit > 0 && maxSize > limit {
		maxSize = limit
	}
	if maxSize < minSize {
		maxSize = minSize
	}
	return Bounds{Min: minSize, Max: maxSize}
}

// Options tune the solver
type Options struct {
	Tolerance        float64
	MaxProbes        int
	PlaceholderText  string
	PlaceholderFloor int
	PlaceholderRatio float64
}

// DefaultOptions returns the solver defaults
func DefaultOptions() Options {
	return Options{
		Tolerance:        1,
		MaxProbes:        50,
		PlaceholderText:  DefaultPlaceholder,
		PlaceholderFloor: 32,
		PlaceholderRatio: 0.1,
	}
}

// Result is the outcome of a solve
type Result struct {
	Size        int  `json:"size"`
	Placeholder bool `json:"placeholder"`
	Fitted      bool `json:"fitted"` // false when no probed size fit and Size fell back to the minimum
	Probes      int  `json:"probes"`
}

// Solver runs the font size search against a Measurer
type Solver struct {
	measurer measure.Measurer
	opts     Options
}

// NewSolver returns a solver measuring with m
func NewSolver(m measure.Measurer, opts Options) *Solver {
	defaults := DefaultOptions()
	if opts.MaxProbes <= 0 {
		opts.MaxProbes = defaults.MaxProbes
	}
	if len(opts.PlaceholderText) == 0 {
		opts.PlaceholderText = defaults.PlaceholderText
	}
	if opts.PlaceholderRatio <= 0 {
		opts.PlaceholderRatio = defaults.PlaceholderRatio
	}
	return &Solver{measurer: m, opts: opts}
}

// Options returns the options in use
func (s *Solver) Options() Options {
	return s.opts
}

// IsPlaceholder reports whether text should show the placeholder instead
func (s *Solver) IsPlaceholder(text string) bool {
	return strings.TrimSpace(text) == "" || text == s.opts.PlaceholderText
}

// PlaceholderSize is the fixed size used in placeholder mode
func (s *Solver) PlaceholderSize(vp Viewport) int {
	size := int(math.Round(math.Min(vp.Width, vp.Height) * s.opts.PlaceholderRatio))
	if size < s.opts.PlaceholderFloor {
		size = s.opts.PlaceholderFloor
	}
	return size
}

// Solve returns the largest size in bounds whose measured box fits budget
func (s *Solver) Solve(text string, budget Budget, bounds Bounds) Result {
	if s.IsPlaceholder(text) {
		return Result{Size: s.PlaceholderSize(budget.Viewport), Placeholder: true}
	}
	if bounds.Max < bounds.Min {
		bounds.Max = bounds.Min
	}

	result := Result{Size: bounds.Min}
	low, high := bounds.Min, bounds.Max
	for low <= high && result.Probes < s.opts.MaxProbes {
		mid := low + (high-low)/2
		result.Probes++
		if s.fits(text, mid, budget) {
			result.Size = mid
			result.Fitted = true
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return result
}

// Fits reports whether text at size is within budget
func (s *Solver) Fits(text string, size int, budget Budget) bool {
	return s.fits(text, size, budget)
}

func (s *Solver) fits(text string, size int, budget Budget) bool {
	box, err := s.measurer.Measure(text, size)
	if err != nil {
		// Treated as too large so the search moves to smaller sizes
		return false
	}
	return box.Width <= budget.MaxWidth+s.opts.Tolerance &&
		box.Height <= budget.MaxHeight+s.opts.Tolerance
}
