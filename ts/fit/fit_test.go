package fit

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Scarpy19/TextScreen/ts/common"
	"github.com/Scarpy19/TextScreen/ts/measure"
)

// linear is a measurer where every rune is 0.6em wide and lines are 1.2em
func linear(calls *int) measure.Measurer {
	return measure.Func(func(text string, size int) (measure.Box, error) {
		if calls != nil {
			*calls++
		}
		return measure.Box{
			Width:  0.6 * float64(len([]rune(text))*size),
			Height: 1.2 * float64(size),
		}, nil
	})
}

func goRegularSurface(t *testing.T) *measure.Surface {
	t.Helper()
	f, err := common.LoadFont("", "")
	if err != nil {
		t.Fatalf("LoadFont failed: %v", err)
	}
	return measure.NewSurface(f, 1.0, false)
}

func TestSolve_Tight(t *testing.T) {
	surface := goRegularSurface(t)
	solver := NewSolver(surface, DefaultOptions())
	budget := Budget{Viewport: Viewport{1920, 1080}, MaxWidth: 960, MaxHeight: 540}
	bounds := Bounds{Min: 10, Max: 500}

	result := solver.Solve("Hello", budget, bounds)
	if result.Placeholder || !result.Fitted {
		t.Fatalf("Expected a fitted result, got %+v", result)
	}
	tol := solver.Options().Tolerance

	box, _ := surface.Measure("Hello", result.Size)
	if box.Width > budget.MaxWidth+tol || box.Height > budget.MaxHeight+tol {
		t.Errorf("Size %d overflows budget: %v", result.Size, box)
	}
	if result.Size == bounds.Max {
		t.Fatalf("Expected the budget to bind before the bound, got %d", result.Size)
	}
	next, _ := surface.Measure("Hello", result.Size+1)
	if next.Width <= budget.MaxWidth+tol && next.Height <= budget.MaxHeight+tol {
		t.Errorf("Size %d also fits (%v), result is not tight", result.Size+1, next)
	}
}

func TestSolve_WithinBounds(t *testing.T) {
	solver := NewSolver(linear(nil), DefaultOptions())
	tests := []struct {
		text   string
		budget Budget
		bounds Bounds
	}{
		{"a", Budget{MaxWidth: 10000, MaxHeight: 10000}, Bounds{10, 500}},
		{"a very long line of text that will not fit", Budget{MaxWidth: 5, MaxHeight: 5}, Bounds{10, 500}},
		{"mid", Budget{MaxWidth: 300, MaxHeight: 200}, Bounds{10, 500}},
		{"inverted", Budget{MaxWidth: 300, MaxHeight: 200}, Bounds{40, 20}},
	}
	for _, tt := range tests {
		result := solver.Solve(tt.text, tt.budget, tt.bounds)
		upper := tt.bounds.Max
		if upper < tt.bounds.Min {
			upper = tt.bounds.Min
		}
		if result.Size < tt.bounds.Min || result.Size > upper {
			t.Errorf("%q: size %d outside [%d, %d]", tt.text, result.Size, tt.bounds.Min, upper)
		}
	}
}

func TestSolve_NothingFits(t *testing.T) {
	solver := NewSolver(linear(nil), DefaultOptions())
	result := solver.Solve("does not fit", Budget{MaxWidth: 1, MaxHeight: 1}, Bounds{12, 400})
	if result.Size != 12 || result.Fitted {
		t.Errorf("Expected fallback to minimum, got %+v", result)
	}
}

func TestSolve_Monotonic(t *testing.T) {
	solver := NewSolver(linear(nil), DefaultOptions())
	bounds := Bounds{10, 500}
	prev := 0
	for w := 50.0; w <= 2000; w += 75 {
		result := solver.Solve("monotonic", Budget{MaxWidth: w, MaxHeight: w / 2}, bounds)
		if result.Size < prev {
			t.Errorf("Budget %v gave %d, smaller than %d for a smaller budget", w, result.Size, prev)
		}
		prev = result.Size
	}
}

func TestSolve_Idempotent(t *testing.T) {
	solver := NewSolver(goRegularSurface(t), DefaultOptions())
	budget := Budget{MaxWidth: 700, MaxHeight: 300}
	a := solver.Solve("same input", budget, Bounds{10, 500})
	b := solver.Solve("same input", budget, Bounds{10, 500})
	if a != b {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}
}

func TestSolve_Placeholder(t *testing.T) {
	calls := 0
	solver := NewSolver(linear(&calls), DefaultOptions())
	budget := NewBudget(Viewport{1920, 1080}, 0.95, 0.85)
	for _, text := range []string{"", "   ", "\n\t", DefaultPlaceholder} {
		result := solver.Solve(text, budget, Bounds{10, 500})
		if !result.Placeholder {
			t.Errorf("%q: expected placeholder mode", text)
		}
		if result.Size != 108 {
			t.Errorf("%q: expected size 108, got %d", text, result.Size)
		}
	}
	if calls != 0 {
		t.Errorf("Placeholder mode measured %d times", calls)
	}
}

func TestPlaceholderSize_Floor(t *testing.T) {
	solver := NewSolver(linear(nil), DefaultOptions())
	if size := solver.PlaceholderSize(Viewport{320, 200}); size != 32 {
		t.Errorf("Expected floor of 32, got %d", size)
	}
}

func TestSolve_MeasurementCeiling(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	calls := 0
	erratic := measure.Func(func(text string, size int) (measure.Box, error) {
		calls++
		return measure.Box{Width: rng.Float64() * 2000, Height: rng.Float64() * 2000}, nil
	})
	opts := DefaultOptions()
	opts.MaxProbes = 5
	solver := NewSolver(erratic, opts)
	result := solver.Solve("erratic", Budget{MaxWidth: 1000, MaxHeight: 1000}, Bounds{1, 1 << 20})
	if calls > 5 || result.Probes > 5 {
		t.Errorf("Expected at most 5 probes, got %d calls / %d probes", calls, result.Probes)
	}
}

func TestSolve_MeasureErrorDoesNotFit(t *testing.T) {
	failing := measure.Func(func(text string, size int) (measure.Box, error) {
		if size > 50 {
			return measure.Box{}, errors.New("surface unavailable")
		}
		return measure.Box{Width: float64(size), Height: float64(size)}, nil
	})
	solver := NewSolver(failing, DefaultOptions())
	result := solver.Solve("x", Budget{MaxWidth: 1000, MaxHeight: 1000}, Bounds{10, 500})
	if result.Size != 50 {
		t.Errorf("Expected search to settle below failing sizes at 50, got %d", result.Size)
	}
}

func TestDeriveBounds(t *testing.T) {
	budget := NewBudget(Viewport{1000, 800}, 0.5, 0.5)
	if b := DeriveBounds(budget, 10, 0); b.Min != 10 || b.Max != 800 {
		t.Errorf("Unexpected derived bounds %+v", b)
	}
	if b := DeriveBounds(budget, 10, 400); b.Max != 400 {
		t.Errorf("Expected cap of 400, got %+v", b)
	}
	if b := DeriveBounds(Budget{}, 10, 0); b.Max != 10 {
		t.Errorf("Expected max raised to min, got %+v", b)
	}
}
