// Package screen coordinates input, viewport and fullscreen events for one
// display and re-runs the font fit whenever any of them change.
package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/Scarpy19/TextScreen/ts/common"
	"github.com/Scarpy19/TextScreen/ts/fit"
	"github.com/Scarpy19/TextScreen/ts/fullscreen"
	"github.com/Scarpy19/TextScreen/ts/store"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownEvent is returned for events without a handler
var ErrUnknownEvent = errors.New("screen: unknown event")

// EventKind names an event the page reports
type EventKind string

// Events handled by a Screen
const (
	EventInput            EventKind = "input"
	EventPaste            EventKind = "paste"
	EventResize           EventKind = "resize"
	EventOrientation      EventKind = "orientation"
	EventFullscreenChange EventKind = "fullscreenchange"
	EventToggleFullscreen EventKind = "toggle"
	EventClick            EventKind = "click"
)

// Event is a synthetic page event. Selection offsets and the caret count
// UTF-16 code units, as the page's text input does.
type Event struct {
	Kind           EventKind `json:"kind" binding:"required"`
	Seq            int64     `json:"seq"` // page send order, 0 when unordered
	Text           string    `json:"text"`
	Caret          *int      `json:"caret"`
	SelectionStart int       `json:"selectionStart"`
	SelectionEnd   int       `json:"selectionEnd"`
	Width          float64   `json:"width"`
	Height         float64   `json:"height"`
	Fullscreen     bool      `json:"fullscreen"`
	OnControl      bool      `json:"onControl"` // click landed on a page button
}

// WrapSurface is a measurement surface whose wrap width follows the viewport
type WrapSurface interface {
	SetWrapWidth(width float64)
}

// Options configure a Screen
type Options struct {
	Viewport       fit.Viewport
	WidthFraction  float64
	HeightFraction float64
	MinFontSize    int
	MaxFontSize    int // 0 derives the cap from the viewport
	Debounce       time.Duration
	Orientation    string

	Surface    WrapSurface
	Store      store.Store
	Fullscreen fullscreen.Controller
	Scheduler  Scheduler
	Log        *common.Logger
}

// Snapshot is the externally visible state of a Screen
type Snapshot struct {
	ID            string       `json:"id"`
	State         State        `json:"state"`
	Value         string       `json:"value"`
	Caret         int          `json:"caret"`
	Viewport      fit.Viewport `json:"viewport"`
	Fullscreen    bool         `json:"fullscreen"`
	Probes        int          `json:"probes"`
	Solves        int          `json:"solves"`
	ResizePending bool         `json:"resizePending"` // debounced resize not fitted yet
}

// stater is a Display that can report what it shows
type stater interface {
	State() State
}

type handler func(s *Screen, ctx context.Context, ev Event) error

// handlers maps each event kind to its handler
var handlers = map[EventKind]handler{
	EventInput:            (*Screen).handleInput,
	EventPaste:            (*Screen).handlePaste,
	EventResize:           (*Screen).handleResize,
	EventOrientation:      (*Screen).handleOrientation,
	EventFullscreenChange: (*Screen).handleFullscreenChange,
	EventToggleFullscreen: (*Screen).handleToggle,
	EventClick:            (*Screen).handleClick,
}

// Screen owns the text, viewport and fullscreen state of one display.
// Handlers and solves run one at a time.
type Screen struct {
	mu      sync.Mutex
	id      string
	opts    Options
	solver  *fit.Solver
	display Display

	value    string // as typed; only the fitted copy is normalized
	caret    int
	textSeq  int64
	viewport fit.Viewport

	pending     fit.Viewport
	resizeTimer Timer
	resizeGen   int
	settled     chan struct{} // closed once the pending resize is fitted or dropped

	last   fit.Result
	solves int
}

// New creates a screen, restores any saved text and runs the first fit
func New(id string, solver *fit.Solver, display Display, opts Options) *Screen {
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock
	}
	if opts.Log == nil {
		opts.Log = common.NewLog()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Fullscreen == nil {
		opts.Fullscreen = fullscreen.Probe(fullscreen.NewOutbox(nil), fullscreen.Variants)
	}
	s := &Screen{
		id:       id,
		opts:     opts,
		solver:   solver,
		display:  display,
		viewport: opts.Viewport,
	}

	text, err := store.LoadText(opts.Store, store.Key(id))
	if err != nil {
		opts.Log.Err("Loading saved text failed: %v", err)
	}
	s.value = text
	s.caret = utf16Len(text)

	s.mu.Lock()
	s.solve()
	s.mu.Unlock()
	display.Focus()
	return s
}

// ID returns the screen id
func (s *Screen) ID() string {
	return s.id
}

// Log returns the screen's logger
func (s *Screen) Log() *common.Logger {
	return s.opts.Log
}

// Dispatch runs the handler for ev
func (s *Screen) Dispatch(ctx context.Context, ev Event) error {
	h, found := handlers[ev.Kind]
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return h(s, ctx, ev)
}

// Snapshot returns the current state. The display state is read under the
// same lock as the rest so the two always belong to the same fit.
func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var state State
	if d, ok := s.display.(stater); ok {
		state = d.State()
	}
	return Snapshot{
		ID:            s.id,
		State:         state,
		Value:         s.value,
		Caret:         s.caret,
		Viewport:      s.viewport,
		Fullscreen:    s.opts.Fullscreen.Active(),
		Probes:        s.last.Probes,
		Solves:        s.solves,
		ResizePending: s.resizeTimer != nil,
	}
}

// WaitSettled blocks until no debounced resize is pending or ctx is done
func (s *Screen) WaitSettled(ctx context.Context) error {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()
	if settled == nil {
		return nil
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Solves returns how many fits have run
func (s *Screen) Solves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solves
}

// Result returns the most recent fit
func (s *Screen) Result() fit.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Close cancels any pending debounced resize
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelResize()
}

func (s *Screen) handleInput(ctx context.Context, ev Event) error {
	if s.stale(ev) {
		return nil
	}
	caret := utf16Len(ev.Text)
	if ev.Caret != nil {
		caret = *ev.Caret
	}
	s.setValue(ev.Text, caret)
	s.solve()
	return nil
}

func (s *Screen) handlePaste(ctx context.Context, ev Event) error {
	if s.stale(ev) {
		return nil
	}
	value, caret := splice(s.value, ev.SelectionStart, ev.SelectionEnd, cleanText(ev.Text))
	s.setValue(value, caret)
	s.solve()
	return nil
}

// stale reports a text event sent before one already applied
func (s *Screen) stale(ev Event) bool {
	if ev.Seq == 0 {
		return false
	}
	if ev.Seq <= s.textSeq {
		s.opts.Log.Dbg("Dropping stale %s event %d", ev.Kind, ev.Seq)
		return true
	}
	s.textSeq = ev.Seq
	return false
}

func (s *Screen) handleResize(ctx context.Context, ev Event) error {
	s.pending = fit.Viewport{Width: ev.Width, Height: ev.Height}
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
	}
	if s.settled == nil {
		s.settled = make(chan struct{})
	}
	s.resizeGen++
	gen := s.resizeGen
	s.resizeTimer = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() {
		s.flushResize(gen)
	})
	return nil
}

func (s *Screen) flushResize(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A superseded or cancelled timer may still fire once it lost the race
	// for the lock.
	if s.resizeTimer == nil || gen != s.resizeGen {
		return
	}
	s.resizeTimer = nil
	s.viewport = s.pending
	s.opts.Log.Dbg("Window resized: %v x %v", s.viewport.Width, s.viewport.Height)
	s.solve()
	s.settle()
}

func (s *Screen) handleOrientation(ctx context.Context, ev Event) error {
	s.cancelResize()
	s.updateViewport(ev)
	s.solve()
	return nil
}

func (s *Screen) handleFullscreenChange(ctx context.Context, ev Event) error {
	s.opts.Fullscreen.SetActive(ev.Fullscreen)
	s.display.SetControlsVisible(!ev.Fullscreen)
	s.cancelResize()
	s.updateViewport(ev)
	s.solve()
	return nil
}

func (s *Screen) handleToggle(ctx context.Context, ev Event) error {
	fs := s.opts.Fullscreen
	if !fs.Active() {
		if err := fs.Enter(ctx); err != nil {
			s.opts.Log.Err("Fullscreen request failed: %v", err)
		}
	} else if err := fs.Exit(ctx); err != nil {
		s.opts.Log.Err("Fullscreen exit failed: %v", err)
	}

	if len(s.opts.Orientation) > 0 {
		if err := fs.LockOrientation(ctx, s.opts.Orientation); err != nil {
			s.opts.Log.Msg("Orientation lock failed: %v", err)
		}
	}
	return nil
}

func (s *Screen) handleClick(ctx context.Context, ev Event) error {
	if !ev.OnControl {
		s.display.Focus()
	}
	return nil
}

func (s *Screen) setValue(text string, caret int) {
	s.value = text
	s.caret = clamp(caret, 0, utf16Len(text))
	if err := s.opts.Store.Save(store.Key(s.id), s.value); err != nil {
		s.opts.Log.Err("Saving text failed: %v", err)
	}
}

// updateViewport takes the viewport from events that carry one
func (s *Screen) updateViewport(ev Event) {
	if ev.Width > 0 && ev.Height > 0 {
		s.viewport = fit.Viewport{Width: ev.Width, Height: ev.Height}
	}
}

func (s *Screen) cancelResize() {
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		s.resizeTimer = nil
	}
	s.settle()
}

func (s *Screen) settle() {
	if s.settled != nil {
		close(s.settled)
		s.settled = nil
	}
}

// solve must be called with s.mu held
func (s *Screen) solve() {
	budget := fit.NewBudget(s.viewport, s.opts.WidthFraction, s.opts.HeightFraction)
	if s.opts.Surface != nil {
		s.opts.Surface.SetWrapWidth(s.viewport.Width)
	}
	bounds := fit.DeriveBounds(budget, s.opts.MinFontSize, s.opts.MaxFontSize)
	// Composed and decomposed input must size identically
	text := norm.NFC.String(s.value)
	result := s.solver.Solve(text, budget, bounds)

	if result.Placeholder {
		s.display.SetText(s.solver.Options().PlaceholderText)
	} else {
		s.display.SetText(text)
	}
	s.display.SetPlaceholder(result.Placeholder)
	s.display.SetFontSize(result.Size)

	s.last = result
	s.solves++
	s.opts.Log.Dbg("Final font size: %dpx, after %d probes", result.Size, result.Probes)
}

// cleanText turns pasted line breaks into spaces
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.ReplaceAll(text, "\n", " ")
}

// splice replaces the UTF-16 range [start, end) of value with insert and
// returns the caret after the insert, in UTF-16 units.
func splice(value string, start, end int, insert string) (string, int) {
	units := utf16.Encode([]rune(value))
	start = clamp(start, 0, len(units))
	end = clamp(end, start, len(units))
	inserted := utf16.Encode([]rune(insert))

	out := make([]uint16, 0, len(units)-(end-start)+len(inserted))
	out = append(out, units[:start]...)
	out = append(out, inserted...)
	out = append(out, units[end:]...)
	return string(utf16.Decode(out)), start + len(inserted)
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
