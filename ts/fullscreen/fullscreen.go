// Package fullscreen normalizes the vendor specific fullscreen and
// orientation lock APIs behind one Controller.
package fullscreen

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupported is returned when the host offers no usable API
var ErrUnsupported = errors.New("fullscreen: not supported by host")

// Host call targets
const (
	TargetElement     = "element"
	TargetDocument    = "document"
	TargetOrientation = "orientation"
)

// OrientationLockAPI is the host API used to lock screen orientation
const OrientationLockAPI = "screen.orientation.lock"

// Variant is one vendor flavour of the fullscreen API
type Variant struct {
	Name        string
	Enter       string // called on the root element
	Exit        string // called on the document
	Element     string // document property holding the fullscreen element
	ChangeEvent string
}

// Variants lists the known flavours in probe order
var Variants = []Variant{
	{"standard", "requestFullscreen", "exitFullscreen", "fullscreenElement", "fullscreenchange"},
	{"webkit", "webkitRequestFullscreen", "webkitExitFullscreen", "webkitFullscreenElement", "webkitfullscreenchange"},
	{"moz", "mozRequestFullScreen", "mozCancelFullScreen", "mozFullScreenElement", "mozfullscreenchange"},
	{"ms", "msRequestFullscreen", "msExitFullscreen", "msFullscreenElement", "MSFullscreenChange"},
}

// Host is the environment that owns the real fullscreen state
type Host interface {
	Supports(api string) bool
	Call(ctx context.Context, target string, api string, args ...string) error
}

// Controller is the normalized fullscreen surface the coordinator uses
type Controller interface {
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
	Active() bool
	SetActive(active bool)
	LockOrientation(ctx context.Context, orientation string) error
}

// Adapter drives the first Variant the host supports
type Adapter struct {
	mu      sync.Mutex
	host    Host
	variant *Variant
	active  bool
}

// Probe returns an Adapter for the first variant whose enter and exit
// calls the host supports. Without one every request fails with
// ErrUnsupported.
func Probe(host Host, variants []Variant) *Adapter {
	a := &Adapter{host: host}
	for i := range variants {
		if host.Supports(variants[i].Enter) && host.Supports(variants[i].Exit) {
			a.variant = &variants[i]
			break
		}
	}
	return a
}

// Variant returns the name of the selected variant, or "" if none
func (a *Adapter) Variant() string {
	if a.variant == nil {
		return ""
	}
	return a.variant.Name
}

// Enter requests fullscreen from the host
func (a *Adapter) Enter(ctx context.Context) error {
	if a.variant == nil {
		return fmt.Errorf("%w: enter", ErrUnsupported)
	}
	return a.host.Call(ctx, TargetElement, a.variant.Enter)
}

// Exit requests leaving fullscreen
func (a *Adapter) Exit(ctx context.Context) error {
	if a.variant == nil {
		return fmt.Errorf("%w: exit", ErrUnsupported)
	}
	return a.host.Call(ctx, TargetDocument, a.variant.Exit)
}

// Active reports the last fullscreen state the host announced
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// SetActive records a fullscreen change announced by the host
func (a *Adapter) SetActive(active bool) {
	a.mu.Lock()
	a.active = active
	a.mu.Unlock()
}

// LockOrientation asks the host to lock the screen orientation
func (a *Adapter) LockOrientation(ctx context.Context, orientation string) error {
	if !a.host.Supports(OrientationLockAPI) {
		return fmt.Errorf("%w: %s", ErrUnsupported, OrientationLockAPI)
	}
	return a.host.Call(ctx, TargetOrientation, OrientationLockAPI, orientation)
}
