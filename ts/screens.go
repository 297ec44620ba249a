package ts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/Scarpy19/TextScreen/ts/common"
	"github.com/Scarpy19/TextScreen/ts/fit"
	"github.com/Scarpy19/TextScreen/ts/fullscreen"
	"github.com/Scarpy19/TextScreen/ts/measure"
	"github.com/Scarpy19/TextScreen/ts/render"
	"github.com/Scarpy19/TextScreen/ts/screen"
	"github.com/Scarpy19/TextScreen/ts/store"
	"github.com/golang/freetype/truetype"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// display is one screen with the collaborators the service needs to reach
type display struct {
	screen     *screen.Screen
	outbox     *fullscreen.Outbox
	lastAccess time.Time // guarded by displays.mu
}

// displays holds every live screen by id. Screens idle for longer than
// idle are closed, and the least recently used one goes once limit is
// reached; their text stays in the store.
type displays struct {
	mu     sync.Mutex
	byID   map[string]*display
	font   *truetype.Font
	store  store.Store
	config *common.Config
	idle   time.Duration
	limit  int
	now    func() time.Time
}

func newDisplays(font *truetype.Font, st store.Store, config *common.Config) *displays {
	return &displays{
		byID:   make(map[string]*display),
		font:   font,
		store:  st,
		config: config,
		idle:   time.Duration(config.ScreenIdleMinutes) * time.Minute,
		limit:  config.MaxScreens,
		now:    time.Now,
	}
}

// open returns the screen for id, creating it if needed. An empty id
// creates a screen with a fresh id.
func (d *displays) open(id string, vp fit.Viewport, capabilities []string) (*display, bool, error) {
	if len(id) == 0 {
		id = newID()
	} else if !validID.MatchString(id) {
		return nil, false, fmt.Errorf("invalid screen id %q", id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.expire(now)
	if existing, found := d.byID[id]; found {
		existing.lastAccess = now
		return existing, false, nil
	}
	if d.limit > 0 && len(d.byID) >= d.limit {
		d.evictOldest()
	}

	fitConfig := d.config.Fit
	surface := measure.NewSurface(d.font, d.config.LineSpacing, d.config.WrapText)
	solver := fit.NewSolver(surface, solverOptions(fitConfig))
	outbox := fullscreen.NewOutbox(capabilities)
	model := screen.NewModel()
	adapter := fullscreen.Probe(outbox, fullscreen.Variants)
	log := common.NewLog()
	if len(adapter.Variant()) == 0 {
		log.Msg("No fullscreen support reported by the page")
	}

	s := screen.New(id, solver, model, screen.Options{
		Viewport:       vp,
		WidthFraction:  fitConfig.WidthFraction,
		HeightFraction: fitConfig.HeightFraction,
		MinFontSize:    fitConfig.MinFontSize,
		MaxFontSize:    fitConfig.MaxFontSize,
		Debounce:       time.Duration(d.config.ResizeDebounceMs) * time.Millisecond,
		Orientation:    d.config.Orientation,
		Surface:        surface,
		Store:          d.store,
		Fullscreen:     adapter,
		Log:            log,
	})
	entry := &display{screen: s, outbox: outbox, lastAccess: now}
	d.byID[id] = entry
	return entry, true, nil
}

func (d *displays) get(id string) (*display, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.expire(now)
	entry, found := d.byID[id]
	if found {
		entry.lastAccess = now
	}
	return entry, found
}

func (d *displays) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}

// expire closes screens idle since before now-idle. Called with mu held.
func (d *displays) expire(now time.Time) {
	if d.idle <= 0 {
		return
	}
	for id, entry := range d.byID {
		if now.Sub(entry.lastAccess) > d.idle {
			entry.screen.Log().Dbg("Closing idle screen %s", id)
			delete(d.byID, id)
			entry.screen.Close()
		}
	}
}

// evictOldest closes the least recently used screen. Called with mu held.
func (d *displays) evictOldest() {
	var oldestID string
	var oldest *display
	for id, entry := range d.byID {
		if oldest == nil || entry.lastAccess.Before(oldest.lastAccess) {
			oldestID, oldest = id, entry
		}
	}
	if oldest != nil {
		delete(d.byID, oldestID)
		oldest.screen.Close()
	}
}

func (d *displays) close(id string) bool {
	d.mu.Lock()
	entry, found := d.byID[id]
	delete(d.byID, id)
	d.mu.Unlock()
	if found {
		entry.screen.Close()
	}
	return found
}

func (d *display) snapshot() screen.Snapshot {
	return d.screen.Snapshot()
}

func (d *displays) layout() render.Layout {
	return render.Layout{Font: d.font, LineSpacing: d.config.LineSpacing, Wrap: d.config.WrapText}
}

func solverOptions(f common.FitData) fit.Options {
	return fit.Options{
		Tolerance:        f.Tolerance,
		MaxProbes:        f.MaxProbes,
		PlaceholderText:  f.PlaceholderText,
		PlaceholderFloor: f.PlaceholderFloor,
		PlaceholderRatio: f.PlaceholderRatio,
	}
}

func newID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
