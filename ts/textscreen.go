package ts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Scarpy19/TextScreen/ts/common"
	"github.com/Scarpy19/TextScreen/ts/fit"
	"github.com/Scarpy19/TextScreen/ts/fullscreen"
	"github.com/Scarpy19/TextScreen/ts/measure"
	"github.com/Scarpy19/TextScreen/ts/render"
	"github.com/Scarpy19/TextScreen/ts/screen"
	"github.com/Scarpy19/TextScreen/ts/store"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/golang/freetype/truetype"
)

type openRequest struct {
	ID           string   `json:"id"`
	Width        float64  `json:"width" binding:"required,gt=0"`
	Height       float64  `json:"height" binding:"required,gt=0"`
	Capabilities []string `json:"capabilities"`
}

type eventResponse struct {
	Seq      int64                `json:"seq"` // seq of the event answered, 0 otherwise
	Screen   screen.Snapshot      `json:"screen"`
	Commands []fullscreen.Command `json:"commands"`
}

// settleTimeout bounds how long a request waits for a debounced resize
const settleTimeout = 2 * time.Second

// GetServer builds the router and returns it with the listen address
func GetServer(debugMode bool, config *common.Config) (*gin.Engine, string) {
	log := common.NewLog()

	font, err := common.LoadFont(config.FontsDir, config.DisplayFont)
	if err != nil {
		log.Fatal("Loading display font failed: %v", err)
	}
	fontBytes, err := common.FontBytes(config.FontsDir, config.DisplayFont)
	if err != nil {
		log.Fatal("Reading display font failed: %v", err)
	}
	var st store.Store = store.NewMemory()
	if len(config.StorageFile) > 0 {
		if st, err = store.NewFile(config.StorageFile); err != nil {
			log.Fatal("Opening store failed: %v", err)
		}
	}
	screens := newDisplays(font, st, config)

	if !debugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if debugMode {
		pprof.Register(router)
	}

	resources := config.ResourcesDir
	router.LoadHTMLGlob(filepath.Join(resources, "www/templates/*.html"))
	router.StaticFile("/main.css", filepath.Join(resources, "www/static/main.css"))
	router.StaticFile("/script.js", filepath.Join(resources, "www/static/script.js"))

	// Index page
	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Title":         config.AppName,
			"Version":       config.Version,
			"RepositoryURL": config.RepositoryURL,
			"Placeholder":   config.Fit.PlaceholderText,
		})
	})
	// The page displays with the same face the service measures with
	router.GET("/font.ttf", func(c *gin.Context) {
		c.Data(http.StatusOK, "font/ttf", fontBytes)
	})

	api := router.Group("/api/screens")
	api.POST("", func(c *gin.Context) {
		var req openRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		vp := fit.Viewport{Width: req.Width, Height: req.Height}
		entry, created, err := screens.open(req.ID, vp, req.Capabilities)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusCreated
		if !created {
			// A returning page reports its current viewport
			entry.screen.Dispatch(c.Request.Context(), screen.Event{
				Kind: screen.EventOrientation, Width: req.Width, Height: req.Height})
			status = http.StatusOK
		}
		c.JSON(status, eventResponse{Screen: entry.snapshot(), Commands: entry.outbox.Drain()})
	})
	api.GET("/:id", withDisplay(screens, func(c *gin.Context, entry *display) {
		waitSettled(c, entry)
		c.JSON(http.StatusOK, eventResponse{Screen: entry.snapshot(), Commands: entry.outbox.Drain()})
	}))
	api.DELETE("/:id", func(c *gin.Context) {
		if !screens.close(c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
			return
		}
		c.Status(http.StatusNoContent)
	})
	api.POST("/:id/events", withDisplay(screens, func(c *gin.Context, entry *display) {
		var ev screen.Event
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := entry.screen.Dispatch(c.Request.Context(), ev)
		if errors.Is(err, screen.ErrUnknownEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		waitSettled(c, entry)
		c.JSON(http.StatusOK, eventResponse{Seq: ev.Seq, Screen: entry.snapshot(),
			Commands: entry.outbox.Drain()})
	}))
	api.GET("/:id/image.jpg", withDisplay(screens, func(c *gin.Context, entry *display) {
		sendImage(c, entry, screens.layout(), config, "image/jpeg")
	}))
	api.GET("/:id/image.png", withDisplay(screens, func(c *gin.Context, entry *display) {
		sendImage(c, entry, screens.layout(), config, "image/png")
	}))
	api.GET("/:id/log", withDisplay(screens, func(c *gin.Context, entry *display) {
		c.HTML(http.StatusOK, "log.html", gin.H{
			"Title": config.AppName,
			"Logs":  entry.screen.Log().Snapshot(),
		})
	}))

	if debugMode {
		router.GET("/test/fit", func(c *gin.Context) {
			sendTestFit(c, font, config)
		})
	}

	// Run on port 8080 unless PORT varilable specified
	port := os.Getenv("PORT")
	if len(port) == 0 {
		port = "8080"
	}
	return router, fmt.Sprintf(":%s", port)
}

func withDisplay(screens *displays, next func(*gin.Context, *display)) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, found := screens.get(c.Param("id"))
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
			return
		}
		next(c, entry)
	}
}

// waitSettled holds the response until a pending debounced resize has been
// fitted, when the request asks for it with ?wait=1
func waitSettled(c *gin.Context, entry *display) {
	if c.Query("wait") != "1" {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), settleTimeout)
	defer cancel()
	if err := entry.screen.WaitSettled(ctx); err != nil {
		entry.screen.Log().Dbg("Responding before resize settled: %v", err)
	}
}

func sendImage(c *gin.Context, entry *display, layout render.Layout, config *common.Config,
	contentType string) {
	waitSettled(c, entry)
	snap := entry.snapshot()
	style := render.Style{
		Background:  config.BackgroundColour,
		Text:        config.TextColour,
		Placeholder: config.PlaceholderColour,
	}
	dc, err := render.Draw(snap.State, snap.Viewport, layout, style)
	if err != nil {
		entry.screen.Log().Err("Rendering snapshot failed: %v", err)
	}

	var buf bytes.Buffer
	if contentType == "image/png" {
		err = render.EncodePng(&buf, dc)
	} else {
		err = render.EncodeJpg(&buf, dc, config.JpgQuality)
	}
	if err != nil {
		entry.screen.Log().Err("%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// sendTestFit runs a one-off fit for the text and viewport in the query
func sendTestFit(c *gin.Context, font *truetype.Font, config *common.Config) {
	width, errW := strconv.ParseFloat(c.DefaultQuery("w", "0"), 64)
	height, errH := strconv.ParseFloat(c.DefaultQuery("h", "0"), 64)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		vp := config.DefaultViewport
		width, height = float64(vp.W), float64(vp.H)
	}
	text := c.Query("text")

	surface := measure.NewSurface(font, config.LineSpacing, config.WrapText)
	surface.SetWrapWidth(width)
	solver := fit.NewSolver(surface, solverOptions(config.Fit))
	budget := fit.NewBudget(fit.Viewport{Width: width, Height: height},
		config.Fit.WidthFraction, config.Fit.HeightFraction)
	bounds := fit.DeriveBounds(budget, config.Fit.MinFontSize, config.Fit.MaxFontSize)
	result := solver.Solve(text, budget, bounds)

	c.JSON(http.StatusOK, gin.H{
		"budget": budget,
		"bounds": bounds,
		"result": result,
	})
}
