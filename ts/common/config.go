package common

// Config contains all the configuration data for the app
type Config struct {
	AppName       string `yaml:"AppName"`
	Version       string `yaml:"Version"`
	RepositoryURL string `yaml:"RepositoryURL"`
	DebugOutput   bool   `yaml:"DebugOutput"`
	VerboseOutput bool   `yaml:"VerboseOutput"`

	StorageFile  string `yaml:"StorageFile"` // Empty keeps text in memory
	ResourcesDir string `yaml:"ResourcesDir"`

	FontsDir    string  `yaml:"FontsDir"`
	DisplayFont string  `yaml:"DisplayFont"` // Empty uses the built in Go Regular face
	LineSpacing float64 `yaml:"LineSpacing"`
	WrapText    bool    `yaml:"WrapText"`

	Fit FitData `yaml:"Fit"`

	ResizeDebounceMs int    `yaml:"ResizeDebounceMs"`
	Orientation      string `yaml:"Orientation"`

	ScreenIdleMinutes int `yaml:"ScreenIdleMinutes"` // Screens unused this long are closed
	MaxScreens        int `yaml:"MaxScreens"`        // Least recently used screen closed beyond this

	DefaultViewport Dimensions2d `yaml:"DefaultViewport"`
	JpgQuality      int          `yaml:"JpgQuality"`

	BackgroundColour  string `yaml:"BackgroundColour"`
	TextColour        string `yaml:"TextColour"`
	PlaceholderColour string `yaml:"PlaceholderColour"`
}

// FitData holds the font size search parameters
type FitData struct {
	MinFontSize      int     `yaml:"MinFontSize"`
	MaxFontSize      int     `yaml:"MaxFontSize"` // 0 derives the cap from the viewport
	WidthFraction    float64 `yaml:"WidthFraction"`
	HeightFraction   float64 `yaml:"HeightFraction"`
	Tolerance        float64 `yaml:"Tolerance"`
	MaxProbes        int     `yaml:"MaxProbes"`
	PlaceholderText  string  `yaml:"PlaceholderText"`
	PlaceholderFloor int     `yaml:"PlaceholderFloor"`
	PlaceholderRatio float64 `yaml:"PlaceholderRatio"`
}

// Dimensions2d contains width and height
type Dimensions2d struct {
	W int `yaml:"w"` // Width
	H int `yaml:"h"` // Height
}

// DefaultConfig returns the values used when the config file leaves a
// field unset.
func DefaultConfig() *Config {
	return &Config{
		AppName:           "TextScreen",
		Version:           "0.1.0",
		ResourcesDir:      "resources",
		LineSpacing:       1.0,
		WrapText:          true,
		ResizeDebounceMs:  100,
		Orientation:       "landscape",
		ScreenIdleMinutes: 30,
		MaxScreens:        1000,
		DefaultViewport:   Dimensions2d{W: 1280, H: 720},
		JpgQuality:        85,
		Fit: FitData{
			MinFontSize:      10,
			WidthFraction:    0.95,
			HeightFraction:   0.85,
			Tolerance:        1,
			MaxProbes:        50,
			PlaceholderText:  "Type something...",
			PlaceholderFloor: 32,
			PlaceholderRatio: 0.1,
		},
		BackgroundColour:  "#000000",
		TextColour:        "#FFFFFF",
		PlaceholderColour: "#666666",
	}
}
