package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"gopkg.in/yaml.v3"
)

// DefaultFontName is the cache key of the built in Go Regular face
const DefaultFontName = "goregular"

// LoadYaml loads a yaml file into out
func LoadYaml(filename string, out interface{}) error {
	yamlData, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("yaml os.ReadFile %w", err)
	}
	if err = yaml.Unmarshal(yamlData, out); err != nil {
		return fmt.Errorf("yaml.Unmarshal %w", err)
	}
	return nil
}

// YamlObjectAsString outputs contents of yaml object with a label
func YamlObjectAsString(in interface{}, label string) string {
	d, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Sprintf("=== %s ===\nyaml.Marshal %v\n\n", label, err)
	}
	return fmt.Sprintf("=== %s ===\n%s\n\n", label, string(d))
}

// LoadConfig reads the config file over the defaults
func LoadConfig(filename string, log *Logger) (*Config, error) {
	config := DefaultConfig()
	if err := LoadYaml(filename, config); err != nil {
		return nil, err
	}
	if config.DebugOutput {
		log.Dbg(YamlObjectAsString(config, "Config"))
	}
	return config, nil
}

var fontCache sync.Map

// LoadFont loads a font into memory and returns it. An empty name returns
// the built in Go Regular font.
func LoadFont(dir string, name string) (*truetype.Font, error) {
	key := name
	if len(key) == 0 {
		key = DefaultFontName
	}
	if v, found := fontCache.Load(key); found {
		return v.(*truetype.Font), nil
	}

	fontBytes, err := FontBytes(dir, name)
	if err != nil {
		return nil, err
	}
	font, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("truetype.Parse %s: %w", key, err)
	}
	fontCache.Store(key, font)
	return font, nil
}

// FontBytes returns the raw TTF data for a font so it can be served to the
// page that displays the text.
func FontBytes(dir string, name string) ([]byte, error) {
	if len(name) == 0 {
		return goregular.TTF, nil
	}
	fontBytes, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading font %s: %w", name, err)
	}
	return fontBytes, nil
}
