// Package presentation implements the animation side of a combatant: a
// trigger catalog that reports clip durations, suspenders that wait those
// durations out, and a health display fed by combat events.
package presentation

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
)

// ClipSpec is the YAML form of one animation clip.
type ClipSpec struct {
	Name string `yaml:"name"`
	// Length is a Go duration string, e.g. "800ms".
	Length string `yaml:"length"`
	// Speed is the playback multiplier; zero means 1.
	Speed float64 `yaml:"speed"`
}

// CatalogSpec is the YAML form of an animation catalog file.
type CatalogSpec struct {
	Clips []ClipSpec `yaml:"clips"`
}

type clip struct {
	length time.Duration
	speed  float64
}

// Catalog maps trigger names to clip durations. It implements monster.Animator.
// All methods are safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	clips map[string]clip
	speed float64
}

// NewCatalog creates an empty catalog with a global playback speed.
//
// Precondition: speed > 0.
func NewCatalog(speed float64) *Catalog {
	if speed <= 0 {
		speed = 1
	}
	return &Catalog{clips: make(map[string]clip), speed: speed}
}

// Register adds or replaces a clip.
//
// Postcondition: Returns an error for an empty name, a negative length, or a
// negative speed.
func (c *Catalog) Register(name string, length time.Duration, speed float64) error {
	if name == "" {
		return fmt.Errorf("presentation: clip name must not be empty")
	}
	if length < 0 {
		return fmt.Errorf("presentation: clip %q length must not be negative", name)
	}
	if speed < 0 {
		return fmt.Errorf("presentation: clip %q speed must not be negative", name)
	}
	if speed == 0 {
		speed = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clips[name] = clip{length: length, speed: speed}
	return nil
}

// ResolveTrigger returns the clip length divided by its speed and the
// catalog speed.
//
// Postcondition: Returns an error wrapping monster.ErrUnknownTrigger for an
// unregistered name.
func (c *Catalog) ResolveTrigger(name string) (time.Duration, error) {
	c.mu.RLock()
	cl, ok := c.clips[name]
	c.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("trigger %q: %w", name, monster.ErrUnknownTrigger)
	}
	return time.Duration(float64(cl.length) / (cl.speed * c.speed)), nil
}

// Len returns the number of registered clips.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clips)
}

// LoadCatalogFromBytes parses YAML clip definitions into a new catalog.
func LoadCatalogFromBytes(data []byte, speed float64) (*Catalog, error) {
	var spec CatalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing animation catalog YAML: %w", err)
	}
	c := NewCatalog(speed)
	var errs []string
	for i, cs := range spec.Clips {
		length, err := time.ParseDuration(cs.Length)
		if err != nil {
			errs = append(errs, fmt.Sprintf("clip[%d] %q: length %q is not a valid duration", i, cs.Name, cs.Length))
			continue
		}
		if err := c.Register(cs.Name, length, cs.Speed); err != nil {
			errs = append(errs, fmt.Sprintf("clip[%d]: %v", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("animation catalog: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// LoadCatalog reads an animation catalog file.
func LoadCatalog(path string, speed float64) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading animation catalog %q: %w", path, err)
	}
	c, err := LoadCatalogFromBytes(data, speed)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return c, nil
}
