// Package catalog holds the configuration the pricing engine is constructed
// with: default rates, per-room-type item presets, the extras catalog, the
// ceiling surface types, and the slab table for electrical defaults. It is
// passed in explicitly; nothing in the engine reads ambient tables.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arkabuild/interioquote/internal/pricing"
)

// ItemPreset seeds an item's frame and box dimensions when the item name is
// picked from the room-type list.
type ItemPreset struct {
	Name        string  `json:"name"`
	FrameHeight float64 `json:"frameHeight"`
	FrameWidth  float64 `json:"frameWidth"`
	BoxHeight   float64 `json:"boxHeight"`
	BoxWidth    float64 `json:"boxWidth"`
	BoxDepth    float64 `json:"boxDepth"`
}

// AccessoryPreset is a catalog accessory with its default unit price.
type AccessoryPreset struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// RoomType groups the item and accessory presets offered for one kind of
// room.
type RoomType struct {
	Name        string            `json:"name"`
	Items       []ItemPreset      `json:"items"`
	Accessories []AccessoryPreset `json:"accessories,omitempty"`
}

// ExtraSpec describes one entry of the extras catalog. UnitPrice seeds
// area-based extras; Price seeds fixed extras; ceiling extras take their
// defaults from the surface and slab tables instead.
type ExtraSpec struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// SurfaceSpec describes a ceiling surface material. Paintable surfaces feed
// the default ceiling painting area.
type SurfaceSpec struct {
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	UnitPrice float64 `json:"unitPrice"`
	Paintable bool    `json:"paintable"`
}

// Slab is one range of the lookup table supplying default electrical and
// lighting charges for a given total ceiling surface area.
type Slab struct {
	Min                float64 `json:"min"`
	Max                float64 `json:"max"`
	ElectricalWiring   float64 `json:"electricalWiring"`
	ElectricianCharges float64 `json:"electricianCharges"`
	CeilingLights      float64 `json:"ceilingLights"`
	ProfileLights      float64 `json:"profileLights"`
}

// Catalog is the full injected configuration.
type Catalog struct {
	Rates             pricing.Rates `json:"rates"`
	RoomTypes         []RoomType    `json:"roomTypes"`
	Extras            []ExtraSpec   `json:"extras"`
	Surfaces          []SurfaceSpec `json:"surfaces"`
	DefaultSurface    string        `json:"defaultSurface"`
	PaintingUnitPrice float64       `json:"paintingUnitPrice"`
	Slabs             []Slab        `json:"slabs"`
}

// LoadFile reads a catalog from a JSON file and validates it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog file: %w", err)
	}

	return &c, nil
}

// Validate checks the invariants the engine relies on.
func (c *Catalog) Validate() error {
	if len(c.Slabs) == 0 {
		return fmt.Errorf("catalog has no slab table")
	}
	for i, s := range c.Slabs {
		if s.Max < s.Min {
			return fmt.Errorf("slab %d has max %v below min %v", i, s.Max, s.Min)
		}
	}
	if len(c.Surfaces) == 0 {
		return fmt.Errorf("catalog has no surface types")
	}
	if _, ok := c.Surface(c.DefaultSurface); !ok {
		return fmt.Errorf("default surface %q is not in the surface table", c.DefaultSurface)
	}
	for _, x := range c.Extras {
		switch x.Kind {
		case "ceiling", "area_based", "fixed":
		default:
			return fmt.Errorf("extra %q has unknown kind %q", x.Key, x.Kind)
		}
	}
	return nil
}

// Extra looks up an extras catalog entry by key.
func (c *Catalog) Extra(key string) (ExtraSpec, bool) {
	for _, x := range c.Extras {
		if x.Key == key {
			return x, true
		}
	}
	return ExtraSpec{}, false
}

// Surface looks up a surface type.
func (c *Catalog) Surface(typ string) (SurfaceSpec, bool) {
	for _, s := range c.Surfaces {
		if s.Type == typ {
			return s, true
		}
	}
	return SurfaceSpec{}, false
}

// Paintable reports whether a surface type feeds the default painting area.
func (c *Catalog) Paintable(typ string) bool {
	s, ok := c.Surface(typ)
	return ok && s.Paintable
}

// SlabFor returns the index and slab matching totalArea: the first slab with
// min <= totalArea <= max, or the last slab when nothing matches.
func (c *Catalog) SlabFor(totalArea float64) (int, Slab) {
	totalArea = pricing.Num(totalArea)
	for i, s := range c.Slabs {
		if totalArea >= s.Min && totalArea <= s.Max {
			return i, s
		}
	}
	last := len(c.Slabs) - 1
	return last, c.Slabs[last]
}

// ItemPreset looks up an item preset inside a room type.
func (c *Catalog) ItemPreset(roomType, name string) (ItemPreset, bool) {
	for _, rt := range c.RoomTypes {
		if rt.Name != roomType {
			continue
		}
		for _, p := range rt.Items {
			if p.Name == name {
				return p, true
			}
		}
	}
	return ItemPreset{}, false
}
