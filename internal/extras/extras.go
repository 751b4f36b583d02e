// Package extras maintains the surcharge line items of a quote: ceiling
// jobs with surfaces and slab-derived electrical defaults, area-based
// charges, and fixed charges. All derivations are synchronous and
// deterministic; which defaults may overwrite user input is controlled by
// explicit per-operation flags, never inferred from diffs.
package extras

import (
	"errors"
	"fmt"
	"time"

	"github.com/arkabuild/interioquote/internal/catalog"
	"github.com/arkabuild/interioquote/internal/pricing"
)

// Kind discriminates the three extra types.
type Kind string

const (
	KindCeiling   Kind = "ceiling"
	KindAreaBased Kind = "area_based"
	KindFixed     Kind = "fixed"
)

// Field names one of the four slab-defaulted electrical/lighting charges.
type Field string

const (
	FieldElectricalWiring   Field = "electricalWiring"
	FieldElectricianCharges Field = "electricianCharges"
	FieldCeilingLights      Field = "ceilingLights"
	FieldProfileLights      Field = "profileLights"
)

// ErrNotFound is returned when no extra carries the requested identity.
var ErrNotFound = errors.New("extra not found")

// Surface is one ceiling surface; Price is derived from Area and UnitPrice
// on every edit.
type Surface struct {
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	Area      float64 `json:"area"`
	UnitPrice float64 `json:"unitPrice"`
	Price     float64 `json:"price"`
}

// Extra is the discriminated union over the three kinds. ID is the creation
// timestamp in unix milliseconds and is the extra's stable identity.
// AppliedSlab records which slab row last supplied the electrical defaults,
// so re-resolving to the same slab never clobbers manual edits.
type Extra struct {
	ID    int64  `json:"id"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  Kind   `json:"type"`

	// ceiling
	Surfaces             []Surface `json:"surfaces,omitempty"`
	ElectricalWiring     float64   `json:"electricalWiring,omitempty"`
	ElectricianCharges   float64   `json:"electricianCharges,omitempty"`
	CeilingLights        float64   `json:"ceilingLights,omitempty"`
	ProfileLights        float64   `json:"profileLights,omitempty"`
	CeilingPaintingArea  float64   `json:"ceilingPaintingArea,omitempty"`
	CeilingPaintingUnit  float64   `json:"ceilingPaintingUnitPrice,omitempty"`
	CeilingPaintingPrice float64   `json:"ceilingPaintingPrice,omitempty"`
	AppliedSlab          int       `json:"appliedSlab,omitempty"`

	// area_based
	Area      float64 `json:"area,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`

	// fixed
	Price float64 `json:"price,omitempty"`

	Total float64 `json:"total"`
}

// SurfaceTotalArea sums the areas across all surfaces of a ceiling extra.
func (x *Extra) SurfaceTotalArea() float64 {
	var total float64
	for _, s := range x.Surfaces {
		total += pricing.Num(s.Area)
	}
	return total
}

// RecalcTotals rederives the derived price fields and the total of a single
// extra from its inputs. It applies no catalog defaults, so it is safe to
// run over a freshly loaded document.
func RecalcTotals(x *Extra) {
	switch x.Type {
	case KindCeiling:
		var surfaceTotal float64
		for i := range x.Surfaces {
			s := &x.Surfaces[i]
			s.Price = pricing.Num(s.Area) * pricing.Num(s.UnitPrice)
			surfaceTotal += s.Price
		}
		x.CeilingPaintingPrice = pricing.Num(x.CeilingPaintingArea) * pricing.Num(x.CeilingPaintingUnit)
		x.Total = surfaceTotal +
			pricing.Num(x.ElectricalWiring) +
			pricing.Num(x.ElectricianCharges) +
			pricing.Num(x.CeilingLights) +
			pricing.Num(x.ProfileLights) +
			x.CeilingPaintingPrice
	case KindAreaBased:
		x.Total = pricing.Num(x.Area) * pricing.Num(x.UnitPrice)
	case KindFixed:
		x.Total = pricing.Num(x.Price)
	default:
		x.Total = 0
	}
}

// Subtotal folds the totals of a set of extras.
func Subtotal(xs []Extra) float64 {
	var total float64
	for _, x := range xs {
		total += pricing.Num(x.Total)
	}
	return total
}

// Engine owns the active extras of one quote and recomputes them on every
// edit, using the injected catalog for defaults.
type Engine struct {
	cat    *catalog.Catalog
	Extras []Extra

	now func() time.Time
}

// NewEngine returns an engine with no active extras.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat, now: time.Now}
}

// Restore returns an engine over extras loaded from a persisted document,
// recomputing their totals but applying no defaults.
func Restore(cat *catalog.Catalog, xs []Extra) *Engine {
	e := &Engine{cat: cat, Extras: xs, now: time.Now}
	for i := range e.Extras {
		RecalcTotals(&e.Extras[i])
	}
	return e
}

// recalcFlags name the two default-population behaviors a mutation may
// request. They are passed explicitly per operation.
type recalcFlags struct {
	updateFromSlab          bool
	forceRecalcPaintingArea bool
}

// Add materializes the catalog extra with the given key. Re-adding a key
// that is already active is a no-op; at most one instance exists per key.
func (e *Engine) Add(key string) (*Extra, error) {
	if x := e.byKey(key); x != nil {
		return x, nil
	}

	spec, ok := e.cat.Extra(key)
	if !ok {
		return nil, fmt.Errorf("unknown extra key %q", key)
	}

	x := Extra{
		ID:          e.nextID(),
		Key:         spec.Key,
		Label:       spec.Label,
		Type:        Kind(spec.Kind),
		AppliedSlab: -1,
	}

	switch x.Type {
	case KindCeiling:
		surface, _ := e.cat.Surface(e.cat.DefaultSurface)
		x.Surfaces = []Surface{{Type: surface.Type, Label: surface.Label, UnitPrice: surface.UnitPrice}}
		x.CeilingPaintingUnit = e.cat.PaintingUnitPrice
	case KindAreaBased:
		x.UnitPrice = spec.UnitPrice
	case KindFixed:
		x.Price = spec.Price
	}

	e.Extras = append(e.Extras, x)
	added := &e.Extras[len(e.Extras)-1]
	e.recalc(added, recalcFlags{updateFromSlab: true, forceRecalcPaintingArea: true})
	return added, nil
}

// Remove deletes an extra by identity. It has no effect on other extras.
func (e *Engine) Remove(id int64) bool {
	for i := range e.Extras {
		if e.Extras[i].ID == id {
			e.Extras = append(e.Extras[:i], e.Extras[i+1:]...)
			return true
		}
	}
	return false
}

// AddSurface appends a surface of the given catalog type to a ceiling
// extra. Types already present on the extra are rejected.
func (e *Engine) AddSurface(id int64, surfaceType string) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}

	spec, ok := e.cat.Surface(surfaceType)
	if !ok {
		return fmt.Errorf("unknown surface type %q", surfaceType)
	}
	for _, s := range x.Surfaces {
		if s.Type == surfaceType {
			return fmt.Errorf("surface type %q already present", surfaceType)
		}
	}

	x.Surfaces = append(x.Surfaces, Surface{Type: spec.Type, Label: spec.Label, UnitPrice: spec.UnitPrice})
	e.recalc(x, recalcFlags{updateFromSlab: true, forceRecalcPaintingArea: true})
	return nil
}

// RemoveSurface deletes a surface by index.
func (e *Engine) RemoveSurface(id int64, index int) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.Surfaces) {
		return fmt.Errorf("surface index %d out of range", index)
	}

	x.Surfaces = append(x.Surfaces[:index], x.Surfaces[index+1:]...)
	e.recalc(x, recalcFlags{updateFromSlab: true, forceRecalcPaintingArea: true})
	return nil
}

// SetSurfaceArea updates one surface's area. Area edits re-resolve the slab
// defaults; they do not force the painting area.
func (e *Engine) SetSurfaceArea(id int64, index int, area float64) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.Surfaces) {
		return fmt.Errorf("surface index %d out of range", index)
	}

	x.Surfaces[index].Area = pricing.Num(area)
	e.recalc(x, recalcFlags{updateFromSlab: true})
	return nil
}

// SetSurfaceUnitPrice updates one surface's unit price. Unit-price edits do
// not touch the slab defaults.
func (e *Engine) SetSurfaceUnitPrice(id int64, index int, unitPrice float64) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.Surfaces) {
		return fmt.Errorf("surface index %d out of range", index)
	}

	x.Surfaces[index].UnitPrice = pricing.Num(unitPrice)
	e.recalc(x, recalcFlags{})
	return nil
}

// SetElectrical records a manual edit to one of the four electrical/lighting
// fields. Manual values are sticky: they survive slab re-resolution until a
// surface area change lands the extra in a different slab.
func (e *Engine) SetElectrical(id int64, field Field, value float64) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}

	value = pricing.Num(value)
	switch field {
	case FieldElectricalWiring:
		x.ElectricalWiring = value
	case FieldElectricianCharges:
		x.ElectricianCharges = value
	case FieldCeilingLights:
		x.CeilingLights = value
	case FieldProfileLights:
		x.ProfileLights = value
	default:
		return fmt.Errorf("unknown electrical field %q", field)
	}

	e.recalc(x, recalcFlags{})
	return nil
}

// SetPaintingArea records a manual painting area. A zero value falls back to
// the computed default at the next recalculation.
func (e *Engine) SetPaintingArea(id int64, area float64) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}
	x.CeilingPaintingArea = pricing.Num(area)
	e.recalc(x, recalcFlags{})
	return nil
}

// SetPaintingUnitPrice records a manual painting unit price. A zero value
// falls back to the catalog default at the next recalculation.
func (e *Engine) SetPaintingUnitPrice(id int64, unitPrice float64) error {
	x, err := e.ceiling(id)
	if err != nil {
		return err
	}
	x.CeilingPaintingUnit = pricing.Num(unitPrice)
	e.recalc(x, recalcFlags{})
	return nil
}

// SetArea updates the area of an area-based extra.
func (e *Engine) SetArea(id int64, area float64) error {
	x, err := e.kind(id, KindAreaBased)
	if err != nil {
		return err
	}
	x.Area = pricing.Num(area)
	e.recalc(x, recalcFlags{})
	return nil
}

// SetUnitPrice updates the unit price of an area-based extra.
func (e *Engine) SetUnitPrice(id int64, unitPrice float64) error {
	x, err := e.kind(id, KindAreaBased)
	if err != nil {
		return err
	}
	x.UnitPrice = pricing.Num(unitPrice)
	e.recalc(x, recalcFlags{})
	return nil
}

// SetPrice updates the price of a fixed extra.
func (e *Engine) SetPrice(id int64, price float64) error {
	x, err := e.kind(id, KindFixed)
	if err != nil {
		return err
	}
	x.Price = pricing.Num(price)
	e.recalc(x, recalcFlags{})
	return nil
}

// Subtotal folds the totals of all active extras.
func (e *Engine) Subtotal() float64 {
	return Subtotal(e.Extras)
}

func (e *Engine) recalc(x *Extra, flags recalcFlags) {
	if x.Type == KindCeiling {
		if flags.updateFromSlab {
			idx, slab := e.cat.SlabFor(x.SurfaceTotalArea())
			if idx != x.AppliedSlab {
				x.ElectricalWiring = slab.ElectricalWiring
				x.ElectricianCharges = slab.ElectricianCharges
				x.CeilingLights = slab.CeilingLights
				x.ProfileLights = slab.ProfileLights
				x.AppliedSlab = idx
			}
		}

		if flags.forceRecalcPaintingArea || pricing.Num(x.CeilingPaintingArea) == 0 {
			x.CeilingPaintingArea = e.paintableArea(x)
		}
		if pricing.Num(x.CeilingPaintingUnit) == 0 {
			x.CeilingPaintingUnit = e.cat.PaintingUnitPrice
		}
	}

	RecalcTotals(x)
}

// paintableArea sums the areas of surfaces whose type the catalog marks as
// paintable.
func (e *Engine) paintableArea(x *Extra) float64 {
	var total float64
	for _, s := range x.Surfaces {
		if e.cat.Paintable(s.Type) {
			total += pricing.Num(s.Area)
		}
	}
	return total
}

func (e *Engine) byKey(key string) *Extra {
	for i := range e.Extras {
		if e.Extras[i].Key == key {
			return &e.Extras[i]
		}
	}
	return nil
}

func (e *Engine) byID(id int64) *Extra {
	for i := range e.Extras {
		if e.Extras[i].ID == id {
			return &e.Extras[i]
		}
	}
	return nil
}

func (e *Engine) ceiling(id int64) (*Extra, error) {
	return e.kind(id, KindCeiling)
}

func (e *Engine) kind(id int64, want Kind) (*Extra, error) {
	x := e.byID(id)
	if x == nil {
		return nil, ErrNotFound
	}
	if x.Type != want {
		return nil, fmt.Errorf("extra %q is %s, not %s", x.Key, x.Type, want)
	}
	return x, nil
}

// nextID returns the creation timestamp in unix milliseconds, bumped past
// any colliding identity so extras added within the same millisecond stay
// distinct.
func (e *Engine) nextID() int64 {
	id := e.now().UnixMilli()
	for e.byID(id) != nil {
		id++
	}
	return id
}
