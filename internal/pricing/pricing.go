package pricing

import "math"

// boxRateFactor is the multiplier used to derive a box rate from a frame
// rate whenever no explicit box rate has been set.
const boxRateFactor = 1.4

// Shape is one priced sub-shape of a work item: a planar frame or a
// volumetric box. Area and Price are derived fields and are overwritten on
// every recalculation.
type Shape struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth,omitempty"`
	Area   float64 `json:"area"`
	Price  float64 `json:"price"`
}

// Item is a single work item inside a room, made of a frame and a box.
// TotalPrice is always frame price + box price; it is never edited directly.
type Item struct {
	Name       string  `json:"name"`
	Frame      Shape   `json:"frame"`
	Box        Shape   `json:"box"`
	TotalPrice float64 `json:"totalPrice"`
}

// Accessory is a catalog-sourced line item priced as unit price times
// quantity, with no derivation rules of its own.
type Accessory struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// LineTotal returns the accessory's contribution to a room subtotal.
func (a Accessory) LineTotal() float64 {
	return Num(a.Price) * Num(a.Qty)
}

// Rates holds a frame rate and a box rate, either invoice-global or resolved
// for a particular room.
type Rates struct {
	FrameRate float64 `json:"frameRate"`
	BoxRate   float64 `json:"boxRate"`
}

// Num normalizes a numeric input read from the outside: NaN and infinities
// become 0 so they never propagate into a total.
func Num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// DeriveBoxRate returns the box rate implied by a frame rate.
func DeriveBoxRate(frameRate float64) float64 {
	return Num(frameRate) * boxRateFactor
}

// FrameArea computes the planar area of a frame.
func FrameArea(height, width float64) float64 {
	return Num(height) * Num(width)
}

// BoxArea computes the volumetric "area" of a box. The name follows the
// trade convention: boxes are priced per height x width x depth.
func BoxArea(height, width, depth float64) float64 {
	return Num(height) * Num(width) * Num(depth)
}

// Present reports whether the shape should be rendered and aggregated as a
// real row. A zero-area shape contributes nothing but stays latent until it
// is given nonzero dimensions.
func (s Shape) Present() bool {
	return Num(s.Area) > 0
}

// Resolve applies the three-level rate cascade: a room's stored override
// wins over the global rate, and a missing box rate derives from the frame
// rate at whichever level supplied it. NaN overrides count as unset.
func Resolve(global Rates, roomFrame, roomBox *float64) Rates {
	r := Rates{FrameRate: Num(global.FrameRate), BoxRate: Num(global.BoxRate)}

	frameSet := roomFrame != nil && !math.IsNaN(*roomFrame)
	if frameSet {
		r.FrameRate = Num(*roomFrame)
	}

	switch {
	case roomBox != nil && !math.IsNaN(*roomBox):
		r.BoxRate = Num(*roomBox)
	case frameSet:
		r.BoxRate = DeriveBoxRate(r.FrameRate)
	}

	return r
}

// RecalcItem rederives both shape areas, both shape prices, and the item
// total from the item's dimensions and the given rates. The computation is
// idempotent: unchanged inputs always yield the same output.
func RecalcItem(it *Item, rates Rates) {
	it.Frame.Area = FrameArea(it.Frame.Height, it.Frame.Width)
	it.Frame.Price = it.Frame.Area * Num(rates.FrameRate)

	it.Box.Area = BoxArea(it.Box.Height, it.Box.Width, it.Box.Depth)
	it.Box.Price = it.Box.Area * Num(rates.BoxRate)

	it.TotalPrice = it.Frame.Price + it.Box.Price
}
