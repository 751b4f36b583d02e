// Package quote assembles rooms and extras into a priced invoice document.
// The aggregation is a pure fold over the current collections; rate
// inheritance follows the global -> room -> item cascade.
package quote

import (
	"time"

	"github.com/arkabuild/interioquote/internal/extras"
	"github.com/arkabuild/interioquote/internal/pricing"
)

// Client identifies who the quote is for.
type Client struct {
	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email,omitempty"`
	SiteAddress string `json:"siteAddress"`
	SiteMapLink string `json:"siteMapLink,omitempty"`
}

// Room is one room of the quote. FrameRate and BoxRate are per-room
// overrides of the global rates; nil means inherit.
type Room struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        string              `json:"type,omitempty"`
	FrameRate   *float64            `json:"frameRate,omitempty"`
	BoxRate     *float64            `json:"boxRate,omitempty"`
	Items       []pricing.Item      `json:"items"`
	Accessories []pricing.Accessory `json:"accessories,omitempty"`
}

// EffectiveRates resolves the room's rates against the invoice globals.
func (r Room) EffectiveRates(global pricing.Rates) pricing.Rates {
	return pricing.Resolve(global, r.FrameRate, r.BoxRate)
}

// BoxRateAuto reports whether the room's effective box rate still matches
// the 1.4x derivation from its own effective frame rate. Rooms where it
// does not are flagged as customized.
func (r Room) BoxRateAuto(global pricing.Rates) bool {
	eff := r.EffectiveRates(global)
	return eff.BoxRate == pricing.DeriveBoxRate(eff.FrameRate)
}

// Invoice is the assembled quote document exchanged with storage. The
// persisted GrandTotal is a cached denormalization; the in-memory value is
// always recomputed from the rooms and extras.
type Invoice struct {
	ID         string         `json:"id,omitempty"`
	Client     Client         `json:"client"`
	Pricing    pricing.Rates  `json:"pricing"`
	Rooms      []Room         `json:"rooms"`
	Extras     []extras.Extra `json:"extras"`
	GrandTotal float64        `json:"grandTotal"`
	CreatedBy  string         `json:"createdBy,omitempty"`
	Role       string         `json:"role,omitempty"`
	CreatedAt  time.Time      `json:"createdAt,omitzero"`
	UpdatedAt  time.Time      `json:"updatedAt,omitzero"`
}

// RoomSubtotal folds a room's items and accessories. Inputs are not
// mutated; item totals are taken as stored.
func RoomSubtotal(r Room) float64 {
	var total float64
	for _, it := range r.Items {
		total += pricing.Num(it.TotalPrice)
	}
	for _, a := range r.Accessories {
		total += a.LineTotal()
	}
	return total
}

// RoomsSubtotal folds all room subtotals.
func RoomsSubtotal(rooms []Room) float64 {
	var total float64
	for _, r := range rooms {
		total += RoomSubtotal(r)
	}
	return total
}

// GrandTotal folds rooms and extras into the invoice total.
func GrandTotal(inv Invoice) float64 {
	return RoomsSubtotal(inv.Rooms) + extras.Subtotal(inv.Extras)
}

// Recalculate rederives every derived field of the document in place: item
// areas and prices under the resolved room rates, extra totals, and the
// grand total. It applies no catalog defaults and is idempotent, so it is
// the recompute run on loaded documents and before persisting.
func Recalculate(inv *Invoice) {
	for i := range inv.Rooms {
		room := &inv.Rooms[i]
		rates := room.EffectiveRates(inv.Pricing)
		for j := range room.Items {
			pricing.RecalcItem(&room.Items[j], rates)
		}
	}
	for i := range inv.Extras {
		extras.RecalcTotals(&inv.Extras[i])
	}
	inv.GrandTotal = GrandTotal(*inv)
}
