package quote

import (
	"fmt"
	"time"

	"github.com/arkabuild/interioquote/internal/catalog"
	"github.com/arkabuild/interioquote/internal/extras"
	"github.com/arkabuild/interioquote/internal/pricing"
)

// Editor owns the single quote being edited in a session. Every mutation
// synchronously recomputes the dependent derived fields, so the document is
// always consistent between edits. It is not safe for concurrent use; each
// session owns its own editor.
type Editor struct {
	cat    *catalog.Catalog
	inv    Invoice
	engine *extras.Engine

	// ratesEdited gates global-rate propagation: loading an existing
	// invoice must never overwrite per-room customizations, only an
	// explicit global edit in this session does.
	ratesEdited bool
	// boxRateCustom breaks the 1.4x derivation link after a direct box
	// rate edit, until the frame rate changes again.
	boxRateCustom bool

	useCurrentLocation bool

	now func() time.Time
}

// NewEditor starts a fresh quote seeded from the catalog's default rates.
func NewEditor(cat *catalog.Catalog) *Editor {
	frame := pricing.Num(cat.Rates.FrameRate)
	e := &Editor{
		cat:    cat,
		engine: extras.NewEngine(cat),
		now:    time.Now,
	}
	e.inv = Invoice{
		Pricing: pricing.Rates{FrameRate: frame, BoxRate: pricing.DeriveBoxRate(frame)},
		Rooms:   []Room{},
	}
	return e
}

// LoadEditor resumes editing a persisted invoice. No rate propagation
// happens on load.
func LoadEditor(cat *catalog.Catalog, inv Invoice) *Editor {
	e := &Editor{
		cat:           cat,
		inv:           inv,
		engine:        extras.Restore(cat, inv.Extras),
		boxRateCustom: inv.Pricing.BoxRate != pricing.DeriveBoxRate(inv.Pricing.FrameRate),
		now:           time.Now,
	}
	e.inv.Extras = nil // owned by the engine while editing
	e.recalcRooms()
	return e
}

// RestoreEditor resumes editing from a local draft snapshot.
func RestoreEditor(cat *catalog.Catalog, snap Snapshot) *Editor {
	e := LoadEditor(cat, Invoice{
		Client:  snap.Client,
		Pricing: pricing.Rates{FrameRate: snap.GlobalFrameRate, BoxRate: snap.GlobalBoxRate},
		Rooms:   snap.Rooms,
		Extras:  snap.ExtrasState,
	})
	e.useCurrentLocation = snap.UseCurrentLocation
	return e
}

// Extras exposes the extras engine for this quote.
func (e *Editor) Extras() *extras.Engine { return e.engine }

// Rates returns the current global rates.
func (e *Editor) Rates() pricing.Rates { return e.inv.Pricing }

// GlobalRatesEdited reports whether a global rate field has been explicitly
// edited in this session.
func (e *Editor) GlobalRatesEdited() bool { return e.ratesEdited }

// SetClient replaces the client details.
func (e *Editor) SetClient(c Client) { e.inv.Client = c }

// SetUseCurrentLocation records the site-location preference carried in
// draft snapshots.
func (e *Editor) SetUseCurrentLocation(v bool) { e.useCurrentLocation = v }

// SetGlobalFrameRate sets the global frame rate, rederives the global box
// rate, and propagates both to every room.
func (e *Editor) SetGlobalFrameRate(v float64) {
	e.inv.Pricing.FrameRate = pricing.Num(v)
	e.inv.Pricing.BoxRate = pricing.DeriveBoxRate(e.inv.Pricing.FrameRate)
	e.boxRateCustom = false
	e.ratesEdited = true
	e.propagateRates()
	e.recalcRooms()
}

// SetGlobalBoxRate sets the global box rate directly, breaking the 1.4x
// derivation link until the frame rate changes again, and propagates the
// new box rate to every room.
func (e *Editor) SetGlobalBoxRate(v float64) {
	e.inv.Pricing.BoxRate = pricing.Num(v)
	e.boxRateCustom = true
	e.ratesEdited = true
	e.propagateRates()
	e.recalcRooms()
}

// propagateRates overwrites every room's rates with the current globals.
// Callers guarantee ratesEdited was set first; propagation never runs on
// load.
func (e *Editor) propagateRates() {
	for i := range e.inv.Rooms {
		frame := e.inv.Pricing.FrameRate
		box := e.inv.Pricing.BoxRate
		e.inv.Rooms[i].FrameRate = &frame
		e.inv.Rooms[i].BoxRate = &box
	}
}

// AddRoom appends a room seeded from the current global rates and returns
// its index.
func (e *Editor) AddRoom(name, roomType string) int {
	frame := e.inv.Pricing.FrameRate
	box := e.inv.Pricing.BoxRate
	e.inv.Rooms = append(e.inv.Rooms, Room{
		Name:        name,
		Type:        roomType,
		FrameRate:   &frame,
		BoxRate:     &box,
		Items:       []pricing.Item{},
		Accessories: []pricing.Accessory{},
	})
	return len(e.inv.Rooms) - 1
}

// UpdateRoom replaces the room at index wholesale.
func (e *Editor) UpdateRoom(index int, room Room) error {
	if err := e.roomIndex(index); err != nil {
		return err
	}
	e.inv.Rooms[index] = room
	e.recalcRooms()
	return nil
}

// RemoveRoom deletes the room at index.
func (e *Editor) RemoveRoom(index int) error {
	if err := e.roomIndex(index); err != nil {
		return err
	}
	e.inv.Rooms = append(e.inv.Rooms[:index], e.inv.Rooms[index+1:]...)
	return nil
}

// SetRoomRates overrides one room's rates; nil means inherit. Item prices
// under the room are recomputed with the newly resolved rates.
func (e *Editor) SetRoomRates(index int, frameRate, boxRate *float64) error {
	if err := e.roomIndex(index); err != nil {
		return err
	}
	e.inv.Rooms[index].FrameRate = frameRate
	e.inv.Rooms[index].BoxRate = boxRate
	e.recalcRooms()
	return nil
}

// AddItem appends a blank item to a room and returns its index.
func (e *Editor) AddItem(roomIndex int) (int, error) {
	if err := e.roomIndex(roomIndex); err != nil {
		return 0, err
	}
	room := &e.inv.Rooms[roomIndex]
	room.Items = append(room.Items, pricing.Item{})
	return len(room.Items) - 1, nil
}

// SetItemName names an item. When the room type carries a preset for the
// name, the item's frame and box dimensions are re-seeded from it and the
// computed prices reset to zero pending recalculation.
func (e *Editor) SetItemName(roomIndex, itemIndex int, name string) error {
	it, err := e.item(roomIndex, itemIndex)
	if err != nil {
		return err
	}

	it.Name = name
	if preset, ok := e.cat.ItemPreset(e.inv.Rooms[roomIndex].Type, name); ok {
		it.Frame = pricing.Shape{Height: preset.FrameHeight, Width: preset.FrameWidth}
		it.Box = pricing.Shape{Height: preset.BoxHeight, Width: preset.BoxWidth, Depth: preset.BoxDepth}
		it.TotalPrice = 0
	}
	e.recalcRooms()
	return nil
}

// SetItemFrame updates an item's frame dimensions.
func (e *Editor) SetItemFrame(roomIndex, itemIndex int, height, width float64) error {
	it, err := e.item(roomIndex, itemIndex)
	if err != nil {
		return err
	}
	it.Frame.Height = pricing.Num(height)
	it.Frame.Width = pricing.Num(width)
	e.recalcRooms()
	return nil
}

// SetItemBox updates an item's box dimensions.
func (e *Editor) SetItemBox(roomIndex, itemIndex int, height, width, depth float64) error {
	it, err := e.item(roomIndex, itemIndex)
	if err != nil {
		return err
	}
	it.Box.Height = pricing.Num(height)
	it.Box.Width = pricing.Num(width)
	it.Box.Depth = pricing.Num(depth)
	e.recalcRooms()
	return nil
}

// RemoveItem deletes an item from a room.
func (e *Editor) RemoveItem(roomIndex, itemIndex int) error {
	if _, err := e.item(roomIndex, itemIndex); err != nil {
		return err
	}
	room := &e.inv.Rooms[roomIndex]
	room.Items = append(room.Items[:itemIndex], room.Items[itemIndex+1:]...)
	return nil
}

// AddAccessory appends an accessory to a room.
func (e *Editor) AddAccessory(roomIndex int, a pricing.Accessory) error {
	if err := e.roomIndex(roomIndex); err != nil {
		return err
	}
	room := &e.inv.Rooms[roomIndex]
	room.Accessories = append(room.Accessories, a)
	return nil
}

// UpdateAccessory replaces an accessory by index.
func (e *Editor) UpdateAccessory(roomIndex, index int, a pricing.Accessory) error {
	if err := e.roomIndex(roomIndex); err != nil {
		return err
	}
	room := &e.inv.Rooms[roomIndex]
	if index < 0 || index >= len(room.Accessories) {
		return fmt.Errorf("accessory index %d out of range", index)
	}
	room.Accessories[index] = a
	return nil
}

// RemoveAccessory deletes an accessory by index.
func (e *Editor) RemoveAccessory(roomIndex, index int) error {
	if err := e.roomIndex(roomIndex); err != nil {
		return err
	}
	room := &e.inv.Rooms[roomIndex]
	if index < 0 || index >= len(room.Accessories) {
		return fmt.Errorf("accessory index %d out of range", index)
	}
	room.Accessories = append(room.Accessories[:index], room.Accessories[index+1:]...)
	return nil
}

// RoomSubtotal returns the current subtotal of one room.
func (e *Editor) RoomSubtotal(index int) (float64, error) {
	if err := e.roomIndex(index); err != nil {
		return 0, err
	}
	return RoomSubtotal(e.inv.Rooms[index]), nil
}

// GrandTotal returns the current grand total.
func (e *Editor) GrandTotal() float64 {
	return RoomsSubtotal(e.inv.Rooms) + e.engine.Subtotal()
}

// BuildInvoice assembles the document to persist: a deep copy of the
// current state with every derived field recomputed.
func (e *Editor) BuildInvoice(createdBy, role string) Invoice {
	inv := Invoice{
		ID:        e.inv.ID,
		Client:    e.inv.Client,
		Pricing:   e.inv.Pricing,
		Rooms:     cloneRooms(e.inv.Rooms),
		Extras:    append([]extras.Extra(nil), e.engine.Extras...),
		CreatedBy: createdBy,
		Role:      role,
	}
	Recalculate(&inv)
	return inv
}

// Snapshot captures the draft state written to local storage between saves.
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{
		Client:             e.inv.Client,
		GlobalFrameRate:    e.inv.Pricing.FrameRate,
		GlobalBoxRate:      e.inv.Pricing.BoxRate,
		Rooms:              cloneRooms(e.inv.Rooms),
		ExtrasState:        append([]extras.Extra(nil), e.engine.Extras...),
		UseCurrentLocation: e.useCurrentLocation,
		Timestamp:          e.now().UnixMilli(),
	}
}

// recalcRooms reprices every item in every room under the currently
// resolved rates. Runs after every mutation that can affect a price; cheap
// arithmetic over small collections.
func (e *Editor) recalcRooms() {
	for i := range e.inv.Rooms {
		room := &e.inv.Rooms[i]
		rates := room.EffectiveRates(e.inv.Pricing)
		for j := range room.Items {
			pricing.RecalcItem(&room.Items[j], rates)
		}
	}
}

func (e *Editor) roomIndex(index int) error {
	if index < 0 || index >= len(e.inv.Rooms) {
		return fmt.Errorf("room index %d out of range", index)
	}
	return nil
}

func (e *Editor) item(roomIndex, itemIndex int) (*pricing.Item, error) {
	if err := e.roomIndex(roomIndex); err != nil {
		return nil, err
	}
	room := &e.inv.Rooms[roomIndex]
	if itemIndex < 0 || itemIndex >= len(room.Items) {
		return nil, fmt.Errorf("item index %d out of range", itemIndex)
	}
	return &room.Items[itemIndex], nil
}

func cloneRooms(rooms []Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = r
		if r.FrameRate != nil {
			v := *r.FrameRate
			out[i].FrameRate = &v
		}
		if r.BoxRate != nil {
			v := *r.BoxRate
			out[i].BoxRate = &v
		}
		out[i].Items = append([]pricing.Item(nil), r.Items...)
		out[i].Accessories = append([]pricing.Accessory(nil), r.Accessories...)
	}
	return out
}

// Snapshot is the local draft document written under a fixed storage key
// while composing a new, unsaved quote.
type Snapshot struct {
	Client             Client         `json:"client"`
	GlobalFrameRate    float64        `json:"globalFrameRate"`
	GlobalBoxRate      float64        `json:"globalBoxRate"`
	Rooms              []Room         `json:"rooms"`
	ExtrasState        []extras.Extra `json:"extrasState"`
	UseCurrentLocation bool           `json:"useCurrentLocation"`
	Timestamp          int64          `json:"timestamp"`
}
