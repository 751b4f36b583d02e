package catalog

import "github.com/arkabuild/interioquote/internal/pricing"

// Default returns the built-in catalog. Deployments override it with a JSON
// file via CATALOG_PATH; the built-ins keep a fresh install usable.
func Default() *Catalog {
	return &Catalog{
		Rates: pricing.Rates{FrameRate: 1350, BoxRate: 1890},
		RoomTypes: []RoomType{
			{
				Name: "Bedroom",
				Items: []ItemPreset{
					{Name: "Wardrobe", FrameHeight: 7, FrameWidth: 4, BoxHeight: 7, BoxWidth: 4, BoxDepth: 2},
					{Name: "Loft", FrameHeight: 2, FrameWidth: 4, BoxHeight: 2, BoxWidth: 4, BoxDepth: 2},
					{Name: "Dresser", FrameHeight: 6, FrameWidth: 2.5},
					{Name: "Study Table", FrameHeight: 2.5, FrameWidth: 4, BoxHeight: 2.5, BoxWidth: 4, BoxDepth: 1.5},
					{Name: "Bed Back Panel", FrameHeight: 4.5, FrameWidth: 6},
				},
				Accessories: []AccessoryPreset{
					{Name: "Soft-close Hinge", Price: 350},
					{Name: "Drawer Channel", Price: 550},
					{Name: "Hanger Rod", Price: 400},
				},
			},
			{
				Name: "Kitchen",
				Items: []ItemPreset{
					{Name: "Base Unit", FrameHeight: 2.75, FrameWidth: 8, BoxHeight: 2.75, BoxWidth: 8, BoxDepth: 2},
					{Name: "Wall Unit", FrameHeight: 2.5, FrameWidth: 8, BoxHeight: 2.5, BoxWidth: 8, BoxDepth: 1.25},
					{Name: "Tall Unit", FrameHeight: 7, FrameWidth: 2, BoxHeight: 7, BoxWidth: 2, BoxDepth: 2},
				},
				Accessories: []AccessoryPreset{
					{Name: "Cutlery Tray", Price: 1200},
					{Name: "Bottle Pull-out", Price: 3800},
					{Name: "Corner Carousel", Price: 6500},
				},
			},
			{
				Name: "Living Room",
				Items: []ItemPreset{
					{Name: "TV Unit", FrameHeight: 4, FrameWidth: 6, BoxHeight: 1.5, BoxWidth: 6, BoxDepth: 1.5},
					{Name: "Crockery Unit", FrameHeight: 6, FrameWidth: 3, BoxHeight: 6, BoxWidth: 3, BoxDepth: 1.5},
					{Name: "Shoe Rack", FrameHeight: 3.5, FrameWidth: 3, BoxHeight: 3.5, BoxWidth: 3, BoxDepth: 1.25},
				},
			},
		},
		Extras: []ExtraSpec{
			{Key: "false_ceiling", Label: "False Ceiling", Kind: "ceiling"},
			{Key: "wall_painting", Label: "Wall Painting", Kind: "area_based", UnitPrice: 28},
			{Key: "wallpaper", Label: "Wallpaper", Kind: "area_based", UnitPrice: 85},
			{Key: "wooden_flooring", Label: "Wooden Flooring", Kind: "area_based", UnitPrice: 240},
			{Key: "deep_cleaning", Label: "Deep Cleaning", Kind: "fixed", Price: 4500},
			{Key: "plumbing_work", Label: "Plumbing Work", Kind: "fixed", Price: 6000},
			{Key: "transport", Label: "Transport & Handling", Kind: "fixed", Price: 3500},
		},
		Surfaces: []SurfaceSpec{
			{Type: "saint_gobain", Label: "Saint Gobain", UnitPrice: 95, Paintable: true},
			{Type: "gyproc", Label: "Gyproc", UnitPrice: 90, Paintable: true},
			{Type: "pop", Label: "POP", UnitPrice: 80, Paintable: true},
			{Type: "pvc", Label: "PVC Panel", UnitPrice: 110, Paintable: false},
			{Type: "wooden_rafter", Label: "Wooden Rafter", UnitPrice: 160, Paintable: false},
		},
		DefaultSurface:    "saint_gobain",
		PaintingUnitPrice: 22,
		Slabs: []Slab{
			{Min: 0, Max: 100, ElectricalWiring: 5000, ElectricianCharges: 3000, CeilingLights: 2400, ProfileLights: 1800},
			{Min: 100, Max: 200, ElectricalWiring: 8000, ElectricianCharges: 4500, CeilingLights: 3600, ProfileLights: 2800},
			{Min: 200, Max: 350, ElectricalWiring: 12000, ElectricianCharges: 6500, CeilingLights: 5200, ProfileLights: 4200},
			{Min: 350, Max: 600, ElectricalWiring: 17000, ElectricianCharges: 9000, CeilingLights: 7500, ProfileLights: 6000},
			{Min: 600, Max: 1200, ElectricalWiring: 24000, ElectricianCharges: 12500, CeilingLights: 10500, ProfileLights: 8500},
		},
	}
}
