package export

import (
	"testing"

	"github.com/packlab/packager/internal/domain/inventory"
	"github.com/packlab/packager/internal/domain/trips"
)

func TestInventoryWorkbook(t *testing.T) {
	inv := inventory.Inventory{Categories: []inventory.PopulatedCategory{
		{
			Category: inventory.Category{Name: "Camping"},
			Items: []inventory.Item{
				{Name: "Tent", Weight: 2000},
				{Name: "Stove", Weight: 500},
			},
		},
	}}

	f, err := InventoryWorkbook(inv)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	checks := map[string]string{
		"A1": "category",
		"B2": "Tent",
		"D2": "2000",
		"B3": "Stove",
		"B4": "TOTAL",
		"D4": "2500",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("cell %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestPackingListWorkbook(t *testing.T) {
	trip := &trips.Trip{Name: "Alps"}
	cats := []trips.TripCategory{
		{
			Category: inventory.Category{Name: "Camping"},
			Items: []trips.TripItem{
				{Picked: true, Item: inventory.Item{Name: "Tent", Weight: 2000}},
				{Item: inventory.Item{Name: "Stove", Weight: 500}},
			},
		},
	}

	f, err := PackingListWorkbook(trip, cats)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	got, err := f.GetCellValue(sheet, "C4")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2000" {
		t.Errorf("picked total cell = %q, want %q", got, "2000")
	}
	name, err := f.GetCellValue(sheet, "A4")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Alps" {
		t.Errorf("total row label = %q, want trip name", name)
	}
}
