// Package export builds xlsx workbooks for download: the full inventory and
// per-trip packing lists.
package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/packlab/packager/internal/domain/inventory"
	"github.com/packlab/packager/internal/domain/trips"
)

// InventoryWorkbook renders one row per inventory item, plus a weight total
// per category.
func InventoryWorkbook(inv inventory.Inventory) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"category",
		"item",
		"description",
		"weight_g",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, c := range inv.Categories {
		for _, it := range c.Items {
			excelRow := []interface{}{c.Name, it.Name, it.Description, it.Weight}
			if err := writeRow(f, sheet, row, &excelRow); err != nil {
				_ = f.Close()
				return nil, err
			}
			row++
		}
		totalRow := []interface{}{c.Name, "TOTAL", "", c.TotalWeight()}
		if err := writeRow(f, sheet, row, &totalRow); err != nil {
			_ = f.Close()
			return nil, err
		}
		row++
	}
	return f, nil
}

// PackingListWorkbook renders a trip's items with their pick/pack/new flags
// and the total picked weight at the bottom.
func PackingListWorkbook(t *trips.Trip, cats []trips.TripCategory) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"category",
		"item",
		"weight_g",
		"picked",
		"packed",
		"new",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	row := 2
	for _, tc := range cats {
		for _, ti := range tc.Items {
			excelRow := []interface{}{
				tc.Category.Name,
				ti.Item.Name,
				ti.Item.Weight,
				ti.Picked,
				ti.Packed,
				ti.New,
			}
			if err := writeRow(f, sheet, row, &excelRow); err != nil {
				_ = f.Close()
				return nil, err
			}
			row++
		}
	}

	totalRow := []interface{}{t.Name, "PICKED TOTAL", trips.TotalPickedWeight(cats), "", "", ""}
	if err := writeRow(f, sheet, row, &totalRow); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values *[]interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, values)
}
