// Package exporter renders catalog data as spreadsheets for back-office use.
package exporter

import (
	"fmt"
	"io"

	"storefront/internal/domain"

	"github.com/tealeg/xlsx"
)

// ContentType is the MIME type of the workbook written by WriteProducts.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var productHeaders = []string{
	"ID", "Name", "Description", "Category", "Price", "Stock", "Active", "Image", "CreatedAt", "UpdatedAt",
}

// WriteProducts writes a single-sheet workbook with one row per product.
func WriteProducts(w io.Writer, products []domain.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetFloat(p.Price.InexactFloat64())
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetBool(p.IsActive)
		row.AddCell().SetValue(p.Image)
		row.AddCell().SetValue(p.CreatedAt.UTC().Format(timeLayout))
		row.AddCell().SetValue(p.UpdatedAt.UTC().Format(timeLayout))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
