package exporter

import (
	"bytes"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestWriteProducts(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	products := []domain.Product{
		{ID: "p1", Name: "Lamp", Description: "Warm light", Image: "/uploads/lamp.png", Category: "Home", Price: decimal.RequireFromString("19.99"), Stock: 4, IsActive: true, CreatedAt: created, UpdatedAt: created},
		{ID: "p2", Name: "Mug", Description: "Ceramic", Image: "/uploads/mug.png", Category: "Kitchen", Price: decimal.NewFromInt(8), Stock: 0, CreatedAt: created, UpdatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	rows := file.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0].Cells[0].Value)
	assert.Equal(t, "Price", rows[0].Cells[4].Value)
	assert.Equal(t, "Lamp", rows[1].Cells[1].Value)
	assert.Equal(t, "19.99", rows[1].Cells[4].Value)
	assert.Equal(t, "4", rows[1].Cells[5].Value)
	assert.Equal(t, "2024-03-01 12:30:00", rows[1].Cells[8].Value)
	assert.Equal(t, "Mug", rows[2].Cells[1].Value)
}

func TestWriteProducts_EmptyCatalogHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, nil))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, file.Sheets[0].Rows, 1)
}
