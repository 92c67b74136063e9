package main

import (
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_Latin1(t *testing.T) {
	f, err := os.Open("testdata/catalogo.xml")
	require.NoError(t, err)
	defer f.Close()

	rows, skipped, err := parseCatalog(f)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 3)

	assert.Equal(t, "Tornillo 1/4", rows[0].Name)
	assert.Equal(t, "Ferretería", rows[0].Category)
	assert.Equal(t, "Acero galvanizado", rows[0].Description)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("0.35")))
	assert.True(t, rows[0].InitialStock.Equal(decimal.NewFromInt(500)))

	// dos lotes con el mismo nombre se cargan como filas separadas
	assert.Equal(t, rows[0].Name, rows[1].Name)

	assert.Equal(t, "Caño PVC", rows[2].Name)
	assert.True(t, rows[2].InitialStock.IsZero())
}

func TestParseCatalog_ComaDecimalYFilasInvalidas(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<catalogo>
  <producto nombre="Cinta" precio="3,75" stock="10"/>
  <producto nombre="Malo" precio="abc" stock="1"/>
</catalogo>`
	rows, skipped, err := parseCatalog(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("3.75")))
}

func TestParseCatalog_XMLInvalido(t *testing.T) {
	_, _, err := parseCatalog(strings.NewReader("<catalogo>"))
	assert.Error(t, err)
}
