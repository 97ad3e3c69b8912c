package masterdata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<masterdata>
  <warehouses>
    <warehouse id="B" organization="org-1" active="false">Bodega Norte</warehouse>
    <warehouse id="A" organization="org-1">Bodega Central</warehouse>
  </warehouses>
  <parts>
    <part id="X" sku="FIL-001" category="discrete" unit="UND">Filtro d'aceite</part>
    <part id="G" sku="GRS-01" category="BULK" unit="KG">Grasa</part>
  </parts>
</masterdata>`

func TestParse(t *testing.T) {
	cat, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, cat.Warehouses, 2)
	assert.Equal(t, "A", cat.Warehouses[0].ID)
	assert.True(t, cat.Warehouses[0].Active)
	assert.False(t, cat.Warehouses[1].Active)

	require.Len(t, cat.Parts, 2)
	assert.Equal(t, "G", cat.Parts[0].ID)
	assert.Equal(t, entity.PartCategoryBulk, cat.Parts[0].Category)
	assert.Equal(t, entity.PartCategoryDiscrete, cat.Parts[1].Category)
	assert.Equal(t, "Filtro d'aceite", cat.Parts[1].Name)
}

func TestParse_Latin1(t *testing.T) {
	src := `<?xml version="1.0" encoding="ISO-8859-1"?>
<masterdata><parts><part id="T" category="BULK">Tornillería</part></parts></masterdata>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	cat, err := Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, cat.Parts, 1)
	assert.Equal(t, "Tornillería", cat.Parts[0].Name)
	assert.Equal(t, "UND", cat.Parts[0].UnitMeasure)
}

func TestParse_Invalido(t *testing.T) {
	cases := map[string]string{
		"raiz":      `<otro/>`,
		"categoria": `<masterdata><parts><part id="X" category="LIQUID"/></parts></masterdata>`,
		"sin id":    `<masterdata><warehouses><warehouse>A</warehouse></warehouses></masterdata>`,
		"duplicada": `<masterdata><parts><part id="X" category="BULK"/><part id="X" category="BULK"/></parts></masterdata>`,
		"active":    `<masterdata><warehouses><warehouse id="A" active="quizá"/></warehouses></masterdata>`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestWriteSQL(t *testing.T) {
	cat, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cat.WriteSQL(&buf))
	sql := buf.String()

	assert.Contains(t, sql, "VALUES ('A', 'org-1', 'Bodega Central', true)")
	assert.Contains(t, sql, "VALUES ('B', 'org-1', 'Bodega Norte', false)")
	assert.Contains(t, sql, "'Filtro d''aceite'")
	assert.True(t, strings.HasPrefix(sql, "-- Generado"))
	assert.True(t, strings.HasSuffix(sql, "COMMIT;\n"))
}
