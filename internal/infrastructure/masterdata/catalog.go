// Package masterdata lee el catálogo XML de partes y bodegas (exportado por el ERP) y lo
// convierte en entidades o en SQL de carga.
//
// Formato esperado:
//
//	<?xml version="1.0" encoding="ISO-8859-1"?>
//	<masterdata>
//	  <warehouses>
//	    <warehouse id="A" organization="org-1" active="true">Bodega Central</warehouse>
//	  </warehouses>
//	  <parts>
//	    <part id="X" sku="FIL-001" category="DISCRETE" unit="UND">Filtro de aceite</part>
//	  </parts>
//	</masterdata>
package masterdata

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Catalog partes y bodegas ordenadas por id.
type Catalog struct {
	Parts      []entity.Part
	Warehouses []entity.Warehouse
}

// Parse lee el XML. Acepta UTF-8, ISO-8859-1 y Windows-1252.
func Parse(r io.Reader) (*Catalog, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("masterdata: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "masterdata" {
		return nil, fmt.Errorf("masterdata: se esperaba la raíz <masterdata>")
	}

	cat := &Catalog{}
	seenW := map[string]bool{}
	for i, el := range root.FindElements("./warehouses/warehouse") {
		id := strings.TrimSpace(el.SelectAttrValue("id", ""))
		if id == "" {
			return nil, fmt.Errorf("masterdata: bodega #%d sin id", i+1)
		}
		if seenW[id] {
			return nil, fmt.Errorf("masterdata: bodega %s duplicada", id)
		}
		seenW[id] = true
		active := true
		if v := el.SelectAttrValue("active", ""); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("masterdata: bodega %s active=%q inválido", id, v)
			}
			active = b
		}
		cat.Warehouses = append(cat.Warehouses, entity.Warehouse{
			ID:             id,
			OrganizationID: strings.TrimSpace(el.SelectAttrValue("organization", "")),
			Name:           strings.TrimSpace(el.Text()),
			Active:         active,
		})
	}

	seenP := map[string]bool{}
	for i, el := range root.FindElements("./parts/part") {
		id := strings.TrimSpace(el.SelectAttrValue("id", ""))
		if id == "" {
			return nil, fmt.Errorf("masterdata: parte #%d sin id", i+1)
		}
		if seenP[id] {
			return nil, fmt.Errorf("masterdata: parte %s duplicada", id)
		}
		seenP[id] = true
		category := entity.PartCategory(strings.ToUpper(strings.TrimSpace(el.SelectAttrValue("category", ""))))
		if !category.IsValid() {
			return nil, fmt.Errorf("masterdata: parte %s categoría %q inválida", id, category)
		}
		cat.Parts = append(cat.Parts, entity.Part{
			ID:          id,
			SKU:         strings.TrimSpace(el.SelectAttrValue("sku", "")),
			Name:        strings.TrimSpace(el.Text()),
			Category:    category,
			UnitMeasure: strings.TrimSpace(el.SelectAttrValue("unit", "UND")),
		})
	}

	sort.Slice(cat.Warehouses, func(i, j int) bool { return cat.Warehouses[i].ID < cat.Warehouses[j].ID })
	sort.Slice(cat.Parts, func(i, j int) bool { return cat.Parts[i].ID < cat.Parts[j].ID })
	return cat, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("masterdata: charset %q no soportado", label)
}

// WriteSQL escribe los INSERT idempotentes (upsert por id) del catálogo.
func (c *Catalog) WriteSQL(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("-- Generado por seed_masterdata. No editar a mano.\n")
	sb.WriteString("BEGIN;\n\n")
	for _, wh := range c.Warehouses {
		fmt.Fprintf(&sb,
			"INSERT INTO warehouses (id, organization_id, name, active) VALUES (%s, %s, %s, %t)\n"+
				"    ON CONFLICT (id) DO UPDATE SET organization_id = EXCLUDED.organization_id, name = EXCLUDED.name, active = EXCLUDED.active, updated_at = now();\n",
			quote(wh.ID), quote(wh.OrganizationID), quote(wh.Name), wh.Active)
	}
	if len(c.Warehouses) > 0 {
		sb.WriteString("\n")
	}
	for _, p := range c.Parts {
		fmt.Fprintf(&sb,
			"INSERT INTO parts (id, sku, name, category, unit_measure) VALUES (%s, %s, %s, %s, %s)\n"+
				"    ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name, category = EXCLUDED.category, unit_measure = EXCLUDED.unit_measure;\n",
			quote(p.ID), quote(p.SKU), quote(p.Name), quote(string(p.Category)), quote(p.UnitMeasure))
	}
	sb.WriteString("\nCOMMIT;\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
