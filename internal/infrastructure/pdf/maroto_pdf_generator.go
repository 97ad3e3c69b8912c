// Package pdf genera el informe de diferencias de una toma física.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega + estado       │  N° Toma + Fechas          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESPONSABLES: programó / completó / canceló                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Parte | Esperado | Contado | Diferencia             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: ítems contados / con diferencia / ajustes         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el id de la toma + fecha de generación      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

const dateLayout = "02/01/2006 15:04"

// ── Generator ─────────────────────────────────────────────────────────────────

var _ app.ReportRenderer = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa inventory.ReportRenderer usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// RenderStocktake genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderStocktake(rep app.StocktakeReport) ([]byte, error) {
	if rep.Stocktake == nil {
		return nil, fmt.Errorf("pdf: informe sin toma física")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Toma física "+rep.Stocktake.ID, true).
		WithAuthor(warehouseName(rep), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(actorsRow(rep.Stocktake))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(rep.Stocktake.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(rep))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(rep))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: bodega + estado (izq) y N° de toma + fechas (der).
func headerRow(rep app.StocktakeReport) core.Row {
	st := rep.Stocktake
	return row.New(18).Add(
		col.New(7).Add(
			text.New(warehouseName(rep), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+string(st.Status), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("INFORME DE TOMA FÍSICA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(st.ID, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Programada: "+st.ScheduledDate.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// actorsRow: quién programó y quién cerró la toma.
func actorsRow(st *entity.Stocktake) core.Row {
	closing := "—"
	switch {
	case st.CompletedAt != nil:
		closing = fmt.Sprintf("Completada por %s el %s", st.CompletedBy, st.CompletedAt.Format(dateLayout))
	case st.CancelledAt != nil:
		closing = fmt.Sprintf("Cancelada por %s el %s", st.CancelledBy, st.CancelledAt.Format(dateLayout))
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESPONSABLES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Programada por: %s   |   %s",
				nonEmpty(st.ScheduledBy, "—"), closing,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Parte", 4, align.Left),
		h("Esperado", 2, align.Right),
		h("Contado", 2, align.Right),
		h("Diferencia", 2, align.Right),
		h("Contó", 2, align.Left),
	)
}

// tableDetailRows: una fila por ítem; los no contados se marcan con "—".
func tableDetailRows(items []entity.StocktakeItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		counted, diff := "—", "—"
		diffColor := colorGray
		if it.Counted() {
			counted = it.ActualQuantity.String()
			d := it.Difference()
			diff = signed(d)
			if !d.IsZero() {
				diffColor = colorRed
			}
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(it.PartID, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.ExpectedQuantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(counted, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(diff, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: diffColor})),
			col.New(2).Add(text.New(nonEmpty(it.CountedBy, "—"), props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
		))
	}
	return result
}

func summaryRow(rep app.StocktakeReport) core.Row {
	st := rep.Stocktake
	withDiff := 0
	for _, it := range st.Items {
		if it.Counted() && !it.Difference().IsZero() {
			withDiff++
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(4).Add(
			label("Ítems contados:"),
			label("Con diferencia:"),
			label("Ajustes aplicados:"),
		),
		col.New(2).Add(
			value(fmt.Sprintf("%d / %d", st.CountedItems(), len(st.Items))),
			value(fmt.Sprintf("%d", withDiff)),
			value(fmt.Sprintf("%d", len(rep.Adjustments))),
		),
	)
}

func footerRow(rep app.StocktakeReport) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(rep.Stocktake.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Generado el "+rep.GeneratedAt.Format(dateLayout), props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Los ajustes quedan registrados en el libro de movimientos con referencia a esta toma.", props.Text{
				Size: 7, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func warehouseName(rep app.StocktakeReport) string {
	if rep.Warehouse != nil && rep.Warehouse.Name != "" {
		return rep.Warehouse.Name
	}
	return rep.Stocktake.WarehouseID
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// signed antepone "+" a las diferencias positivas.
func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}
