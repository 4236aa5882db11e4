// Package pdf genera el reporte imprimible de alertas de stock bajo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de generación │ N° de alertas        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Tienda | Producto | SKU | Cant. | Mín. | Faltante    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: tiendas afectadas / unidades faltantes             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
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

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// LowStockReport implementa ledger.ReportRenderer con Maroto v2.
type LowStockReport struct {
	Title string
}

func NewLowStockReport() *LowStockReport {
	return &LowStockReport{Title: "Reporte de stock bajo"}
}

// RenderLowStock una fila por alerta, en el orden recibido.
func (g *LowStockReport) RenderLowStock(alerts []entity.Alert, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(g.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.Title, generatedAt, len(alerts)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	if len(alerts) == 0 {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Sin productos por debajo del stock mínimo.", props.Text{
				Size: 10, Align: align.Center, Top: 4, Color: colorGray,
			}),
		)))
	} else {
		m.AddRows(tableHeaderRow())
		m.AddRows(alertRows(alerts)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(alerts))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar reporte: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(title string, generatedAt time.Time, count int) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+generatedAt.UTC().Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("ALERTAS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(strconv.Itoa(count), props.Text{
				Style: fontstyle.Bold, Size: 14, Align: align.Right, Top: 6,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Tienda", 2, align.Left),
		h("Producto", 4, align.Left),
		h("SKU", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Mín.", 1, align.Right),
		h("Faltante", 2, align.Right),
	)
}

func alertRows(alerts []entity.Alert) []core.Row {
	rows := make([]core.Row, 0, len(alerts))
	for _, a := range alerts {
		name, sku := a.Record.ProductID, "—"
		if a.Product != nil {
			name = nonEmpty(a.Product.Name, a.Record.ProductID)
			sku = nonEmpty(a.Product.SKU, "—")
		}
		cell := func(s string, size int, al align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: al, Top: 1, Left: 1, Right: 1}))
		}
		rows = append(rows, row.New(7).Add(
			cell(a.Record.StoreID, 2, align.Left),
			cell(name, 4, align.Left),
			cell(sku, 2, align.Left),
			cell(formatUnits(a.Record.Quantity), 1, align.Right),
			cell(formatUnits(a.Record.MinStock), 1, align.Right),
			col.New(2).Add(text.New(formatUnits(a.Deficit), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1, Color: colorAlert,
			})),
		))
	}
	return rows
}

func summaryRow(alerts []entity.Alert) core.Row {
	stores := make(map[string]struct{})
	var deficit int64
	for _, a := range alerts {
		stores[a.Record.StoreID] = struct{}{}
		deficit += a.Deficit
	}
	return row.New(14).Add(
		col.New(6),
		col.New(6).Add(
			text.New(fmt.Sprintf("Tiendas afectadas: %d", len(stores)), props.Text{
				Size: 9, Align: align.Right, Top: 2, Right: 1,
			}),
			text.New("Unidades faltantes: "+formatUnits(deficit), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 8, Right: 1, Color: colorPrimary,
			}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatUnits inserta puntos de miles. Ej: 1000000 → "1.000.000"
func formatUnits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg, s = true, s[1:]
	}
	l := len(s)
	buf := make([]byte, 0, l+l/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
