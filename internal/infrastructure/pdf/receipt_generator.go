// Package pdf genera el comprobante de pago que acompaña al email de bienvenida.
//
// Layout de la página A5:
//
//	┌───────────────────────────────────────────┐
//	│  Producto              │  COMPROBANTE     │
//	│  ───────────────────────────────────────  │
//	│  Plan / Email / Fecha / Referencia        │
//	│  ───────────────────────────────────────  │
//	│                          TOTAL: $49,00 USD│
//	│  Leyenda                                  │
//	└───────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

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

	"github.com/jhoicas/Suscripciones-api/internal/application/notification"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa notification.ReceiptRenderer usando Maroto v2.
type ReceiptGenerator struct {
	productName string
}

var _ notification.ReceiptRenderer = (*ReceiptGenerator)(nil)

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator(productName string) *ReceiptGenerator {
	return &ReceiptGenerator{productName: nonEmpty(productName, "Suscripciones")}
}

// RenderReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) RenderReceipt(_ context.Context, r notification.Receipt) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de pago", true).
		WithAuthor(g.productName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(detailRows(r)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(r))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New("Conserve este comprobante. El cobro aparecerá en su estado de cuenta.",
			props.Text{Size: 7, Color: colorGray, Top: 3}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *ReceiptGenerator) headerRow(r notification.Receipt) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(g.productName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE PAGO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(r.PaidAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func detailRows(r notification.Receipt) []core.Row {
	field := func(label, value string) core.Row {
		return row.New(6).Add(
			col.New(4).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1})),
			col.New(8).Add(text.New(value, props.Text{Size: 8, Top: 1})),
		)
	}
	return []core.Row{
		field("Plan", nonEmpty(r.PlanName, "—")),
		field("Email", r.Email),
		field("Referencia", nonEmpty(r.PaymentRef, "—")),
	}
}

func totalRow(r notification.Receipt) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(6).Add(text.New(
			"TOTAL: $"+formatAmount(r.Amount)+" "+strings.ToUpper(r.Currency),
			props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 2},
		)),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount "1234.50" → "1.234,50"; montos sin decimales solo llevan miles.
func formatAmount(s string) string {
	if s == "" {
		return "0"
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := formatMoney(intPart)
	if hasFrac {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
