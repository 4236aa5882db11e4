package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrReportUnavailable no hay generador de reportes configurado.
var ErrReportUnavailable = errors.New("generador de reportes no configurado")

// LowStockReport genera el PDF de alertas de stock bajo.
func (e *Engine) LowStockReport(ctx context.Context) (pdf []byte, err error) {
	if e.renderer == nil {
		return nil, ErrReportUnavailable
	}
	alerts, err := e.GetLowStockAlerts(ctx)
	if err != nil {
		return nil, err
	}
	_, span := e.startSpan(ctx, "LowStockReport")
	defer func() { endSpan(span, err) }()

	pdf, err = e.renderer.RenderLowStock(alerts, e.now())
	if err != nil {
		return nil, fmt.Errorf("generar reporte de stock bajo: %w", err)
	}
	return pdf, nil
}
