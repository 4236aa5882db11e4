// Package catalogcsv lee catálogos de productos en CSV (UTF-8 o Latin-1) y genera
// el seed SQL de la tabla products.
//
// Columnas esperadas (la cabecera es obligatoria, el orden libre):
//
//	id,sku,name,description,category,price
package catalogcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Product fila del catálogo.
type Product struct {
	entity.ProductSummary
	Description string
	Category    string
}

var required = []string{"id", "sku", "name", "price"}

// Parse lee el CSV. latin1 decodifica ISO-8859-1 (exportaciones de hojas de cálculo).
// Las filas con id repetido se quedan con la última aparición.
func Parse(r io.Reader, latin1 bool) ([]Product, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catálogo vacío: falta la cabecera")
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	byID := make(map[string]Product)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		p := Product{
			ProductSummary: entity.ProductSummary{
				ID:   field(row, "id"),
				SKU:  field(row, "sku"),
				Name: field(row, "name"),
			},
			Description: field(row, "description"),
			Category:    field(row, "category"),
		}
		if p.ID == "" || p.SKU == "" || p.Name == "" {
			return nil, fmt.Errorf("línea %d: id, sku y name son obligatorios", line)
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(field(row, "price"), ",", "."))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, field(row, "price"))
		}
		p.Price = price.Round(2)
		byID[p.ID] = p
	}

	out := make([]Product, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WriteSQL escribe un INSERT idempotente por producto (ON CONFLICT actualiza).
func WriteSQL(w io.Writer, products []Product) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de productos\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")
	for _, p := range products {
		fmt.Fprintf(&b, "INSERT INTO products (id, sku, name, description, category, price)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s', %s)\n",
			escapeSQL(p.ID), escapeSQL(p.SKU), escapeSQL(p.Name),
			escapeSQL(p.Description), escapeSQL(p.Category), p.Price.StringFixed(2))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,\n")
		b.WriteString("  description = EXCLUDED.description, category = EXCLUDED.category,\n")
		b.WriteString("  price = EXCLUDED.price, updated_at = now();\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
