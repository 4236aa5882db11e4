// seed_catalog genera el script SQL que puebla la tabla products a partir de un CSV
// exportado del catálogo (id,sku,name,description,category,price).
//
// Uso: go run ./cmd/seed_catalog [-latin1] [ruta/productos.csv]
// Por defecto busca productos.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_products.sql
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalogcsv"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	flag.Parse()

	csvPath := "productos.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	products, err := catalogcsv.Parse(f, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_products.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := catalogcsv.WriteSQL(out, products); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", outPath, len(products))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
