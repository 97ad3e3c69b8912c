// seed_masterdata genera el script SQL para poblar las tablas maestras (parts, warehouses)
// a partir del catálogo XML exportado por el ERP.
//
// Uso: go run ./cmd/seed_masterdata [ruta/masterdata.xml] [salida.sql]
// Por defecto lee masterdata.xml del directorio actual y escribe en stdout.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/masterdata"
)

func main() {
	xmlPath := "masterdata.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cat, err := masterdata.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if len(os.Args) > 2 {
		outFile, err := os.Create(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear salida: %v\n", err)
			os.Exit(1)
		}
		defer outFile.Close()
		out = outFile
	}

	if err := cat.WriteSQL(out); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generadas %d bodegas y %d partes\n", len(cat.Warehouses), len(cat.Parts))
}
