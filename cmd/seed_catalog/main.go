// seed_catalog carga un catálogo de productos desde un XML exportado por el sistema anterior
// (normalmente en ISO-8859-1). Cada fila crea un lote; el stock inicial entra por la ruta de
// recepción a costo = precio, así el libro de movimientos queda conciliado desde el inicio.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual. Usa la misma configuración que cmd/api.
package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	domaininv "github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
)

type catalogo struct {
	Productos []producto `xml:"producto"`
}

type producto struct {
	Nombre      string `xml:"nombre,attr"`
	Categoria   string `xml:"categoria,attr"`
	Descripcion string `xml:"descripcion,attr"`
	Precio      string `xml:"precio,attr"`
	Stock       string `xml:"stock,attr"`
}

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := parseCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-seed"})

	ctx := context.Background()
	if cfg.DB.Migrate {
		if _, err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name+"-seed")
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	method, err := domaininv.ParseValuationMethod(cfg.Inventory.ValuationMethod)
	if err != nil {
		log.Fatal().Err(err).Msg("método de valoración")
	}
	policy, err := domaininv.PolicyFor(method)
	if err != nil {
		log.Fatal().Err(err).Msg("política de valoración")
	}
	txRunner := postgres.NewTxRunner(pool, cfg.Inventory.TxTimeout, cfg.Inventory.LockTimeout)
	engine := inventory.NewStockEngine(txRunner, policy, log)
	productUC := usecase.NewProductUseCase(postgres.NewProductRepository(pool), txRunner, engine)

	created := 0
	for _, in := range rows {
		if _, err := productUC.Create(ctx, in); err != nil {
			log.Error().Err(err).Str("name", in.Name).Msg("producto no creado")
			continue
		}
		created++
	}
	fmt.Printf("Cargados %d productos desde %s (%d filas omitidas)\n", created, xmlPath, skipped+len(rows)-created)
}

// parseCatalog decodifica el XML y convierte cada fila válida en una solicitud de alta.
// Las filas sin nombre o con números inválidos se cuentan como omitidas.
func parseCatalog(r io.Reader) ([]dto.CreateProductRequest, int, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, 0, err
	}

	out := make([]dto.CreateProductRequest, 0, len(c.Productos))
	skipped := 0
	for _, p := range c.Productos {
		name := strings.TrimSpace(p.Nombre)
		price, errP := parseAmount(p.Precio)
		stock, errS := parseAmount(p.Stock)
		if name == "" || errP != nil || errS != nil {
			skipped++
			continue
		}
		out = append(out, dto.CreateProductRequest{
			Name:         name,
			Description:  strings.TrimSpace(p.Descripcion),
			Category:     strings.TrimSpace(p.Categoria),
			Price:        price,
			InitialStock: stock,
		})
	}
	return out, skipped, nil
}

// parseAmount acepta coma decimal ("12,90") además de punto; vacío es cero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
