package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	domaininv "github.com/jhoicas/stock-api/internal/domain/inventory"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp arma la API completa sobre el store en memoria.
func buildTestApp(t *testing.T, direction inventory.DeliveryDirection) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	tx := store.TxRunner()
	engine := inventory.NewStockEngine(tx, domaininv.MovingAverage{}, nil)

	suppliers := usecase.NewSupplierUseCase(store.Suppliers())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(store.Products(), tx, engine),
		SupplierUC:    suppliers,
		Engine:        engine,
		Delivery:      inventory.NewOrderDeliveryUseCase(engine, tx, direction, nil, inventory.WithSupplierDirectory(suppliers)),
		Movements:     inventory.NewMovementQueryUseCase(store.Movements(), store.Products()),
		Replenishment: inventory.NewReplenishmentUseCase(store.Products(), store.Movements()),
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func createProduct(t *testing.T, app *fiber.App, body string) dto.ProductResponse {
	t.Helper()
	status, raw := do(t, app, http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProducts_CRUD(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)

	p := createProduct(t, app, `{"name":"Tornillo","category":"Ferretería","price":"2.50","initial_stock":"10"}`)
	assert.True(t, p.StockQuantity.Equal(d("10")))
	assert.True(t, p.AverageCost.Equal(d("2.5")))

	status, raw := do(t, app, http.MethodGet, "/api/products/"+p.ID, "")
	require.Equal(t, http.StatusOK, status)
	var got dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Tornillo", got.Name)

	status, raw = do(t, app, http.MethodPut, "/api/products/"+p.ID, `{"price":"3.00"}`)
	require.Equal(t, http.StatusOK, status, string(raw))

	// con historial no se puede borrar
	status, raw = do(t, app, http.MethodDelete, "/api/products/"+p.ID, "")
	assert.Equal(t, http.StatusConflict, status)
	var errBody dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errBody))
	assert.Equal(t, "HAS_MOVEMENTS", errBody.Code)

	empty := createProduct(t, app, `{"name":"Lija","price":"1"}`)
	status, _ = do(t, app, http.MethodDelete, "/api/products/"+empty.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, app, http.MethodGet, "/api/products/"+empty.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProducts_Validacion(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)

	status, raw := do(t, app, http.MethodPost, "/api/products", `{"name":"","price":"1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	var errBody dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errBody))
	assert.Equal(t, "VALIDATION", errBody.Code)

	status, _ = do(t, app, http.MethodPost, "/api/products", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/products/search?min_price=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProducts_RestockYBusqueda(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	p := createProduct(t, app, `{"name":"Cable","price":"10.00","initial_stock":"10"}`)
	createProduct(t, app, `{"name":"Cable grueso","price":"30.00","initial_stock":"2"}`)

	status, raw := do(t, app, http.MethodPost, "/api/products/"+p.ID+"/receipts", `{"quantity":"10","unit_cost":"20.00"}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.StockQuantity.Equal(d("20")))
	assert.True(t, out.AverageCost.Equal(d("15")))

	status, _ = do(t, app, http.MethodPost, "/api/products/"+p.ID+"/receipts", `{"quantity":"0","unit_cost":"1"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/products/no-existe/receipts", `{"quantity":"1","unit_cost":"1"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = do(t, app, http.MethodGet, "/api/products/search?name=cable&stock_below=5", "")
	require.Equal(t, http.StatusOK, status)
	var list dto.ProductListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Cable grueso", list.Items[0].Name)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_RepartoYStockInsuficiente(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	a := createProduct(t, app, `{"name":"Widget","price":"1.00","initial_stock":"5"}`)
	b := createProduct(t, app, `{"name":"widget","price":"2.00","initial_stock":"3"}`)

	status, raw := do(t, app, http.MethodPost, "/api/inventory/allocations", `{"product_name":"WIDGET","quantity":"7","order_id":"O-1"}`)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = do(t, app, http.MethodGet, "/api/inventory/movements?order_id=O-1&type=OUTBOUND", "")
	require.Equal(t, http.StatusOK, status)
	var movs dto.MovementListResponse
	require.NoError(t, json.Unmarshal(raw, &movs))
	require.Len(t, movs.Items, 2)
	byProduct := map[string]dto.MovementResponse{}
	for _, m := range movs.Items {
		byProduct[m.ProductID] = m
	}
	assert.True(t, byProduct[a.ID].Quantity.Equal(d("5")))
	assert.True(t, byProduct[a.ID].UnitCost.Equal(d("1")))
	assert.True(t, byProduct[b.ID].Quantity.Equal(d("2")))
	assert.True(t, byProduct[b.ID].UnitCost.Equal(d("2")))
	assert.Equal(t, 50, movs.Page.Limit, "límite por defecto aplicado")

	status, raw = do(t, app, http.MethodPost, "/api/inventory/allocations", `{"product_name":"widget","quantity":"2","order_id":"O-2"}`)
	assert.Equal(t, http.StatusConflict, status)
	var insufficient dto.InsufficientStockResponse
	require.NoError(t, json.Unmarshal(raw, &insufficient))
	assert.Equal(t, "INSUFFICIENT_STOCK", insufficient.Code)
	assert.Equal(t, "widget", insufficient.ProductName)
	assert.True(t, insufficient.Requested.Equal(d("2")))
	assert.True(t, insufficient.Available.Equal(d("1")))

	status, _ = do(t, app, http.MethodPost, "/api/inventory/allocations", `{"product_name":"widget","quantity":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeliver_UnaVez(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	createProduct(t, app, `{"name":"Tuerca","price":"0.50","initial_stock":"100"}`)

	body := `{"order_id":"PO-9","lines":[{"product_name":"tuerca","quantity":"10","unit_price":"0.50"}]}`
	status, raw := do(t, app, http.MethodPost, "/api/inventory/deliveries", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var first dto.DeliveryResponse
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.True(t, first.Delivered)
	assert.Equal(t, "OUTBOUND", first.Direction)
	require.Len(t, first.Movements, 1)

	status, raw = do(t, app, http.MethodPost, "/api/inventory/deliveries", body)
	require.Equal(t, http.StatusOK, status)
	var second dto.DeliveryResponse
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.False(t, second.Delivered)
	assert.Empty(t, second.Movements)
}

func TestDeliver_Inbound(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryInbound)
	p := createProduct(t, app, `{"name":"Pintura","price":"4.00"}`)

	body := `{"order_id":"PO-1","lines":[{"product_id":"` + p.ID + `","quantity":"4","unit_price":"2.00"}]}`
	status, raw := do(t, app, http.MethodPost, "/api/inventory/deliveries", body)
	require.Equal(t, http.StatusCreated, status, string(raw))

	status, raw = do(t, app, http.MethodGet, "/api/inventory/products/"+p.ID+"/reconciliation", "")
	require.Equal(t, http.StatusOK, status)
	var rec dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.True(t, rec.Balanced)
	assert.True(t, rec.OnHand.Equal(d("4")))
	assert.True(t, rec.Inbound.Equal(d("4")))
}

func TestMovements_FiltrosInvalidos(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)

	status, _ := do(t, app, http.MethodGet, "/api/inventory/movements?type=TRANSFER", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/inventory/movements?from=ayer", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodGet, "/api/inventory/movements?from=2025-02-01T00:00:00Z&to=2025-01-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMovements_LimiteEfectivoEnLaRespuesta(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)

	status, raw := do(t, app, http.MethodGet, "/api/inventory/movements?limit=10000", "")
	require.Equal(t, http.StatusOK, status)
	var movs dto.MovementListResponse
	require.NoError(t, json.Unmarshal(raw, &movs))
	assert.Equal(t, 500, movs.Page.Limit)
}

func TestCantidadesConMasDeCuatroDecimales(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	p := createProduct(t, app, `{"name":"Widget","price":"1.00","initial_stock":"10"}`)

	status, _ := do(t, app, http.MethodPost, "/api/inventory/allocations", `{"product_name":"Widget","quantity":"0.00005"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, app, http.MethodPost, "/api/products/"+p.ID+"/receipts", `{"quantity":"0.00004","unit_cost":"1"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := do(t, app, http.MethodGet, "/api/inventory/products/"+p.ID+"/reconciliation", "")
	require.Equal(t, http.StatusOK, status)
	var rec dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.True(t, rec.Balanced)
	assert.True(t, rec.OnHand.Equal(d("10")))
}

const supplierBody = `{"company":"Textiles del Norte","contact":"Ana Ruiz","email":"compras@textiles.example",` +
	`"phone":"0612345678","address":"Av. Principal 120","city":"Casablanca","tax_id":"ICE0012345678"}`

func TestSuppliers_RegistroYEntrega(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	createProduct(t, app, `{"name":"Hilo","price":"1.00","initial_stock":"20"}`)

	status, raw := do(t, app, http.MethodPost, "/api/suppliers", supplierBody)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var sup dto.SupplierResponse
	require.NoError(t, json.Unmarshal(raw, &sup))

	status, _ = do(t, app, http.MethodPost, "/api/suppliers", supplierBody)
	assert.Equal(t, http.StatusConflict, status, "ICE repetido")

	status, _ = do(t, app, http.MethodPost, "/api/suppliers", `{"company":"X","email":"malo"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = do(t, app, http.MethodPut, "/api/suppliers/"+sup.ID, strings.Replace(supplierBody, "Casablanca", "Rabat", 1))
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = do(t, app, http.MethodGet, "/api/suppliers/"+sup.ID, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sup))
	assert.Equal(t, "Rabat", sup.City)

	status, _ = do(t, app, http.MethodGet, "/api/suppliers/no-existe", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = do(t, app, http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, status)
	var list dto.SupplierListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 1, list.Page.Total)

	line := `"lines":[{"product_name":"Hilo","quantity":"2","unit_price":"1.00"}]`
	status, _ = do(t, app, http.MethodPost, "/api/inventory/deliveries", `{"order_id":"PO-30","supplier_id":"fantasma",`+line+`}`)
	assert.Equal(t, http.StatusNotFound, status)
	status, raw = do(t, app, http.MethodPost, "/api/inventory/deliveries", `{"order_id":"PO-31","supplier_id":"`+sup.ID+`",`+line+`}`)
	assert.Equal(t, http.StatusCreated, status, string(raw))
}

func TestReplenishment(t *testing.T) {
	app := buildTestApp(t, inventory.DeliveryOutbound)
	createProduct(t, app, `{"name":"Guante","price":"3.00","initial_stock":"4"}`)
	createProduct(t, app, `{"name":"Casco","price":"20.00","initial_stock":"50"}`)

	status, raw := do(t, app, http.MethodGet, "/api/inventory/replenishment?reorder_point=10", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var body struct {
		Total          int                              `json:"total"`
		Replenishments []dto.ReplenishmentSuggestionDTO `json:"replenishments"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "Guante", body.Replenishments[0].ProductName)
	assert.True(t, body.Replenishments[0].SuggestedOrderQty.Equal(d("11")))

	status, _ = do(t, app, http.MethodGet, "/api/inventory/replenishment", "")
	assert.Equal(t, http.StatusBadRequest, status)
}
