package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/inventory"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/domain/repository"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// InventoryHandler maneja salidas, entregas de órdenes y consultas del libro.
type InventoryHandler struct {
	engine        *inventory.StockEngine
	delivery      *inventory.OrderDeliveryUseCase
	movements     *inventory.MovementQueryUseCase
	replenishment *inventory.ReplenishmentUseCase
	errs          errorMapper
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	engine *inventory.StockEngine,
	delivery *inventory.OrderDeliveryUseCase,
	movements *inventory.MovementQueryUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		engine:        engine,
		delivery:      delivery,
		movements:     movements,
		replenishment: replenishment,
		errs:          newErrorMapper(log),
	}
}

// Allocate godoc
// @Summary      Registrar salida por nombre de producto
// @Description  Consume los lotes con ese nombre, mayor stock primero. Todo o nada.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationRequest  true  "product_name, quantity, order_id"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/allocations [post]
func (h *InventoryHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	err := h.engine.Allocate(c.UserContext(), inventory.AllocateInput{
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		OrderID:     in.OrderID,
		Note:        in.Note,
	})
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "salida registrada"})
}

// Deliver godoc
// @Summary      Entregar orden de proveedor
// @Description  Aplica todas las líneas en una transacción. Una orden ya entregada no se repite.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeliveryRequest  true  "order_id y líneas"
// @Success      201   {object}  dto.DeliveryResponse
// @Success      200   {object}  dto.DeliveryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/deliveries [post]
func (h *InventoryHandler) Deliver(c *fiber.Ctx) error {
	var in dto.DeliveryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order := &entity.SupplierOrder{ID: in.OrderID, SupplierID: in.SupplierID}
	for _, l := range in.Lines {
		order.Lines = append(order.Lines, entity.OrderLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	res, err := h.delivery.Deliver(c.UserContext(), order)
	if err != nil {
		return h.errs.write(c, err)
	}
	out := dto.DeliveryResponse{
		OrderID:   res.OrderID,
		Direction: string(h.delivery.Direction()),
		Delivered: res.Delivered,
		Movements: toMovementResponses(res.Movements),
	}
	status := fiber.StatusCreated
	if !res.Delivered {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// ListMovements godoc
// @Summary      Consultar libro de movimientos
// @Tags         inventory
// @Produce      json
// @Param        product_id  query  string  false  "ID del producto"
// @Param        order_id    query  string  false  "Referencia de orden"
// @Param        type        query  string  false  "INBOUND | OUTBOUND"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		OrderID:   c.Query("order_id"),
		Type:      entity.MovementType(c.Query("type")),
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badQuery(c, param)
		}
		*dst = &t
	}
	page, err := h.movements.List(c.UserContext(), filter, c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: toMovementResponses(page.Items),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: page.Total},
	})
}

// Reconcile godoc
// @Summary      Conciliar saldo contra libro
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	r, err := h.movements.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(dto.ReconciliationResponse{
		ProductID: r.ProductID,
		OnHand:    r.OnHand,
		Inbound:   r.Inbound,
		Outbound:  r.Outbound,
		Balanced:  r.Balanced,
	})
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Nombres de producto cuyo stock total está bajo el punto de reorden,
//
//	ordenados por salidas recientes.
//
// @Tags         inventory
// @Produce      json
// @Param        reorder_point  query  string  true   "Punto de reorden"
// @Param        days           query  int     false  "Ventana de salidas en días"  default(90)
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	rp, ok, err := queryDecimal(c, "reorder_point")
	if err != nil || !ok {
		return badQuery(c, "reorder_point")
	}
	days := c.QueryInt("days", 0)
	if days < 0 {
		return badQuery(c, "days")
	}
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), rp, time.Duration(days)*24*time.Hour)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

func toMovementResponses(ms []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, dto.MovementResponse{
			ID:        m.ID,
			Date:      m.Date,
			Type:      m.Type.String(),
			Quantity:  m.Quantity,
			UnitCost:  m.UnitCost,
			TotalCost: m.TotalCost().Round(2),
			ProductID: m.ProductID,
			OrderID:   m.OrderID,
			Note:      m.Note,
		})
	}
	return out
}
