package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/application/usecase"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// ProductHandler maneja las peticiones HTTP del catálogo.
type ProductHandler struct {
	uc   *usecase.ProductUseCase
	errs errorMapper
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase, log *logger.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, errs: newErrorMapper(log)}
}

// Create godoc
// @Summary      Crear producto
// @Description  initial_stock > 0 genera una entrada al costo = precio.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), page)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(out)
}

// Search godoc
// @Summary      Buscar productos
// @Tags         products
// @Produce      json
// @Param        name         query  string  false  "Nombre contiene (sin mayúsculas)"
// @Param        category     query  string  false  "Categoría"
// @Param        min_price    query  string  false  "Precio mínimo"
// @Param        max_price    query  string  false  "Precio máximo"
// @Param        stock_below  query  string  false  "Stock menor que"
// @Param        stock_above  query  string  false  "Stock mayor que"
// @Success      200  {object}  dto.ProductListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/search [get]
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	in := dto.ProductSearchRequest{
		Name:        c.Query("name"),
		Category:    c.Query("category"),
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
	}
	for param, dst := range map[string]**decimal.Decimal{
		"min_price":   &in.MinPrice,
		"max_price":   &in.MaxPrice,
		"stock_below": &in.StockBelow,
		"stock_above": &in.StockAbove,
	} {
		v, ok, err := queryDecimal(c, param)
		if err != nil {
			return badQuery(c, param)
		}
		if ok {
			*dst = &v
		}
	}
	out, err := h.uc.Search(c.UserContext(), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  Solo datos de catálogo; stock y costo cambian con movimientos.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Tags         products
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.errs.write(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Restock godoc
// @Summary      Registrar entrada de stock
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.ReceiptRequest  true  "quantity > 0, unit_cost >= 0"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/receipts [post]
func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Restock(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.errs.write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// queryDecimal lee un parámetro decimal opcional.
func queryDecimal(c *fiber.Ctx, param string) (decimal.Decimal, bool, error) {
	raw := c.Query(param)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return v, true, nil
}
