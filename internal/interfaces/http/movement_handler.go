package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gestion-api/internal/application/dto"
	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain"
	"github.com/jhoicas/Gestion-api/internal/domain/entity"
	"github.com/jhoicas/Gestion-api/pkg/validator"
)

// MovementService operaciones de un tipo de movimiento; lo implementa *inventory.MovementUseCase.
type MovementService interface {
	Policy() inventory.Policy
	Create(ctx context.Context, userID string, in dto.CreateMovementRequest) (*dto.MovementResponse, error)
	Get(ctx context.Context, id string) (*dto.MovementResponse, error)
	List(ctx context.Context, in dto.MovementFilterRequest) (*dto.MovementListResponse, error)
	Annul(ctx context.Context, id string) (*dto.MovementResponse, error)
	Enable(ctx context.Context, id string) (*dto.MovementResponse, error)
	ChangeState(ctx context.Context, id string, in dto.ChangeStateRequest) (*dto.MovementResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateMovementRequest) (*dto.MovementResponse, error)
	Delete(ctx context.Context, id string) error
}

// ReceiptService comprobante PDF; lo implementa *inventory.ReceiptUseCase.
type ReceiptService interface {
	Download(ctx context.Context, kind entity.MovementKind, id string) ([]byte, string, error)
}

// MovementHandler maneja compras, ventas o abastecimientos según la política del servicio (protegido).
type MovementHandler struct {
	svc      MovementService
	receipts ReceiptService
	timeout  time.Duration
}

// NewMovementHandler construye el handler. timeout <= 0 no limita la petición.
func NewMovementHandler(svc MovementService, receipts ReceiptService, timeout time.Duration) *MovementHandler {
	return &MovementHandler{svc: svc, receipts: receipts, timeout: timeout}
}

// Register monta las rutas del recurso. Las escrituras exigen uno de writeRoles.
func (h *MovementHandler) Register(r fiber.Router, writeRoles ...string) {
	write := RequireRole(writeRoles...)
	r.Post("/", write, h.Create)
	r.Get("/", h.List)
	r.Get("/:id", h.GetByID)
	r.Get("/:id/pdf", h.DownloadPDF)
	r.Put("/:id", write, h.Update)
	r.Patch("/:id/annul", write, h.Annul)
	r.Patch("/:id/enable", write, h.Enable)
	if h.svc.Policy().HasState {
		r.Patch("/:id/state", write, h.ChangeState)
	}
	r.Delete("/:id", write, h.Delete)
}

func (h *MovementHandler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// Create godoc
// @Summary      Registrar movimiento (compra, venta o abastecimiento)
// @Description  Valida líneas y contraparte, calcula totales y aplica existencias en una transacción.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMovementRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
// @Router       /api/sales [post]
// @Router       /api/supplies [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if errs := validator.ValidateStruct(in); errs != nil {
		return validationFailed(c, errs)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.Create(ctx, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener movimiento con sus líneas
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.Get(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar movimientos
// @Description  Cabeceras sin líneas, más recientes primero.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        active           query  bool    false  "Solo activos / anulados"
// @Param        counterparty_id  query  string  false  "Proveedor, cliente o empleado"
// @Param        state_id         query  string  false  "Estado de proceso"
// @Param        from             query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to               query  string  false  "Hasta (RFC3339 o AAAA-MM-DD, inclusive)"
// @Param        limit            query  int     false  "Máx. 100"
// @Param        offset           query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	in, err := parseMovementFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.List(ctx, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar movimiento
// @Description  Reemplaza líneas y ajusta existencias por la diferencia con lo ya aplicado.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del movimiento"
// @Param        body  body  dto.UpdateMovementRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if errs := validator.ValidateStruct(in); errs != nil {
		return validationFailed(c, errs)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.Update(ctx, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Annul godoc
// @Summary      Anular movimiento
// @Description  Revierte el efecto aplicado. Idempotente.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/annul [patch]
func (h *MovementHandler) Annul(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.Annul(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Enable godoc
// @Summary      Habilitar movimiento anulado
// @Description  Vuelve a aplicar el efecto si el estado lo exige. Idempotente.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/enable [patch]
func (h *MovementHandler) Enable(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.Enable(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangeState godoc
// @Summary      Cambiar estado de proceso
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la venta"
// @Param        body  body  dto.ChangeStateRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/state [patch]
func (h *MovementHandler) ChangeState(c *fiber.Ctx) error {
	var in dto.ChangeStateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if errs := validator.ValidateStruct(in); errs != nil {
		return validationFailed(c, errs)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	out, err := h.svc.ChangeState(ctx, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar movimiento
// @Description  Revierte lo aplicado y borra cabecera y líneas. 409 si está referenciado.
// @Tags         movements
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/supplies/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.svc.Delete(ctx, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadPDF godoc
// @Summary      Comprobante PDF del movimiento
// @Tags         movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/pdf [get]
func (h *MovementHandler) DownloadPDF(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	data, filename, err := h.receipts.Download(ctx, h.svc.Policy().Kind, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func parseMovementFilter(c *fiber.Ctx) (dto.MovementFilterRequest, error) {
	in := dto.MovementFilterRequest{
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		},
		CounterpartyID: c.Query("counterparty_id"),
		StateID:        c.Query("state_id"),
	}
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return in, domain.NewInvalidInput("INVALID_FILTER", "active debe ser true o false")
		}
		in.Active = &v
	}
	var err error
	if in.From, err = parseDateParam(c.Query("from"), false); err != nil {
		return in, domain.NewInvalidInput("INVALID_FILTER", "from inválido").WithDetail("from", c.Query("from"))
	}
	if in.To, err = parseDateParam(c.Query("to"), true); err != nil {
		return in, domain.NewInvalidInput("INVALID_FILTER", "to inválido").WithDetail("to", c.Query("to"))
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return in, domain.NewInvalidInput("INVALID_FILTER", "to es anterior a from")
	}
	return in, nil
}

// parseDateParam acepta RFC3339 o AAAA-MM-DD; con endOfDay una fecha sola cubre el día completo.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
