package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/proposal"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// ProposalHandler maneja las peticiones HTTP de propuestas (protegido).
type ProposalHandler struct {
	uc  *proposal.ProposalUseCase
	log *logger.Logger
}

// NewProposalHandler construye el handler.
func NewProposalHandler(uc *proposal.ProposalUseCase, log *logger.Logger) *ProposalHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProposalHandler{uc: uc, log: log.Component("http.proposals")}
}

// Submit godoc
// @Summary      Enviar propuesta de creación o modificación de producto
// @Description  companyId y storeId se derivan del usuario autenticado. Sin targetId la propuesta crea un producto.
// @Tags         proposals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SubmitProposalRequest  true  "Propuesta"
// @Success      201   {object}  dto.ProposalEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/proposals [post]
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	caller, ok := GetCaller(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.SubmitProposalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Submit(c.UserContext(), caller, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ProposalEnvelope{Message: "propuesta enviada", Proposal: *out})
}

// List godoc
// @Summary      Listar propuestas dentro del alcance del usuario
// @Tags         proposals
// @Security     Bearer
// @Produce      json
// @Param        page       query     int     false  "Página (1..)"
// @Param        limit      query     int     false  "Tamaño de página (máx. 100)"
// @Param        status     query     string  false  "pending | approved | rejected"
// @Param        companyId  query     string  false  "Solo super_admin"
// @Param        storeId    query     string  false  "super_admin y company_admin"
// @Success      200        {object}  dto.ProposalListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      403        {object}  dto.ErrorResponse
// @Router       /api/proposals [get]
func (h *ProposalHandler) List(c *fiber.Ctx) error {
	caller, ok := GetCaller(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ListProposalsRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.List(c.UserContext(), caller, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener propuesta por ID
// @Tags         proposals
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la propuesta"
// @Success      200  {object}  dto.ProposalResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/proposals/{id} [get]
func (h *ProposalHandler) GetByID(c *fiber.Ctx) error {
	caller, ok := GetCaller(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar propuesta
// @Description  Crea o actualiza el producto y marca la propuesta como aprobada. Requiere canManageInventory.
// @Tags         proposals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true   "ID de la propuesta"
// @Param        body  body      dto.ReviewProposalRequest  false  "Comentario opcional"
// @Success      200   {object}  dto.ProposalEnvelope
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/proposals/{id}/approve [put]
func (h *ProposalHandler) Approve(c *fiber.Ctx) error {
	caller, ok := GetCaller(c)
	if !ok {
		return unauthorized(c)
	}
	in, err := h.review(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	out, err := h.uc.Approve(c.UserContext(), caller, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ProposalEnvelope{Message: "propuesta aprobada", Proposal: out.Proposal, Product: &out.Product})
}

// Reject godoc
// @Summary      Rechazar propuesta
// @Description  Sin motivo se registra "unspecified". Requiere canManageInventory.
// @Tags         proposals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true   "ID de la propuesta"
// @Param        body  body      dto.ReviewProposalRequest  false  "Motivo"
// @Success      200   {object}  dto.ProposalEnvelope
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/proposals/{id}/reject [put]
func (h *ProposalHandler) Reject(c *fiber.Ctx) error {
	caller, ok := GetCaller(c)
	if !ok {
		return unauthorized(c)
	}
	in, err := h.review(c)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}
	out, err := h.uc.Reject(c.UserContext(), caller, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ProposalEnvelope{Message: "propuesta rechazada", Proposal: *out})
}

// review lee el cuerpo opcional de aprobación/rechazo. Devuelve nil si ya respondió con error.
func (h *ProposalHandler) review(c *fiber.Ctx) (*dto.ReviewProposalRequest, error) {
	var in dto.ReviewProposalRequest
	if len(c.Body()) == 0 {
		return &in, nil
	}
	if err := c.BodyParser(&in); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate(in); err != nil {
		return nil, writeError(c, h.log, err)
	}
	return &in, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no autenticado"})
}
