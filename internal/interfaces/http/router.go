package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-api/internal/application/proposal"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProposalUC    *proposal.ProposalUseCase
	Companies     repository.CompanyRepository // nil = sin verificación de módulo
	RequireModule bool
	JWTSecret     string
	Log           *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	guards := []fiber.Handler{AuthMiddleware(deps.JWTSecret)}
	if deps.RequireModule && deps.Companies != nil {
		guards = append(guards, RequireModule(entity.ModuleInventory, deps.Companies, deps.Log))
	}

	// Proposals
	proposals := api.Group("/proposals", guards...)
	h := NewProposalHandler(deps.ProposalUC, deps.Log)
	reviewer := RequirePermission(entity.PermManageInventory)
	proposals.Post("/", h.Submit)
	proposals.Get("/", h.List)
	proposals.Get("/:id", h.GetByID)
	proposals.Put("/:id/approve", reviewer, h.Approve)
	proposals.Put("/:id/reject", reviewer, h.Reject)
}
