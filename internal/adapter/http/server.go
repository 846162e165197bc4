package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ncastro/finanzas-backend/internal/usecase/ledger"
	"github.com/ncastro/finanzas-backend/internal/usecase/patrimony"
	"github.com/ncastro/finanzas-backend/internal/usecase/period"
	"github.com/ncastro/finanzas-backend/internal/usecase/projection"
)

// Server exposes the use case services over HTTP
type Server struct {
	LedgerService     *ledger.Service
	PeriodService     *period.Service
	ProjectionService *projection.Service
	PatrimonyService  *patrimony.Service
}

// NewServer creates a new HTTP server instance
func NewServer(
	ledgerService *ledger.Service,
	periodService *period.Service,
	projectionService *projection.Service,
	patrimonyService *patrimony.Service,
) *Server {
	return &Server{
		LedgerService:     ledgerService,
		PeriodService:     periodService,
		ProjectionService: projectionService,
		PatrimonyService:  patrimonyService,
	}
}

// RegisterRoutes mounts all API routes on the fiber app
func (s *Server) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/movements", s.AddMovement)
	api.Patch("/movements/:id", s.UpdateMovement)
	api.Delete("/movements/:id", s.DeleteMovement)
	api.Post("/movements/:id/toggle", s.ToggleMovementStatus)

	api.Get("/periods/:year/:month", s.GetMonthSummary)
	api.Get("/periods/:year/:month/movements", s.ListMovements)
	api.Post("/periods/:year/:month/close/start", s.StartClosing)
	api.Post("/periods/:year/:month/close/cancel", s.CancelClosing)
	api.Post("/periods/:year/:month/close/confirm", s.ConfirmClose)

	api.Get("/concepts", s.ListConcepts)
	api.Post("/concepts", s.CreateConcept)
	api.Patch("/concepts/:id/nature", s.ReclassifyConcept)

	api.Get("/funds/:id/tramos", s.ListTramos)
	api.Post("/funds/:id/tramos", s.AddTramo)
	api.Get("/funds/:id/projection", s.ProjectFund)

	api.Get("/assets", s.ListAssets)
	api.Post("/assets", s.RegisterAsset)
	api.Get("/assets/:id/valuations", s.ListValuations)
	api.Post("/assets/:id/valuations", s.AddValuation)
	api.Post("/assets/:id/installments", s.PayInstallment)

	api.Get("/networth", s.GetNetWorth)
}
