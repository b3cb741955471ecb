package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rxguard-backend/api/controllers"
	"github.com/angelmondragon/rxguard-backend/api/middleware"
	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/internal/dosage"
	"github.com/angelmondragon/rxguard-backend/internal/interactions"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/internal/prescriptions"
	"github.com/angelmondragon/rxguard-backend/internal/reports"
	"github.com/angelmondragon/rxguard-backend/pkg/config"
	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/redis"
)

// reviewerRoles may sign off on a report when the actor token names a role.
var reviewerRoles = []string{"doctor", "pharmacist"}

// Services bundles the domain services the API exposes.
type Services struct {
	Catalog       *catalog.Service
	Dosage        *dosage.Service
	Interactions  *interactions.Service
	Prescriptions *prescriptions.Service
	Reports       *reports.Service
	Ledger        ledger.Service
}

// NewRouter mounts every route. cachePinger is nil when redis is disabled;
// metrics is nil when no registry is exposed.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	cachePinger redis.Pinger,
	metrics http.Handler,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, cachePinger, logg))
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Actor(cfg.Auth, logg),
			middleware.RateLimit(cfg.RateLimit, logg),
		)

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", controllers.MedicationSearch(svc.Catalog, logg))
			r.Post("/resolve", controllers.MedicationResolve(svc.Catalog, logg))
		})

		r.Post("/dosage/verify", controllers.DosageVerify(svc.Dosage, logg))
		r.Post("/interactions/check", controllers.InteractionsCheck(svc.Interactions, logg))

		r.Route("/prescriptions", func(r chi.Router) {
			r.Get("/{prescriptionId}", controllers.PrescriptionGet(svc.Prescriptions, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor(logg))
				r.Post("/", controllers.PrescriptionCreate(svc.Prescriptions, logg))
				r.Post("/{prescriptionId}/fulfill", controllers.PrescriptionFulfill(svc.Prescriptions, logg))
				r.Post("/{prescriptionId}/cancel", controllers.PrescriptionCancel(svc.Prescriptions, logg))
				r.Post("/{prescriptionId}/report", controllers.PrescriptionReport(svc.Reports, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportList(svc.Reports, logg))
			r.Get("/{reportId}", controllers.ReportGet(svc.Reports, logg))
			r.With(middleware.RequireActor(logg), middleware.RequireRole(logg, reviewerRoles...)).Post("/{reportId}/review", controllers.ReportReview(svc.Reports, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(middleware.RequireActor(logg)).Post("/adjust", controllers.InventoryAdjust(svc.Ledger, logg))
			r.Get("/low-stock", controllers.InventoryLowStock(svc.Ledger, logg))
			r.Get("/logs", controllers.InventoryLogs(svc.Ledger, logg))
			r.Get("/medications/{medicationId}/history", controllers.InventoryHistory(svc.Ledger, logg))
		})
	})

	return r
}
