package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/gatepass-backend/api/controllers"
	"github.com/angelmondragon/gatepass-backend/api/middleware"
	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
)

const (
	photoDownloadPath = "/api/v1/media/photos"
	scanFormOverhead  = 1 << 20
)

// RedisStore backs HTTP idempotency and scan rate limiting.
type RedisStore interface {
	middleware.ResponseStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies is everything the HTTP surface dispatches to.
type Dependencies struct {
	Readiness     map[string]controllers.Pinger
	Redis         RedisStore
	GatePasses    controllers.GatePassService
	Photos        controllers.PhotoService
	QR            controllers.QRSource
	Exporter      controllers.Exporter
	Notifications notifications.Service
	Metrics       http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Actor(cfg.App.DefaultActor, logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	idempotent := middleware.Idempotency(deps.Redis, logg)
	scanPolicy := middleware.NewRateLimitPolicy("gate-scan", cfg.RateLimit.ScanWindow, cfg.RateLimit.ScanLimit)
	scanLimited := middleware.RateLimit(scanPolicy, deps.Redis, logg)
	maxUpload := cfg.Media.MaxUploadBytes()
	// bounds what idempotency buffers; the extra MiB covers the other form fields
	scanBody := chimiddleware.RequestSize(maxUpload + scanFormOverhead)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(idempotent).Post("/hr/gatepasses", controllers.HRCreateGatePass(deps.GatePasses, logg))
		r.Get("/hr/gatepasses", controllers.HRListGatePasses(deps.GatePasses, logg))

		r.Route("/gatepasses", func(r chi.Router) {
			r.Get("/number/{passNumber}", controllers.GetGatePassByNumber(deps.GatePasses, logg))
			r.Get("/{gatepassId}", controllers.GetGatePass(deps.GatePasses, logg))
		})

		r.Get("/admin/gatepasses", controllers.AdminListGatePasses(deps.GatePasses, logg))
		r.Get("/admin/gatepasses/pending", controllers.AdminPendingGatePasses(deps.GatePasses, logg))
		r.Get("/admin/gatepasses/export", controllers.AdminExportGatePasses(deps.Exporter, logg))
		r.With(idempotent).Post("/admin/gatepasses/{gatepassId}/approve", controllers.AdminApproveGatePass(deps.GatePasses, logg))
		r.With(idempotent).Post("/admin/gatepasses/{gatepassId}/reject", controllers.AdminRejectGatePass(deps.GatePasses, logg))

		r.Route("/gate", func(r chi.Router) {
			r.With(scanLimited, scanBody, idempotent).Post("/scan-exit", controllers.GateScanExit(deps.GatePasses, maxUpload, logg))
			r.With(scanLimited, scanBody, idempotent).Post("/scan-return", controllers.GateScanReturn(deps.GatePasses, maxUpload, logg))
			r.Get("/photos/{passNumber}", controllers.GatePhotos(deps.Photos, photoDownloadPath, logg))
		})

		r.Get("/media/photos/{photoId}", controllers.PhotoDownload(deps.Photos, logg))
		r.Get("/qr/{passNumber}", controllers.QRImage(deps.QR, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/{audience}/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Get("/{audience}", controllers.ListNotifications(deps.Notifications, logg))
		})
	})

	return r
}
