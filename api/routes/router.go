package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apexev/apexev-backend/api/controllers"
	"github.com/apexev/apexev-backend/api/middleware"
	"github.com/apexev/apexev-backend/internal/checklists"
	"github.com/apexev/apexev-backend/internal/notifications"
	"github.com/apexev/apexev-backend/pkg/config"
	"github.com/apexev/apexev-backend/pkg/enums"
	"github.com/apexev/apexev-backend/pkg/logger"
)

// Services bundles the domain services the HTTP surface exposes.
type Services struct {
	Notifications         notifications.Service
	NotificationTemplates notifications.TemplateService
	Checklists            checklists.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	services Services,
	metricsHandler http.Handler,
	readiness ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	manageChecklists := middleware.RequireAnyRole(logg, enums.UserRoleAdmin, enums.UserRoleBusinessManager)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/my-notifications", controllers.ListMyNotifications(services.Notifications, logg))
			r.Delete("/my-notifications", controllers.DeleteMyNotifications(services.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(services.Notifications, logg))
			r.Patch("/mark-all-read", controllers.MarkAllNotificationsRead(services.Notifications, logg))
			r.Patch("/{notificationId}/mark-read", controllers.MarkNotificationRead(services.Notifications, logg))
		})

		r.Route("/admin/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg,
				enums.UserRoleAdmin,
				enums.UserRoleBusinessManager,
				enums.UserRoleServiceAdvisor,
			))
			r.Post("/", controllers.SendNotification(services.Notifications, logg))
		})

		r.Route("/notification-templates", func(r chi.Router) {
			r.Get("/", controllers.ListNotificationTemplates(services.NotificationTemplates, logg))
			r.Get("/{templateId}", controllers.GetNotificationTemplate(services.NotificationTemplates, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, enums.UserRoleAdmin))
				r.Post("/", controllers.CreateNotificationTemplate(services.NotificationTemplates, logg))
				r.Put("/{templateId}", controllers.UpdateNotificationTemplate(services.NotificationTemplates, logg))
				r.Delete("/{templateId}", controllers.DeleteNotificationTemplate(services.NotificationTemplates, logg))
			})
		})

		r.Route("/service-checklist-items", func(r chi.Router) {
			r.Route("/service/{serviceId}", func(r chi.Router) {
				r.Get("/", controllers.ListServiceChecklistItems(services.Checklists, logg))
				r.Get("/active", controllers.ListActiveServiceChecklistItems(services.Checklists, logg))
				r.Get("/category/{category}", controllers.ListServiceChecklistItemsByCategory(services.Checklists, logg))
				r.Get("/count", controllers.CountServiceChecklistItems(services.Checklists, logg))
				r.Get("/exists", controllers.ServiceHasChecklistItems(services.Checklists, logg))
			})
			r.Get("/{itemId}", controllers.GetChecklistItem(services.Checklists, logg))

			r.Group(func(r chi.Router) {
				r.Use(manageChecklists)
				r.Post("/", controllers.CreateChecklistItem(services.Checklists, logg))
				r.Put("/{itemId}", controllers.UpdateChecklistItem(services.Checklists, logg))
				r.Delete("/{itemId}", controllers.DeleteChecklistItem(services.Checklists, logg))
				r.Patch("/{itemId}/toggle-active", controllers.ToggleChecklistItemActive(services.Checklists, logg))
			})
		})

		r.Route("/checklist-templates", func(r chi.Router) {
			r.Get("/", controllers.ListChecklistTemplates(services.Checklists, logg))
			r.Get("/service/{serviceId}", controllers.ChecklistTemplateForService(services.Checklists, logg))
			r.Get("/{templateId}", controllers.GetChecklistTemplate(services.Checklists, logg))

			r.Group(func(r chi.Router) {
				r.Use(manageChecklists)
				r.Post("/", controllers.CreateChecklistTemplate(services.Checklists, logg))
				r.Put("/{templateId}", controllers.UpdateChecklistTemplate(services.Checklists, logg))
				r.Delete("/{templateId}", controllers.DeleteChecklistTemplate(services.Checklists, logg))
			})
		})
	})

	return r
}
