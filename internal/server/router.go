package server

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/avbottsubscription-dev/canteencouponang/internal/config"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	employees handler.EmployeeHandler,
	contractors handler.ContractorHandler,
	coupons handler.CouponHandler,
	guests handler.GuestHandler,
	notifications handler.NotificationHandler,
	punches handler.PunchHandler,
	dashboard handler.DashboardHandler,
	menus handler.MenuHandler,
	email handler.EmailHandler,
	devices handler.DeviceHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		auth.RegisterProtectedRoutes(pr)

		// any authenticated employee
		pr.Group(func(er chi.Router) {
			er.Use(RequireRole(domain.RoleAdmin, domain.RoleEmployee, domain.RoleContractual, domain.RoleCanteenManager))
			coupons.RegisterEmployeeRoutes(er)
			guests.RegisterEmployeeRoutes(er)
			notifications.RegisterRoutes(er)
			menus.RegisterRoutes(er)
			devices.RegisterRoutes(er)
		})

		// canteen desk (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleCanteenManager))
			coupons.RegisterRedeemRoutes(mr)
			punches.RegisterRoutes(mr)
			dashboard.RegisterRoutes(mr)
			menus.RegisterManageRoutes(mr)
		})

		// admin-level
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleAdmin))
			employees.RegisterRoutes(ar)
			contractors.RegisterRoutes(ar)
			coupons.RegisterAdminRoutes(ar)
			guests.RegisterAdminRoutes(ar)
			email.RegisterRoutes(ar)
		})

		// contractor portal
		pr.Group(func(cr chi.Router) {
			cr.Use(RequireContractor())
			coupons.RegisterContractorRoutes(cr)
		})
	})

	return r
}
