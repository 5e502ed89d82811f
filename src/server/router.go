package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	logger "github.com/sirupsen/logrus"

	"halalinvest/src/account"
	"halalinvest/src/auth"
	"halalinvest/src/catalog"
	"halalinvest/src/deposit"
	"halalinvest/src/handler"
	"halalinvest/src/repository"
	"halalinvest/src/stream"
)

// App groups the long lived components the HTTP routes are served from.
type App struct {
	Catalog    *catalog.Catalog
	Accounts   *account.Registry
	Users      *repository.UserRepository
	Deposits   *deposit.Service
	Exceptions *repository.ExceptionRepository
	Hub        *stream.Hub
}

// NewRouter mounts every route of the API on a chi router.
func NewRouter(app *App, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write failed")
		}
	})
	r.Get("/ws/prices", app.Hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/register", handler.RegisterHandler(app.Users, app.Accounts))
		r.Post("/login", handler.LoginHandler(app.Users))
		r.Get("/instruments", handler.ListInstrumentsHandler(app.Catalog))
		r.Get("/instruments/{symbol}", handler.GetInstrumentHandler(app.Catalog))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(app.Users))

			r.Get("/profile", handler.ProfileHandler(app.Accounts))
			r.Put("/profile", handler.UpdateUserHandler(app.Users))
			r.Put("/change-password", handler.ChangePasswordHandler(app.Users))
			r.Get("/referral", handler.ReferralHandler(app.Users, app.Accounts))

			r.Get("/balance", handler.BalanceHandler(app.Accounts))
			r.Get("/positions", handler.PositionsHandler(app.Accounts))
			r.Get("/transactions", handler.TransactionsHandler(app.Accounts))
			r.Get("/dashboard", handler.DashboardHandler(app.Accounts))
			r.Post("/orders", handler.PlaceOrderHandler(app.Accounts))

			r.Post("/deposits", handler.CreateDepositHandler(app.Deposits))
			r.Get("/deposits", handler.ListDepositsHandler(app.Deposits))
			r.Post("/withdrawals", handler.CreateWithdrawalHandler(app.Deposits))

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/deposits/pending", handler.PendingDepositsHandler(app.Deposits))
				r.Post("/deposits/{id}/complete", handler.CompleteDepositHandler(app.Deposits))
				r.Post("/deposits/{id}/reject", handler.RejectDepositHandler(app.Deposits))
				r.Get("/exceptions", handler.ExceptionsHandler(app.Exceptions))
			})
		})
	})

	return r
}
